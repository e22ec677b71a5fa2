package indexer

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// combinedIdentity builds the exact string spec.md §4.7.2 defines chunk
// identity over: "{relative_path}:{start_line}:{end_line}:{content}".
func combinedIdentity(relativePath string, startLine, endLine int, content string) string {
	return fmt.Sprintf("%s:%d:%d:%s", relativePath, startLine, endLine, content)
}

// opaqueChunkID is "chunk_" plus the first 16 hex characters of the
// combined identity's sha256 digest, for stores that accept opaque
// string ids.
func opaqueChunkID(relativePath string, startLine, endLine int, content string) string {
	sum := sha256.Sum256([]byte(combinedIdentity(relativePath, startLine, endLine, content)))
	return "chunk_" + hex.EncodeToString(sum[:])[:16]
}

// uuidChunkID derives a deterministic UUID from the combined identity's
// md5 digest: the 16 hash bytes are stamped with the version-4/variant-1
// bits and formatted 8-4-4-4-12, per spec.md's uuid_v4_from_bytes(md5(...)).
// This intentionally does not use uuid.NewMD5, which mints an RFC 4122
// version-3 (md5-namespace) UUID instead of a version-4-shaped one.
func uuidChunkID(relativePath string, startLine, endLine int, content string) string {
	sum := md5.Sum([]byte(combinedIdentity(relativePath, startLine, endLine, content)))
	sum[6] = (sum[6] & 0x0f) | 0x40
	sum[8] = (sum[8] & 0x3f) | 0x80
	id := uuid.UUID(sum)
	return id.String()
}

// chunkID picks the identity convention a collection's IDStyle requires.
func chunkID(style IDStyle, relativePath string, startLine, endLine int, content string) string {
	if style == IDStyleUUID {
		return uuidChunkID(relativePath, startLine, endLine, content)
	}
	return opaqueChunkID(relativePath, startLine, endLine, content)
}
