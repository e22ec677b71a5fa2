package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombinedIdentity_ExactFormat(t *testing.T) {
	got := combinedIdentity("src/a.go", 1, 10, "package a")
	assert.Equal(t, "src/a.go:1:10:package a", got)
}

func TestOpaqueChunkID_Deterministic(t *testing.T) {
	id1 := opaqueChunkID("src/a.go", 1, 10, "package a")
	id2 := opaqueChunkID("src/a.go", 1, 10, "package a")
	assert.Equal(t, id1, id2)
	assert.Len(t, id1, len("chunk_")+16)

	sum := sha256.Sum256([]byte("src/a.go:1:10:package a"))
	want := "chunk_" + hex.EncodeToString(sum[:])[:16]
	assert.Equal(t, want, id1)
}

func TestOpaqueChunkID_DifferentInputsDifferentIDs(t *testing.T) {
	a := opaqueChunkID("src/a.go", 1, 10, "package a")
	b := opaqueChunkID("src/b.go", 1, 10, "package a")
	assert.NotEqual(t, a, b)
}

func TestUUIDChunkID_DeterministicAndWellFormed(t *testing.T) {
	id1 := uuidChunkID("src/a.go", 1, 10, "package a")
	id2 := uuidChunkID("src/a.go", 1, 10, "package a")
	assert.Equal(t, id1, id2)
	assert.Len(t, id1, 36) // 8-4-4-4-12
	assert.Equal(t, byte('4'), id1[14], "version nibble must be 4")
}

func TestChunkID_SelectsStyle(t *testing.T) {
	opaque := chunkID(IDStyleOpaque, "a.go", 1, 2, "x")
	uid := chunkID(IDStyleUUID, "a.go", 1, 2, "x")
	assert.Contains(t, opaque, "chunk_")
	assert.Len(t, uid, 36)
}
