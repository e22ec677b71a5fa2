package indexer

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

type merkleDAGWire struct {
	Nodes   json.RawMessage `json:"nodes"`
	RootIDs []string        `json:"rootIds"`
}

type merkleSnapshotWire struct {
	CodebaseRoot string          `json:"codebaseRoot,omitempty"`
	FileHashes   json.RawMessage `json:"fileHashes"`
	MerkleDAG    merkleDAGWire   `json:"merkleDAG"`
	UpdatedAt    time.Time       `json:"updatedAt,omitempty"`
}

// MarshalJSON writes the wire shape from spec.md §6: fileHashes and
// merkleDAG.nodes as ordered [key, value] pair lists, rootIds as a list
// (this implementation ever persists exactly one root).
func (s MerkleSnapshot) MarshalJSON() ([]byte, error) {
	fileHashes := make([][2]string, 0, len(s.Files))
	for path, hash := range s.Files {
		fileHashes = append(fileHashes, [2]string{path, hash})
	}
	sort.Slice(fileHashes, func(i, j int) bool { return fileHashes[i][0] < fileHashes[j][0] })

	ids := make([]string, 0, len(s.Nodes))
	for id := range s.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	nodes := make([][2]any, 0, len(s.Nodes))
	for _, id := range ids {
		nodes = append(nodes, [2]any{id, s.Nodes[id]})
	}

	return json.Marshal(struct {
		CodebaseRoot string        `json:"codebaseRoot,omitempty"`
		FileHashes   [][2]string   `json:"fileHashes"`
		MerkleDAG    struct {
			Nodes   [][2]any `json:"nodes"`
			RootIDs []string `json:"rootIds"`
		} `json:"merkleDAG"`
		UpdatedAt time.Time `json:"updatedAt,omitempty"`
	}{
		CodebaseRoot: s.CodebaseRoot,
		FileHashes:   fileHashes,
		MerkleDAG: struct {
			Nodes   [][2]any `json:"nodes"`
			RootIDs []string `json:"rootIds"`
		}{Nodes: nodes, RootIDs: []string{s.RootID}},
		UpdatedAt: s.UpdatedAt,
	})
}

// UnmarshalJSON accepts the spec's pair-list wire form for both
// fileHashes and merkleDAG.nodes, and also migrates a legacy map-keyed
// encoding of either field if one is encountered (the canonical in-memory
// form is always a map, regardless of which encoding was read).
func (s *MerkleSnapshot) UnmarshalJSON(data []byte) error {
	var wire merkleSnapshotWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	s.CodebaseRoot = wire.CodebaseRoot
	s.UpdatedAt = wire.UpdatedAt

	files, err := decodePairsOrMap[string](wire.FileHashes)
	if err != nil {
		return fmt.Errorf("decode fileHashes: %w", err)
	}
	s.Files = files

	rawNodes, err := decodePairsOrMapRaw(wire.MerkleDAG.Nodes)
	if err != nil {
		return fmt.Errorf("decode merkleDAG.nodes: %w", err)
	}
	nodes := make(map[string]MerkleNode, len(rawNodes))
	for id, raw := range rawNodes {
		var n MerkleNode
		if err := json.Unmarshal(raw, &n); err != nil {
			return fmt.Errorf("decode merkleDAG node %s: %w", id, err)
		}
		nodes[id] = n
	}
	s.Nodes = nodes

	if len(wire.MerkleDAG.RootIDs) > 0 {
		s.RootID = wire.MerkleDAG.RootIDs[0]
	}
	return nil
}

// decodePairsOrMap decodes a JSON value that may be either a pair-list
// ([[key, value], ...]) or a legacy object ({"key": value, ...}) into a
// map, which is this implementation's canonical in-memory form.
func decodePairsOrMap[V any](raw json.RawMessage) (map[string]V, error) {
	if len(raw) == 0 {
		return map[string]V{}, nil
	}

	var asPairs [][2]json.RawMessage
	if err := json.Unmarshal(raw, &asPairs); err == nil {
		out := make(map[string]V, len(asPairs))
		for _, p := range asPairs {
			var key string
			if err := json.Unmarshal(p[0], &key); err != nil {
				return nil, err
			}
			var val V
			if err := json.Unmarshal(p[1], &val); err != nil {
				return nil, err
			}
			out[key] = val
		}
		return out, nil
	}

	var asMap map[string]V
	if err := json.Unmarshal(raw, &asMap); err != nil {
		return nil, err
	}
	return asMap, nil
}

// decodePairsOrMapRaw is decodePairsOrMap with json.RawMessage values, used
// when the value type needs a second decoding pass (MerkleNode).
func decodePairsOrMapRaw(raw json.RawMessage) (map[string]json.RawMessage, error) {
	return decodePairsOrMap[json.RawMessage](raw)
}

// hashFile returns the hex sha256 digest of a file's contents.
func hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// BuildSnapshot walks root (applying ignore rules and dot-directory
// pruning, per spec.md's note that the synchronizer applies both) and
// produces a fresh MerkleSnapshot: a flat relative-path-to-hash map and
// the two-level DAG (one root node, one leaf per file) built over it.
func BuildSnapshot(ctx context.Context, root string, ignore *IgnoreMatcher, extensions []string) (*MerkleSnapshot, error) {
	w := NewWalker(root, extensions, ignore)
	w.SkipDotDirs = true

	absFiles, err := w.Walk(ctx)
	if err != nil {
		return nil, newTerminalError(KindSnapshotError, "walk failed while building snapshot", err)
	}

	files := make(map[string]string, len(absFiles))
	insertionOrder := make([]string, 0, len(absFiles))
	for _, abs := range absFiles {
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			return nil, newTerminalError(KindSnapshotError, "relative path computation failed", err)
		}
		rel = filepath.ToSlash(rel)
		hash, err := hashFile(abs)
		if err != nil {
			return nil, newTerminalError(KindSnapshotError, "hashing failed for "+rel, err)
		}
		files[rel] = hash
		insertionOrder = append(insertionOrder, rel)
	}

	nodes, rootID := buildDAG(files, insertionOrder)

	return &MerkleSnapshot{
		CodebaseRoot: root,
		Files:        files,
		Nodes:        nodes,
		RootID:       rootID,
		UpdatedAt:    time.Now(),
	}, nil
}

// buildDAG derives the two-level snapshot DAG over a flat file hash map,
// per spec.md §3/§4.4: one leaf MerkleNode per file (Data = the file's
// content hash) and a single root MerkleNode whose Data is
// "root:" followed by every file hash concatenated in insertion order.
// Every node's ID is the hex sha256 digest of its own Data, matching the
// spec's id = hash(data). insertionOrder fixes the order file hashes are
// concatenated in; it need not be sorted (the diff algorithm never
// depends on root_data's ordering).
func buildDAG(files map[string]string, insertionOrder []string) (map[string]MerkleNode, string) {
	nodes := make(map[string]MerkleNode, len(files)+1)

	var rootData strings.Builder
	rootData.WriteString("root:")
	for _, rel := range insertionOrder {
		rootData.WriteString(files[rel])
	}
	rootID := hashData(rootData.String())

	children := make([]string, 0, len(files))
	for _, rel := range insertionOrder {
		leafData := files[rel]
		leafID := hashData(leafData)
		nodes[leafID] = MerkleNode{
			ID:      leafID,
			Data:    leafData,
			Parents: []string{rootID},
		}
		children = append(children, leafID)
	}

	nodes[rootID] = MerkleNode{
		ID:       rootID,
		Data:     rootData.String(),
		Children: children,
	}

	return nodes, rootID
}

// hashData returns the hex sha256 digest of data, the id = hash(data)
// rule spec.md §3 defines for every MerkleNode.
func hashData(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// DiffSnapshots compares two snapshots' flat file maps and returns the
// added/removed/modified relative paths.
func DiffSnapshots(oldSnap, newSnap *MerkleSnapshot) SyncDiff {
	var diff SyncDiff

	oldFiles := map[string]string{}
	if oldSnap != nil {
		oldFiles = oldSnap.Files
	}
	newFiles := map[string]string{}
	if newSnap != nil {
		newFiles = newSnap.Files
	}

	for rel, hash := range newFiles {
		oldHash, existed := oldFiles[rel]
		if !existed {
			diff.Added = append(diff.Added, rel)
		} else if oldHash != hash {
			diff.Modified = append(diff.Modified, rel)
		}
	}
	for rel := range oldFiles {
		if _, stillPresent := newFiles[rel]; !stillPresent {
			diff.Removed = append(diff.Removed, rel)
		}
	}

	sort.Strings(diff.Added)
	sort.Strings(diff.Removed)
	sort.Strings(diff.Modified)
	return diff
}

// SnapshotPath returns the persisted snapshot file path for a codebase
// root: <home>/.context/merkle/<md5(abs_path)>.json.
func SnapshotPath(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	sum := md5.Sum([]byte(abs))
	name := hex.EncodeToString(sum[:]) + ".json"
	return filepath.Join(home, MerkleSnapshotDirRelPath, name), nil
}

// LoadSnapshot reads the persisted snapshot for root, if any.
func LoadSnapshot(root string) (*MerkleSnapshot, bool, error) {
	p, err := SnapshotPath(root)
	if err != nil {
		return nil, false, err
	}
	var snap MerkleSnapshot
	found, err := readJSON(p, &snap)
	if err != nil || !found {
		return nil, found, err
	}
	return &snap, true, nil
}

// SaveSnapshot persists snap atomically.
func SaveSnapshot(snap *MerkleSnapshot) error {
	p, err := SnapshotPath(snap.CodebaseRoot)
	if err != nil {
		return err
	}
	return writeJSONAtomic(p, snap)
}
