package vectorindex

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/coder/hnsw"

	"github.com/cqs-dev/cqs/internal/cqserrors"
)

// Four-file layout under a shared path prefix, per spec §4.3/§6.
func graphPath(prefix string) string    { return prefix + ".graph" }
func dataPath(prefix string) string     { return prefix + ".data" }
func idsPath(prefix string) string      { return prefix + ".ids" }
func checksumPath(prefix string) string { return prefix + ".checksum" }

// Save persists the index under prefix (e.g. "<project>/.cqs/hnsw"),
// writing all four files into a per-index temp directory first and
// renaming each into place only after every payload digest is known,
// with the checksum manifest written last (spec §4.3). Grounded on the
// teacher's Save (temp file + os.Rename), generalised from one file to
// four plus the digest manifest.
func (idx *Index) Save(prefix string) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return cqserrors.New(cqserrors.KindVectorIndex, "index is closed")
	}

	dir := filepath.Dir(prefix)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return cqserrors.Wrap(cqserrors.KindIO, "create index directory", err)
	}

	tmpDir, err := os.MkdirTemp(dir, ".vectorindex-*")
	if err != nil {
		return cqserrors.Wrap(cqserrors.KindIO, "create temp dir for index save", err)
	}
	defer os.RemoveAll(tmpDir)

	graphBytes, err := idx.exportGraph()
	if err != nil {
		return err
	}
	dataBytes := idx.exportVectorData()
	idsBytes, err := idx.exportIDs()
	if err != nil {
		return err
	}

	payloads := map[string][]byte{"graph": graphBytes, "data": dataBytes, "ids": idsBytes}
	digests := make(map[string]string, 3)
	for _, name := range manifestFiles {
		tmpFile := filepath.Join(tmpDir, name)
		if err := os.WriteFile(tmpFile, payloads[name], 0o600); err != nil {
			return cqserrors.Wrap(cqserrors.KindIO, "write temp "+name+" file", err)
		}
		digests[name] = blake3Hex(payloads[name])
	}

	checksumTmp := filepath.Join(tmpDir, "checksum")
	if err := os.WriteFile(checksumTmp, []byte(buildManifest(digests)), 0o600); err != nil {
		return cqserrors.Wrap(cqserrors.KindIO, "write temp checksum file", err)
	}

	// Payload files first, checksum manifest last: a crash between these
	// renames leaves either no manifest (load sees a missing file and
	// rebuilds) or a complete, verifiable set, never a manifest that
	// outruns its payloads.
	if err := atomicRename(filepath.Join(tmpDir, "graph"), graphPath(prefix)); err != nil {
		return err
	}
	if err := atomicRename(filepath.Join(tmpDir, "data"), dataPath(prefix)); err != nil {
		return err
	}
	if err := atomicRename(filepath.Join(tmpDir, "ids"), idsPath(prefix)); err != nil {
		return err
	}
	return atomicRename(checksumTmp, checksumPath(prefix))
}

// maxIDMapBytes bounds the raw JSON size of the ids file a Load call
// will accept, per spec §4.3: "ID-map size is bounded (≤ 500 MB raw
// JSON) to refuse pathological inputs."
const maxIDMapBytes = 500 * 1024 * 1024

// Load reads and verifies all four files under prefix, rebuilding the
// in-memory graph and id maps. Any digest mismatch or structural defect
// fails fast with KindVectorIndex rather than returning a partially
// usable index (spec P9).
func Load(prefix string, cfg Config) (*Index, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	manifestRaw, err := os.ReadFile(checksumPath(prefix))
	if err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindIO, "read checksum manifest", err)
	}
	digests, err := parseManifest(string(manifestRaw))
	if err != nil {
		return nil, err
	}
	if err := verifyManifestDigest(digests); err != nil {
		return nil, err
	}

	paths := map[string]string{"graph": graphPath(prefix), "data": dataPath(prefix), "ids": idsPath(prefix)}
	for _, name := range manifestFiles {
		if err := verifyPayloadDigest(paths[name], digests[name]); err != nil {
			return nil, err
		}
	}

	idsRaw, err := os.ReadFile(paths["ids"])
	if err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindIO, "read ids file", err)
	}
	if len(idsRaw) > maxIDMapBytes {
		return nil, cqserrors.New(cqserrors.KindVectorIndex, "ids file exceeds maximum size").
			WithDetail("limit_bytes", strconv.Itoa(maxIDMapBytes)).
			WithDetail("actual_bytes", strconv.Itoa(len(idsRaw)))
	}
	var ids []string
	if err := json.Unmarshal(idsRaw, &ids); err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindVectorIndex, "decode ids file", err)
	}

	dataRaw, err := os.ReadFile(paths["data"])
	if err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindIO, "read data file", err)
	}
	wantLen := len(ids) * cfg.Dimensions * 4
	if len(dataRaw) != wantLen {
		return nil, cqserrors.New(cqserrors.KindVectorIndex, "data file length does not match ids count × dimensions").
			WithDetail("expected_bytes", strconv.Itoa(wantLen)).
			WithDetail("actual_bytes", strconv.Itoa(len(dataRaw)))
	}

	graphFile, err := os.Open(paths["graph"])
	if err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindIO, "open graph file", err)
	}
	defer graphFile.Close()

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = cfg.M
	graph.EfSearch = cfg.EfSearch
	graph.Ml = 1.0 / math.Log(float64(cfg.M))
	if err := graph.Import(bufio.NewReader(graphFile)); err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindVectorIndex, "import graph", err)
	}

	idx := &Index{
		graph:   graph,
		config:  cfg,
		idMap:   make(map[string]uint64, len(ids)),
		keyMap:  make(map[uint64]string, len(ids)),
		vectors: make(map[uint64][]float32, len(ids)),
		nextKey: uint64(len(ids)),
	}
	for key, id := range ids {
		if id == "" {
			continue // tombstoned slot, written as "" by exportIDs
		}
		k := uint64(key)
		idx.idMap[id] = k
		idx.keyMap[k] = id
		idx.vectors[k] = decodeVector(dataRaw, key, cfg.Dimensions)
	}
	return idx, nil
}

func decodeVector(data []byte, key, dimensions int) []float32 {
	offset := key * dimensions * 4
	vec := make([]float32, dimensions)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[offset+i*4:]))
	}
	return vec
}

// exportGraph delegates to coder/hnsw's native binary export, which
// serialises topology and vector payloads together; it is the only
// format the library exposes for faithful reconstruction via Import.
func (idx *Index) exportGraph() ([]byte, error) {
	pr, pw := io.Pipe()
	errCh := make(chan error, 1)
	go func() {
		errCh <- idx.graph.Export(pw)
		pw.Close()
	}()
	data, readErr := io.ReadAll(pr)
	if exportErr := <-errCh; exportErr != nil {
		return nil, cqserrors.Wrap(cqserrors.KindVectorIndex, "export graph", exportErr)
	}
	if readErr != nil {
		return nil, cqserrors.Wrap(cqserrors.KindVectorIndex, "buffer exported graph", readErr)
	}
	return data, nil
}

// exportVectorData writes the raw float32 vectors in key order (dense
// 0..nextKey-1, tombstoned slots zero-filled) as the spec's separate
// "data" file of raw vectors, distinct from the graph's own internal
// copy (spec §6: "a data file of raw float vectors").
func (idx *Index) exportVectorData() []byte {
	buf := make([]byte, int(idx.nextKey)*idx.config.Dimensions*4)
	for key, vec := range idx.vectors {
		offset := int(key) * idx.config.Dimensions * 4
		for i, f := range vec {
			binary.LittleEndian.PutUint32(buf[offset+i*4:], math.Float32bits(f))
		}
	}
	return buf
}

// exportIDs writes the key→id array the spec's "ids" file holds
// (index = HNSW internal key), using "" for tombstoned slots.
func (idx *Index) exportIDs() ([]byte, error) {
	ids := make([]string, idx.nextKey)
	for key, id := range idx.keyMap {
		ids[key] = id
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindInternal, "marshal ids file", err)
	}
	return b, nil
}

// atomicRename moves src to dst, falling back to copy+fsync+rename when
// the two paths live on different filesystems (spec §4.3: "a cross-device
// fallback path (copy + fsync + rename) exists but is itself atomic per
// file").
func atomicRename(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return cqserrors.Wrap(cqserrors.KindIO, "rename "+src+" to "+dst, err)
	}

	in, openErr := os.Open(src)
	if openErr != nil {
		return cqserrors.Wrap(cqserrors.KindIO, "open source for cross-device copy", openErr)
	}
	defer in.Close()

	tmp := dst + ".xdev"
	out, createErr := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if createErr != nil {
		return cqserrors.Wrap(cqserrors.KindIO, "create cross-device destination", createErr)
	}
	if _, copyErr := io.Copy(out, in); copyErr != nil {
		out.Close()
		os.Remove(tmp)
		return cqserrors.Wrap(cqserrors.KindIO, "copy across devices", copyErr)
	}
	if syncErr := out.Sync(); syncErr != nil {
		out.Close()
		os.Remove(tmp)
		return cqserrors.Wrap(cqserrors.KindIO, "fsync cross-device destination", syncErr)
	}
	if closeErr := out.Close(); closeErr != nil {
		os.Remove(tmp)
		return cqserrors.Wrap(cqserrors.KindIO, "close cross-device destination", closeErr)
	}
	if renameErr := os.Rename(tmp, dst); renameErr != nil {
		os.Remove(tmp)
		return cqserrors.Wrap(cqserrors.KindIO, "rename cross-device temp file", renameErr)
	}
	os.Remove(src)
	return nil
}
