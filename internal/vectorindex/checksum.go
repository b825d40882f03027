package vectorindex

import (
	"fmt"
	"os"
	"strings"

	"lukechampine.com/blake3"

	"github.com/cqs-dev/cqs/internal/cqserrors"
)

// manifestFiles are the three payload files a checksum manifest covers,
// in the fixed order the manifest digest is computed over (spec §4.3:
// "enumerates BLAKE3 digests of the other three").
var manifestFiles = [3]string{"graph", "data", "ids"}

func blake3Hex(b []byte) string {
	sum := blake3.Sum256(b)
	return fmt.Sprintf("%x", sum[:])
}

// buildManifest renders the checksum file's text format: one
// "<filename> <hex>" line per payload file, followed by a manifest line
// whose digest covers the three digests concatenated in manifestFiles
// order. This lets a loader reject a manifest that was itself edited to
// match a tampered payload file without also recomputing the payload
// digest (spec P9: "Any on-disk tamper... causes load to fail").
func buildManifest(digests map[string]string) string {
	var sb strings.Builder
	var joined strings.Builder
	for _, name := range manifestFiles {
		sb.WriteString(name)
		sb.WriteByte(' ')
		sb.WriteString(digests[name])
		sb.WriteByte('\n')
		joined.WriteString(digests[name])
	}
	sb.WriteString("manifest ")
	sb.WriteString(blake3Hex([]byte(joined.String())))
	sb.WriteByte('\n')
	return sb.String()
}

// parseManifest reads the checksum file format buildManifest writes.
func parseManifest(raw string) (map[string]string, error) {
	out := make(map[string]string, len(manifestFiles)+1)
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " ", 2)
		if len(parts) != 2 {
			return nil, cqserrors.New(cqserrors.KindVectorIndex, "malformed checksum manifest line: "+line)
		}
		out[parts[0]] = parts[1]
	}
	for _, name := range manifestFiles {
		if _, ok := out[name]; !ok {
			return nil, cqserrors.New(cqserrors.KindVectorIndex, "checksum manifest missing entry for "+name)
		}
	}
	if _, ok := out["manifest"]; !ok {
		return nil, cqserrors.New(cqserrors.KindVectorIndex, "checksum manifest missing top-level digest")
	}
	return out, nil
}

// verifyManifestDigest recomputes the top-level manifest digest from the
// three payload digests and compares it against the stored one, failing
// fast without touching the actual payload files.
func verifyManifestDigest(digests map[string]string) error {
	var joined strings.Builder
	for _, name := range manifestFiles {
		joined.WriteString(digests[name])
	}
	want := blake3Hex([]byte(joined.String()))
	if digests["manifest"] != want {
		return cqserrors.New(cqserrors.KindVectorIndex, "checksum manifest digest mismatch")
	}
	return nil
}

// verifyPayloadDigest reads path and compares its BLAKE3 digest against
// want, per spec §4.3's "loaders verify all digests before deserialising".
func verifyPayloadDigest(path, want string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return cqserrors.Wrap(cqserrors.KindIO, "read "+path+" for checksum verification", err)
	}
	got := blake3Hex(data)
	if got != want {
		return cqserrors.New(cqserrors.KindVectorIndex, "checksum mismatch for "+path).
			WithDetail("expected", want).
			WithDetail("actual", got)
	}
	return nil
}
