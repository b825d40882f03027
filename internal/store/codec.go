package store

import (
	"encoding/binary"
	"math"

	"github.com/cqs-dev/cqs/internal/cqserrors"
)

// encodeEmbedding serialises a vector as D little-endian IEEE-754
// float32s (spec §6: "D × 4-byte little-endian IEEE-754 floats; no
// bincode or language-specific formats").
func encodeEmbedding(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeEmbedding deserialises bytes written by encodeEmbedding,
// enforcing the length check spec §6 requires on read.
func decodeEmbedding(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, cqserrors.New(cqserrors.KindStore, "embedding blob length is not a multiple of 4")
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out, nil
}
