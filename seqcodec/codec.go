// Package seqcodec converts between flat float64 buffers and the engine's
// time-indexed sequence representation. The conversion is lossless and
// order-preserving: chunk i of the flat buffer corresponds to timestep i.
package seqcodec

import (
	"gonum.org/v1/gonum/mat"

	"github.com/dragunovdenis/banalyzer-native/nn"
)

// Unpack partitions flat into len(dst) contiguous chunks of itemSize values
// and copies chunk i into dst[i], resizing elements that are missing or of
// the wrong length. The caller guarantees flat holds at least
// len(dst)×itemSize values; no bounds are re-checked here.
func Unpack(itemSize int, flat []float64, dst nn.Sequence) {
	off := 0
	for t := range dst {
		if dst[t] == nil || dst[t].Len() != itemSize {
			dst[t] = mat.NewVecDense(itemSize, nil)
		}
		copy(dst[t].RawVector().Data, flat[off:off+itemSize])
		off += itemSize
	}
}

// Pack writes every element of src into flat contiguously and in order,
// returning the number of values written. Inverse of Unpack for matching
// sizes; the caller guarantees flat has enough room.
func Pack(src nn.Sequence, flat []float64) int {
	off := 0
	for _, v := range src {
		n := v.Len()
		copy(flat[off:off+n], v.RawVector().Data)
		off += n
	}
	return off
}
