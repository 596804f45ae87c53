package flac

import (
	"io"

	"github.com/go-flac/flac/frame"
)

// writeFrameMD5 folds one frame's decoded samples into w, little-endian
// interleaved by channel at the stream's declared bit depth, matching the
// byte layout of the raw PCM the StreamInfo MD5 sum is computed over.
func writeFrameMD5(w io.Writer, f *frame.Frame, bitsPerSample uint8) {
	nch := len(f.Samples)
	if nch == 0 {
		return
	}
	n := len(f.Samples[0])
	bytesPerSample := int(bitsPerSample+7) / 8
	buf := make([]byte, n*nch*bytesPerSample)
	pos := 0
	for i := 0; i < n; i++ {
		for ch := 0; ch < nch; ch++ {
			v := uint64(f.Samples[ch][i])
			for b := 0; b < bytesPerSample; b++ {
				buf[pos] = byte(v >> uint(8*b))
				pos++
			}
		}
	}
	w.Write(buf)
}
