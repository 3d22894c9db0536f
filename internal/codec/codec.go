package codec

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Codec compresses payloads above a size threshold. It never returns an
// error: a store operation must not fail solely because compression failed,
// so every failure path degrades to the uncompressed payload.
type Codec struct {
	threshold int64
	level     int
}

func New(threshold int64, level int) *Codec {
	if level < gzip.HuffmanOnly || level > gzip.BestCompression {
		level = gzip.DefaultCompression
	}
	return &Codec{threshold: threshold, level: level}
}

// Compress returns the stored form of payload and whether it was compressed.
// Payloads at or below the threshold, payloads that do not shrink, and any
// gzip failure all come back verbatim with wasCompressed=false.
func (c *Codec) Compress(payload []byte) (stored []byte, wasCompressed bool) {
	if int64(len(payload)) <= c.threshold {
		return payload, false
	}

	var buf bytes.Buffer
	gw, err := gzip.NewWriterLevel(&buf, c.level)
	if err != nil {
		return payload, false
	}
	if _, err = gw.Write(payload); err != nil {
		return payload, false
	}
	if err = gw.Close(); err != nil {
		return payload, false
	}
	if buf.Len() >= len(payload) {
		// incompressible payload, keep the original
		return payload, false
	}
	return buf.Bytes(), true
}

// Decompress reverses Compress. When wasCompressed is false the input is
// returned unchanged. When decompression fails despite the flag, the input
// is returned as-is: callers with integrity verification catch the garbage
// via checksum mismatch, callers without it accept the risk.
//
// It is a package function, not a method: items written under an earlier
// configuration stay readable after compression is turned off.
func Decompress(stored []byte, wasCompressed bool) []byte {
	if !wasCompressed {
		return stored
	}

	gr, err := gzip.NewReader(bytes.NewReader(stored))
	if err != nil {
		return stored
	}
	defer func() { _ = gr.Close() }()

	payload, err := io.ReadAll(gr)
	if err != nil {
		return stored
	}
	return payload
}
