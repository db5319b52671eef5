package neug

import "encoding/binary"

// Reader adapts an Engine to io.Reader, draining words with Get and
// packing them little-endian into the caller's buffer: an ergonomic
// byte-stream view over neug_get, not a DRBG.
type Reader struct {
	e *Engine

	// leftover holds bytes from a word that didn't fit evenly into the
	// previous Read call.
	leftover [4]byte
	nLeft    int
}

// Reader returns an io.Reader that draws conditioned words from e.
func (e *Engine) Reader() *Reader {
	return &Reader{e: e}
}

func (r *Reader) Read(p []byte) (int, error) {
	n := 0

	for n < len(p) && r.nLeft > 0 {
		p[n] = r.leftover[4-r.nLeft]
		r.nLeft--
		n++
	}

	var word [4]byte
	for n+4 <= len(p) {
		binary.LittleEndian.PutUint32(word[:], r.e.Get(true))
		copy(p[n:n+4], word[:])
		n += 4
	}

	if n < len(p) {
		binary.LittleEndian.PutUint32(r.leftover[:], r.e.Get(true))
		r.nLeft = 4
		for n < len(p) && r.nLeft > 0 {
			p[n] = r.leftover[4-r.nLeft]
			r.nLeft--
			n++
		}
	}

	return n, nil
}
