package webd

// mask applies the WebSocket masking algorithm to p in place with the given
// key: every payload byte is XORed with key[i%4]. Masking is its own inverse.
// See https://tools.ietf.org/html/rfc6455#section-5.3
func mask(key [4]byte, p []byte) {
	for i := range p {
		p[i] ^= key[i&3]
	}
}

// Unmask returns the payload of the frame with any masking removed.
// The payload of an unmasked frame is returned unchanged. p is not modified.
func (h FrameHeader) Unmask(p []byte) []byte {
	if !h.Masked {
		return p
	}
	out := make([]byte, len(p))
	copy(out, p)
	mask(h.MaskKey, out)
	return out
}
