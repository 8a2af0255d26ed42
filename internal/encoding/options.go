package encoding

// OptionsWidth is the normalized width of a header options field in bits.
const OptionsWidth = 320

const optionsMaxLen = OptionsWidth / 8

// EncodeOptions unpacks raw option bytes MSB first and pads the tail with Absent.
// Bytes past the 40th are dropped so the result is always OptionsWidth long.
func EncodeOptions(opts []byte) []float32 {
	return appendOptions(make([]float32, 0, OptionsWidth), opts)
}

func appendOptions(dst []float32, opts []byte) []float32 {
	if len(opts) > optionsMaxLen {
		opts = opts[:optionsMaxLen]
	}
	dst = appendBytes(dst, opts)
	return appendAbsent(dst, OptionsWidth-len(opts)*8)
}

// headerOptions returns the option bytes between the fixed header and the
// declared header length, clamped to what was captured.
func headerOptions(hdr []byte, fixedLen, declaredLen int) []byte {
	if declaredLen <= fixedLen {
		return nil
	}
	if declaredLen > len(hdr) {
		declaredLen = len(hdr)
	}
	return hdr[fixedLen:declaredLen]
}
