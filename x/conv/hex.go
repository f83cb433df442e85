package conv

const hexd = "0123456789ABCDEF"

// U32Hex writes 8-digit uppercase hex without 0x, zero-padded.
func U32Hex(buf []byte, n uint32) []byte {
	if len(buf) < 8 {
		return buf[:0]
	}
	i := len(buf)
	for j := 0; j < 8; j++ {
		i--
		buf[i] = hexd[n&0xF]
		n >>= 4
	}
	return buf[i:]
}

// AppendHex32 appends "0x" and the 8-digit hex form of n to dst.
func AppendHex32(dst []byte, n uint32) []byte {
	var buf [8]byte
	dst = append(dst, '0', 'x')
	return append(dst, U32Hex(buf[:], n)...)
}
