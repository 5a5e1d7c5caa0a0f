package conv

const hexd = "0123456789abcdef"

// Addr7 writes a bus address as "0x" plus two lowercase hex digits.
func Addr7(buf []byte, a uint8) []byte {
	if len(buf) < 4 {
		return buf[:0]
	}
	buf[0], buf[1] = '0', 'x'
	buf[2] = hexd[a>>4]
	buf[3] = hexd[a&0xF]
	return buf[:4]
}

// Hex returns b as lowercase hex without separators.
func Hex(b []byte) string {
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hexd[c>>4]
		out[i*2+1] = hexd[c&0xF]
	}
	return string(out)
}

// MAC returns b as lowercase colon-separated hex ("aa:bb:cc:dd:ee:ff").
func MAC(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	out := make([]byte, 0, len(b)*3-1)
	for i, c := range b {
		if i > 0 {
			out = append(out, ':')
		}
		out = append(out, hexd[c>>4], hexd[c&0xF])
	}
	return string(out)
}

// ParseAddr7 parses "0x76" (either case) into an address.
func ParseAddr7(s string) (uint8, bool) {
	if len(s) != 4 || s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return 0, false
	}
	hi, ok1 := nibble(s[2])
	lo, ok2 := nibble(s[3])
	if !ok1 || !ok2 {
		return 0, false
	}
	return hi<<4 | lo, true
}

func nibble(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
