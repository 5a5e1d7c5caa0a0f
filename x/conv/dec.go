package conv

// PadDec writes n in base 10 into dst, right-aligned and zero-filled.
// Digits that do not fit are dropped from the left.
func PadDec(dst []byte, n uint64) []byte {
	for i := len(dst) - 1; i >= 0; i-- {
		dst[i] = byte('0' + n%10)
		n /= 10
	}
	return dst
}
