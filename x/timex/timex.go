package timex

import (
	"time"

	"cep-go/x/conv"
)

// UTCStamp renders t in UTC as "YYYY-MM-DDTHH:MM:SSZ" without fmt.
func UTCStamp(t time.Time) string {
	t = t.UTC()
	y, mo, d := t.Date()
	h, mi, s := t.Clock()

	var out [20]byte
	pad(out[0:4], y)
	out[4] = '-'
	pad(out[5:7], int(mo))
	out[7] = '-'
	pad(out[8:10], d)
	out[10] = 'T'
	pad(out[11:13], h)
	out[13] = ':'
	pad(out[14:16], mi)
	out[16] = ':'
	pad(out[17:19], s)
	out[19] = 'Z'
	return string(out[:])
}

func pad(dst []byte, n int) { conv.PadDec(dst, uint64(n)) }
