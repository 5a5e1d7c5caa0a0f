package timex

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUTCStamp(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	ts := time.Date(2025, time.March, 4, 1, 2, 3, 0, loc)
	assert.Equal(t, "2025-03-03T23:02:03Z", UTCStamp(ts))

	assert.Equal(t, "0007-01-01T00:00:00Z", UTCStamp(time.Date(7, 1, 1, 0, 0, 0, 0, time.UTC)))
}
