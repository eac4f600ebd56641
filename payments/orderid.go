package payments

import (
	"crypto/rand"
	"fmt"
	"time"
)

const orderIDCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewOrderID returns a short alphanumeric order token, unique per
// attempt: "ORD" + the last six digits of the unix-millisecond clock +
// six random characters.
func NewOrderID() string {
	millis := time.Now().UnixMilli() % 1_000_000

	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		// Degenerate fallback; the clock component still varies.
		fillFromClock(b, time.Now().UnixNano())
	}
	for i, rb := range b {
		b[i] = orderIDCharset[int(rb)%len(orderIDCharset)]
	}

	return fmt.Sprintf("ORD%06d%s", millis, string(b))
}

// fillFromClock spreads one clock reading across the buffer, one byte
// per octet, so the suffix does not collapse to a repeated character.
func fillFromClock(b []byte, seed int64) {
	for i := range b {
		b[i] = byte(seed >> (8 * i))
	}
}
