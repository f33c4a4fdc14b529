package challenge

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
)

var (
	ErrNoChallenge  = errors.New("challenge: no live challenge")
	ErrExpired      = errors.New("challenge: expired")
	ErrCodeMismatch = errors.New("challenge: code mismatch")
)

// TTL bounds the lifetime of an issued code.
const TTL = 5 * time.Minute

// Challenge is an ephemeral one-time passcode bound to a single order.
// At most one live challenge exists per order id; issuing overwrites.
type Challenge struct {
	OrderID   string
	Code      string
	ExpiresAt time.Time
}

// Expired reports whether the challenge is past its deadline. Expiry is
// strict: a confirm at exactly ExpiresAt still succeeds.
func (c Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Store is a volatile keyed cache of challenges. Implementations must make
// CompareAndDelete atomic so concurrent confirms cannot both consume a code.
type Store interface {
	// Put stores the challenge, overwriting any prior entry for the order.
	Put(ctx context.Context, ch Challenge) error

	// Get returns the stored challenge or ErrNoChallenge.
	Get(ctx context.Context, orderID string) (Challenge, error)

	// CompareAndDelete removes the entry only if its code matches, as one
	// atomic step. It reports whether an entry was deleted.
	CompareAndDelete(ctx context.Context, orderID, code string) (bool, error)
}

// NewCode draws a uniformly random 6-digit code in [100000, 999999].
func NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("challenge: generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Mask hides all but the last two digits for client display.
func Mask(code string) string {
	if len(code) <= 2 {
		return code
	}
	return strings.Repeat("*", len(code)-2) + code[len(code)-2:]
}
