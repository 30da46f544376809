package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/markdave123-py/dreammend/internal/models"
)

// PasswordHasher hashes and checks account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// TokenIssuer mints and validates access tokens.
type TokenIssuer interface {
	Issue(userID int64) (string, error)
	Parse(token string) (int64, error)
}

// RateLimiter takes one token per call for a key.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

// Indexer schedules dream entries for embedding. Enqueue must not block.
type Indexer interface {
	Enqueue(entry models.DreamEntry)
}

const codeTTL = time.Hour

// newSixDigitCode returns a uniformly random 000000-999999 code.
func newSixDigitCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
