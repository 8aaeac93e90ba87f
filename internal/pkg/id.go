package pkg

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	ulidEntropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0) //nolint: gosec // handles are not secrets
	ulidEntropyMu sync.Mutex
)

// NewPlayerID - generates a new unique player handle.
func NewPlayerID() string {
	ulidEntropyMu.Lock()
	defer ulidEntropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}
