package relay

import (
	"errors"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"support-relay/store"
)

// Issuer draws candidate 6-digit identity numbers. Candidates are not
// collision-checked here; IssueIdentity verifies against the store.
type Issuer struct {
	mu   sync.Mutex
	rand *rand.Rand
}

func NewIssuer(source rand.Source) *Issuer {
	if source == nil {
		source = rand.NewSource(time.Now().UnixNano())
	}
	return &Issuer{rand: rand.New(source)}
}

func (i *Issuer) Candidate() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return strconv.Itoa(100000 + i.rand.Intn(900000))
}

const issueAttempts = 5

// IssueIdentity returns a candidate id that does not exist in the
// store yet. The collision window between check and create is closed by
// the store upsert; this loop only keeps the happy path collision-free.
func (e *Engine) IssueIdentity() (string, error) {
	for attempt := 0; attempt < issueAttempts; attempt++ {
		candidate := e.issuer.Candidate()
		_, err := e.store.GetIdentity(candidate)
		if errors.Is(err, store.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", errors.New("identity number space exhausted")
}
