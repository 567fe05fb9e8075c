package relay

import (
	"math/rand"
	"strconv"
	"testing"

	"support-relay/store"

	"github.com/stretchr/testify/assert"
)

func TestIssuerCandidates(t *testing.T) {
	assert := assert.New(t)
	issuer := NewIssuer(rand.NewSource(42))

	for i := 0; i < 1000; i++ {
		candidate := issuer.Candidate()
		assert.Len(candidate, 6)
		n, err := strconv.Atoi(candidate)
		assert.Nil(err)
		assert.GreaterOrEqual(n, 100000)
		assert.LessOrEqual(n, 999999)
	}
}

func TestIssueIdentitySkipsExisting(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t)

	// Occupy the first candidate the deterministic source will draw
	taken := NewIssuer(rand.NewSource(1)).Candidate()
	f.store.UpsertIdentity(taken, "opX")

	issued, err := f.engine.IssueIdentity()
	assert.Nil(err)
	assert.NotEqual(taken, issued)

	// The issued id is free until the join upserts it
	_, err = f.store.GetIdentity(issued)
	assert.ErrorIs(err, store.ErrNotFound)
}
