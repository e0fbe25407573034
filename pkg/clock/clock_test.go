package clock

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemIsUTC(t *testing.T) {
	now := System{}.Now()
	assert.Equal(t, time.UTC, now.Location())
}

func TestManual(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	c := NewManual(start)

	assert.Equal(t, start, c.Now())
	assert.Equal(t, start.Add(90*time.Minute), c.Advance(90*time.Minute))

	later := time.Date(2026, 3, 2, 8, 0, 0, 0, time.FixedZone("KST", 9*3600))
	c.Set(later)
	assert.True(t, c.Now().Equal(later))
	assert.Equal(t, time.UTC, c.Now().Location())
}

func TestUUID(t *testing.T) {
	a := UUID{}.NewID()
	b := UUID{}.NewID()

	_, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSequence(t *testing.T) {
	s := &Sequence{Prefix: "fast"}
	assert.Equal(t, "fast-1", s.NewID())
	assert.Equal(t, "fast-2", s.NewID())

	var unnamed Sequence
	assert.Equal(t, "session-1", unnamed.NewID())
}
