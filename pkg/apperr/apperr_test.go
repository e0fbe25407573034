package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errTestNotFound = New(KindNotFound, "widget not found")

func TestIsMatchesKindSentinels(t *testing.T) {
	err := fmt.Errorf("lookup: %w", errTestNotFound)

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(err, errTestNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, New(KindNotFound, "gadget not found")))
}

func TestWrapKeepsSentinelMessage(t *testing.T) {
	wrapped := Wrap(errTestNotFound, KindNotFound, "widgets.Get")

	assert.Equal(t, "widgets.Get", wrapped.Op)
	assert.True(t, errors.Is(wrapped, errTestNotFound))
	assert.Equal(t, "widgets.Get: widget not found", wrapped.Error())
}

func TestWrapForeignError(t *testing.T) {
	cause := errors.New("disk full")
	wrapped := Wrap(cause, KindPersistence, "store.Save")

	assert.True(t, errors.Is(wrapped, ErrPersistence))
	assert.True(t, errors.Is(wrapped, cause))
	assert.Equal(t, "store.Save: persistence: disk full", wrapped.Error())
	assert.Nil(t, Wrap(nil, KindPersistence, "noop"))
}

func TestWrapf(t *testing.T) {
	err := errTestNotFound.Wrapf("id %q", "abc")

	assert.True(t, errors.Is(err, errTestNotFound))
	assert.Equal(t, `widget not found: id "abc"`, err.Error())
	// The sentinel itself is untouched.
	assert.Nil(t, errTestNotFound.Err)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"plain", errors.New("boom"), ""},
		{"direct", New(KindState, "already ended"), KindState},
		{"wrapped", fmt.Errorf("outer: %w", New(KindConsistency, "two active")), KindConsistency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestIsUserFacing(t *testing.T) {
	assert.True(t, IsUserFacing(New(KindValidation, "bad")))
	assert.True(t, IsUserFacing(New(KindConflict, "bad")))
	assert.False(t, IsUserFacing(New(KindPersistence, "bad")))
	assert.False(t, IsUserFacing(errors.New("bad")))
}

func TestLogFields(t *testing.T) {
	assert.Nil(t, LogFields(nil))

	fields := LogFields(Wrap(errors.New("locked"), KindPersistence, "store.Save"))
	assert.Equal(t, []interface{}{
		"error", "store.Save: persistence: locked",
		"error_kind", "persistence",
		"op", "store.Save",
		"cause", "locked",
	}, fields)
}
