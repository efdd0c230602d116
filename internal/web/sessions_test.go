package web

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/emis-viewer/internal/viewer"
)

func newTestStore(idle time.Duration) (*SessionStore, *time.Time) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := fixedNow
	st := NewSessionStore(func(string) *viewer.Controller {
		return viewer.New(rows(1), viewer.Options{Logger: logger})
	}, idle)
	st.now = func() time.Time { return now }
	return st, &now
}

func TestSessionStore_Acquire(t *testing.T) {
	st, _ := newTestStore(time.Minute)
	defer st.CloseAll()

	id, ctrl, err := st.Acquire("")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	again, same, err := st.Acquire(id)
	require.NoError(t, err)
	assert.Equal(t, id, again)
	assert.Same(t, ctrl, same)

	other, _, err := st.Acquire("forged-id")
	require.NoError(t, err)
	assert.NotEqual(t, "forged-id", other, "unknown ids get a fresh session")
	assert.Equal(t, 2, st.Len())
}

func TestSessionStore_SweepClosesIdle(t *testing.T) {
	st, now := newTestStore(time.Minute)
	defer st.CloseAll()

	oldID, oldCtrl, _ := st.Acquire("")
	*now = now.Add(45 * time.Second)
	freshID, _, _ := st.Acquire("")
	*now = now.Add(30 * time.Second)

	assert.Equal(t, 1, st.Sweep())
	assert.Equal(t, 1, st.Len())

	_, err := oldCtrl.Refresh()
	assert.ErrorIs(t, err, viewer.ErrClosed)

	got, _, _ := st.Acquire(freshID)
	assert.Equal(t, freshID, got)
	got, _, _ = st.Acquire(oldID)
	assert.NotEqual(t, oldID, got)
}

func TestSessionStore_CloseAll(t *testing.T) {
	st, _ := newTestStore(time.Minute)
	_, ctrl, _ := st.Acquire("")

	st.CloseAll()

	assert.Equal(t, 0, st.Len())
	_, err := ctrl.Refresh()
	assert.ErrorIs(t, err, viewer.ErrClosed)
	_, _, err = st.Acquire("")
	assert.ErrorIs(t, err, viewer.ErrClosed)
}
