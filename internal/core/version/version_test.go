package version

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/chat"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/features"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/kv"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/session"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	st := NewStore(kv.NewMemory())
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	st.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}
	return st
}

func sampleSession(t *testing.T) session.Session {
	t.Helper()
	s := session.New("live", session.ModeComparison)
	s.State = session.StateChatActive
	s.Inputs = session.Inputs{Language: "go", Code: "package a", SecondaryCode: "package b"}
	s.LastPrompt = "compare a and b"
	s.SetOutput("analysis\n```go\npackage merged\n```")

	s.Chat = chat.New(chat.Anchor{Prompt: s.LastPrompt, Response: s.OutputText()})
	_, err := s.Chat.Begin("explain caching")
	require.NoError(t, err)
	_, _ = s.Chat.Append("it is an LRU")
	_, err = s.Chat.Complete()
	require.NoError(t, err)

	tr, err := features.New([]features.Feature{
		{Name: "Auth", Description: "login", Source: features.SourceUniqueA},
		{Name: "Caching", Description: "lru", Source: features.SourceUniqueB},
	})
	require.NoError(t, err)
	require.NoError(t, tr.Decide("Auth", features.Include))
	require.NoError(t, tr.FinalizeDiscussion("Caching", s.Chat.Turns()))
	s.Features = tr
	return s
}

func TestStore_SaveRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	s := sampleSession(t)

	saved, err := st.Save(ctx, s, "n")
	require.NoError(t, err)

	loaded, err := st.Get(ctx, saved.ID)
	require.NoError(t, err)

	restored, err := Restore("fresh", loaded)
	require.NoError(t, err)

	assert.Equal(t, s.Inputs, restored.Inputs)
	assert.Equal(t, s.Output, restored.Output)
	assert.Equal(t, s.ExtractedCode, restored.ExtractedCode)
	assert.Equal(t, s.Chat.History(), restored.Chat.History())
	assert.Equal(t, s.Features.Decisions(), restored.Features.Decisions())
	if diff := cmp.Diff(s.Snapshot(), restored.Snapshot()); diff != "" {
		t.Errorf("restored snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_SaveIsCopyOnWrite(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	s := sampleSession(t)

	saved, err := st.Save(ctx, s, "before")
	require.NoError(t, err)

	s.SetOutput("changed after save")
	_, _ = s.Chat.Begin("another")
	require.NoError(t, s.Features.Decide("Auth", features.Remove))

	loaded, err := st.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "analysis\n```go\npackage merged\n```", *loaded.Session.Output)
	assert.Len(t, loaded.Session.Chat.Turns, 2)
	assert.Equal(t, features.Include, loaded.Session.Decisions["Auth"].Decision)
}

func TestStore_ListInCreationOrder(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	s := session.New("s", session.ModeReview)

	for _, name := range []string{"first", "second", "third"} {
		_, err := st.Save(ctx, s, name)
		require.NoError(t, err)
	}

	all, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "first", all[0].Name)
	assert.Equal(t, "third", all[2].Name)
}

func TestStore_SaveRequiresName(t *testing.T) {
	_, err := newStore(t).Save(context.Background(), session.New("s", session.ModeReview), "  ")
	assert.ErrorIs(t, err, ErrNameRequired)
}

func TestStore_FindAndDelete(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	v, err := st.Save(ctx, session.New("s", session.ModeAudit), "audit-1")
	require.NoError(t, err)

	byName, err := st.Find(ctx, "audit-1")
	require.NoError(t, err)
	assert.Equal(t, v.ID, byName.ID)

	byPrefix, err := st.Find(ctx, v.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, v.ID, byPrefix.ID)

	require.NoError(t, st.Delete(ctx, v.ID))
	_, err = st.Get(ctx, v.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, st.Delete(ctx, v.ID), ErrNotFound)
	_, err = st.Find(ctx, "audit-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ReplaceAll(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	_, err := st.Save(ctx, session.New("s", session.ModeReview), "old")
	require.NoError(t, err)

	incoming := []Version{{ID: "01HZZZZZZZZZZZZZZZZZZZZZZZ", Name: "imported", Session: session.Snapshot{Mode: session.ModeDebug}}}
	require.NoError(t, st.ReplaceAll(ctx, incoming))

	all, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "imported", all[0].Name)
}

type failingKV struct {
	kv.KV
	failAfter int
}

func (f *failingKV) Set(ctx context.Context, key string, value []byte) error {
	if f.failAfter == 0 {
		return errors.New("disk full")
	}
	f.failAfter--
	return f.KV.Set(ctx, key, value)
}

func TestStore_ReplaceAllKeepsOldOnFailure(t *testing.T) {
	ctx := context.Background()
	backing := &failingKV{KV: kv.NewMemory(), failAfter: 1}
	st := NewStore(backing)

	old, err := st.Save(ctx, session.New("s", session.ModeReview), "old")
	require.NoError(t, err)

	incoming := []Version{
		{ID: "01HZZZZZZZZZZZZZZZZZZZZZZY", Name: "a"},
		{ID: "01HZZZZZZZZZZZZZZZZZZZZZZZ", Name: "b"},
	}
	require.Error(t, st.ReplaceAll(ctx, incoming))

	got, err := st.Get(ctx, old.ID)
	require.NoError(t, err)
	assert.Equal(t, "old", got.Name)
}
