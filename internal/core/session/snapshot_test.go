package session

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/chat"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/features"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	s := New("orig", ModeComparison)
	s.State = StateChatActive
	s.Inputs = Inputs{Language: "go", Code: "a", SecondaryCode: "b"}
	s.LastPrompt = "compare"
	s.SetOutput("merged\n```go\nfunc m() {}\n```")
	s.Chat = chat.New(chat.Anchor{Prompt: "compare", Response: s.OutputText()})
	_, _ = s.Chat.Begin("why?")
	_, _ = s.Chat.Append("because")
	_, _ = s.Chat.Complete()

	tr, err := features.New([]features.Feature{
		{Name: "Auth", Source: features.SourceUniqueA},
		{Name: "Caching", Source: features.SourceUniqueB},
	})
	require.NoError(t, err)
	require.NoError(t, tr.Decide("Auth", features.Include))
	s.Features = tr

	got, err := FromSnapshot("copy", s.Snapshot())
	require.NoError(t, err)

	assert.Equal(t, "copy", got.ID)
	if diff := cmp.Diff(s.Snapshot(), got.Snapshot()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, s.Chat.History(), got.Chat.History())
}

func TestSnapshot_InFlightBecomesCancelled(t *testing.T) {
	s := New("s", ModeReview)
	s.State = StateStreaming
	s.SetOutput("partial")

	snap := s.Snapshot()
	assert.Equal(t, StateCancelled, snap.State)

	snap.State = StateSubmitting
	snap.Output = nil
	got, err := FromSnapshot("s", snap)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, got.State)
}

func TestFromSnapshot_Invalid(t *testing.T) {
	_, err := FromSnapshot("s", Snapshot{Mode: "nope"})
	assert.Error(t, err)

	_, err = FromSnapshot("s", Snapshot{
		Mode:      ModeComparison,
		Decisions: map[string]features.Record{"Ghost": {Decision: features.Include}},
	})
	assert.ErrorIs(t, err, features.ErrUnknownFeature)
}

func TestFromSnapshot_ChatStateWithoutChat(t *testing.T) {
	got, err := FromSnapshot("s", Snapshot{Mode: ModeReview, State: StateChatActive})
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, got.State)
}
