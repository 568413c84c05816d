package debugger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/eventbus"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/features"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/llm"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/llm/llmtest"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/session"
)

const matrixDoc = `[
	{"name": "Auth", "description": "login flow", "source": "common"},
	{"name": "Caching", "description": "lru cache", "source": "unique_b"}
]`

// pending returns a comparison waiting for decisions on Auth and Caching.
func pending(t *testing.T) *harness {
	t.Helper()

	h := newHarness(t, session.ModeComparison, llmtest.Script{Chunks: []string{"B adds a cache."}})
	require.NoError(t, h.conv.Submit(context.Background(), comparisonInputs))

	h.gen.QueueStructured(matrixDoc)
	require.NoError(t, h.conv.RetrieveFeatures(context.Background()))
	return h
}

func TestRetrieveFeatures(t *testing.T) {
	h := pending(t)

	snap := h.conv.Snapshot()
	assert.Equal(t, session.StateDecisionPending, snap.State)
	require.NotNil(t, snap.Features)
	assert.Equal(t, []features.Feature{
		{Name: "Auth", Description: "login flow", Source: features.SourceCommon},
		{Name: "Caching", Description: "lru cache", Source: features.SourceUniqueB},
	}, snap.Features.Matrix())

	reqs := h.gen.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "structured-model", reqs[1].Model)
	require.Len(t, h.gen.Schemas(), 1)
	assert.Equal(t, llm.FeatureMatrixSchema(), h.gen.Schemas()[0])

	h.bus.AssertPublished(t, eventbus.EventFeaturesRetrieved)
}

func TestRetrieveFeatures_DecodeFailure(t *testing.T) {
	h := newHarness(t, session.ModeComparison, llmtest.Script{Chunks: []string{"diff"}})
	require.NoError(t, h.conv.Submit(context.Background(), comparisonInputs))

	h.gen.QueueStructured(`{"features": "none"}`)
	err := h.conv.RetrieveFeatures(context.Background())
	require.ErrorIs(t, err, llm.ErrStructuredDecode)

	snap := h.conv.Snapshot()
	assert.Equal(t, session.StateErrored, snap.State)
	assert.Nil(t, snap.Features)
	assert.Equal(t, llm.Describe(err), snap.Error)
}

func TestRetrieveFeatures_NeedsCompletedComparison(t *testing.T) {
	h := newHarness(t, session.ModeComparison)

	require.ErrorIs(t, h.conv.RetrieveFeatures(context.Background()), ErrInvalidTransition)
	assert.Empty(t, h.gen.Requests())
}

func TestFinalize_IncludeAndRemove(t *testing.T) {
	h := pending(t)
	ctx := context.Background()

	require.NoError(t, h.conv.Decide("Auth", features.Include))
	require.ErrorIs(t, h.conv.Finalize(ctx), ErrIncomplete)
	assert.Equal(t, session.StateDecisionPending, h.conv.State())

	require.ErrorIs(t, h.conv.Decide("Logging", features.Include), features.ErrUnknownFeature)
	require.ErrorIs(t, h.conv.Decide("Caching", features.Discussed), features.ErrInvalidDecision)
	require.NoError(t, h.conv.Decide("Caching", features.Remove))

	before := len(h.gen.Requests())
	h.gen.QueueStream(llmtest.Script{Chunks: []string{"merged:\n", "```go\nfunc login() {}\n```"}})
	require.NoError(t, h.conv.Finalize(ctx))

	reqs := h.gen.Requests()
	require.Len(t, reqs, before+1, "finalize issues exactly one request")
	payload := reqs[len(reqs)-1].Payload
	assert.Equal(t, "primary-model", reqs[len(reqs)-1].Model)
	assert.Contains(t, payload, "Include:\n- Auth: login flow")
	assert.Contains(t, payload, "Remove:\n- Caching: lru cache")
	assert.NotContains(t, payload, "Discussion of")

	snap := h.conv.Snapshot()
	assert.Equal(t, session.StateCompleted, snap.State)
	assert.Equal(t, payload, snap.LastPrompt)
	require.NotNil(t, snap.ExtractedCode)
	assert.Equal(t, "func login() {}", snap.ExtractedCode.Content)
}

func TestUndecide(t *testing.T) {
	h := pending(t)

	require.NoError(t, h.conv.Decide("Auth", features.Include))
	require.NoError(t, h.conv.Decide("Caching", features.Include))
	require.NoError(t, h.conv.Undecide("Caching"))

	require.ErrorIs(t, h.conv.Finalize(context.Background()), ErrIncomplete)
	require.ErrorIs(t, h.conv.Undecide("Logging"), features.ErrUnknownFeature)
}

func TestDiscussion_FinalizedIntoSynthesis(t *testing.T) {
	h := pending(t)
	ctx := context.Background()
	comparison := h.conv.Snapshot()

	opener, err := h.conv.BeginDiscussion(ctx, "Caching")
	require.NoError(t, err)
	assert.Contains(t, opener, "Caching")

	_, err = h.conv.BeginDiscussion(ctx, "Auth")
	require.ErrorIs(t, err, ErrDiscussionOpen)

	dlgs := h.gen.Dialogues()
	require.Len(t, dlgs, 1)
	assert.Contains(t, dlgs[0].SystemInstruction, "Caching")
	require.Len(t, dlgs[0].Seed, 2)
	assert.Equal(t, comparison.LastPrompt, dlgs[0].Seed[0].Text)
	assert.Equal(t, comparison.OutputText(), dlgs[0].Seed[1].Text)

	h.gen.QueueReply(llmtest.Script{Chunks: []string{"Keep ", "it."}})
	res, err := h.conv.Send(ctx, "Is it needed?")
	require.NoError(t, err)
	assert.Equal(t, "Keep it.", res.Turn.Content)

	feature, turns, open := h.conv.Discussion()
	assert.True(t, open)
	assert.Equal(t, "Caching", feature)
	assert.Len(t, turns, 2)

	require.NoError(t, h.conv.Decide("Auth", features.Include))
	require.ErrorIs(t, h.conv.Finalize(ctx), ErrIncomplete)

	require.NoError(t, h.conv.FinalizeDiscussion())
	_, _, open = h.conv.Discussion()
	assert.False(t, open)

	rec, ok := h.conv.Snapshot().Features.Record("Caching")
	require.True(t, ok)
	assert.Equal(t, features.Discussed, rec.Decision)
	require.Len(t, rec.Transcript, 2)
	assert.Equal(t, "Is it needed?", rec.Transcript[0].Content)

	h.gen.QueueStream(llmtest.Script{Chunks: []string{"merged"}})
	require.NoError(t, h.conv.Finalize(ctx))

	reqs := h.gen.Requests()
	payload := reqs[len(reqs)-1].Payload
	assert.Contains(t, payload, "Include:\n- Auth: login flow")
	assert.Contains(t, payload, "Remove:\n- (none)")
	assert.Contains(t, payload, "Discussion of Caching:\n[user] Is it needed?\n[model] Keep it.")
	assert.Equal(t, session.StateCompleted, h.conv.State())
}

func TestDiscussion_BlocksFinalizeUntilClosed(t *testing.T) {
	h := pending(t)
	ctx := context.Background()

	require.NoError(t, h.conv.Decide("Auth", features.Include))
	require.NoError(t, h.conv.Decide("Caching", features.Remove))

	_, err := h.conv.BeginDiscussion(ctx, "Caching")
	require.NoError(t, err)
	require.ErrorIs(t, h.conv.Finalize(ctx), ErrDiscussionOpen)

	require.NoError(t, h.conv.AbandonDiscussion())
	rec, ok := h.conv.Snapshot().Features.Record("Caching")
	require.True(t, ok)
	assert.Equal(t, features.Remove, rec.Decision, "abandoning keeps the previous decision")

	h.gen.QueueStream(llmtest.Script{Chunks: []string{"merged"}})
	require.NoError(t, h.conv.Finalize(ctx))
}

func TestSubmit_ClearsFeatureState(t *testing.T) {
	h := pending(t)

	_, err := h.conv.BeginDiscussion(context.Background(), "Auth")
	require.NoError(t, err)

	require.ErrorIs(t, h.conv.Submit(context.Background(), comparisonInputs), ErrInvalidTransition)

	h.conv.Reset()
	snap := h.conv.Snapshot()
	assert.Nil(t, snap.Features)
	_, _, open := h.conv.Discussion()
	assert.False(t, open)
}

func TestReopenDecisions_AfterFailedSynthesis(t *testing.T) {
	h := pending(t)
	ctx := context.Background()

	analysis := h.conv.Snapshot()
	require.NoError(t, h.conv.Decide("Auth", features.Include))
	require.NoError(t, h.conv.Decide("Caching", features.Remove))

	require.ErrorIs(t, h.conv.ReopenDecisions(), ErrInvalidTransition)

	h.gen.QueueStream(llmtest.Script{Chunks: []string{"merged half"}, Err: errors.New("connection reset")})
	require.ErrorIs(t, h.conv.Finalize(ctx), llm.ErrTransport)
	require.Equal(t, session.StateErrored, h.conv.State())

	// The failed session survives a save and restore with its analysis.
	v, err := h.conv.SaveVersion(ctx, "failed merge")
	require.NoError(t, err)
	require.NoError(t, h.conv.Restore(ctx, v))

	require.NoError(t, h.conv.ReopenDecisions())

	snap := h.conv.Snapshot()
	assert.Equal(t, session.StateDecisionPending, snap.State)
	assert.Empty(t, snap.Error)
	assert.Equal(t, analysis.LastPrompt, snap.LastPrompt)
	assert.Equal(t, analysis.OutputText(), snap.OutputText())
	assert.Nil(t, snap.Analysis)
	assert.True(t, snap.DecisionComplete())

	h.gen.QueueStream(llmtest.Script{Chunks: []string{"merged"}})
	require.NoError(t, h.conv.Finalize(ctx))
	assert.Equal(t, session.StateCompleted, h.conv.State())
}

func TestReopenDecisions_AfterCancelledSynthesis(t *testing.T) {
	h := pending(t)
	ctx := context.Background()
	require.NoError(t, h.conv.Decide("Auth", features.Include))
	require.NoError(t, h.conv.Decide("Caching", features.Include))

	started := make(chan struct{})
	h.gen.QueueStream(llmtest.Script{Chunks: []string{"never"}, Step: make(chan struct{}), Started: started})

	errc := make(chan error, 1)
	go func() { errc <- h.conv.Finalize(ctx) }()
	<-started
	require.NoError(t, h.conv.Cancel())
	require.ErrorIs(t, <-errc, llm.ErrCancelled)
	require.Equal(t, session.StateCancelled, h.conv.State())

	require.NoError(t, h.conv.ReopenDecisions())
	assert.Equal(t, session.StateDecisionPending, h.conv.State())
	assert.Equal(t, "B adds a cache.", h.conv.Snapshot().OutputText())
}

func TestReopenDecisions_NeedsFeatureMatrix(t *testing.T) {
	h := newHarness(t, session.ModeComparison, llmtest.Script{Chunks: []string{"diff"}})
	require.NoError(t, h.conv.Submit(context.Background(), comparisonInputs))

	h.gen.QueueStructured(`{"features": "none"}`)
	require.Error(t, h.conv.RetrieveFeatures(context.Background()))
	require.Equal(t, session.StateErrored, h.conv.State())

	require.ErrorIs(t, h.conv.ReopenDecisions(), ErrInvalidTransition)
}
