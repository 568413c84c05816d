package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/chat"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/llm"
)

func sampleMatrix() []Feature {
	return []Feature{
		{Name: "Auth", Description: "token login", Source: SourceUniqueA},
		{Name: "Caching", Description: "LRU cache", Source: SourceUniqueB},
		{Name: "Logging", Description: "structured logs", Source: SourceCommon},
	}
}

func TestNew_RejectsDuplicates(t *testing.T) {
	_, err := New([]Feature{
		{Name: "Auth", Source: SourceCommon},
		{Name: "Auth", Source: SourceUniqueA},
	})
	require.ErrorIs(t, err, ErrDuplicateFeature)
}

func TestNew_RejectsUnknownSource(t *testing.T) {
	_, err := New([]Feature{{Name: "Auth", Source: "both"}})
	require.Error(t, err)
}

func TestDecide(t *testing.T) {
	tr, err := New(sampleMatrix())
	require.NoError(t, err)

	require.NoError(t, tr.Decide("Auth", Include))
	require.NoError(t, tr.Decide("Auth", Remove), "decisions may be overwritten")

	r, ok := tr.Record("Auth")
	require.True(t, ok)
	assert.Equal(t, Remove, r.Decision)

	assert.ErrorIs(t, tr.Decide("Billing", Include), ErrUnknownFeature)
	assert.ErrorIs(t, tr.Decide("Auth", "maybe"), ErrInvalidDecision)
	assert.NotContains(t, tr.Decisions(), "Billing")
}

func TestIsComplete(t *testing.T) {
	tr, err := New(sampleMatrix())
	require.NoError(t, err)

	// Completeness only changes when every feature has a record.
	steps := []struct {
		name     string
		decision Decision
		complete bool
	}{
		{"Auth", Include, false},
		{"Caching", Remove, false},
		{"Logging", Include, true},
	}
	for _, s := range steps {
		require.NoError(t, tr.Decide(s.name, s.decision))
		assert.Equal(t, s.complete, tr.IsComplete(), "after deciding %s", s.name)
	}

	tr.Undecide("Caching")
	assert.False(t, tr.IsComplete())
	assert.Equal(t, []Feature{sampleMatrix()[1]}, tr.Undecided())
}

func TestIsComplete_EmptyMatrix(t *testing.T) {
	tr, err := New(nil)
	require.NoError(t, err)
	assert.True(t, tr.IsComplete())
}

func TestFinalizeDiscussion(t *testing.T) {
	tr, err := New(sampleMatrix())
	require.NoError(t, err)

	transcript := []chat.Turn{
		{Role: llm.RoleUser, Content: "keep LRU?"},
		{Role: llm.RoleModel, Content: "yes, but cap at 1k"},
	}
	require.NoError(t, tr.FinalizeDiscussion("Caching", transcript))

	transcript[0].Content = "mutated"

	r, ok := tr.Record("Caching")
	require.True(t, ok)
	assert.Equal(t, Discussed, r.Decision)
	assert.Equal(t, "keep LRU?", r.Transcript[0].Content, "transcript is copied")

	assert.ErrorIs(t, tr.FinalizeDiscussion("Nope", nil), ErrUnknownFeature)
}

func TestPartition(t *testing.T) {
	tr, err := New(sampleMatrix())
	require.NoError(t, err)

	require.NoError(t, tr.Decide("Logging", Include))
	require.NoError(t, tr.Decide("Auth", Include))
	require.NoError(t, tr.FinalizeDiscussion("Caching", nil))

	p := tr.Partition()

	assert.Equal(t, []string{"Auth", "Logging"}, names(p.Include), "matrix order is kept")
	assert.Empty(t, p.Remove)
	assert.Equal(t, []string{"Caching"}, names(p.Discussed))
}

func TestDecode(t *testing.T) {
	tr, err := Decode([]byte(`[{"name":"Auth","description":"login","source":"unique_a"}]`))
	require.NoError(t, err)
	assert.Equal(t, []Feature{{Name: "Auth", Description: "login", Source: SourceUniqueA}}, tr.Matrix())

	for _, doc := range []string{`{"name":"Auth"}`, `null`, `[]`, `[{"description":"x","source":"common"}]`, `not json`} {
		_, err := Decode([]byte(doc))
		assert.Error(t, err, doc)
	}
}

func TestRestore(t *testing.T) {
	tr, err := Restore(sampleMatrix(), map[string]Record{"Auth": {Decision: Include}})
	require.NoError(t, err)
	assert.Equal(t, map[string]Record{"Auth": {Decision: Include}}, tr.Decisions())

	_, err = Restore(sampleMatrix(), map[string]Record{"Ghost": {Decision: Include}})
	assert.ErrorIs(t, err, ErrUnknownFeature)
}

func TestClone(t *testing.T) {
	tr, err := New(sampleMatrix())
	require.NoError(t, err)
	require.NoError(t, tr.Decide("Auth", Include))

	clone := tr.Clone()
	require.NoError(t, tr.Decide("Auth", Remove))

	r, _ := clone.Record("Auth")
	assert.Equal(t, Include, r.Decision)
}

func names(fs []Feature) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Name)
	}
	return out
}
