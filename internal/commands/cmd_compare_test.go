package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/features"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/llm/llmtest"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/session"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/debugger"
)

const matrixDoc = `[
	{"name": "Auth", "description": "login flow", "source": "common"},
	{"name": "Caching", "description": "lru cache", "source": "unique_b"}
]`

var comparisonInputs = session.Inputs{Language: "go", Code: "func a() {}", SecondaryCode: "func b() {}"}

// scriptedDecider answers each feature with its queued choices in order.
type scriptedDecider struct {
	choices map[string][]Choice
	asked   []string
}

func (d *scriptedDecider) Choose(f features.Feature) (Choice, error) {
	d.asked = append(d.asked, f.Name)
	queue := d.choices[f.Name]
	if len(queue) == 0 {
		return ChoiceRemove, nil
	}
	d.choices[f.Name] = queue[1:]
	return queue[0], nil
}

// compared returns a runner holding a completed comparison, with the feature
// matrix and the synthesis queued.
func compared(t *testing.T, lines ...string) (*fixture, *runner) {
	t.Helper()

	f := newFixture(t, llmtest.Script{Chunks: []string{"B adds a cache."}})
	rn := f.runner(t, session.ModeComparison, lines...)
	require.NoError(t, rn.submit(context.Background(), comparisonInputs))

	f.gen.QueueStructured(matrixDoc)
	f.gen.QueueStream(llmtest.Script{Chunks: []string{"Merged:\n```go\nmerged()\n```"}})
	return f, rn
}

func TestCompare_SynthesizeWithDecisions(t *testing.T) {
	f, rn := compared(t)
	cmd := &CompareCmd{app: f.app, copy: true}

	err := cmd.synthesize(context.Background(), f.out, rn, map[string]features.Decision{
		"Auth":    features.Include,
		"Caching": features.Remove,
	})
	require.NoError(t, err)

	out := f.out.String()
	assert.Contains(t, out, "FEATURE")
	assert.Contains(t, out, "only B")
	assert.Contains(t, out, "merged()")
	assert.Equal(t, []string{"merged()"}, f.copied)

	snap := rn.conv.Snapshot()
	assert.Equal(t, session.StateCompleted, snap.State)

	reqs := f.gen.Requests()
	require.Len(t, reqs, 3)
	assert.NotContains(t, reqs[2].Payload, "Discussion of")
}

func TestCompare_SynthesizeIncomplete(t *testing.T) {
	f, rn := compared(t)
	cmd := &CompareCmd{app: f.app}

	err := cmd.synthesize(context.Background(), f.out, rn, map[string]features.Decision{
		"Auth": features.Include,
	})
	require.ErrorIs(t, err, debugger.ErrIncomplete)
	assert.Contains(t, err.Error(), "Caching")
	assert.Equal(t, session.StateDecisionPending, rn.conv.State())
}

func TestCompare_DiscussInteractively(t *testing.T) {
	// The first discussion is left without a turn and asked again.
	f, rn := compared(t, "", "Is it needed?", "/exit")
	decider := &scriptedDecider{choices: map[string][]Choice{
		"Auth":    {ChoiceInclude},
		"Caching": {ChoiceDiscuss, ChoiceDiscuss},
	}}
	cmd := &CompareCmd{app: f.app, decider: decider, save: "merged"}

	f.gen.QueueReply(llmtest.Script{Chunks: []string{"Keep it."}})
	require.NoError(t, cmd.synthesize(context.Background(), f.out, rn, nil))

	assert.Equal(t, []string{"Auth", "Caching", "Caching"}, decider.asked)
	assert.Len(t, f.gen.Dialogues(), 2, "each discussion opens its own dialogue")

	reqs := f.gen.Requests()
	require.Len(t, reqs, 3)
	assert.Contains(t, reqs[2].Payload, "Discussion of Caching:\n[user] Is it needed?\n[model] Keep it.")

	v, err := f.app.Versions.Find(context.Background(), "merged")
	require.NoError(t, err)
	rec, ok := v.Session.Decisions["Caching"]
	require.True(t, ok)
	assert.Equal(t, features.Discussed, rec.Decision)
	assert.Len(t, rec.Transcript, 2)
}

func TestParseDecisions(t *testing.T) {
	tests := []struct {
		name    string
		raw     []string
		want    map[string]features.Decision
		wantErr bool
	}{
		{
			name: "repeated flags",
			raw:  []string{"Auth=include", "Caching=remove"},
			want: map[string]features.Decision{"Auth": features.Include, "Caching": features.Remove},
		},
		{
			name: "comma separated with spaces",
			raw:  []string{" Auth = INCLUDE , Caching=remove,"},
			want: map[string]features.Decision{"Auth": features.Include, "Caching": features.Remove},
		},
		{
			name: "later wins",
			raw:  []string{"Auth=include", "Auth=remove"},
			want: map[string]features.Decision{"Auth": features.Remove},
		},
		{name: "empty", raw: nil, want: map[string]features.Decision{}},
		{name: "missing value", raw: []string{"Auth"}, wantErr: true},
		{name: "missing name", raw: []string{"=include"}, wantErr: true},
		{name: "discussed is not a flag value", raw: []string{"Auth=discussed"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDecisions(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
