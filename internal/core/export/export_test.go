package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/chat"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/session"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/version"
)

func sampleSession() session.Session {
	s := session.New("s1", session.ModeReview)
	s.State = session.StateChatActive
	s.Inputs = session.Inputs{Language: "go", Code: "package main"}
	s.LastPrompt = "review this"
	s.SetOutput("looks fine\n```go\npackage main\n```")
	s.Chat = chat.New(chat.Anchor{Prompt: "review this", Response: s.OutputText()})
	return s
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	s := sampleSession()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	versions := []version.Version{
		{ID: "01J00000000000000000000001", Name: "first", CreatedAt: now, Session: s.Snapshot()},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, New(s, versions, now)))

	got, err := Decode(&buf)
	require.NoError(t, err)

	assert.Equal(t, FormatVersion, got.FormatVersion)
	assert.Equal(t, now, got.ExportedAt)
	if diff := cmp.Diff(s.Snapshot(), got.Session); diff != "" {
		t.Errorf("session mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(versions, got.Versions); diff != "" {
		t.Errorf("versions mismatch (-want +got):\n%s", diff)
	}
}

func TestNew_EmptyVersionsEncodeAsList(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, New(session.New("s", session.ModeDebug), nil, time.Now())))
	assert.Contains(t, buf.String(), `"versions": []`)

	_, err := Decode(&buf)
	assert.NoError(t, err)
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{name: "missing versions", input: `{"format_version":1,"session":{"mode":"review"}}`, field: "versions"},
		{name: "versions not a list", input: `{"format_version":1,"session":{"mode":"review"},"versions":{}}`, field: "versions"},
		{name: "null versions", input: `{"format_version":1,"session":{"mode":"review"},"versions":null}`, field: "versions"},
		{name: "missing format", input: `{"session":{"mode":"review"},"versions":[]}`, field: "format_version"},
		{name: "future format", input: `{"format_version":2,"session":{"mode":"review"},"versions":[]}`, field: "format_version"},
		{name: "missing session", input: `{"format_version":1,"versions":[]}`, field: "session"},
		{name: "bad mode", input: `{"format_version":1,"session":{"mode":"poetry"},"versions":[]}`, field: "session.mode"},
		{
			name:  "duplicate version ids",
			input: `{"format_version":1,"session":{"mode":"review"},"versions":[{"id":"01J00000000000000000000001","name":"x","session":{"mode":"review"}},{"id":"01J00000000000000000000001","name":"y","session":{"mode":"review"}}]}`,
			field: "versions[1].id",
		},
		{
			name:  "version id not a ulid",
			input: `{"format_version":1,"session":{"mode":"review"},"versions":[{"id":"first","name":"x","session":{"mode":"review"}}]}`,
			field: "versions[0].id",
		},
		{
			name:  "versions out of order",
			input: `{"format_version":1,"session":{"mode":"review"},"versions":[{"id":"01J00000000000000000000002","name":"x","session":{"mode":"review"}},{"id":"01J00000000000000000000001","name":"y","session":{"mode":"review"}}]}`,
			field: "versions[1].id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			require.ErrorIs(t, err, ErrMalformed)

			var fieldErrs criterio.FieldErrors
			require.ErrorAs(t, err, &fieldErrs)
			var fields []string
			for _, fe := range fieldErrs {
				fields = append(fields, fe.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestDecode_NotJSON(t *testing.T) {
	_, err := Decode(strings.NewReader("not json"))
	assert.ErrorIs(t, err, ErrMalformed)
}
