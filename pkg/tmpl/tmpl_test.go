package tmpl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name    string
		tmpl    string
		data    any
		want    string
		wantErr bool
	}{
		{
			name: "payload header",
			tmpl: "Review this {{ .Language }} code:",
			data: map[string]string{"Language": "go"},
			want: "Review this go code:",
		},
		{
			name: "struct fields",
			tmpl: "{{ .Mode }}: {{ .Error }}",
			data: struct {
				Mode  string
				Error string
			}{Mode: "debug", Error: "nil map write"},
			want: "debug: nil map write",
		},
		{
			name: "nil data",
			tmpl: "You are a careful code reviewer.",
			want: "You are a careful code reviewer.",
		},
		{
			name:    "unknown key is an error",
			tmpl:    "{{ .SecondaryCode }}",
			data:    map[string]string{"Code": "x"},
			wantErr: true,
		},
		{
			name:    "unterminated action",
			tmpl:    "{{ .Code }",
			wantErr: true,
		},
		{
			name: "blank value renders empty",
			tmpl: "[{{ .Code }}]",
			data: map[string]string{"Code": ""},
			want: "[]",
		},
		{
			name: "upper and trim",
			tmpl: "{{ upper .Source }}/{{ trim .Name }}",
			data: map[string]string{"Source": "unique_a", "Name": "  Auth "},
			want: "UNIQUE_A/Auth",
		},
		{
			name: "fence function",
			tmpl: "{{ fence .Lang .Code }}",
			data: map[string]string{"Lang": "go", "Code": "func main() {}\n"},
			want: "```go\nfunc main() {}\n```",
		},
		{
			name: "fence grows past inner backticks",
			tmpl: "{{ fence .Lang .Code }}",
			data: map[string]string{"Lang": "md", "Code": "```go\nx\n```"},
			want: "````md\n```go\nx\n```\n````",
		},
		{
			name: "indent function",
			tmpl: "{{ indent 2 .Text }}",
			data: map[string]string{"Text": "a\n\nb"},
			want: "  a\n\n  b",
		},
		{
			name: "default function",
			tmpl: `{{ .Language | default "text" }}`,
			data: map[string]string{"Language": " "},
			want: "text",
		},
		{
			name: "join function",
			tmpl: `{{ join .Names ", " }}`,
			data: map[string][]string{"Names": {"Auth", "Caching"}},
			want: "Auth, Caching",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.tmpl, tt.data)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_ReportsErrors(t *testing.T) {
	_, err := Parse("review", "{{ if }}")
	require.Error(t, err)

	tpl, err := Parse("review", "{{ .Code }}")
	require.NoError(t, err)
	assert.Equal(t, "review", tpl.Name())
}
