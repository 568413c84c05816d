package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalCodeBlock(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		want     Block
		wantMiss bool
	}{
		{
			name: "trailing block after mid-document block",
			text: "Intro\n```go\nfmt.Println(\"example\")\n```\n\nRevised:\n```go\n\nfunc main() {}\n\n```\n",
			want: Block{Language: "go", Content: "func main() {}"},
		},
		{
			name: "trailing whitespace ignored",
			text: "```python\nprint(1)\n```   \n\n\t",
			want: Block{Language: "python", Content: "print(1)"},
		},
		{
			name:     "text after final block",
			text:     "```go\nx := 1\n```\nThat is all.",
			wantMiss: true,
		},
		{
			name:     "unclosed trailing block",
			text:     "Partial\n```go\nfunc main() {",
			wantMiss: true,
		},
		{
			name:     "no blocks",
			text:     "Looks fine to me.",
			wantMiss: true,
		},
		{
			name:     "empty",
			text:     "",
			wantMiss: true,
		},
		{
			name: "no language tag",
			text: "```\nplain\n```",
			want: Block{Content: "plain"},
		},
		{
			name: "mismatched language tag is accepted",
			text: "```rust\nfn main() {}\n```",
			want: Block{Language: "rust", Content: "fn main() {}"},
		},
		{
			name: "longer fence contains shorter fences",
			text: "````markdown\n```go\ninner\n```\n````",
			want: Block{Language: "markdown", Content: "```go\ninner\n```"},
		},
		{
			name: "crlf line endings",
			text: "```js\r\nlet a = 1;\r\n```\r\n",
			want: Block{Language: "js", Content: "let a = 1;"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FinalCodeBlock(tt.text)
			if tt.wantMiss {
				assert.False(t, ok)
				assert.Zero(t, got)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFinalCodeBlock_LivePreview(t *testing.T) {
	// Re-running extraction on every prefix of a stream only reports a block
	// once the closing fence has arrived.
	chunks := []string{"Here you go:\n", "```go\n", "package main\n", "```"}

	var agg Aggregator
	var seen []bool
	for _, c := range chunks {
		_, ok := FinalCodeBlock(agg.Append(c))
		seen = append(seen, ok)
	}

	assert.Equal(t, []bool{false, false, false, true}, seen)
	assert.Equal(t, 4, agg.Chunks())
}

func TestAggregator(t *testing.T) {
	var agg Aggregator
	assert.Equal(t, "a", agg.Append("a"))
	assert.Equal(t, "ab", agg.Append("b"))
	assert.Equal(t, "ab", agg.Text())
	assert.Equal(t, 2, agg.Len())

	agg.Reset()
	assert.Empty(t, agg.Text())
	assert.Zero(t, agg.Chunks())
}
