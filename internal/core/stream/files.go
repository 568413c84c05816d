package stream

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Artifact is a named piece of generated content.
type Artifact struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

var markdown = goldmark.New()

// FileBlocks returns every heading that is immediately followed by a fenced
// code block, in document order. The heading text names the artifact and the
// block body is its content.
func FileBlocks(src string) []Artifact {
	source := []byte(src)
	doc := markdown.Parser().Parse(text.NewReader(source))

	var out []Artifact
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		heading, ok := n.(*ast.Heading)
		if !ok {
			continue
		}

		block, ok := heading.NextSibling().(*ast.FencedCodeBlock)
		if !ok {
			continue
		}

		name := fileName(inlineText(heading, source))
		if name == "" {
			continue
		}

		out = append(out, Artifact{
			Name:    name,
			Content: strings.TrimRight(blockBody(block, source), "\n"),
		})
	}

	return out
}

func fileName(heading string) string {
	name := strings.TrimSpace(heading)
	for _, prefix := range []string{"File:", "file:", "FILE:"} {
		name = strings.TrimPrefix(name, prefix)
	}
	return strings.Trim(strings.TrimSpace(name), "`*")
}

func inlineText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := child.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func blockBody(block *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}
