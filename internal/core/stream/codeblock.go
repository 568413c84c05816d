package stream

import (
	"strings"
)

const fenceChar = '`'

// Block is a fenced code block.
type Block struct {
	Language string `json:"language,omitempty"`
	Content  string `json:"content"`
}

type fence struct {
	width    int
	language string
	start    int
}

// FinalCodeBlock returns the last fenced block whose closing fence ends the
// text, ignoring trailing whitespace. Blocks that close earlier in the text are
// illustrative and never returned. Any language tag is accepted.
//
// The second result is false when the text does not end with a closed block.
func FinalCodeBlock(text string) (Block, bool) {
	trimmed := strings.TrimRight(text, " \t\r\n")
	if trimmed == "" {
		return Block{}, false
	}

	lines := strings.Split(trimmed, "\n")

	var (
		open *fence
		last Block
		ok   bool
	)

	for i, line := range lines {
		line = strings.TrimRight(line, "\r")

		if open == nil {
			if f, isFence := openingFence(line); isFence {
				f.start = i + 1
				open = &f
			}
			continue
		}

		if !closingFence(line, open.width) {
			continue
		}

		if i == len(lines)-1 {
			last = Block{
				Language: open.language,
				Content:  strings.TrimSpace(strings.Join(lines[open.start:i], "\n")),
			}
			ok = true
		}
		open = nil
	}

	return last, ok
}

func openingFence(line string) (fence, bool) {
	s := strings.TrimLeft(line, " ")
	if len(line)-len(s) > 3 {
		return fence{}, false
	}

	width := fenceWidth(s)
	if width < 3 {
		return fence{}, false
	}

	info := strings.TrimSpace(s[width:])
	if strings.ContainsRune(info, fenceChar) {
		return fence{}, false
	}

	lang, _, _ := strings.Cut(info, " ")
	return fence{width: width, language: lang}, true
}

func closingFence(line string, width int) bool {
	s := strings.TrimLeft(line, " ")
	if len(line)-len(s) > 3 {
		return false
	}

	w := fenceWidth(s)
	return w >= width && strings.TrimSpace(s[w:]) == ""
}

func fenceWidth(s string) int {
	n := 0
	for n < len(s) && s[n] == fenceChar {
		n++
	}
	return n
}
