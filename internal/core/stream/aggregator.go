// Package stream accumulates streamed response text and extracts the code
// artifacts a response carries.
package stream

import "strings"

// Aggregator concatenates chunks in arrival order. It performs no coalescing
// or reordering; the running text is always the exact concatenation.
type Aggregator struct {
	buf    strings.Builder
	chunks int
}

// Append adds chunk and returns the running text.
func (a *Aggregator) Append(chunk string) string {
	a.buf.WriteString(chunk)
	a.chunks++
	return a.buf.String()
}

// Text returns the accumulated text.
func (a *Aggregator) Text() string {
	return a.buf.String()
}

// Chunks returns how many chunks were appended since the last reset.
func (a *Aggregator) Chunks() int {
	return a.chunks
}

// Len returns the byte length of the accumulated text.
func (a *Aggregator) Len() int {
	return a.buf.Len()
}

// Reset discards the accumulated text.
func (a *Aggregator) Reset() {
	a.buf.Reset()
	a.chunks = 0
}
