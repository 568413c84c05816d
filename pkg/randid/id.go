// Package randid generates short random identifiers for in-process sessions.
package randid

import (
	"crypto/rand"
	"math/big"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Generate returns a random lowercase alphanumeric string of length n.
func Generate(n int) string {
	if n <= 0 {
		return ""
	}

	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("randid: " + err.Error())
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out)
}

// Prefixed returns prefix, a dash and n random characters, e.g. "sess-k3x9a0qe".
// An empty prefix returns Generate(n).
func Prefixed(prefix string, n int) string {
	if prefix == "" {
		return Generate(n)
	}
	return prefix + "-" + Generate(n)
}
