// Package flags stores process-wide feature flags in the KV under the
// "flags" namespace.
package flags

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/kv"
)

// Namespace is the KV namespace flags are stored under.
const Namespace = "flags"

// Known flags.
const (
	// RenderMarkdown renders completed output with glamour when stdout is a
	// terminal.
	RenderMarkdown = "render_markdown"
	// AutoSave saves a version after every completed primary operation.
	AutoSave = "auto_save"
	// ShowPrompt prints the rendered prompt before streaming.
	ShowPrompt = "show_prompt"
)

var defaults = map[string]bool{
	RenderMarkdown: true,
	AutoSave:       false,
	ShowPrompt:     false,
}

// ErrUnknown is returned for a flag name that is not defined.
var ErrUnknown = errors.New("unknown flag")

// Flag is a flag and its effective value.
type Flag struct {
	Name    string `json:"name"`
	Value   bool   `json:"value"`
	Default bool   `json:"default"`
}

// Flags reads and writes flags.
type Flags struct {
	store *kv.TypedKV[bool]
}

// New returns flags backed by store.
func New(store kv.KV) *Flags {
	return &Flags{store: kv.Scoped[bool](store, Namespace)}
}

// Names lists every known flag, sorted.
func Names() []string {
	names := make([]string, 0, len(defaults))
	for n := range defaults {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Enabled returns the stored value of name, or its default when unset.
func (f *Flags) Enabled(ctx context.Context, name string) (bool, error) {
	def, ok := defaults[name]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknown, name)
	}

	v, err := f.store.Get(ctx, name)
	if errors.Is(err, kv.ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return def, fmt.Errorf("read flag %q: %w", name, err)
	}
	return v, nil
}

// Set stores a value for name.
func (f *Flags) Set(ctx context.Context, name string, value bool) error {
	if _, ok := defaults[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	return f.store.Set(ctx, name, value)
}

// Unset reverts name to its default.
func (f *Flags) Unset(ctx context.Context, name string) error {
	if _, ok := defaults[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	err := f.store.Delete(ctx, name)
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	return err
}

// List returns every known flag with its effective value.
func (f *Flags) List(ctx context.Context) ([]Flag, error) {
	names := Names()
	out := make([]Flag, 0, len(names))
	for _, n := range names {
		v, err := f.Enabled(ctx, n)
		if err != nil {
			return nil, err
		}
		out = append(out, Flag{Name: n, Value: v, Default: defaults[n]})
	}
	return out, nil
}
