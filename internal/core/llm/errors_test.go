package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: KindNone},
		{name: "cancelled", err: fmt.Errorf("stream: %w", ErrCancelled), want: KindCancelled},
		{name: "context canceled", err: context.Canceled, want: KindCancelled},
		{name: "configuration", err: fmt.Errorf("gemini: %w", ErrConfiguration), want: KindConfiguration},
		{name: "decode", err: fmt.Errorf("features: %w", ErrStructuredDecode), want: KindStructuredDecode},
		{name: "transport", err: fmt.Errorf("stream: %w", ErrTransport), want: KindTransport},
		{name: "unknown", err: errors.New("connection reset"), want: KindTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestDescribe(t *testing.T) {
	assert.Empty(t, Describe(nil))
	assert.Empty(t, Describe(ErrCancelled))
	assert.Contains(t, Describe(ErrConfiguration), "API key")
	assert.NotContains(t, Describe(errors.New("dial tcp 10.0.0.1:443: i/o timeout")), "10.0.0.1")
}
