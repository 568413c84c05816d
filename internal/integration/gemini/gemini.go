// Package gemini implements llm.Generator on top of the Google Gen AI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/llm"
)

// Options configures the client.
type Options struct {
	APIKey string
	// BaseURL overrides the API endpoint, used by tests.
	BaseURL string
}

// Generator talks to the Gemini API. A Generator built without an API key is
// valid but every call fails with llm.ErrConfiguration.
type Generator struct {
	client *genai.Client
	log    zerolog.Logger
}

var _ llm.Generator = (*Generator)(nil)

// New creates a Generator. Client construction errors are returned; a missing
// key is not an error here and is reported by Ready.
func New(ctx context.Context, opts Options, log zerolog.Logger) (*Generator, error) {
	g := &Generator{log: log}
	if opts.APIKey == "" {
		return g, nil
	}

	cc := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	g.client = client
	return g, nil
}

// Ready implements llm.Generator.
func (g *Generator) Ready() error {
	if g.client == nil {
		return fmt.Errorf("%w: no API key", llm.ErrConfiguration)
	}
	return nil
}

// StreamGenerate implements llm.Generator.
func (g *Generator) StreamGenerate(ctx context.Context, req llm.Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if err := g.Ready(); err != nil {
			yield("", err)
			return
		}

		contents := []*genai.Content{genai.NewContentFromText(req.Payload, genai.RoleUser)}
		stream := g.client.Models.GenerateContentStream(ctx, req.Model, contents, generateConfig(req.SystemInstruction))

		relay(ctx, stream, yield)
	}
}

// GenerateStructured implements llm.Generator.
func (g *Generator) GenerateStructured(ctx context.Context, req llm.Request, schema *llm.Schema) ([]byte, error) {
	if err := g.Ready(); err != nil {
		return nil, err
	}

	cfg := generateConfig(req.SystemInstruction)
	cfg.ResponseMIMEType = "application/json"
	cfg.ResponseSchema = convertSchema(schema)

	contents := []*genai.Content{genai.NewContentFromText(req.Payload, genai.RoleUser)}
	resp, err := g.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return nil, mapError(ctx, err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", llm.ErrStructuredDecode)
	}
	return []byte(text), nil
}

// OpenDialogue implements llm.Generator.
func (g *Generator) OpenDialogue(ctx context.Context, model, systemInstruction string, history []llm.Message) (llm.Dialogue, error) {
	if err := g.Ready(); err != nil {
		return nil, err
	}

	seed := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		seed = append(seed, toContent(m))
	}

	chat, err := g.client.Chats.Create(ctx, model, generateConfig(systemInstruction), seed)
	if err != nil {
		return nil, mapError(ctx, err)
	}

	g.log.Debug().Str("model", model).Int("history", len(history)).Msg("dialogue opened")
	return &dialogue{chat: chat}, nil
}

type dialogue struct {
	chat *genai.Chat
}

func (d *dialogue) Send(ctx context.Context, msg llm.Message) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		parts := make([]genai.Part, 0, 1+len(msg.Attachments))
		for _, p := range toContent(msg).Parts {
			parts = append(parts, *p)
		}
		relay(ctx, d.chat.SendMessageStream(ctx, parts...), yield)
	}
}

// relay forwards non-empty text from a response stream and maps the first error.
func relay(ctx context.Context, stream iter.Seq2[*genai.GenerateContentResponse, error], yield func(string, error) bool) {
	for resp, err := range stream {
		if err != nil {
			yield("", mapError(ctx, err))
			return
		}
		if text := resp.Text(); text != "" {
			if !yield(text, nil) {
				return
			}
		}
	}
}

func generateConfig(systemInstruction string) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if systemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemInstruction, genai.RoleUser)
	}
	return cfg
}

func toContent(m llm.Message) *genai.Content {
	parts := make([]*genai.Part, 0, 1+len(m.Attachments))
	if m.Text != "" {
		parts = append(parts, genai.NewPartFromText(m.Text))
	}
	for _, a := range m.Attachments {
		parts = append(parts, genai.NewPartFromBytes(a.Data, a.MIMEType))
	}

	role := genai.Role(genai.RoleUser)
	if m.Role == llm.RoleModel {
		role = genai.RoleModel
	}
	return genai.NewContentFromParts(parts, role)
}

// mapError translates SDK errors into the llm taxonomy.
func mapError(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", llm.ErrCancelled, err)
	}

	if apiErr, ok := asAPIError(err); ok {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s", llm.ErrConfiguration, apiErr.Message)
		}
		return fmt.Errorf("%w: %d %s", llm.ErrTransport, apiErr.Code, apiErr.Status)
	}

	return fmt.Errorf("%w: %w", llm.ErrTransport, err)
}

func asAPIError(err error) (genai.APIError, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	var ptr *genai.APIError
	if errors.As(err, &ptr) && ptr != nil {
		return *ptr, true
	}
	return genai.APIError{}, false
}
