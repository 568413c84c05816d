package debugger

import (
	"fmt"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/config"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/eventbus"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/flags"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/kv"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/llm"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/logging"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/prompt"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/session"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/version"
)

// App is the central entry point for all debugger operations.
// Commands consume App instead of cherry-picking raw dependencies.
type App struct {
	Versions *version.Store
	Flags    *flags.Flags
	Prompts  *prompt.Builder
	Config   *config.Config
	Bus      *eventbus.EventBus

	dispatcher *Dispatcher
}

// NewApp constructs an App from explicit dependencies.
func NewApp(cfg *config.Config, store kv.KV, gen llm.Generator, bus *eventbus.EventBus) (*App, error) {
	prompts, err := prompt.New(cfg.Prompts)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}

	return &App{
		Versions:   version.NewStore(store),
		Flags:      flags.New(store),
		Prompts:    prompts,
		Config:     cfg,
		Bus:        bus,
		dispatcher: NewDispatcher(gen, logging.Component("dispatcher")),
	}, nil
}

// Conversation starts an idle conversation in mode.
func (a *App) Conversation(mode session.Mode) *Conversation {
	return NewConversation(mode, a.dispatcher, a.Prompts, a.Versions, a.Bus, logging.Component("conversation"), Options{
		Model:           a.Config.Model,
		StructuredModel: a.Config.StructuredModel,
	})
}

// Ready reports whether generation calls can be made.
func (a *App) Ready() error {
	return a.dispatcher.Ready()
}
