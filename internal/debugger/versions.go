package debugger

import (
	"context"
	"fmt"
	"time"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/eventbus"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/export"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/llm"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/session"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/version"
)

// SaveVersion persists a snapshot of the session under name.
func (c *Conversation) SaveVersion(ctx context.Context, name string) (version.Version, error) {
	s := c.Snapshot()

	v, err := c.versions.Save(ctx, s, name)
	if err != nil {
		return version.Version{}, err
	}

	c.log.Info().Str("version_id", v.ID).Str("name", v.Name).Msg("version saved")
	c.bus.PublishVersionSaved(eventbus.VersionSavedPayload{ID: v.ID, Name: v.Name})
	return v, nil
}

// Versions lists saved versions, oldest first.
func (c *Conversation) Versions(ctx context.Context) ([]version.Version, error) {
	return c.versions.List(ctx)
}

// DeleteVersion removes the version matching ref (id, id prefix or name).
func (c *Conversation) DeleteVersion(ctx context.Context, ref string) (version.Version, error) {
	v, err := c.versions.Find(ctx, ref)
	if err != nil {
		return version.Version{}, err
	}
	if err := c.versions.Delete(ctx, v.ID); err != nil {
		return version.Version{}, err
	}
	return v, nil
}

// RestoreRef restores the version matching ref.
func (c *Conversation) RestoreRef(ctx context.Context, ref string) (version.Version, error) {
	v, err := c.versions.Find(ctx, ref)
	if err != nil {
		return version.Version{}, err
	}
	return v, c.Restore(ctx, v)
}

// Restore replaces the live session with v. When v carries a chat, a fresh
// remote dialogue is opened and seeded with the anchor pair and every turn. If
// it cannot be opened now it is opened on the next turn.
func (c *Conversation) Restore(ctx context.Context, v version.Version) error {
	s, err := version.Restore(c.opts.NewID(), v)
	if err != nil {
		return err
	}

	dlg := c.reopenDialogue(ctx, s)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.dispatcher.Cancel()
	from := c.sess.State
	c.install(s, dlg)

	c.bus.PublishVersionRestored(eventbus.VersionRestoredPayload{
		SessionID: s.ID,
		VersionID: v.ID,
		Name:      v.Name,
	})
	c.publishReplaced(from)
	return nil
}

// Export builds a bundle of the session and every saved version.
func (c *Conversation) Export(ctx context.Context) (export.Bundle, error) {
	versions, err := c.versions.List(ctx)
	if err != nil {
		return export.Bundle{}, fmt.Errorf("export: %w", err)
	}
	return export.New(c.Snapshot(), versions, time.Now()), nil
}

// Import replaces the saved versions and the live session with the bundle's.
// Nothing is replaced when the bundle's session cannot be rebuilt.
func (c *Conversation) Import(ctx context.Context, b export.Bundle) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("import: %w: %w", export.ErrMalformed, err)
	}

	s, err := session.FromSnapshot(c.opts.NewID(), b.Session)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	for _, v := range b.Versions {
		if _, err := version.Restore(s.ID, v); err != nil {
			return fmt.Errorf("import: %w", err)
		}
	}

	if err := c.versions.ReplaceAll(ctx, b.Versions); err != nil {
		return fmt.Errorf("import: %w", err)
	}

	dlg := c.reopenDialogue(ctx, s)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.dispatcher.Cancel()
	from := c.sess.State
	c.install(s, dlg)
	c.publishReplaced(from)

	c.log.Info().Int("versions", len(b.Versions)).Msg("session imported")
	return nil
}

// reopenDialogue opens the remote dialogue of a restored chat, or returns nil.
func (c *Conversation) reopenDialogue(ctx context.Context, s session.Session) llm.Dialogue {
	if s.Chat == nil {
		return nil
	}
	dlg, err := c.openChatDialogue(ctx, s.Inputs, s.Chat)
	if err != nil {
		c.log.Warn().Err(err).Msg("dialogue not reopened; retrying on next turn")
		return nil
	}
	return dlg
}

// publishReplaced announces a wholesale session replacement. Callers hold the
// lock.
func (c *Conversation) publishReplaced(from session.State) {
	if from == c.sess.State {
		return
	}
	c.bus.PublishSessionStateChanged(eventbus.SessionStateChangedPayload{
		SessionID: c.sess.ID,
		From:      from,
		To:        c.sess.State,
	})
}
