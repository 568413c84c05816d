// Package version persists named, immutable session snapshots.
package version

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/kv"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/session"
)

// Namespace is the KV namespace versions are stored under.
const Namespace = "version"

var (
	// ErrNotFound is returned when a version id is unknown.
	ErrNotFound = errors.New("version not found")
	// ErrNameRequired is returned when saving without a name.
	ErrNameRequired = errors.New("version name is required")
)

// Version is a saved snapshot. It is never modified after it is created.
type Version struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	CreatedAt time.Time        `json:"created_at"`
	Session   session.Snapshot `json:"session"`
}

// Store saves and loads versions through a KV. Ids are ULIDs, so listing keys
// in order yields versions in creation order.
type Store struct {
	versions *kv.TypedKV[Version]
	now      func() time.Time
}

// NewStore returns a version store backed by store.
func NewStore(store kv.KV) *Store {
	return &Store{
		versions: kv.Scoped[Version](store, Namespace),
		now:      time.Now,
	}
}

// Save snapshots s under name. Later changes to s do not affect the version.
func (st *Store) Save(ctx context.Context, s session.Session, name string) (Version, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Version{}, ErrNameRequired
	}

	now := st.now().UTC()
	v := Version{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Name:      name,
		CreatedAt: now,
		Session:   s.Snapshot(),
	}

	if err := st.versions.Set(ctx, v.ID, v); err != nil {
		return Version{}, fmt.Errorf("save version %q: %w", name, err)
	}
	return v, nil
}

// Get loads a version by id.
func (st *Store) Get(ctx context.Context, id string) (Version, error) {
	v, err := st.versions.Get(ctx, id)
	if errors.Is(err, kv.ErrNotFound) {
		return Version{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Version{}, fmt.Errorf("get version %s: %w", id, err)
	}
	return v, nil
}

// List returns every version, oldest first.
func (st *Store) List(ctx context.Context) ([]Version, error) {
	out, err := st.versions.Values(ctx)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return out, nil
}

// Find resolves ref as an exact id, an id prefix, or a version name. The most
// recent version wins when several share a name.
func (st *Store) Find(ctx context.Context, ref string) (Version, error) {
	all, err := st.List(ctx)
	if err != nil {
		return Version{}, err
	}

	var match *Version
	for i := range all {
		v := &all[i]
		if v.ID == ref {
			return *v, nil
		}
		if v.Name == ref || (len(ref) >= 6 && strings.HasPrefix(v.ID, strings.ToUpper(ref))) {
			match = v
		}
	}
	if match == nil {
		return Version{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	return *match, nil
}

// Delete removes a version.
func (st *Store) Delete(ctx context.Context, id string) error {
	has, err := st.versions.Has(ctx, id)
	if err != nil {
		return fmt.Errorf("delete version %s: %w", id, err)
	}
	if !has {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := st.versions.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete version %s: %w", id, err)
	}
	return nil
}

// ReplaceAll writes versions and then removes every stored version not among
// them. Ids are kept so imported bundles round-trip. A failed write leaves the
// previously stored versions in place.
func (st *Store) ReplaceAll(ctx context.Context, versions []Version) error {
	stale, err := st.versions.Keys(ctx)
	if err != nil {
		return fmt.Errorf("replace versions: %w", err)
	}

	keep := make(map[string]struct{}, len(versions))
	for _, v := range versions {
		if err := st.versions.Set(ctx, v.ID, v); err != nil {
			return fmt.Errorf("replace versions: %w", err)
		}
		keep[v.ID] = struct{}{}
	}

	for _, id := range stale {
		if _, ok := keep[id]; ok {
			continue
		}
		if err := st.versions.Delete(ctx, id); err != nil {
			return fmt.Errorf("replace versions: %w", err)
		}
	}
	return nil
}

// Restore rebuilds a session from v under a new session id.
func Restore(sessionID string, v Version) (session.Session, error) {
	s, err := session.FromSnapshot(sessionID, v.Session)
	if err != nil {
		return session.Session{}, fmt.Errorf("restore version %q: %w", v.Name, err)
	}
	return s, nil
}
