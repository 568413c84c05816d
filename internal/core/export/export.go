// Package export reads and writes the session bundle: the live session plus
// every saved version, as one JSON document.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hay-kot/criterio"
	"github.com/oklog/ulid/v2"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/session"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/version"
)

// FormatVersion is the bundle format written by this package.
const FormatVersion = 1

// ErrMalformed is wrapped by every Decode validation failure.
var ErrMalformed = errors.New("malformed session bundle")

// Bundle is the exported session.
type Bundle struct {
	FormatVersion int               `json:"format_version"`
	ExportedAt    time.Time         `json:"exported_at"`
	Session       session.Snapshot  `json:"session"`
	Versions      []version.Version `json:"versions"`
}

// New builds a bundle from a session and its versions.
func New(s session.Session, versions []version.Version, now time.Time) Bundle {
	if versions == nil {
		versions = []version.Version{}
	}
	return Bundle{
		FormatVersion: FormatVersion,
		ExportedAt:    now.UTC(),
		Session:       s.Snapshot(),
		Versions:      versions,
	}
}

// Encode writes b as indented JSON.
func Encode(w io.Writer, b Bundle) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("encode bundle: %w", err)
	}
	return nil
}

// envelope holds the raw top-level fields so missing and mistyped members can
// be told apart before anything is decoded into live types.
type envelope struct {
	FormatVersion *int            `json:"format_version"`
	ExportedAt    time.Time       `json:"exported_at"`
	Session       json.RawMessage `json:"session"`
	Versions      json.RawMessage `json:"versions"`
}

// Decode reads and validates a bundle. Validation failures wrap ErrMalformed
// and carry criterio field errors.
func Decode(r io.Reader) (Bundle, error) {
	var env envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return Bundle{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if err := env.validate(); err != nil {
		return Bundle{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	b := Bundle{FormatVersion: *env.FormatVersion, ExportedAt: env.ExportedAt}

	var errs criterio.FieldErrorsBuilder
	if err := json.Unmarshal(env.Versions, &b.Versions); err != nil {
		errs = errs.Append("versions", err)
	}
	if err := json.Unmarshal(env.Session, &b.Session); err != nil {
		errs = errs.Append("session", err)
	}
	if err := errs.ToError(); err != nil {
		return Bundle{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if err := b.Validate(); err != nil {
		return Bundle{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return b, nil
}

func (e envelope) validate() error {
	var errs criterio.FieldErrorsBuilder

	switch {
	case e.FormatVersion == nil:
		errs = errs.Append("format_version", errors.New("is required"))
	case *e.FormatVersion != FormatVersion:
		errs = errs.Append("format_version", fmt.Errorf("unsupported version %d", *e.FormatVersion))
	}

	if !isKind(e.Versions, '[') {
		errs = errs.Append("versions", errors.New("must be a list"))
	}
	if !isKind(e.Session, '{') {
		errs = errs.Append("session", errors.New("must be an object"))
	}

	return errs.ToError()
}

// Validate checks the decoded contents. Version ids must be ULIDs in
// ascending order, which is the order versions are listed in once stored.
func (b Bundle) Validate() error {
	var errs criterio.FieldErrorsBuilder

	if !b.Session.Mode.Valid() {
		errs = errs.Append("session.mode", fmt.Errorf("unknown mode %q", b.Session.Mode))
	}

	var prev ulid.ULID
	for i, v := range b.Versions {
		field := fmt.Sprintf("versions[%d]", i)
		id, err := ulid.ParseStrict(v.ID)
		switch {
		case v.ID == "":
			errs = errs.Append(field+".id", errors.New("is required"))
		case err != nil:
			errs = errs.Append(field+".id", fmt.Errorf("%q is not a ULID: %w", v.ID, err))
		case i > 0 && id.Compare(prev) == 0:
			errs = errs.Append(field+".id", fmt.Errorf("duplicate id %q", v.ID))
		case i > 0 && id.Compare(prev) < 0:
			errs = errs.Append(field+".id", fmt.Errorf("id %q is out of order", v.ID))
		}
		if err == nil {
			prev = id
		}

		if v.Name == "" {
			errs = errs.Append(field+".name", errors.New("is required"))
		}
		if !v.Session.Mode.Valid() {
			errs = errs.Append(field+".session.mode", fmt.Errorf("unknown mode %q", v.Session.Mode))
		}
	}

	return errs.ToError()
}

func isKind(raw json.RawMessage, open byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == open
}
