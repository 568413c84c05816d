package chat

import (
	"slices"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/stream"
)

// Snapshot is the serializable form of a channel. A pending model turn is
// stored with whatever content it had received.
type Snapshot struct {
	Anchor      Anchor            `json:"anchor"`
	Turns       []Turn            `json:"turns"`
	Revisions   []stream.Artifact `json:"revisions,omitempty"`
	Files       []stream.Artifact `json:"files,omitempty"`
	RevisionSeq int               `json:"revision_seq,omitempty"`
}

// Snapshot returns a deep copy of the channel's persistent state.
func (c *Channel) Snapshot() Snapshot {
	return Snapshot{
		Anchor:      c.anchor,
		Turns:       cloneTurns(c.turns),
		Revisions:   slices.Clone(c.revisions),
		Files:       slices.Clone(c.files),
		RevisionSeq: c.revSeq,
	}
}

// FromSnapshot rebuilds a settled channel from s.
func FromSnapshot(s Snapshot) *Channel {
	return &Channel{
		anchor:    s.Anchor,
		turns:     cloneTurns(s.Turns),
		revisions: slices.Clone(s.Revisions),
		files:     slices.Clone(s.Files),
		revSeq:    max(s.RevisionSeq, nextRevisionSeq(s.Revisions)),
	}
}
