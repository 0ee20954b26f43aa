// Package profile holds the partially-populated activity profile rendered by
// the driver. Only the sync pipeline mutates it.
package profile

import (
	"image"
	"time"

	"github.com/timeline-badge/timeline/internal/engine/types"
)

// Phase is how far the profile has been populated
type Phase int

const (
	Empty Phase = iota
	DetailsLoaded
	ContributionsLoaded
	AvatarLoaded
	Complete // AvatarLoaded and the pass that loaded it has finished
)

func (p Phase) String() string {
	switch p {
	case Empty:
		return "empty"
	case DetailsLoaded:
		return "details"
	case ContributionsLoaded:
		return "contributions"
	case AvatarLoaded:
		return "avatar"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Profile is the user's activity profile. Fields stay at their zero value
// until the stage that owns them completes.
type Profile struct {
	Handle      string
	Name        string
	Location    string
	Followers   int
	PublicRepos int

	TotalContributions int
	HasContributions   bool
	Grid               *Grid
	RangeStart         time.Time
	RangeEnd           time.Time

	Avatar image.Image

	synced bool
}

// New creates an empty profile whose grid has the given number of weeks.
func New(handle string, weeks int) *Profile {
	if weeks <= 0 {
		weeks = types.DefaultWeeks
	}
	return &Profile{
		Handle: handle,
		Grid:   NewGrid(weeks),
	}
}

// HasDetails reports whether the details stage has populated the name.
func (p *Profile) HasDetails() bool { return p.Name != "" }

// HasAvatar reports whether an avatar has been decoded.
func (p *Profile) HasAvatar() bool { return p.Avatar != nil }

// Phase derives the lifecycle phase from which fields are set. Stages
// complete in order, so a later field is never considered without the
// earlier ones.
func (p *Profile) Phase() Phase {
	switch {
	case !p.HasDetails():
		return Empty
	case !p.HasContributions:
		return DetailsLoaded
	case !p.HasAvatar():
		return ContributionsLoaded
	case !p.synced:
		return AvatarLoaded
	default:
		return Complete
	}
}

// MarkComplete records that the pass populating the profile has finished.
// It has no effect before the avatar is loaded.
func (p *Profile) MarkComplete() {
	if p.HasAvatar() {
		p.synced = true
	}
}

// IsComplete reports whether every stage has populated its fields.
func (p *Profile) IsComplete() bool { return p.Phase() == Complete }

// Reset clears every fetched field. The handle comes from configuration and
// is kept.
func (p *Profile) Reset() {
	weeks := types.DefaultWeeks
	if p.Grid != nil {
		weeks = p.Grid.Weeks()
	}
	*p = Profile{
		Handle: p.Handle,
		Grid:   NewGrid(weeks),
	}
}

// Snapshot returns a copy the driver can read while the pipeline keeps
// mutating the original. The avatar image is shared; it is never mutated
// after decoding.
func (p *Profile) Snapshot() Profile {
	cp := *p
	if p.Grid != nil {
		cp.Grid = p.Grid.Clone()
	}
	return cp
}
