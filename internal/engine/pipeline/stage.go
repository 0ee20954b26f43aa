package pipeline

import (
	"path/filepath"

	"github.com/timeline-badge/timeline/internal/engine/types"
)

// Stage is one fetch+parse phase of the pipeline
type Stage int

const (
	StageDetails Stage = iota
	StageContributions
	StageAvatar
	StageNone // every stage satisfied
)

func (s Stage) String() string {
	switch s {
	case StageDetails:
		return "details"
	case StageContributions:
		return "contributions"
	case StageAvatar:
		return "avatar"
	default:
		return "none"
	}
}

// Stages lists the fetch stages in the order they run.
var Stages = []Stage{StageDetails, StageContributions, StageAvatar}

// Status is the human-readable progress label returned by Advance
type Status int

const (
	StatusConnecting Status = iota
	StatusFetchingDetails
	StatusFetchingContributions
	StatusFetchingAvatar
	StatusError
	StatusComplete
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting..."
	case StatusFetchingDetails:
		return "fetching user data..."
	case StatusFetchingContributions:
		return "fetching contribs..."
	case StatusFetchingAvatar:
		return "fetching avatar..."
	case StatusError:
		return "fetch error"
	case StatusComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Status returns the label shown while the stage is active.
func (s Stage) Status() Status {
	switch s {
	case StageDetails:
		return StatusFetchingDetails
	case StageContributions:
		return StatusFetchingContributions
	case StageAvatar:
		return StatusFetchingAvatar
	default:
		return StatusComplete
	}
}

func (s Stage) fileName() string {
	switch s {
	case StageDetails:
		return types.DetailsFile
	case StageContributions:
		return types.ContributionsFile
	default:
		return types.AvatarFile
	}
}

func (s Stage) locatorTemplate(rc *types.RuntimeConfig) string {
	switch s {
	case StageDetails:
		return rc.GetDetailsURL()
	case StageContributions:
		return rc.GetContributionsURL()
	default:
		return rc.GetAvatarURL()
	}
}

// Destination returns the cache file of a stage under dir.
func Destination(dir string, s Stage) string {
	return filepath.Join(dir, s.fileName())
}
