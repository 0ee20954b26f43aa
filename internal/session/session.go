// Package session drives one device sync: each Tick advances the link once
// and then, when the link is up or the cache can serve every stage, the
// pipeline once.
package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/timeline-badge/timeline/internal/config"
	"github.com/timeline-badge/timeline/internal/engine/fetch"
	"github.com/timeline-badge/timeline/internal/engine/link"
	"github.com/timeline-badge/timeline/internal/engine/pipeline"
	"github.com/timeline-badge/timeline/internal/engine/types"
	"github.com/timeline-badge/timeline/internal/profile"
	"github.com/timeline-badge/timeline/internal/utils"
)

// LockFileName guards a cache directory against concurrent sessions.
const LockFileName = ".timeline.lock"

// Screen selects what the renderer should show.
type Screen int

const (
	ScreenProfile Screen = iota
	ScreenMissingDetails
	ScreenConnectionFailed
)

func (s Screen) String() string {
	switch s {
	case ScreenMissingDetails:
		return "Missing Details!"
	case ScreenConnectionFailed:
		return "Connection Failed!"
	default:
		return "profile"
	}
}

// Snapshot is the renderer's read-only view of one tick.
type Snapshot struct {
	Screen  Screen
	Status  pipeline.Status
	Link    link.State
	Elapsed time.Duration
	Profile profile.Profile
	Target  string // network name being joined
	Forced  bool
	Offline bool // serving from cache without connectivity
	Err     error
}

// Options configures a Session. Zero values select production collaborators.
type Options struct {
	Identity *config.Identity
	CacheDir string
	Runtime  *types.RuntimeConfig
	Radio    link.Radio
	Opener   fetch.Opener
	Recorder pipeline.Recorder
	Clock    func() time.Time
}

// Session owns the link manager, the pipeline and the cache directory lock.
// It is driven from a single goroutine.
type Session struct {
	identity *config.Identity
	missing  error
	cacheDir string

	link   *link.Manager
	pipe   *pipeline.Pipeline
	lock   *flock.Flock
	status pipeline.Status
	warm   bool
}

// New builds a session. An incomplete identity is not an error: the session
// then only reports ScreenMissingDetails. A cache directory held by another
// process is.
func New(opts Options) (*Session, error) {
	s := &Session{identity: opts.Identity, cacheDir: opts.CacheDir, status: pipeline.StatusConnecting}

	if err := opts.Identity.Validate(); err != nil {
		utils.Debug("Session: %v", err)
		s.missing = err
		return s, nil
	}

	if err := os.MkdirAll(opts.CacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	lock := flock.New(filepath.Join(opts.CacheDir, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock cache directory: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("cache directory %s is in use by another instance", opts.CacheDir)
	}
	s.lock = lock

	radio := opts.Radio
	if radio == nil {
		radio = link.NewHostRadio(opts.Runtime.GetProbeAddress())
	}
	opener := opts.Opener
	if opener == nil {
		opener = fetch.NewHTTPOpener(opts.Runtime)
	}

	var linkOpts []link.Option
	var pipeOpts []pipeline.Option
	if opts.Clock != nil {
		linkOpts = append(linkOpts, link.WithClock(opts.Clock))
		pipeOpts = append(pipeOpts, pipeline.WithClock(opts.Clock))
	}
	if opts.Recorder != nil {
		pipeOpts = append(pipeOpts, pipeline.WithRecorder(opts.Recorder))
	}

	target := link.Network{SSID: opts.Identity.WifiSSID, Password: opts.Identity.WifiPassword}
	s.link = link.NewManager(radio, target, opts.Runtime.GetLinkTimeout(), linkOpts...)

	prof := profile.New(opts.Identity.GitHubUsername, opts.Runtime.GetWeeks())
	s.pipe = pipeline.New(prof, opts.CacheDir, opener, opts.Runtime, pipeOpts...)
	s.warm = s.pipe.CacheComplete()
	if s.warm {
		utils.Debug("Session: warm cache in %s", opts.CacheDir)
	}
	return s, nil
}

// Tick performs one cooperative step and returns the resulting snapshot.
func (s *Session) Tick(ctx context.Context) Snapshot {
	if s.missing != nil {
		return s.Snapshot()
	}

	s.link.Advance()
	connected := s.link.State() == link.Connected

	s.status = s.pipe.Advance(ctx, connected || s.warm)
	if s.status == pipeline.StatusError && s.warm && !connected {
		// A cache file failed to decode and was removed; further stages
		// need the network.
		utils.Debug("Session: warm cache unusable: %v", s.pipe.Err())
		s.warm = false
	}
	return s.Snapshot()
}

// Refresh forces every stage to refetch from the network. A failed link is
// re-armed so the refetch can proceed.
func (s *Session) Refresh() {
	if s.missing != nil {
		return
	}
	s.warm = false
	s.pipe.Refresh()
	if s.link.State() == link.Failed {
		s.link.Reset()
	}
	s.status = pipeline.StatusConnecting
}

// Reset abandons the active fetch, clears the profile and restarts the link.
func (s *Session) Reset() {
	if s.missing != nil {
		return
	}
	s.pipe.Cancel()
	s.link.Reset()
	s.warm = s.pipe.CacheComplete()
	s.status = pipeline.StatusConnecting
}

// Handle returns the configured profile handle, empty when unconfigured.
func (s *Session) Handle() string {
	if s.pipe != nil {
		return s.pipe.Profile().Handle
	}
	if s.identity != nil {
		return s.identity.GitHubUsername
	}
	return ""
}

// Snapshot returns the current view without advancing anything.
func (s *Session) Snapshot() Snapshot {
	if s.missing != nil {
		return Snapshot{Screen: ScreenMissingDetails, Status: s.status, Err: s.missing}
	}

	snap := Snapshot{
		Screen:  ScreenProfile,
		Status:  s.status,
		Link:    s.link.State(),
		Elapsed: s.link.Elapsed(),
		Profile: s.pipe.Profile().Snapshot(),
		Target:  s.link.Target().SSID,
		Forced:  s.pipe.Forced(),
		Offline: s.warm && s.link.State() != link.Connected,
		Err:     s.pipe.Err(),
	}
	if snap.Link == link.Failed && !snap.Offline {
		snap.Screen = ScreenConnectionFailed
		snap.Err = s.link.Err()
	}
	return snap
}

// Close releases the active fetch and the cache lock.
func (s *Session) Close() error {
	var err error
	if s.pipe != nil {
		err = s.pipe.Close()
	}
	if s.lock != nil {
		if uerr := s.lock.Unlock(); uerr != nil && err == nil {
			err = uerr
		}
		s.lock = nil
	}
	return err
}
