// Package pipeline runs the three profile stages (details, contributions,
// avatar) over a shared profile, advancing at most one fetch chunk per call.
package pipeline

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/timeline-badge/timeline/internal/engine/fetch"
	"github.com/timeline-badge/timeline/internal/engine/types"
	"github.com/timeline-badge/timeline/internal/profile"
	"github.com/timeline-badge/timeline/internal/utils"
)

// Recorder receives one entry per finished fetch
type Recorder interface {
	RecordFetch(entry types.FetchEntry) error
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRecorder attaches a fetch history sink.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithClock overrides the time source used for history timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// Pipeline owns the profile, the cache directory and at most one active
// fetch task. It is driven by repeated Advance calls from a single goroutine.
type Pipeline struct {
	profile  *profile.Profile
	cacheDir string
	opener   fetch.Opener
	runtime  *types.RuntimeConfig
	recorder Recorder
	now      func() time.Time

	task      *fetch.Task
	taskStage Stage

	force    bool
	passID   string
	err      error
	warnings error
}

// New creates a pipeline for p caching under cacheDir.
func New(p *profile.Profile, cacheDir string, opener fetch.Opener, runtime *types.RuntimeConfig, opts ...Option) *Pipeline {
	pl := &Pipeline{
		profile:   p,
		cacheDir:  cacheDir,
		opener:    opener,
		runtime:   runtime,
		now:       time.Now,
		taskStage: StageNone,
		passID:    uuid.New().String(),
	}
	for _, opt := range opts {
		opt(pl)
	}
	return pl
}

// Profile returns the profile the pipeline populates.
func (p *Pipeline) Profile() *profile.Profile { return p.profile }

// Forced reports whether the current pass bypasses the cache.
func (p *Pipeline) Forced() bool { return p.force }

// PassID identifies the current sync pass in fetch history.
func (p *Pipeline) PassID() string { return p.passID }

// Err returns the most recent stage failure, cleared by the next success.
func (p *Pipeline) Err() error { return p.err }

// Warnings returns the payload errors of the last parsed document.
func (p *Pipeline) Warnings() []error { return multierr.Errors(p.warnings) }

// Stage returns the first stage whose fields are not yet populated.
func (p *Pipeline) Stage() Stage {
	switch p.profile.Phase() {
	case profile.Empty:
		return StageDetails
	case profile.DetailsLoaded:
		return StageContributions
	case profile.ContributionsLoaded:
		return StageAvatar
	default:
		return StageNone
	}
}

// CacheComplete reports whether every stage already has a cache file.
func (p *Pipeline) CacheComplete() bool {
	for _, s := range Stages {
		if !fetch.IsCached(Destination(p.cacheDir, s)) {
			return false
		}
	}
	return true
}

// Advance performs one unit of work: create the current stage's task, step
// it once, or parse its result. Without connectivity nothing happens.
func (p *Pipeline) Advance(ctx context.Context, connected bool) Status {
	if !connected {
		return StatusConnecting
	}

	stage := p.Stage()
	if stage == StageNone {
		p.completePass()
		return StatusComplete
	}

	if p.task == nil || p.taskStage != stage {
		p.closeTask()
		return p.startTask(stage)
	}

	status, err := p.task.Step(ctx)
	switch status {
	case fetch.Pending:
		return stage.Status()
	case fetch.Failed:
		task := p.task
		p.task = nil
		p.taskStage = StageNone
		p.err = err
		p.record(stage, task, err)
		utils.Debug("Pipeline: %s fetch failed: %v", stage, err)
		return StatusError
	}

	task := p.task
	p.task = nil
	p.taskStage = StageNone
	if err := p.populate(stage); err != nil {
		p.err = err
		p.record(stage, task, err)
		utils.Debug("Pipeline: %s decode failed: %v", stage, err)
		if rmErr := os.Remove(task.Destination); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			utils.Debug("Pipeline: removing %s: %v", task.Destination, rmErr)
		}
		return StatusError
	}
	p.err = nil
	p.record(stage, task, nil)

	if p.Stage() == StageNone {
		p.completePass()
		return StatusComplete
	}
	return stage.Status()
}

// Refresh starts a forced pass: the active task is abandoned, the profile is
// cleared and every stage is fetched from the network until the pass
// completes.
func (p *Pipeline) Refresh() {
	p.closeTask()
	p.profile.Reset()
	p.force = true
	p.err = nil
	p.warnings = nil
	p.passID = uuid.New().String()
	utils.Debug("Pipeline: forced refresh, pass %s", p.passID)
}

// Cancel abandons the active task and clears the profile without forcing a
// network refetch; the next pass reloads from cache where possible.
func (p *Pipeline) Cancel() {
	p.closeTask()
	p.profile.Reset()
	p.force = false
	p.err = nil
	p.warnings = nil
	p.passID = uuid.New().String()
}

// Close releases the active task, if any.
func (p *Pipeline) Close() error {
	if p.task == nil {
		return nil
	}
	err := p.task.Close()
	p.task = nil
	p.taskStage = StageNone
	return err
}

func (p *Pipeline) startTask(stage Stage) Status {
	locator, err := utils.ExpandLocator(stage.locatorTemplate(p.runtime), p.profile.Handle)
	if err != nil {
		p.err = &types.FetchError{Locator: stage.locatorTemplate(p.runtime), Destination: Destination(p.cacheDir, stage), Err: err}
		utils.Debug("Pipeline: %s locator: %v", stage, err)
		return StatusError
	}
	p.task = fetch.NewTask(p.opener, locator, Destination(p.cacheDir, stage), p.force, p.runtime.GetChunkSize())
	p.taskStage = stage
	return stage.Status()
}

func (p *Pipeline) closeTask() {
	if p.task == nil {
		return
	}
	_ = p.task.Close()
	p.task = nil
	p.taskStage = StageNone
}

func (p *Pipeline) completePass() {
	p.profile.MarkComplete()
	if p.force {
		utils.Debug("Pipeline: forced pass %s complete", p.passID)
	}
	p.force = false
}

func (p *Pipeline) populate(stage Stage) error {
	path := Destination(p.cacheDir, stage)
	var warnings, err error
	switch stage {
	case StageDetails:
		warnings, err = parseDetails(path, p.profile)
	case StageContributions:
		warnings, err = parseContributions(path, p.profile)
	case StageAvatar:
		img, decodeErr := decodeAvatar(path)
		if decodeErr == nil {
			p.profile.Avatar = img
		}
		err = decodeErr
	}
	if err != nil {
		return err
	}
	p.warnings = warnings
	for _, w := range multierr.Errors(warnings) {
		utils.Debug("Pipeline: %s payload: %v", stage, w)
	}
	return nil
}

func (p *Pipeline) record(stage Stage, task *fetch.Task, cause error) {
	if p.recorder == nil {
		return
	}
	entry := types.FetchEntry{
		PassID:      p.passID,
		Resource:    stage.String(),
		URL:         task.Locator,
		DestPath:    task.Destination,
		Bytes:       task.Written(),
		FromCache:   task.FromCache(),
		Forced:      task.Force,
		Status:      types.EntryCompleted,
		CompletedAt: p.now().Unix(),
	}
	if cause != nil {
		entry.Status = types.EntryError
		entry.Error = cause.Error()
	}
	if err := p.recorder.RecordFetch(entry); err != nil {
		utils.Debug("Pipeline: recording %s fetch: %v", stage, err)
	}
}
