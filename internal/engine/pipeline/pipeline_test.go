package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timeline-badge/timeline/internal/engine/fetch"
	"github.com/timeline-badge/timeline/internal/engine/types"
	"github.com/timeline-badge/timeline/internal/profile"
	"github.com/timeline-badge/timeline/internal/testutil"
)

const handle = "octocat"

func detailsJSON(name string) string {
	doc := map[string]any{
		"login":        handle,
		"name":         name,
		"location":     "San Francisco",
		"followers":    42,
		"public_repos": 8,
	}
	if name == "" {
		doc["name"] = nil
	}
	b, _ := json.Marshal(doc)
	return string(b)
}

// contributionsJSON builds a payload with one entry per week, every day of a
// week at the given level. Dates start on 2024-01-07.
func contributionsJSON(total int, levels []int) string {
	start := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	weeks := make([]map[string]any, 0, len(levels))
	for w, level := range levels {
		days := make([]map[string]any, 0, types.DaysPerWeek)
		for d := 0; d < types.DaysPerWeek; d++ {
			days = append(days, map[string]any{
				"level": level,
				"date":  start.AddDate(0, 0, w*7+d).Format("2006-01-02"),
			})
		}
		weeks = append(weeks, map[string]any{"contribution_days": days})
	}
	b, _ := json.Marshal(map[string]any{
		"total_contributions": total,
		"weeks":               weeks,
	})
	return string(b)
}

func runtimeFor(srv *testutil.MockServer) *types.RuntimeConfig {
	return &types.RuntimeConfig{
		ChunkSize:        64,
		DetailsURL:       srv.URL() + testutil.DetailsPath,
		ContributionsURL: srv.URL() + testutil.ContributionsPath,
		AvatarURL:        srv.URL() + testutil.AvatarPath,
	}
}

func newPipeline(t *testing.T, srv *testutil.MockServer, dir string, opts ...Option) *Pipeline {
	t.Helper()
	rc := runtimeFor(srv)
	return New(profile.New(handle, types.DefaultWeeks), dir, fetch.NewHTTPOpener(rc), rc, opts...)
}

// runPass advances until the pass completes and returns every label seen.
func runPass(t *testing.T, p *Pipeline) []Status {
	t.Helper()
	var seen []Status
	for i := 0; i < 10000; i++ {
		st := p.Advance(context.Background(), true)
		seen = append(seen, st)
		if st == StatusComplete {
			return seen
		}
	}
	t.Fatalf("pass never completed, last labels: %v", seen[len(seen)-5:])
	return nil
}

func path(template string) string {
	return strings.ReplaceAll(template, "{user}", handle)
}

type memRecorder struct {
	entries []types.FetchEntry
}

func (r *memRecorder) RecordFetch(e types.FetchEntry) error {
	r.entries = append(r.entries, e)
	return nil
}

func TestPipeline_FullPass(t *testing.T) {
	srv := testutil.NewMockServerT(t, testutil.WithProfile(handle, detailsJSON("The Octocat"), contributionsJSON(120, []int{1, 2, 3})))
	dir := t.TempDir()
	p := newPipeline(t, srv, dir)

	runPass(t, p)

	prof := p.Profile()
	assert.True(t, prof.IsComplete())
	assert.Equal(t, "The Octocat", prof.Name)
	assert.Equal(t, "San Francisco", prof.Location)
	assert.Equal(t, 42, prof.Followers)
	assert.Equal(t, 8, prof.PublicRepos)
	assert.Equal(t, 120, prof.TotalContributions)
	assert.NotNil(t, prof.Avatar)
	assert.Equal(t, int64(3), srv.RequestCount.Load())
	assert.True(t, p.CacheComplete())
	assert.NoError(t, p.Err())

	for _, s := range Stages {
		assert.FileExists(t, Destination(dir, s))
		assert.NoFileExists(t, Destination(dir, s)+types.IncompleteSuffix)
	}
}

func TestPipeline_LabelsAreMonotonic(t *testing.T) {
	srv := testutil.NewMockServerT(t, testutil.WithProfile(handle, detailsJSON("Mona"), contributionsJSON(5, []int{4})))
	p := newPipeline(t, srv, t.TempDir())

	seen := runPass(t, p)

	order := map[Status]int{
		StatusFetchingDetails:       1,
		StatusFetchingContributions: 2,
		StatusFetchingAvatar:        3,
		StatusComplete:              4,
	}
	last := 0
	for _, st := range seen {
		rank, ok := order[st]
		require.True(t, ok, "unexpected label %q", st)
		assert.GreaterOrEqual(t, rank, last, "label %q went backwards", st)
		last = rank
	}
	assert.Contains(t, seen, StatusFetchingDetails)
	assert.Contains(t, seen, StatusFetchingContributions)
	assert.Contains(t, seen, StatusFetchingAvatar)
}

func TestPipeline_WarmCacheMakesNoRequests(t *testing.T) {
	srv := testutil.NewMockServerT(t, testutil.WithProfile(handle, detailsJSON("Mona"), contributionsJSON(5, []int{1, 1})))
	dir := t.TempDir()
	runPass(t, newPipeline(t, srv, dir))
	srv.Reset()

	p := newPipeline(t, srv, dir)
	require.True(t, p.CacheComplete())
	seen := runPass(t, p)

	assert.Equal(t, int64(0), srv.RequestCount.Load())
	assert.True(t, p.Profile().IsComplete())
	// create + Done per stage, completion folded into the last one
	assert.Len(t, seen, 6)
}

func TestPipeline_RefreshFetchesEachResourceOnce(t *testing.T) {
	srv := testutil.NewMockServerT(t, testutil.WithProfile(handle, detailsJSON("Mona"), contributionsJSON(5, []int{1, 1})))
	dir := t.TempDir()
	p := newPipeline(t, srv, dir)
	runPass(t, p)
	srv.Reset()

	p.Refresh()
	assert.True(t, p.Forced())
	assert.Equal(t, profile.Empty, p.Profile().Phase())

	runPass(t, p)

	assert.Equal(t, int64(3), srv.RequestCount.Load())
	assert.Equal(t, 1, srv.Requests(path(testutil.DetailsPath)))
	assert.Equal(t, 1, srv.Requests(path(testutil.ContributionsPath)))
	assert.Equal(t, 1, srv.Requests(path(testutil.AvatarPath)))
	assert.False(t, p.Forced())
	assert.True(t, p.Profile().IsComplete())

	srv.Reset()
	p.Cancel()
	runPass(t, p)
	assert.Equal(t, int64(0), srv.RequestCount.Load())
}

func TestPipeline_PartialContributions(t *testing.T) {
	srv := testutil.NewMockServerT(t, testutil.WithProfile(handle, detailsJSON("Mona"), contributionsJSON(9, []int{3})))
	p := newPipeline(t, srv, t.TempDir())

	runPass(t, p)

	grid := p.Profile().Grid
	require.NotNil(t, grid)
	require.Equal(t, types.DefaultWeeks, grid.Weeks())
	for d := 0; d < types.DaysPerWeek; d++ {
		assert.Equal(t, 3, grid.Level(d, 0))
		for w := 1; w < grid.Weeks(); w++ {
			assert.Equal(t, 0, grid.Level(d, w))
		}
	}
	assert.Equal(t, time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC), p.Profile().RangeStart)
	assert.Equal(t, time.Date(2024, 1, 13, 0, 0, 0, 0, time.UTC), p.Profile().RangeEnd)
}

func TestPipeline_KeepsMostRecentWeeks(t *testing.T) {
	levels := make([]int, types.DefaultWeeks+2)
	levels[0], levels[1], levels[2] = 4, 4, 1
	levels[len(levels)-1] = 2
	srv := testutil.NewMockServerT(t, testutil.WithProfile(handle, detailsJSON("Mona"), contributionsJSON(9, levels)))
	p := newPipeline(t, srv, t.TempDir())

	runPass(t, p)

	grid := p.Profile().Grid
	assert.Equal(t, 1, grid.Level(0, 0))
	assert.Equal(t, 2, grid.Level(0, types.DefaultWeeks-1))
}

func TestPipeline_LevelsAreClamped(t *testing.T) {
	srv := testutil.NewMockServerT(t, testutil.WithProfile(handle, detailsJSON("Mona"), contributionsJSON(9, []int{9, -3})))
	p := newPipeline(t, srv, t.TempDir())

	runPass(t, p)

	assert.Equal(t, types.MaxLevel, p.Profile().Grid.Level(2, 0))
	assert.Equal(t, 0, p.Profile().Grid.Level(2, 1))
}

func TestPipeline_NameFallsBackToLogin(t *testing.T) {
	srv := testutil.NewMockServerT(t, testutil.WithProfile(handle, detailsJSON(""), contributionsJSON(0, nil)))
	p := newPipeline(t, srv, t.TempDir())

	runPass(t, p)

	assert.Equal(t, handle, p.Profile().Name)
	assert.Equal(t, 0, p.Profile().TotalContributions)
	assert.True(t, p.Profile().HasContributions)
}

func TestPipeline_MissingFieldsAreWarnings(t *testing.T) {
	srv := testutil.NewMockServerT(t, testutil.WithProfile(handle, `{"login":"octocat"}`, `{"weeks":[]}`))
	p := newPipeline(t, srv, t.TempDir())

	runPass(t, p)

	prof := p.Profile()
	assert.Equal(t, handle, prof.Name)
	assert.Empty(t, prof.Location)
	assert.Equal(t, 0, prof.Followers)
	assert.True(t, prof.IsComplete())
}

func TestPipeline_NotConnectedDoesNothing(t *testing.T) {
	srv := testutil.NewMockServerT(t, testutil.WithProfile(handle, detailsJSON("Mona"), contributionsJSON(5, []int{1})))
	p := newPipeline(t, srv, t.TempDir())

	for i := 0; i < 5; i++ {
		assert.Equal(t, StatusConnecting, p.Advance(context.Background(), false))
	}
	assert.Equal(t, int64(0), srv.RequestCount.Load())
	assert.Equal(t, profile.Empty, p.Profile().Phase())
}

func TestPipeline_FetchErrorRetries(t *testing.T) {
	srv := testutil.NewMockServerT(t,
		testutil.WithProfile(handle, detailsJSON("Mona"), contributionsJSON(5, []int{1})),
		testutil.WithFailOnNthRequest(1),
	)
	p := newPipeline(t, srv, t.TempDir())

	assert.Equal(t, StatusFetchingDetails, p.Advance(context.Background(), true))
	assert.Equal(t, StatusError, p.Advance(context.Background(), true))
	var fe *types.FetchError
	require.ErrorAs(t, p.Err(), &fe)
	assert.Equal(t, profile.Empty, p.Profile().Phase())

	seen := runPass(t, p)
	assert.NotContains(t, seen, StatusError)
	assert.NoError(t, p.Err())
	assert.True(t, p.Profile().IsComplete())
	assert.Equal(t, 2, srv.Requests(path(testutil.DetailsPath)))
}

func TestPipeline_UndecodableAvatarIsRemoved(t *testing.T) {
	srv := testutil.NewMockServerT(t,
		testutil.WithProfile(handle, detailsJSON("Mona"), contributionsJSON(5, []int{1})),
		testutil.WithResource(path(testutil.AvatarPath), []byte("definitely not a png")),
	)
	dir := t.TempDir()
	p := newPipeline(t, srv, dir)

	var last Status
	for i := 0; i < 1000 && last != StatusError; i++ {
		last = p.Advance(context.Background(), true)
	}
	require.Equal(t, StatusError, last)

	var de *types.DecodeError
	require.ErrorAs(t, p.Err(), &de)
	assert.Equal(t, profile.ContributionsLoaded, p.Profile().Phase())
	assert.NoFileExists(t, Destination(dir, StageAvatar))
	assert.FileExists(t, Destination(dir, StageDetails))
}

func TestPipeline_MalformedDetailsIsStageFailure(t *testing.T) {
	srv := testutil.NewMockServerT(t, testutil.WithProfile(handle, `{"login": `, contributionsJSON(5, []int{1})))
	dir := t.TempDir()
	p := newPipeline(t, srv, dir)

	p.Advance(context.Background(), true)
	var last Status
	for i := 0; i < 100 && last != StatusError; i++ {
		last = p.Advance(context.Background(), true)
	}
	require.Equal(t, StatusError, last)
	assert.Equal(t, profile.Empty, p.Profile().Phase())
	assert.NoFileExists(t, Destination(dir, StageDetails))
}

func TestPipeline_CancelMidFlightLeavesNoPartialFile(t *testing.T) {
	big := contributionsJSON(5, make([]int, 40))
	srv := testutil.NewMockServerT(t, testutil.WithProfile(handle, detailsJSON("Mona"), big))
	dir := t.TempDir()
	p := newPipeline(t, srv, dir)

	for p.Stage() != StageContributions {
		p.Advance(context.Background(), true)
	}
	assert.Equal(t, StatusFetchingContributions, p.Advance(context.Background(), true))
	assert.Equal(t, StatusFetchingContributions, p.Advance(context.Background(), true))
	require.FileExists(t, Destination(dir, StageContributions)+types.IncompleteSuffix)

	p.Cancel()

	assert.NoFileExists(t, Destination(dir, StageContributions)+types.IncompleteSuffix)
	assert.NoFileExists(t, Destination(dir, StageContributions))
	assert.Equal(t, profile.Empty, p.Profile().Phase())
	assert.Equal(t, handle, p.Profile().Handle)
}

func TestPipeline_RecordsHistory(t *testing.T) {
	srv := testutil.NewMockServerT(t, testutil.WithProfile(handle, detailsJSON("Mona"), contributionsJSON(5, []int{1})))
	rec := &memRecorder{}
	fixed := time.Unix(1700000000, 0)
	p := newPipeline(t, srv, t.TempDir(), WithRecorder(rec), WithClock(func() time.Time { return fixed }))

	runPass(t, p)

	require.Len(t, rec.entries, 3)
	for i, s := range Stages {
		e := rec.entries[i]
		assert.Equal(t, s.String(), e.Resource)
		assert.Equal(t, p.PassID(), e.PassID)
		assert.Equal(t, types.EntryCompleted, e.Status)
		assert.False(t, e.FromCache)
		assert.Positive(t, e.Bytes)
		assert.Equal(t, fixed.Unix(), e.CompletedAt)
	}
}

func TestPipeline_BadLocatorIsError(t *testing.T) {
	rc := &types.RuntimeConfig{DetailsURL: "ftp://example.com/{user}"}
	p := New(profile.New(handle, types.DefaultWeeks), t.TempDir(), fetch.OpenerFunc(nil), rc)

	assert.Equal(t, StatusError, p.Advance(context.Background(), true))
	assert.Error(t, p.Err())
}

func TestDestination(t *testing.T) {
	assert.Equal(t, filepath.Join("cache", types.AvatarFile), Destination("cache", StageAvatar))
	assert.Equal(t, "fetching user data...", StageDetails.Status().String())
	assert.Equal(t, StatusComplete, StageNone.Status())
}

func TestDecodeAvatar_AcceptsPNG(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.png")
	require.NoError(t, os.WriteFile(p, testutil.PNG(3, 2), 0o644))

	img, err := decodeAvatar(p)
	require.NoError(t, err)
	assert.Equal(t, 3, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())
}
