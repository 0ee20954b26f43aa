package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"time"

	"github.com/h2non/filetype"
	"go.uber.org/multierr"

	"github.com/timeline-badge/timeline/internal/engine/types"
	"github.com/timeline-badge/timeline/internal/profile"
)

var errMissingField = errors.New("missing")

const dateLayout = "2006-01-02"

// sniffLen is how many leading bytes filetype needs to identify a format
const sniffLen = 262

// decodeField unmarshals one optional field. Problems are returned as a
// *types.PayloadError and the destination is left untouched.
func decodeField[T any](raw json.RawMessage, field string, dst *T) error {
	if len(raw) == 0 || string(raw) == "null" {
		return &types.PayloadError{Field: field, Err: errMissingField}
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return &types.PayloadError{Field: field, Err: err}
	}
	*dst = v
	return nil
}

func readDocument(path string, doc any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &types.DecodeError{Path: path, Err: err}
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return &types.DecodeError{Path: path, Err: err}
	}
	return nil
}

type detailsDoc struct {
	Name        json.RawMessage `json:"name"`
	Login       json.RawMessage `json:"login"`
	Location    json.RawMessage `json:"location"`
	Followers   json.RawMessage `json:"followers"`
	PublicRepos json.RawMessage `json:"public_repos"`
}

// parseDetails fills name, handle, location and counters. The returned
// warnings are per-field payload errors; a non-nil error means the document
// itself could not be read.
func parseDetails(path string, p *profile.Profile) (warnings error, err error) {
	var doc detailsDoc
	if err := readDocument(path, &doc); err != nil {
		return nil, err
	}

	var login, name, location string
	var followers, repos int

	if e := decodeField(doc.Login, "login", &login); e != nil {
		warnings = multierr.Append(warnings, e)
	}
	if e := decodeField(doc.Name, "name", &name); e != nil {
		warnings = multierr.Append(warnings, e)
	}
	if e := decodeField(doc.Location, "location", &location); e != nil {
		warnings = multierr.Append(warnings, e)
	}
	if e := decodeField(doc.Followers, "followers", &followers); e != nil {
		warnings = multierr.Append(warnings, e)
	}
	if e := decodeField(doc.PublicRepos, "public_repos", &repos); e != nil {
		warnings = multierr.Append(warnings, e)
	}

	if login != "" {
		p.Handle = login
	}
	switch {
	case name != "":
		p.Name = name
	case login != "":
		p.Name = login
	default:
		p.Name = p.Handle
	}
	p.Location = location
	p.Followers = followers
	p.PublicRepos = repos
	return warnings, nil
}

type contribDoc struct {
	TotalContributions json.RawMessage `json:"total_contributions"`
	Weeks              json.RawMessage `json:"weeks"`
}

type weekDoc struct {
	Days []json.RawMessage `json:"contribution_days"`
}

type dayDoc struct {
	Level json.RawMessage `json:"level"`
	Date  string          `json:"date"`
}

// parseContributions fills the total and the grid. Only the most recent
// Grid.Weeks() weeks are kept, oldest in column 0; cells the payload does not
// cover stay at level 0.
func parseContributions(path string, p *profile.Profile) (warnings error, err error) {
	var doc contribDoc
	if err := readDocument(path, &doc); err != nil {
		return nil, err
	}

	total := 0
	if e := decodeField(doc.TotalContributions, "total_contributions", &total); e != nil {
		warnings = multierr.Append(warnings, e)
	}

	var weeks []json.RawMessage
	if e := decodeField(doc.Weeks, "weeks", &weeks); e != nil {
		warnings = multierr.Append(warnings, e)
	}

	grid := p.Grid
	if grid == nil {
		grid = profile.NewGrid(types.DefaultWeeks)
	}
	grid.Clear()

	var first, last time.Time
	start := len(weeks) - grid.Weeks()
	if start < 0 {
		start = 0
	}
	for col, rawWeek := range weeks[start:] {
		idx := start + col
		var week weekDoc
		if e := json.Unmarshal(rawWeek, &week); e != nil {
			warnings = multierr.Append(warnings, &types.PayloadError{Field: fmt.Sprintf("weeks[%d]", idx), Err: e})
			continue
		}
		for day := 0; day < types.DaysPerWeek; day++ {
			field := fmt.Sprintf("weeks[%d].contribution_days[%d]", idx, day)
			if day >= len(week.Days) {
				warnings = multierr.Append(warnings, &types.PayloadError{Field: field, Err: errMissingField})
				continue
			}
			var d dayDoc
			if e := json.Unmarshal(week.Days[day], &d); e != nil {
				warnings = multierr.Append(warnings, &types.PayloadError{Field: field, Err: e})
				continue
			}
			level := 0
			if e := decodeField(d.Level, field+".level", &level); e != nil {
				warnings = multierr.Append(warnings, e)
			}
			grid.Set(day, col, level)

			if d.Date == "" {
				continue
			}
			date, e := time.Parse(dateLayout, d.Date)
			if e != nil {
				warnings = multierr.Append(warnings, &types.PayloadError{Field: field + ".date", Err: e})
				continue
			}
			if first.IsZero() || date.Before(first) {
				first = date
			}
			if date.After(last) {
				last = date
			}
		}
	}

	p.Grid = grid
	p.TotalContributions = total
	p.HasContributions = true
	p.RangeStart = first
	p.RangeEnd = last
	return warnings, nil
}

// decodeAvatar checks the file is an image and decodes it without reading
// more than the decoder needs.
func decodeAvatar(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &types.DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, &types.DecodeError{Path: path, Err: err}
	}
	head = head[:n]
	if !filetype.IsImage(head) {
		kind, _ := filetype.Match(head)
		return nil, &types.DecodeError{Path: path, Err: fmt.Errorf("not an image (%s)", kind.MIME.Value)}
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, &types.DecodeError{Path: path, Err: err}
	}
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, &types.DecodeError{Path: path, Err: err}
	}
	return img, nil
}
