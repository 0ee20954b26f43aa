// Package events defines the progress messages a headless sync emits.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// StatusMsg is sent whenever the pipeline label changes
type StatusMsg struct {
	Status  string
	Link    string
	Offline bool `json:",omitempty"`
	Forced  bool `json:",omitempty"`
}

// SyncCompleteMsg signals that every stage is populated
type SyncCompleteMsg struct {
	Handle             string
	Name               string
	TotalContributions int
	Elapsed            time.Duration
}

// SyncErrorMsg reports a stage failure, or with Fatal set, a condition that
// ends the sync (missing configuration, connectivity timeout).
type SyncErrorMsg struct {
	Status string
	Screen string
	Fatal  bool
	Err    error
}

func (m SyncErrorMsg) MarshalJSON() ([]byte, error) {
	type encoded struct {
		Status string `json:"Status,omitempty"`
		Screen string `json:"Screen,omitempty"`
		Fatal  bool   `json:"Fatal,omitempty"`
		Err    string `json:"Err,omitempty"`
	}

	out := encoded{
		Status: m.Status,
		Screen: m.Screen,
		Fatal:  m.Fatal,
	}
	if m.Err != nil {
		out.Err = m.Err.Error()
	}

	return json.Marshal(out)
}

func (m *SyncErrorMsg) UnmarshalJSON(data []byte) error {
	var aux struct {
		Status string          `json:"Status"`
		Screen string          `json:"Screen"`
		Fatal  bool            `json:"Fatal"`
		Err    json.RawMessage `json:"Err"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	m.Status = aux.Status
	m.Screen = aux.Screen
	m.Fatal = aux.Fatal
	m.Err = nil

	if len(aux.Err) == 0 {
		return nil
	}

	var errStr string
	if err := json.Unmarshal(aux.Err, &errStr); err == nil {
		if errStr != "" {
			m.Err = errors.New(errStr)
		}
		return nil
	}

	// Accept non-string payloads (e.g. {}).
	raw := string(aux.Err)
	if raw != "" && raw != "null" {
		m.Err = errors.New(raw)
	}
	return nil
}

// TypeName returns the envelope type of a message.
func TypeName(msg any) string {
	switch msg.(type) {
	case StatusMsg, *StatusMsg:
		return "status"
	case SyncCompleteMsg, *SyncCompleteMsg:
		return "complete"
	case SyncErrorMsg, *SyncErrorMsg:
		return "error"
	default:
		return "unknown"
	}
}

type envelope struct {
	Type string `json:"type"`
	Time int64  `json:"time"`
	Data any    `json:"data"`
}

// Encoder writes messages as newline-delimited JSON envelopes.
type Encoder struct {
	enc *json.Encoder
	now func() time.Time
}

// NewEncoder creates an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{enc: json.NewEncoder(w), now: time.Now}
}

// Emit writes one message.
func (e *Encoder) Emit(msg any) error {
	name := TypeName(msg)
	if name == "unknown" {
		return fmt.Errorf("unsupported event %T", msg)
	}
	return e.enc.Encode(envelope{Type: name, Time: e.now().Unix(), Data: msg})
}
