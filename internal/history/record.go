// Package history records every correction and triage decision the
// learning engine sees.
//
// The JSONL file is the audit trail of record. An optional SQLite index
// mirrors it so the history can be searched from MCP tools; the learning
// engine itself only ever appends and never reads history back.
package history

import (
	"time"

	"github.com/google/uuid"
)

// Event names.
const (
	EventCorrection = "correction"
	EventDecision   = "batch_decision"
)

// Record is one audit entry. Optional fields are omitted from the JSON
// line when the originating call did not provide them.
type Record struct {
	ID               string    `json:"id"`
	Timestamp        time.Time `json:"ts"`
	Event            string    `json:"event"`
	TaskID           string    `json:"task_id,omitempty"`
	OriginalTitle    string    `json:"original_title"`
	SuggestedTitle   *string   `json:"suggested_title,omitempty"`
	FinalTitle       string    `json:"final_title"`
	SuggestedProject *string   `json:"suggested_project,omitempty"`
	FinalProject     *string   `json:"final_project,omitempty"`
	TitleAccepted    *bool     `json:"title_accepted,omitempty"`
	ProjectAccepted  *bool     `json:"project_accepted,omitempty"`
	Source           string    `json:"source,omitempty"`
}

// Recorder accepts audit records.
type Recorder interface {
	Append(rec Record) error
}

// stamp fills ID and Timestamp when the caller left them empty.
func stamp(rec Record) Record {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = timeNow().UTC()
	}
	return rec
}

// timeNow is replaced in tests.
var timeNow = time.Now

// Discard is a Recorder that drops everything.
var Discard Recorder = discard{}

type discard struct{}

func (discard) Append(Record) error { return nil }
