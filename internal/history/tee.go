package history

import (
	"log/slog"
)

// Tee fans a record out to a primary recorder and any number of
// best-effort secondaries.
type Tee struct {
	primary     Recorder
	secondaries []Recorder
	logger      *slog.Logger
}

// NewTee builds a Tee. Only errors from primary are returned; secondary
// failures are logged at warn level.
func NewTee(logger *slog.Logger, primary Recorder, secondaries ...Recorder) *Tee {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tee{primary: primary, secondaries: secondaries, logger: logger}
}

// Append stamps rec once so every sink stores the same ID and timestamp.
func (t *Tee) Append(rec Record) error {
	rec = stamp(rec)
	if err := t.primary.Append(rec); err != nil {
		return err
	}
	for _, s := range t.secondaries {
		if err := s.Append(rec); err != nil {
			t.logger.Warn("history: secondary append failed", "id", rec.ID, "err", err)
		}
	}
	return nil
}
