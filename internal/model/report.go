package model

import (
	"time"

	"github.com/google/uuid"
)

// ReportEntry pairs a queued input with its terminal outcome.
type ReportEntry struct {
	InputPath string  `json:"input_path"`
	Outcome   Outcome `json:"outcome"`
}

// BatchReport accumulates outcomes of one batch session in submission order.
type BatchReport struct {
	ID         uuid.UUID     `json:"id"`
	Entries    []ReportEntry `json:"entries"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at,omitempty"`
}

// Succeeded returns the number of successful entries.
func (r BatchReport) Succeeded() int {
	n := 0
	for _, e := range r.Entries {
		if e.Outcome.OK() {
			n++
		}
	}
	return n
}

// Failed returns the number of failed entries.
func (r BatchReport) Failed() int {
	return len(r.Entries) - r.Succeeded()
}

// Failures returns only the failed entries, in submission order.
func (r BatchReport) Failures() []ReportEntry {
	var out []ReportEntry
	for _, e := range r.Entries {
		if !e.Outcome.OK() {
			out = append(out, e)
		}
	}
	return out
}

// Clone returns a deep copy safe to hand to readers outside the orchestrator.
func (r BatchReport) Clone() BatchReport {
	c := r
	c.Entries = append([]ReportEntry(nil), r.Entries...)
	return c
}
