package model

import "github.com/google/uuid"

// BatchJob is a batch submission received from the message queue.
type BatchJob struct {
	ID               uuid.UUID `json:"id"`
	Paths            []string  `json:"paths"`
	OutputDir        string    `json:"output_dir"` // empty: next to each input
	Width            int       `json:"width"`
	Height           int       `json:"height"`
	KeepAspect       bool      `json:"keep_aspect"`
	Quality          int       `json:"quality"`
	Format           string    `json:"format"`
	PreserveMetadata bool      `json:"preserve_metadata"`
}
