// Package model holds the persisted data types shared between the store
// backends.
package model

import "time"

// Run is one recorded sweep invocation.
type Run struct {
	ID         int64         `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Workspace  string        `json:"workspace"`
	Window     time.Duration `json:"window"`
	Pattern    string        `json:"pattern"`
	DryRun     bool          `json:"dry_run"`
	Scheduled  int           `json:"scheduled"`
	Removed    int           `json:"removed"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
}

// DecisionRecord is one per-repository decision inside a run.
type DecisionRecord struct {
	ID      int64  `json:"id"`
	RunID   int64  `json:"run_id"`
	Repo    string `json:"repo"`
	Action  string `json:"action"`
	Reason  string `json:"reason"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
