package domain

import "time"

// RunState represents the position of a pipeline run in its state machine.
// Terminal values are RunStateArchived, RunStateBinarySaved, RunStateFailed,
// and RunStateTimedOut.
type RunState string

const (
	RunStateStaged          RunState = "staged"
	RunStateSubmitted       RunState = "submitted"
	RunStateStandardizeReqd RunState = "standardization_requested"
	RunStatePolling         RunState = "polling"
	RunStateExtracted       RunState = "extracted"
	RunStateArchived        RunState = "archived"
	RunStateBinarySaved     RunState = "binary_saved"
	RunStateFailed          RunState = "failed"
	RunStateTimedOut        RunState = "timed_out"
)

// Terminal reports whether the state ends a run.
func (s RunState) Terminal() bool {
	switch s {
	case RunStateArchived, RunStateBinarySaved, RunStateFailed, RunStateTimedOut:
		return true
	}
	return false
}

// PipelineRun is the persisted audit record of one end-to-end pipeline run.
type PipelineRun struct {
	ID                string     `gorm:"type:text;primaryKey" json:"id"`
	Filename          string     `gorm:"type:text;not null;index" json:"filename"`
	DocumentID        string     `gorm:"type:text" json:"document_id,omitempty"`
	StandardizationID string     `gorm:"type:text" json:"standardization_id,omitempty"`
	State             RunState   `gorm:"type:text;index" json:"state"`
	Attempts          int        `gorm:"default:0" json:"attempts"`
	ErrorText         string     `json:"error_text,omitempty"`
	OutputPath        string     `json:"output_path,omitempty"`
	ArchivedPath      string     `json:"archived_path,omitempty"`
	StartedAt         time.Time  `json:"started_at"`
	FinishedAt        *time.Time `json:"finished_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// TableName returns the database table name for PipelineRun.
func (PipelineRun) TableName() string {
	return "pipeline_runs"
}
