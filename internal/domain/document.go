package domain

// SubmittedDocument represents a document accepted by the remote extraction service.
// It is created when the submit call returns and is immutable afterwards.
type SubmittedDocument struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	StagedPath string `json:"staged_path"`
	MIMEType   string `json:"mime_type"`
}

// JobStatus represents the remote status of a standardization job.
// Values include JobStatusPending and JobStatusReady.
type JobStatus string

const (
	JobStatusPending JobStatus = "pending"
	JobStatusReady   JobStatus = "ready"
)

// StandardizationJob tracks one remote standardization request. It lives only
// for the duration of a single pipeline run and is never persisted.
type StandardizationJob struct {
	StandardizationID string    `json:"standardization_id"`
	DocumentID        string    `json:"document_id"`
	SchemaID          string    `json:"schema_id"`
	Status            JobStatus `json:"status"`
}

// ExtractedRecord is the standardized data for one document: a possibly nested
// key-value structure produced at most once per standardization job. Ownership
// transfers to the result sink, which flattens it into one tabular row.
type ExtractedRecord map[string]interface{}
