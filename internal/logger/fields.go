package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// ============================================
// Standard Tracing Fields (Context level)
// These fields are propagated through the call chain
// ============================================

const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldRunID is the pipeline run ID
	FieldRunID = "run_id"

	// FieldDocumentID is the remote document identifier
	FieldDocumentID = "document_id"

	// FieldStandardizationID is the remote standardization job identifier
	FieldStandardizationID = "standardization_id"

	// FieldFilename is the original uploaded filename
	FieldFilename = "filename"

	// FieldComponent is the component/module name
	FieldComponent = "component"
)

// ============================================
// Standard Metric Fields (Entry level)
// These fields are used for aggregation and alerting
// ============================================

const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldAttempt is the polling attempt number
	FieldAttempt = "attempt"

	// FieldRows is the number of rows in the tabular store
	FieldRows = "rows"

	// FieldSize is the data size in bytes
	FieldSize = "size"

	// FieldStatus is the operation status
	FieldStatus = "status"
)
