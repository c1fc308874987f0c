package docupanda

import (
	"mime"
	"path/filepath"
	"strings"
)

// octetStream is the fallback MIME type for unknown extensions.
const octetStream = "application/octet-stream"

func init() {
	// Office formats are not in the Go builtin table and may be missing from
	// the host mime database.
	_ = mime.AddExtensionType(".doc", "application/msword")
	_ = mime.AddExtensionType(".docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	_ = mime.AddExtensionType(".xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
}

// MIMEType determines the MIME type from the filename extension. Unknown
// extensions resolve to application/octet-stream.
// Parameters:
//   - filename: file name whose extension is inspected.
// Returns:
//   - string: resolved MIME type without parameters.
func MIMEType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return octetStream
	}
	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		return octetStream
	}
	// Drop parameters such as "; charset=utf-8" for the data URL envelope.
	if idx := strings.Index(mimeType, ";"); idx != -1 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	return mimeType
}
