package docupanda

import (
	"testing"
)

// TestMIMEType verifies extension-based MIME resolution with the generic
// binary fallback for unknown extensions.
func TestMIMEType(t *testing.T) {
	testCases := []struct {
		name     string
		filename string
		want     string
	}{
		{
			name:     "pdf",
			filename: "invoice.pdf",
			want:     "application/pdf",
		},
		{
			name:     "png",
			filename: "scan.png",
			want:     "image/png",
		},
		{
			name:     "jpeg",
			filename: "photo.jpg",
			want:     "image/jpeg",
		},
		{
			name:     "webp",
			filename: "img.webp",
			want:     "image/webp",
		},
		{
			name:     "docx",
			filename: "contract.docx",
			want:     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		},
		{
			name:     "uppercase extension",
			filename: "INVOICE.PDF",
			want:     "application/pdf",
		},
		{
			name:     "unknown extension",
			filename: "data.xyz123",
			want:     "application/octet-stream",
		},
		{
			name:     "no extension",
			filename: "README",
			want:     "application/octet-stream",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := MIMEType(tc.filename)
			if got != tc.want {
				t.Errorf("MIMEType(%q) = %q, want %q", tc.filename, got, tc.want)
			}
		})
	}
}
