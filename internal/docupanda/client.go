// Package docupanda implements the client for the DocuPanda document
// extraction API: document submission, batch standardization, and
// standardization-result retrieval.
package docupanda

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/timw/docuflow/internal/domain"
)

const defaultBaseURL = "https://app.docupanda.io"

// Config holds configuration for the DocuPanda client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client wraps the DocuPanda HTTP API. It holds no local state beyond the
// underlying HTTP client; no filesystem mutation happens here.
type Client struct {
	client  *resty.Client
	baseURL string
	apiKey  string
}

// NewClient creates a new DocuPanda client.
// Parameters:
//   - cfg: client configuration including base URL and API key.
// Returns:
//   - *Client: initialized client.
func NewClient(cfg *Config) *Client {
	client := resty.New()
	client.SetHeader("accept", "application/json")
	client.SetHeader("Content-Type", "application/json")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	client.SetTimeout(timeout)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		client:  client,
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
	}
}

// requireAPIKey fails with a configuration error before any network call when
// the credential is absent.
func (c *Client) requireAPIKey() error {
	if c.apiKey == "" {
		return &domain.ConfigError{Key: "DOCUPANDA_API_KEY"}
	}
	return nil
}

type submitRequest struct {
	Document struct {
		File struct {
			Filename string `json:"filename"`
			Contents string `json:"contents"`
		} `json:"file"`
	} `json:"document"`
}

type submitResponse struct {
	DocumentID string `json:"documentId"`
}

// SubmitDocument uploads a staged file to DocuPanda. The file content is
// base64-encoded into a data URL with a MIME type derived from the filename
// extension.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - filePath: path of the staged file to read.
//   - filename: original filename sent to the service.
// Returns:
//   - *domain.SubmittedDocument: remote document identity and metadata.
//   - error: ConfigError, IOFault, RemoteError, or TransportError.
func (c *Client) SubmitDocument(ctx context.Context, filePath, filename string) (*domain.SubmittedDocument, error) {
	if err := c.requireAPIKey(); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, &domain.IOFault{Op: "read", Path: filePath, Err: err}
	}

	mimeType := MIMEType(filename)
	encoded := base64.StdEncoding.EncodeToString(content)

	var req submitRequest
	req.Document.File.Filename = filename
	req.Document.File.Contents = fmt.Sprintf("data:%s;name=%s;base64,%s", mimeType, filename, encoded)

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("X-API-Key", c.apiKey).
		SetBody(req).
		Post(c.baseURL + "/document")

	if err != nil {
		return nil, &domain.TransportError{Operation: "submit", Err: err}
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, &domain.RemoteError{Operation: "submit", Status: resp.StatusCode(), Body: string(resp.Body())}
	}

	// Parse the body unconditionally; the service does not always set a JSON
	// content type.
	var out submitResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("submit: unexpected response body: %s", string(resp.Body()))
	}
	if out.DocumentID == "" {
		return nil, fmt.Errorf("submit: no documentId in response: %s", string(resp.Body()))
	}

	return &domain.SubmittedDocument{
		DocumentID: out.DocumentID,
		Filename:   filename,
		StagedPath: filePath,
		MIMEType:   mimeType,
	}, nil
}

type standardizeRequest struct {
	SchemaID    string   `json:"schemaId"`
	DocumentIDs []string `json:"documentIds"`
}

type standardizeResponse struct {
	StandardizationIDs []string `json:"standardizationIds"`
}

// Standardize requests structured extraction for the given documents under a
// fixed schema.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - schemaID: extraction template identifier.
//   - documentIDs: remote document identifiers to standardize.
// Returns:
//   - []string: standardization job identifiers.
//   - error: ConfigError, RemoteError, or TransportError.
func (c *Client) Standardize(ctx context.Context, schemaID string, documentIDs []string) ([]string, error) {
	if err := c.requireAPIKey(); err != nil {
		return nil, err
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("X-API-Key", c.apiKey).
		SetBody(standardizeRequest{SchemaID: schemaID, DocumentIDs: documentIDs}).
		Post(c.baseURL + "/standardize/batch")

	if err != nil {
		return nil, &domain.TransportError{Operation: "standardize", Err: err}
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, &domain.RemoteError{Operation: "standardize", Status: resp.StatusCode(), Body: string(resp.Body())}
	}

	var out standardizeResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("standardize: unexpected response body: %s", string(resp.Body()))
	}

	return out.StandardizationIDs, nil
}

// Result is the outcome of a standardization fetch. Exactly one shape is
// populated: Record when the service returned structured JSON with data, Raw
// when the body did not parse as JSON (e.g. a compressed bundle). A parsed
// body without data means the job is still pending.
type Result struct {
	StandardizationID string
	Status            string
	Record            domain.ExtractedRecord
	Raw               []byte
}

// IsBinary reports whether the service returned an opaque binary artifact.
func (r *Result) IsBinary() bool {
	return r.Raw != nil
}

// Ready reports whether usable output is present, structured or binary.
func (r *Result) Ready() bool {
	return r.Record != nil || r.Raw != nil
}

type fetchEnvelope struct {
	Status string                 `json:"status"`
	Data   map[string]interface{} `json:"data"`
}

// FetchResult retrieves the output of a standardization job. A non-JSON
// response body is a contractual fallback, not an error: it is returned as
// raw bytes for the caller to persist.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - standardizationID: remote job identifier.
// Returns:
//   - *Result: structured record, raw artifact, or pending status.
//   - error: ConfigError, RemoteError, or TransportError.
func (c *Client) FetchResult(ctx context.Context, standardizationID string) (*Result, error) {
	if err := c.requireAPIKey(); err != nil {
		return nil, err
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("X-API-Key", c.apiKey).
		Get(c.baseURL + "/standardization/" + standardizationID)

	if err != nil {
		return nil, &domain.TransportError{Operation: "fetch result", Err: err}
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, &domain.RemoteError{Operation: "fetch result", Status: resp.StatusCode(), Body: string(resp.Body())}
	}

	body := resp.Body()

	var envelope fetchEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		if json.Valid(body) {
			// JSON of an unexpected shape (array, string): no usable data yet.
			return &Result{StandardizationID: standardizationID}, nil
		}
		// Not JSON: the service returned an opaque artifact.
		raw := make([]byte, len(body))
		copy(raw, body)
		return &Result{StandardizationID: standardizationID, Raw: raw}, nil
	}

	result := &Result{
		StandardizationID: standardizationID,
		Status:            envelope.Status,
	}
	if envelope.Data != nil {
		result.Record = domain.ExtractedRecord(envelope.Data)
	}
	return result, nil
}
