package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PageHandler serves the upload page.
type PageHandler struct{}

// NewPageHandler creates a new page handler.
func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

// UploadPage serves the document upload HTML page.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes HTML response).
func (h *PageHandler) UploadPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(uploadPageHTML))
}

const uploadPageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Document Processor</title>
<style>
  body { font-family: -apple-system, sans-serif; max-width: 640px; margin: 40px auto; padding: 0 16px; }
  h1 { font-size: 1.4em; }
  #status { margin-top: 16px; white-space: pre-line; }
  .ok { color: #1a7f37; }
  .err { color: #cf222e; }
  button { padding: 8px 16px; margin-left: 8px; }
  a.dl { display: inline-block; margin-top: 12px; margin-right: 16px; }
</style>
</head>
<body>
<h1>Document Processor</h1>
<p>Upload your documents, and we'll process them automatically.</p>
<form id="form">
  <input type="file" id="file" accept=".pdf,.docx,.jpg,.png,.webp" required>
  <button type="submit" id="go">Process File</button>
</form>
<div id="status"></div>
<div id="downloads"></div>
<script>
const form = document.getElementById('form');
const statusEl = document.getElementById('status');
const downloads = document.getElementById('downloads');

form.addEventListener('submit', async (e) => {
  e.preventDefault();
  const file = document.getElementById('file').files[0];
  if (!file) return;

  document.getElementById('go').disabled = true;
  statusEl.textContent = 'Uploading and processing... this can take a few minutes.';
  statusEl.className = '';
  downloads.innerHTML = '';

  const body = new FormData();
  body.append('file', file);

  try {
    const resp = await fetch('/api/v1/documents/process', { method: 'POST', body });
    const data = await resp.json();

    let lines = (data.progress || []).map(p => p.message);
    if (data.result && data.result.message) lines.push(data.result.message);
    if (data.error) lines.push(data.error);
    statusEl.textContent = lines.join('\n');
    statusEl.className = resp.ok && !data.error ? 'ok' : 'err';

    if (data.result && data.result.state === 'archived') {
      downloads.innerHTML =
        '<a class="dl" href="/api/v1/exports/spreadsheet">Download extracted data</a>' +
        '<a class="dl" href="/api/v1/archive/' + encodeURIComponent(file.name) + '">Download archived file</a>';
    }
  } catch (err) {
    statusEl.textContent = 'Request failed: ' + err;
    statusEl.className = 'err';
  } finally {
    document.getElementById('go').disabled = false;
  }
});
</script>
</body>
</html>
`
