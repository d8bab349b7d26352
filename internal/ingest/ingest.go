// Package ingest fetches remote artifacts for analysis: PDF narratives for
// the story rater and evidence images for the evidence analyzer.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Error taxonomy for document ingestion.
var (
	// ErrFetchFailed means the resource could not be retrieved.
	ErrFetchFailed = errors.New("ingest: fetch failed")
	// ErrUnsupportedDocument means the resource is not the expected type.
	ErrUnsupportedDocument = errors.New("ingest: unsupported document")
	// ErrExtractionFailed means the document was retrieved but yielded no
	// usable text (corrupted or scanned-only).
	ErrExtractionFailed = errors.New("ingest: extraction failed")
)

// maxFetchBytes caps downloads; field PDFs and photos are small.
const maxFetchBytes = 32 << 20

// Ingestor downloads and extracts remote documents.
type Ingestor struct {
	client  *http.Client
	timeout time.Duration
}

// New creates an Ingestor. Timeout bounds each fetch; zero means 30s, the
// bound the original system used for PDF downloads.
func New(timeout time.Duration) *Ingestor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Ingestor{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// ExtractText downloads a PDF and returns its plain text, pages
// concatenated in order. Layout fidelity is not preserved.
func (in *Ingestor) ExtractText(ctx context.Context, url string) (text string, err error) {
	// The pdf library panics on some malformed files; surface those as
	// extraction failures instead.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = eris.Wrapf(ErrExtractionFailed, "parse pdf %s: %v", url, r)
		}
	}()

	data, _, err := in.fetch(ctx, url)
	if err != nil {
		return "", err
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		return "", eris.Wrapf(ErrUnsupportedDocument, "%s is not a PDF", url)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", eris.Wrapf(ErrExtractionFailed, "open pdf %s: %v", url, err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page doesn't sink the document.
			zap.L().Debug("skipping unreadable pdf page",
				zap.String("url", url), zap.Int("page", i), zap.Error(err))
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	content := strings.TrimSpace(sb.String())
	if content == "" {
		return "", eris.Wrapf(ErrExtractionFailed, "%s contains no readable text", url)
	}
	return content, nil
}

// FetchImage downloads an image and returns its bytes and media type.
func (in *Ingestor) FetchImage(ctx context.Context, url string) ([]byte, string, error) {
	data, contentType, err := in.fetch(ctx, url)
	if err != nil {
		return nil, "", err
	}
	mime := contentType
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mime, "image/") {
		return nil, "", eris.Wrapf(ErrUnsupportedDocument, "%s is %s, not an image", url, mime)
	}
	return data, mime, nil
}

// fetch retrieves the resource body and content type. Redirects are
// followed by the default client policy.
func (in *Ingestor) fetch(ctx context.Context, url string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, in.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", eris.Wrapf(ErrFetchFailed, "bad url %s: %v", url, err)
	}
	resp, err := in.client.Do(req)
	if err != nil {
		return nil, "", eris.Wrapf(ErrFetchFailed, "get %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", eris.Wrapf(ErrFetchFailed, "get %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, "", eris.Wrapf(ErrFetchFailed, "read %s: %v", url, err)
	}
	contentType := resp.Header.Get("Content-Type")
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	return data, contentType, nil
}
