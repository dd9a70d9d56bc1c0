package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// PDFExporter proxies report payloads to the external PDF renderer and
// streams the binary back. No local rendering happens here.
type PDFExporter struct {
	rendererURL string
	client      *http.Client
}

func NewPDFExporter(rendererURL string) *PDFExporter {
	return &PDFExporter{
		rendererURL: rendererURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Configured reports whether a renderer URL is set.
func (p *PDFExporter) Configured() bool {
	return p.rendererURL != ""
}

// Export forwards the report JSON to the renderer and returns the PDF
// bytes.
func (p *PDFExporter) Export(ctx context.Context, reportJSON []byte) ([]byte, error) {
	if !p.Configured() {
		return nil, fmt.Errorf("PDF renderer not configured")
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.rendererURL, bytes.NewReader(reportJSON))
	if err != nil {
		return nil, fmt.Errorf("creating renderer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling PDF renderer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("PDF renderer returned %d: %s", resp.StatusCode, string(body))
	}

	// Reports render to a handful of pages; 10MB is generous headroom.
	pdf, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("reading rendered PDF: %w", err)
	}
	return pdf, nil
}
