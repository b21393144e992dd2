// Package pdf converts uploaded PDF documents into page images for OCR.
package pdf

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Rasterizer renders PDF pages to PNG images using pdftoppm (poppler-utils).
type Rasterizer struct {
	pdftoppmPath string
	dpi          int
}

// NewRasterizer creates a rasterizer. dpi of 300 gives good OCR quality.
func NewRasterizer(pdftoppmPath string, dpi int) *Rasterizer {
	if pdftoppmPath == "" {
		pdftoppmPath = "pdftoppm"
	}
	if dpi <= 0 {
		dpi = 300
	}
	return &Rasterizer{pdftoppmPath: pdftoppmPath, dpi: dpi}
}

// Render writes the PDF to a temp dir, rasterizes each page at the
// configured resolution and returns the page image paths in page order.
// cleanup removes the temp dir and must always be called.
func (r *Rasterizer) Render(ctx context.Context, pdfBytes []byte) (pages []string, cleanup func(), err error) {
	if _, err := exec.LookPath(r.pdftoppmPath); err != nil {
		return nil, nil, fmt.Errorf("pdftoppm not available (install poppler-utils): %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "ingest-pages-*")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	cleanup = func() { os.RemoveAll(tmpDir) }

	pdfPath := filepath.Join(tmpDir, "statement.pdf")
	if err := os.WriteFile(pdfPath, pdfBytes, 0o600); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to write temp pdf: %w", err)
	}

	imgPrefix := filepath.Join(tmpDir, "page")
	cmd := exec.CommandContext(ctx, r.pdftoppmPath, "-r", strconv.Itoa(r.dpi), "-png", pdfPath, imgPrefix)
	if out, err := cmd.CombinedOutput(); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("pdftoppm failed: %w (output: %s)", err, string(out))
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to read temp dir: %w", err)
	}

	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".png") {
			pages = append(pages, filepath.Join(tmpDir, e.Name()))
		}
	}
	sort.Strings(pages)

	if len(pages) == 0 {
		cleanup()
		return nil, nil, fmt.Errorf("pdftoppm produced no page images")
	}

	return pages, cleanup, nil
}
