// Package ocr extracts text from statement PDFs via Tesseract.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/FACorreiaa/ledgerlens/internal/ingest/pdf"
)

// TextExtractor turns an uploaded PDF into plain text. The worker depends on
// this interface so pipelines are testable without poppler/tesseract
// installed.
type TextExtractor interface {
	ExtractText(ctx context.Context, pdfBytes []byte) (string, error)
}

// TesseractExtractor rasterizes pages with pdftoppm and OCRs each one with
// the tesseract binary.
type TesseractExtractor struct {
	rasterizer    *pdf.Rasterizer
	tesseractPath string
	language      string
	logger        *slog.Logger
}

// NewTesseractExtractor creates the production extractor.
func NewTesseractExtractor(rasterizer *pdf.Rasterizer, tesseractPath, language string, logger *slog.Logger) *TesseractExtractor {
	if tesseractPath == "" {
		tesseractPath = "tesseract"
	}
	if language == "" {
		language = "eng"
	}
	return &TesseractExtractor{
		rasterizer:    rasterizer,
		tesseractPath: tesseractPath,
		language:      language,
		logger:        logger,
	}
}

// ExtractText runs OCR over every page image and concatenates the recognized
// text in page order. Pages that fail OCR are skipped; extraction fails only
// when no page yields text.
func (e *TesseractExtractor) ExtractText(ctx context.Context, pdfBytes []byte) (string, error) {
	if _, err := exec.LookPath(e.tesseractPath); err != nil {
		return "", fmt.Errorf("tesseract not available (install tesseract-ocr): %w", err)
	}

	pages, cleanup, err := e.rasterizer.Render(ctx, pdfBytes)
	if err != nil {
		return "", fmt.Errorf("failed to rasterize pdf: %w", err)
	}
	defer cleanup()

	var texts []string
	for _, imgPath := range pages {
		// PSM 4: single column of text of variable sizes, which suits
		// statement layouts.
		outBase := strings.TrimSuffix(imgPath, ".png") + "-ocr"
		cmd := exec.CommandContext(ctx, e.tesseractPath, imgPath, outBase, "-l", e.language, "--psm", "4")
		if out, err := cmd.CombinedOutput(); err != nil {
			e.logger.Warn("tesseract failed for page, skipping",
				slog.String("image", imgPath),
				slog.String("output", string(out)),
				slog.Any("error", err),
			)
			continue
		}

		data, err := os.ReadFile(outBase + ".txt")
		if err != nil {
			continue
		}

		if text := strings.TrimSpace(string(data)); text != "" {
			texts = append(texts, text)
		}
	}

	if len(texts) == 0 {
		return "", fmt.Errorf("ocr produced no text from %d page images", len(pages))
	}

	return strings.Join(texts, "\n\n"), nil
}
