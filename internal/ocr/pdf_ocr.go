package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/sync/errgroup"

	"github.com/prad18/fork/constants"
)

// extractPDF trusts the embedded text layer when it carries enough content;
// scanned PDFs fall through to rasterize-and-OCR.
func (e *Extractor) extractPDF(ctx context.Context, path string) (ExtractionResult, error) {
	pageCount, err := pdfPageCount(path)
	if err != nil {
		e.logger.Error("ocr.pdf.invalid", "path", path, "error", err)
		return ExtractionResult{SourceType: constants.PDF}, fmt.Errorf("invalid pdf: %w", err)
	}
	if e.cfg.MaxPages > 0 && pageCount > e.cfg.MaxPages {
		pageCount = e.cfg.MaxPages
	}

	text, warns, err := e.pdfToText(ctx, path)
	if err == nil && meaningfulChars(text) >= e.cfg.MinEmbeddedTextChars {
		txt := Normalize(text)
		return ExtractionResult{
			Text:       txt,
			Pages:      pageCount,
			SourceType: constants.PDF,
			Method:     "pdf-text",
			Language:   e.cfg.TesseractLang,
			Warnings:   warns,
			// embedded text needs no recognition step
			Confidence: 0.95,
		}, nil
	}
	if err != nil {
		warns = append(warns, err.Error())
	} else {
		warns = append(warns, "embedded text too sparse, falling back to page OCR")
	}
	e.logger.Info("ocr.pdf.rasterize", "path", path, "pages", pageCount)

	txt, pages, w2, err := e.pdfToOCR(ctx, path)
	warns = append(warns, w2...)
	if err != nil {
		return ExtractionResult{SourceType: constants.PDF, Warnings: warns}, err
	}
	txt = Normalize(txt)
	return ExtractionResult{
		Text:       txt,
		Pages:      pages,
		SourceType: constants.PDF,
		Method:     "pdf-ocr",
		Language:   e.cfg.TesseractLang,
		Warnings:   warns,
		Confidence: heuristicConfidence(txt),
	}, nil
}

// pdfPageCount doubles as cheap validation: corrupt uploads fail here before
// any external tool runs.
func pdfPageCount(path string) (int, error) {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	if err := api.ValidateFile(path, cfg); err != nil {
		return 0, err
	}
	return api.PageCountFile(path)
}

func (e *Extractor) pdfToText(ctx context.Context, path string) (string, []string, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", []string{string(errb)}, err
	}
	return string(out), nil, nil
}

// pdfToOCR renders each page to PNG and runs tesseract per page, a few pages
// at a time. Page order is preserved in the joined output.
func (e *Extractor) pdfToOCR(ctx context.Context, path string) (string, int, []string, error) {
	tmpDir, err := os.MkdirTemp("", "fork-pdf-*")
	if err != nil {
		return "", 0, nil, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("ocr.pdf.tmp_cleanup_failed", "dir", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return "", 0, []string{"pdftoppm produced no images"}, fmt.Errorf("no pages rendered")
	}

	pageTexts := make([]string, len(matches))
	pageWarns := make([][]string, len(matches))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(e.cfg.PageWorkers)
	for i, img := range matches {
		i, img := i, img
		eg.Go(func() error {
			txt, w, err := e.tesseractOCR(gctx, img)
			if err != nil {
				// one unreadable page must not sink the document
				pageWarns[i] = append(w, err.Error())
				return nil
			}
			pageTexts[i] = txt
			pageWarns[i] = w
			return nil
		})
	}
	_ = eg.Wait()

	var b strings.Builder
	var warns []string
	for i, txt := range pageTexts {
		warns = append(warns, pageWarns[i]...)
		if txt == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n") // keep a clear page break marker
		}
		b.WriteString(txt)
	}
	return b.String(), len(matches), warns, nil
}

func meaningfulChars(s string) int {
	n := 0
	for _, r := range s {
		if r > ' ' {
			n++
		}
	}
	return n
}
