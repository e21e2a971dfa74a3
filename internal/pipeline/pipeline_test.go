package pipeline

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Shimizu-Technology/pdf-corrector-api/internal/apperrors"
	"github.com/Shimizu-Technology/pdf-corrector-api/internal/logging"
	"github.com/Shimizu-Technology/pdf-corrector-api/internal/services/extraction"
	"github.com/Shimizu-Technology/pdf-corrector-api/internal/services/ocr"
	"github.com/Shimizu-Technology/pdf-corrector-api/internal/services/pdf"
	"github.com/Shimizu-Technology/pdf-corrector-api/internal/services/render"
)

// --- fakes ---

type fakeExtractor struct {
	result extraction.Result
	err    error
}

func (f fakeExtractor) Extract(ctx context.Context, data []byte) (extraction.Result, error) {
	return f.result, f.err
}

type fakeCorrector struct {
	out      string
	err      error
	received []string
}

func (f *fakeCorrector) Correct(ctx context.Context, text string) (string, error) {
	f.received = append(f.received, text)
	return f.out, f.err
}

type fakeRenderer struct {
	err   error
	calls int
}

func (f *fakeRenderer) Render(text string) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-" + text), nil
}

// zeroPageRasterizer models a document with no pages.
type zeroPageRasterizer struct{}

func (zeroPageRasterizer) Rasterize(ctx context.Context, pdfPath, dir string) ([]string, error) {
	return nil, nil
}

type unusedRecognizer struct{ t *testing.T }

func (u unusedRecognizer) Recognize(ctx context.Context, imagePath string) (string, error) {
	u.t.Error("recognizer called for a zero-page document")
	return "", nil
}

type emptyTextLayer struct{}

func (emptyTextLayer) ExtractDirect(ctx context.Context, data []byte) (string, error) {
	return "", nil
}

// --- tests ---

func TestRunFailures(t *testing.T) {
	tests := []struct {
		name            string
		extractor       fakeExtractor
		corrector       *fakeCorrector
		renderer        *fakeRenderer
		wantStage       State
		wantKind        apperrors.Kind
		wantRenderCalls int
		wantCorrections int
	}{
		{
			name:            "extraction fails",
			extractor:       fakeExtractor{err: apperrors.Rasterization("failed to rasterize PDF", errors.New("mupdf"))},
			corrector:       &fakeCorrector{out: "never"},
			renderer:        &fakeRenderer{},
			wantStage:       StateExtracting,
			wantKind:        apperrors.KindRasterization,
			wantRenderCalls: 0,
			wantCorrections: 0,
		},
		{
			name:            "correction fails with zero choices",
			extractor:       fakeExtractor{result: extraction.Result{Text: "some text", Provenance: extraction.ProvenanceTextLayer}},
			corrector:       &fakeCorrector{err: apperrors.CorrectionService("no choices in completion response", nil)},
			renderer:        &fakeRenderer{},
			wantStage:       StateCorrecting,
			wantKind:        apperrors.KindCorrectionService,
			wantRenderCalls: 0,
			wantCorrections: 1,
		},
		{
			name:            "rendering fails",
			extractor:       fakeExtractor{result: extraction.Result{Text: "some text", Provenance: extraction.ProvenanceOCR}},
			corrector:       &fakeCorrector{out: "fixed"},
			renderer:        &fakeRenderer{err: apperrors.Rendering("failed to write PDF", errors.New("disk"))},
			wantStage:       StateRendering,
			wantKind:        apperrors.KindRendering,
			wantRenderCalls: 1,
			wantCorrections: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.extractor, tt.corrector, tt.renderer, Timeouts{}, logging.Discard())

			out, err := p.Run(context.Background(), []byte("%PDF-1.4"))
			if err == nil {
				t.Fatalf("Run() expected error, got outcome %+v", out)
			}
			if out != nil {
				t.Errorf("Run() returned a partial outcome on failure")
			}
			if stage := StageOf(err); stage != tt.wantStage {
				t.Errorf("StageOf() = %q, want %q", stage, tt.wantStage)
			}
			if kind := apperrors.KindOf(err); kind != tt.wantKind {
				t.Errorf("KindOf() = %q, want %q", kind, tt.wantKind)
			}
			if tt.renderer.calls != tt.wantRenderCalls {
				t.Errorf("renderer called %d times, want %d", tt.renderer.calls, tt.wantRenderCalls)
			}
			if len(tt.corrector.received) != tt.wantCorrections {
				t.Errorf("corrector called %d times, want %d", len(tt.corrector.received), tt.wantCorrections)
			}
		})
	}
}

func TestRunSuccess(t *testing.T) {
	corr := &fakeCorrector{out: "fixed text"}
	p := New(
		fakeExtractor{result: extraction.Result{Text: "broken txet", Provenance: extraction.ProvenanceOCR}},
		corr,
		&fakeRenderer{},
		Timeouts{Extraction: time.Second, Correction: time.Second},
		logging.Discard(),
	)

	out, err := p.Run(WithRequestID(context.Background(), "req-1"), []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}
	if string(out.PDF) != "%PDF-fixed text" {
		t.Errorf("PDF = %q", out.PDF)
	}
	if out.Provenance != extraction.ProvenanceOCR {
		t.Errorf("Provenance = %q", out.Provenance)
	}
	if out.ExtractedChars != 11 || out.CorrectedChars != 10 {
		t.Errorf("chars = %d/%d, want 11/10", out.ExtractedChars, out.CorrectedChars)
	}
	if corr.received[0] != "broken txet" {
		t.Errorf("corrector received %q", corr.received[0])
	}
}

// slowCorrector blocks until its context is done.
type slowCorrector struct{}

func (slowCorrector) Correct(ctx context.Context, text string) (string, error) {
	<-ctx.Done()
	return "", apperrors.CorrectionService("completion request failed", ctx.Err())
}

func TestRunCorrectionTimeout(t *testing.T) {
	renderer := &fakeRenderer{}
	p := New(
		fakeExtractor{result: extraction.Result{Text: "x", Provenance: extraction.ProvenanceOCR}},
		slowCorrector{},
		renderer,
		Timeouts{Correction: 20 * time.Millisecond},
		logging.Discard(),
	)

	_, err := p.Run(context.Background(), nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() error = %v, want deadline exceeded in chain", err)
	}
	if StageOf(err) != StateCorrecting {
		t.Errorf("StageOf() = %q", StageOf(err))
	}
	if renderer.calls != 0 {
		t.Error("renderer called after correction timed out")
	}
}

func TestRunRoundTrip(t *testing.T) {
	input, err := render.NewRenderer().Render("Hello   world, this has enough length.")
	if err != nil {
		t.Fatalf("building input PDF: %v", err)
	}

	corr := &fakeCorrector{out: "Hello world, corrected."}
	selector := extraction.NewSelector(pdf.NewExtractor(), ocrMustNotRun{t}, logging.Discard())
	p := New(selector, corr, render.NewRenderer(), Timeouts{}, logging.Discard())

	out, err := p.Run(context.Background(), input)
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}
	if out.Provenance != extraction.ProvenanceTextLayer {
		t.Errorf("Provenance = %q, want text_layer", out.Provenance)
	}
	if got := strings.TrimSpace(corr.received[0]); got != "Hello   world, this has enough length." {
		t.Errorf("corrector received %q", got)
	}
	if len(out.PDF) == 0 {
		t.Fatal("empty output PDF")
	}

	text, err := pdf.NewExtractor().ExtractDirect(context.Background(), out.PDF)
	if err != nil {
		t.Fatalf("re-extracting output: %v", err)
	}
	if strings.TrimSpace(text) != "Hello world, corrected." {
		t.Errorf("output text layer = %q", text)
	}
}

type ocrMustNotRun struct{ t *testing.T }

func (o ocrMustNotRun) Extract(ctx context.Context, data []byte) (string, error) {
	o.t.Error("OCR invoked for a plausible text layer")
	return "", nil
}

func TestRunZeroPageDocumentViaOCR(t *testing.T) {
	root := t.TempDir()
	ocrExtractor := ocr.NewExtractor(zeroPageRasterizer{}, unusedRecognizer{t}, root, logging.Discard())
	selector := extraction.NewSelector(emptyTextLayer{}, ocrExtractor, logging.Discard())
	corr := &fakeCorrector{out: ""}

	p := New(selector, corr, render.NewRenderer(), Timeouts{}, logging.Discard())
	out, err := p.Run(context.Background(), []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}
	if out.Provenance != extraction.ProvenanceOCR {
		t.Errorf("Provenance = %q, want ocr", out.Provenance)
	}
	if len(corr.received) != 1 || corr.received[0] != "" {
		t.Errorf("corrector received %q, want a single empty string", corr.received)
	}
	if len(out.PDF) == 0 {
		t.Error("empty output PDF")
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("scratch root not empty after run: %d entries", len(entries))
	}
}

func TestRequestIDContext(t *testing.T) {
	if got := RequestIDFrom(context.Background()); got != "" {
		t.Errorf("RequestIDFrom(empty) = %q", got)
	}
	if got := RequestIDFrom(WithRequestID(context.Background(), "abc")); got != "abc" {
		t.Errorf("RequestIDFrom() = %q, want abc", got)
	}
}

func TestFailureMessage(t *testing.T) {
	err := &Failure{Stage: StateCorrecting, Err: errors.New("boom")}
	if err.Error() != "correcting failed: boom" {
		t.Errorf("Error() = %q", err.Error())
	}
	if StageOf(errors.New("plain")) != "" {
		t.Error("StageOf(non-failure) should be empty")
	}
}
