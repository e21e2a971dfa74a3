// Package pipeline runs one uploaded PDF through extraction, correction and
// rendering.
//
// Stages run strictly in order on the caller's goroutine. The first failure
// ends the run; nothing is retried and nothing is partially returned.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/Shimizu-Technology/pdf-corrector-api/internal/apperrors"
	"github.com/Shimizu-Technology/pdf-corrector-api/internal/services/corrector"
	"github.com/Shimizu-Technology/pdf-corrector-api/internal/services/extraction"
)

// State is a step in a run's lifecycle.
type State string

const (
	StateReceived   State = "received"
	StateExtracting State = "extracting"
	StateCorrecting State = "correcting"
	StateRendering  State = "rendering"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Extractor produces text plus its provenance from PDF bytes.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (extraction.Result, error)
}

// Renderer turns text into PDF bytes.
type Renderer interface {
	Render(text string) ([]byte, error)
}

// Timeouts bound the slow stages. Zero means no extra deadline.
type Timeouts struct {
	Extraction time.Duration
	Correction time.Duration
}

// Outcome is the result of a successful run.
type Outcome struct {
	PDF            []byte
	Provenance     extraction.Provenance
	ExtractedChars int
	CorrectedChars int
	Duration       time.Duration
}

// Failure reports which stage a run died in. The original error is kept
// intact so callers can still inspect its kind with errors.As.
type Failure struct {
	Stage State
	Err   error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s failed: %v", f.Stage, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// StageOf returns the stage a run failed in, or "" if err isn't a *Failure.
func StageOf(err error) State {
	var f *Failure
	if errors.As(err, &f) {
		return f.Stage
	}
	return ""
}

// Pipeline wires the three stages together.
type Pipeline struct {
	extractor Extractor
	corrector corrector.Corrector
	renderer  Renderer
	timeouts  Timeouts
	log       logrus.FieldLogger
}

// New creates a pipeline.
func New(extractor Extractor, corr corrector.Corrector, renderer Renderer, timeouts Timeouts, log logrus.FieldLogger) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		corrector: corr,
		renderer:  renderer,
		timeouts:  timeouts,
		log:       log,
	}
}

// Run processes data and returns the corrected PDF. On failure the error is
// a *Failure naming the stage.
func (p *Pipeline) Run(ctx context.Context, data []byte) (*Outcome, error) {
	start := time.Now()
	log := p.log.WithField("request_id", RequestIDFrom(ctx))
	p.transition(log, StateReceived, logrus.Fields{"size_bytes": len(data)})

	// --- extracting ---
	p.transition(log, StateExtracting, nil)
	extracted, err := withTimeout(ctx, p.timeouts.Extraction, func(ctx context.Context) (extraction.Result, error) {
		return p.extractor.Extract(ctx, data)
	})
	if err != nil {
		return nil, p.fail(log, StateExtracting, err)
	}
	log.WithFields(logrus.Fields{
		"provenance": extracted.Provenance,
		"chars":      utf8.RuneCountInString(extracted.Text),
	}).Info("📄 Text extracted")

	// --- correcting ---
	p.transition(log, StateCorrecting, nil)
	corrected, err := withTimeout(ctx, p.timeouts.Correction, func(ctx context.Context) (string, error) {
		return p.corrector.Correct(ctx, extracted.Text)
	})
	if err != nil {
		return nil, p.fail(log, StateCorrecting, err)
	}

	// --- rendering ---
	p.transition(log, StateRendering, nil)
	pdf, err := p.renderer.Render(corrected)
	if err != nil {
		return nil, p.fail(log, StateRendering, err)
	}

	outcome := &Outcome{
		PDF:            pdf,
		Provenance:     extracted.Provenance,
		ExtractedChars: utf8.RuneCountInString(extracted.Text),
		CorrectedChars: utf8.RuneCountInString(corrected),
		Duration:       time.Since(start),
	}
	p.transition(log, StateDone, logrus.Fields{
		"duration_ms": outcome.Duration.Milliseconds(),
		"pdf_bytes":   len(pdf),
	})
	return outcome, nil
}

func (p *Pipeline) transition(log logrus.FieldLogger, state State, fields logrus.Fields) {
	entry := log.WithField("stage", state)
	if fields != nil {
		entry = entry.WithFields(fields)
	}
	if state == StateDone {
		entry.Info("✅ Correction finished")
		return
	}
	entry.Debug("➡️  Stage started")
}

// fail logs the failure with its kind and wraps it in a *Failure.
func (p *Pipeline) fail(log logrus.FieldLogger, stage State, err error) error {
	log.WithFields(logrus.Fields{
		"stage":        StateFailed,
		"failed_stage": stage,
		"error_kind":   apperrors.KindOf(err),
	}).WithError(err).Error("❌ Correction failed")
	return &Failure{Stage: stage, Err: err}
}

// withTimeout runs fn under its own deadline when d > 0.
func withTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if d <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return fn(ctx)
}
