// Package appraisal orchestrates a valuation request: prediction, market
// analysis, vehicle brief and imagery, with stale-submission discard so a
// slow earlier request never clobbers a newer one.
package appraisal

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/vozant-ai/valuation-engine/internal/i18n"
	"github.com/vozant-ai/valuation-engine/internal/imagery"
	"github.com/vozant-ai/valuation-engine/internal/insight"
	"github.com/vozant-ai/valuation-engine/internal/observability"
	"github.com/vozant-ai/valuation-engine/internal/prediction"
	"github.com/vozant-ai/valuation-engine/internal/selection"
)

// Analyst produces market commentary for a priced vehicle.
type Analyst interface {
	MarketAnalysis(ctx context.Context, brand, model string, year int, price float64, lang string) string
}

// Briefer produces the cached vehicle brief.
type Briefer interface {
	VehicleBrief(ctx context.Context, brand, model string, year int, lang string) string
}

// Result is a completed appraisal. A non-empty Message means the appraisal
// failed and the price fields are zero.
type Result struct {
	ID             uuid.UUID              `json:"id"`
	Submission     uint64                 `json:"submission"`
	EstimatedPrice float64                `json:"estimatedPrice"`
	PriceRange     prediction.PriceRange  `json:"priceRange"`
	Confidence     float64                `json:"confidence"`
	MarketAnalysis string                 `json:"marketAnalysis,omitempty"`
	BriefText      string                 `json:"briefText,omitempty"`
	Brief          *insight.Brief         `json:"brief,omitempty"`
	Images         []string               `json:"images"`
	Raw            *prediction.RawOutputs `json:"raw,omitempty"`
	Message        string                 `json:"message,omitempty"`
}

// Options holds the appraisal tunables.
type Options struct {
	// RangeMargin defaults to prediction.DefaultRangeMargin when zero.
	RangeMargin float64
	// DefaultConfidence defaults to prediction.DefaultConfidence when zero.
	DefaultConfidence float64
	// MileageRule defaults to selection.DefaultMileageRule when zero.
	MileageRule selection.MileageRule
}

// Orchestrator runs appraisal submissions. Each submission is stamped from a
// monotone counter; only the latest stamp may commit into a session.
type Orchestrator struct {
	predictor prediction.Predictor
	analyst   Analyst
	briefer   Briefer
	imager    imagery.Imager
	opts      Options
	logger    *observability.Logger

	seq atomic.Uint64
}

// NewOrchestrator creates an appraisal orchestrator.
func NewOrchestrator(predictor prediction.Predictor, analyst Analyst, briefer Briefer, imager imagery.Imager, opts Options, logger *observability.Logger) *Orchestrator {
	if opts.RangeMargin <= 0 {
		opts.RangeMargin = prediction.DefaultRangeMargin
	}
	if opts.DefaultConfidence <= 0 {
		opts.DefaultConfidence = prediction.DefaultConfidence
	}
	if opts.MileageRule == (selection.MileageRule{}) {
		opts.MileageRule = selection.DefaultMileageRule()
	}
	if logger == nil {
		logger = observability.Discard()
	}

	return &Orchestrator{
		predictor: predictor,
		analyst:   analyst,
		briefer:   briefer,
		imager:    imager,
		opts:      opts,
		logger:    logger.WithComponent("appraisal"),
	}
}

// Submit runs one appraisal and commits its result into the session unless a
// newer submission has been issued meanwhile. The returned result reflects
// this submission whether or not it was committed.
func (o *Orchestrator) Submit(ctx context.Context, session *Session, features selection.Features, lang i18n.Language) *Result {
	stamp := o.seq.Add(1)

	// Mileage is bounded per condition whatever the caller sent: zero for a
	// new vehicle, clamped into the used range otherwise.
	features = features.WithCondition(features.IsNew, o.opts.MileageRule)

	// An incomplete selection short-circuits before any upstream call, but
	// the stamp it consumed still invalidates slower in-flight submissions.
	if !features.Complete() {
		result := &Result{
			ID:         uuid.New(),
			Submission: stamp,
			Images:     imagery.FallbackImages,
			Message:    i18n.T(lang, i18n.MsgIncompleteSelection),
		}
		o.commit(session, stamp, result)
		return result
	}

	// Imagery is independent of the price and starts immediately. It never
	// fails; at worst it yields the fallback set.
	imagesCh := make(chan []string, 1)
	go func() {
		imagesCh <- o.imager.Generate(ctx, features.Brand, features.Model, features.Year)
	}()

	resp, err := o.predictor.Predict(ctx, features)
	if err != nil {
		o.logger.Error().Err(err).
			Str("brand", features.Brand).
			Str("model", features.Model).
			Int("year", features.Year).
			Msg("Prediction failed")

		result := &Result{
			ID:         uuid.New(),
			Submission: stamp,
			Images:     <-imagesCh,
			Message:    i18n.T(lang, i18n.MsgPredictionFailed),
		}
		o.commit(session, stamp, result)
		return result
	}

	// Analysis and the brief both need nothing beyond the selection and the
	// price, so they run concurrently once the price is in hand.
	var analysis, briefText string
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		analysis = o.analyst.MarketAnalysis(ctx, features.Brand, features.Model, features.Year, resp.EstimatedPrice, string(lang))
	}()
	go func() {
		defer wg.Done()
		briefText = o.briefer.VehicleBrief(ctx, features.Brand, features.Model, features.Year, string(lang))
	}()
	wg.Wait()

	result := &Result{
		ID:             uuid.New(),
		Submission:     stamp,
		EstimatedPrice: resp.EstimatedPrice,
		PriceRange:     prediction.Range(resp.EstimatedPrice, o.opts.RangeMargin),
		Confidence:     resp.Confidence(o.opts.DefaultConfidence),
		MarketAnalysis: analysis,
		BriefText:      briefText,
		Brief:          insight.ParseBrief(briefText),
		Images:         <-imagesCh,
		Raw:            resp.Raw,
	}
	o.commit(session, stamp, result)
	return result
}

// commit stores the result in the session unless the stamp has been
// superseded by a newer submission.
func (o *Orchestrator) commit(session *Session, stamp uint64, result *Result) {
	if session == nil {
		return
	}
	if stamp != o.seq.Load() {
		o.logger.Debug().
			Uint64("stamp", stamp).
			Uint64("latest", o.seq.Load()).
			Msg("Discarding stale appraisal result")
		return
	}
	if !session.commit(stamp, result) {
		o.logger.Debug().Uint64("stamp", stamp).Msg("Discarding stale appraisal result")
	}
}

// Session holds the committed result of the most recent appraisal.
type Session struct {
	mu     sync.Mutex
	latest uint64
	result *Result
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{}
}

// commit stores the result if its stamp is at least as new as anything
// already committed.
func (s *Session) commit(stamp uint64, result *Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stamp < s.latest {
		return false
	}
	s.latest = stamp
	s.result = result
	return true
}

// Result returns the most recently committed result, or nil.
func (s *Session) Result() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}
