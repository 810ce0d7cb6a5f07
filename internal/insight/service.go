package insight

import (
	"context"

	"github.com/vozant-ai/valuation-engine/internal/observability"
)

// Service produces vehicle briefs and market analyses, caching briefs so the
// text service is not re-queried for the same selection within the TTL.
type Service struct {
	source TextSource
	cache  *BriefCache
	logger *observability.Logger
}

// NewService creates an insight service. The cache may be nil to disable
// brief caching.
func NewService(source TextSource, briefCache *BriefCache, logger *observability.Logger) *Service {
	if logger == nil {
		logger = observability.Discard()
	}
	return &Service{
		source: source,
		cache:  briefCache,
		logger: logger.WithComponent("insight"),
	}
}

// VehicleBrief returns localized descriptive text for the vehicle. Cached
// briefs are served when fresh; generation failures degrade to an empty
// string rather than an error.
func (s *Service) VehicleBrief(ctx context.Context, brand, model string, year int, lang string) string {
	key := Key(lang, brand, model, year)

	if s.cache != nil {
		if text, ok := s.cache.Get(ctx, key); ok {
			return text
		}
	}

	text, err := s.source.CarInfo(ctx, Request{
		Brand:    brand,
		Model:    model,
		Year:     year,
		Language: lang,
	})
	if err != nil {
		s.logger.Warn().Err(err).
			Str("brand", brand).
			Str("model", model).
			Int("year", year).
			Msg("Vehicle brief generation failed")
		return ""
	}

	if text != "" && s.cache != nil {
		s.cache.Put(ctx, key, text)
	}
	return text
}

// MarketAnalysis returns localized market commentary for the vehicle at the
// given predicted price. It requires a price and is never cached, since the
// text is tied to the estimate. Failures degrade to an empty string.
func (s *Service) MarketAnalysis(ctx context.Context, brand, model string, year int, price float64, lang string) string {
	text, err := s.source.CarInfo(ctx, Request{
		Brand:    brand,
		Model:    model,
		Year:     year,
		Language: lang,
		Price:    price,
	})
	if err != nil {
		s.logger.Warn().Err(err).
			Str("brand", brand).
			Str("model", model).
			Int("year", year).
			Msg("Market analysis generation failed")
		return ""
	}
	return text
}
