// Package i18n provides the EN/TR message catalog for user-facing text.
package i18n

import "strings"

// Language identifies a supported output language.
type Language string

const (
	// LanguageEN is English, the default.
	LanguageEN Language = "EN"
	// LanguageTR is Turkish.
	LanguageTR Language = "TR"
)

// Normalize maps arbitrary input to a supported language, defaulting to EN.
func Normalize(s string) Language {
	if strings.EqualFold(strings.TrimSpace(s), string(LanguageTR)) {
		return LanguageTR
	}
	return LanguageEN
}

// Message keys for localized user-facing text.
const (
	MsgIncompleteSelection = "incomplete_selection"
	MsgPredictionFailed    = "prediction_failed"
	MsgAnalyzing           = "analyzing"
	MsgAppraisal           = "appraisal"
	MsgEstimate            = "estimate"
	MsgRangeLow            = "range_low"
	MsgRangeHigh           = "range_high"
	MsgConfidence          = "confidence"
	MsgSynthesis           = "synthesis"
	MsgProfile             = "profile"
)

var catalog = map[Language]map[string]string{
	LanguageEN: {
		MsgIncompleteSelection: "Please select a brand, model, and year.",
		MsgPredictionFailed:    "Prediction service unavailable. Please try again.",
		MsgAnalyzing:           "ANALYZING ASSET...",
		MsgAppraisal:           "MARKET APPRAISAL",
		MsgEstimate:            "Estimated price",
		MsgRangeLow:            "Lowest",
		MsgRangeHigh:           "Highest",
		MsgConfidence:          "ALGORITHM CONFIDENCE",
		MsgSynthesis:           "AI SYNTHESIS",
		MsgProfile:             "VEHICLE PROFILE",
	},
	LanguageTR: {
		MsgIncompleteSelection: "Lütfen marka, model ve yıl seçiniz.",
		MsgPredictionFailed:    "Model tahmini alınamadı. Lütfen daha sonra tekrar deneyin.",
		MsgAnalyzing:           "ANALİZ EDİLİYOR...",
		MsgAppraisal:           "PAZAR DEĞERLEMESİ",
		MsgEstimate:            "Tahmini fiyat",
		MsgRangeLow:            "En düşük",
		MsgRangeHigh:           "En yüksek",
		MsgConfidence:          "ALGORİTMA GÜVENİ",
		MsgSynthesis:           "AI SENTEZİ",
		MsgProfile:             "ARAÇ PROFİLİ",
	},
}

// T returns the localized text for key, falling back to English and then to the
// key itself so a missing entry never produces empty UI text.
func T(lang Language, key string) string {
	if msgs, ok := catalog[lang]; ok {
		if msg, ok := msgs[key]; ok {
			return msg
		}
	}
	if msg, ok := catalog[LanguageEN][key]; ok {
		return msg
	}
	return key
}
