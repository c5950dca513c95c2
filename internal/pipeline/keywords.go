package pipeline

import "strings"

// Impact labels shared by sentiment classification and key events.
const (
	impactPositive = "positive"
	impactNegative = "negative"
	impactNeutral  = "neutral"
)

// Fixed keyword vocabularies. Classification scans lowercased headline+summary
// text for substring membership; positive is checked before negative, so a
// headline matching both counts as positive.
var positiveKeywords = []string{
	"gain", "surge", "rise", "rose", "jump", "soar", "rally", "rebound",
	"beat", "record high", "breakthrough", "outperform", "upgrade",
	"strong earnings", "growth", "profit", "bullish", "all-time high",
}

var negativeKeywords = []string{
	"drop", "decline", "plummet", "fall", "fell", "slump", "plunge",
	"tumble", "miss", "downgrade", "underperform", "loss", "lawsuit",
	"layoff", "recall", "bearish", "concern", "weak", "cut",
}

// sectorKeywords maps the profile API's industry string to topical keywords
// used by the external-factor lookup. Unknown sectors get generalKeywords.
var sectorKeywords = map[string][]string{
	"Technology":          {"ai", "artificial intelligence", "software", "chip", "semiconductor", "cloud", "data center"},
	"Automobiles":         {"ev", "electric vehicle", "autonomous", "vehicle", "battery"},
	"Financial Services":  {"interest rate", "fed", "bank", "credit", "lending"},
	"Banking":             {"interest rate", "fed", "bank", "credit", "deposit"},
	"Energy":              {"oil", "gas", "crude", "opec", "renewable"},
	"Pharmaceuticals":     {"fda", "drug", "clinical trial", "vaccine", "approval"},
	"Health Care":         {"fda", "drug", "clinical trial", "medicare", "approval"},
	"Retail":              {"consumer", "sales", "holiday", "e-commerce", "inventory"},
	"Media":               {"streaming", "advertising", "subscriber", "content"},
	"Aerospace & Defense": {"defense", "contract", "government", "pentagon"},
}

var generalKeywords = []string{"market", "economy", "inflation", "fed", "tariff"}

// classifySentiment tags article text as positive, negative or neutral. First
// matching set wins; there is no further ambiguity resolution.
func classifySentiment(text string) string {
	text = strings.ToLower(text)
	for _, kw := range positiveKeywords {
		if strings.Contains(text, kw) {
			return impactPositive
		}
	}
	for _, kw := range negativeKeywords {
		if strings.Contains(text, kw) {
			return impactNegative
		}
	}
	return impactNeutral
}

// keywordsForSector returns the topical vocabulary for an industry string.
func keywordsForSector(industry string) []string {
	if kws, ok := sectorKeywords[industry]; ok {
		return kws
	}
	return generalKeywords
}

func containsAny(text string, keywords []string) bool {
	text = strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
