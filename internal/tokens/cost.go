package tokens

import "strings"

// Price is USD per 1K tokens.
type Price struct {
	Input  float64
	Output float64
}

const defaultPriceModel = "gpt-4"

var pricing = map[string]Price{
	"gpt-4":         {Input: 0.03, Output: 0.06},
	"gpt-4-turbo":   {Input: 0.01, Output: 0.03},
	"gpt-3.5-turbo": {Input: 0.0005, Output: 0.0015},
	"gpt-4o":        {Input: 0.005, Output: 0.015},
	"gpt-4o-mini":   {Input: 0.00015, Output: 0.0006},
}

// PriceFor returns the price table entry for model.
// Unknown models are priced as gpt-4 so estimates err high.
func PriceFor(model string) Price {
	m := strings.ToLower(strings.TrimSpace(model))
	// Strip router prefixes like "openai/gpt-4o".
	if i := strings.LastIndex(m, "/"); i >= 0 {
		m = m[i+1:]
	}
	if p, ok := pricing[m]; ok {
		return p
	}
	return pricing[defaultPriceModel]
}

// EstimateCost returns the approximate USD cost of a call.
func EstimateCost(model string, inputTokens, outputTokens int) float64 {
	p := PriceFor(model)
	return float64(inputTokens)/1000*p.Input + float64(outputTokens)/1000*p.Output
}
