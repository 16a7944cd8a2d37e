package provider

import "math"

// Cost computes the dollar cost of one generation call from token counts and
// the registry's pricing table, rounded to six decimal places per spec §4.E.
func (r *Registry) Cost(providerName, model string, promptTokens, completionTokens int) float64 {
	promptCost := float64(promptTokens) / 1000 * r.PricePer1kPrompt(providerName, model)
	completionCost := float64(completionTokens) / 1000 * r.PricePer1kCompletion(providerName, model)
	return math.Round((promptCost+completionCost)*1e6) / 1e6
}
