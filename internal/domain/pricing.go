package domain

import (
	"fmt"
	"math"
	"strings"
)

// Pricing tiers, keyed by normalized model family.
const (
	ModelSonnet45 = "claude-sonnet-4-5"
	ModelSonnet35 = "claude-sonnet-3-5"
	ModelOpus3    = "claude-opus-3"
	DefaultTier   = "default"

	CostCurrency = "USD"

	// charsPerToken is the heuristic used when no usage block is available.
	charsPerToken = 3.5
)

// ModelPricing represents pricing per million tokens for a model family.
type ModelPricing struct {
	InputPerMillion      float64
	OutputPerMillion     float64
	CacheWritePerMillion float64
	CacheReadPerMillion  float64
}

var modelPricing = map[string]ModelPricing{
	ModelSonnet45: {InputPerMillion: 3.00, OutputPerMillion: 15.00, CacheWritePerMillion: 3.75, CacheReadPerMillion: 0.30},
	ModelSonnet35: {InputPerMillion: 3.00, OutputPerMillion: 15.00, CacheWritePerMillion: 3.75, CacheReadPerMillion: 0.30},
	ModelOpus3:    {InputPerMillion: 15.00, OutputPerMillion: 75.00, CacheWritePerMillion: 18.75, CacheReadPerMillion: 1.50},
	DefaultTier:   {InputPerMillion: 3.00, OutputPerMillion: 15.00, CacheWritePerMillion: 3.75, CacheReadPerMillion: 0.30},
}

// GetModelPricing returns pricing for a model family, with fallback to the
// default tier.
func GetModelPricing(family string) ModelPricing {
	if p, ok := modelPricing[family]; ok {
		return p
	}
	return modelPricing[DefaultTier]
}

// NormalizeModel maps a model identifier to its pricing family, e.g.
// "claude-sonnet-4-5-20250929" -> "claude-sonnet-4-5". Unknown identifiers
// map to the newest family.
func NormalizeModel(modelID string) string {
	id := strings.ToLower(modelID)

	switch {
	case id == "":
		return ModelSonnet45
	case strings.Contains(id, "sonnet-4"):
		return ModelSonnet45
	case strings.Contains(id, "sonnet-3.5"), strings.Contains(id, "sonnet-3-5"), strings.Contains(id, "3-5-sonnet"):
		return ModelSonnet35
	case strings.Contains(id, "opus"):
		return ModelOpus3
	default:
		return ModelSonnet45
	}
}

// CalculateCost returns the cost in USD. input excludes cache tokens.
func (p ModelPricing) CalculateCost(input, output, cacheWrite, cacheRead int64) float64 {
	cost := float64(input) * p.InputPerMillion / 1_000_000
	cost += float64(output) * p.OutputPerMillion / 1_000_000
	cost += float64(cacheWrite) * p.CacheWritePerMillion / 1_000_000
	cost += float64(cacheRead) * p.CacheReadPerMillion / 1_000_000
	return cost
}

// EstimateCost prices a turn and formats it with six fractional digits.
// inputTokens excludes the cache counters.
func EstimateCost(inputTokens, outputTokens int64, family string, cacheCreationTokens, cacheReadTokens int64) string {
	return FormatCost(GetModelPricing(family).CalculateCost(inputTokens, outputTokens, cacheCreationTokens, cacheReadTokens))
}

// TurnCost prices a turn from its usage when the transcript reported any,
// otherwise from the character-based estimates.
func TurnCost(u Usage, requestTokensEst, responseTokensEst int64, family string) string {
	if u.HasActual() {
		return EstimateCost(u.RegularInput(), u.OutputTokens, family, u.CacheCreationTokens, u.CacheReadTokens)
	}
	return EstimateCost(requestTokensEst, responseTokensEst, family, 0, 0)
}

// FormatCost renders a cost with fixed precision.
func FormatCost(cost float64) string {
	return fmt.Sprintf("%.6f", cost)
}

// EstimateTokens approximates the token count of text at ~3.5 characters
// per token.
func EstimateTokens(text string) int64 {
	n := len([]rune(text))
	if n == 0 {
		return 0
	}
	return int64(math.Ceil(float64(n) / charsPerToken))
}
