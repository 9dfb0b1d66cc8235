package llm

import (
	"strings"

	"github.com/shopspring/decimal"
)

// modelPricing holds per-model pricing in USD per 1M tokens.
type modelPricing struct {
	InputPerMillion  decimal.Decimal
	OutputPerMillion decimal.Decimal
}

func price(in, out string) modelPricing {
	return modelPricing{
		InputPerMillion:  decimal.RequireFromString(in),
		OutputPerMillion: decimal.RequireFromString(out),
	}
}

var million = decimal.NewFromInt(1_000_000)

// priceTable maps model identifiers to their pricing.
var priceTable = map[string]modelPricing{
	// Anthropic models
	"claude-sonnet-4-5-20250929": price("3.00", "15.00"),
	"claude-haiku-4-5-20251001":  price("0.80", "4.00"),
	"claude-opus-4-6":            price("15.00", "75.00"),

	// Bedrock model ids
	"anthropic.claude-3-haiku-20240307-v1:0":    price("0.25", "1.25"),
	"anthropic.claude-3-5-sonnet-20240620-v1:0": price("3.00", "15.00"),
	"anthropic.claude-3-5-haiku-20241022-v1:0":  price("0.80", "4.00"),
	"amazon.nova-lite-v1:0":                     price("0.06", "0.24"),
	"amazon.nova-pro-v1:0":                      price("0.80", "3.20"),

	// OpenAI models
	"gpt-4o":      price("2.50", "10.00"),
	"gpt-4o-mini": price("0.15", "0.60"),

	// Google models
	"gemini-2.0-flash": price("0.10", "0.40"),
	"gemini-1.5-pro":   price("1.25", "5.00"),
}

// lookupPricing finds a model's pricing. Bedrock cross-region inference
// profile ids ("us.anthropic...") are priced as the underlying model.
func lookupPricing(model string) (modelPricing, bool) {
	if p, ok := priceTable[model]; ok {
		return p, true
	}
	for _, prefix := range []string{"us.", "eu.", "apac.", "global."} {
		if rest, ok := strings.CutPrefix(model, prefix); ok {
			p, ok := priceTable[rest]
			return p, ok
		}
	}
	return modelPricing{}, false
}

// KnownModel reports whether model has an entry in the price table.
func KnownModel(model string) bool {
	_, ok := lookupPricing(model)
	return ok
}

// EstimateCost returns the cost in USD for the given model and token counts.
// Returns zero if the model is not found in the price table.
func EstimateCost(model string, inputTokens, outputTokens int) decimal.Decimal {
	pricing, ok := lookupPricing(model)
	if !ok {
		return decimal.Zero
	}

	inputCost := decimal.NewFromInt(int64(inputTokens)).Mul(pricing.InputPerMillion).Div(million)
	outputCost := decimal.NewFromInt(int64(outputTokens)).Mul(pricing.OutputPerMillion).Div(million)
	return inputCost.Add(outputCost)
}

// EstimateTokens provides a rough token count estimation for the given text.
// Uses the approximation of 1 token per 4 characters.
func EstimateTokens(text string) int {
	n := len(text) / 4
	if n == 0 && len(text) > 0 {
		return 1
	}
	return n
}
