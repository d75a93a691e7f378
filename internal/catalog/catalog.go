package catalog

import "slices"

// Category groups Qwen model identifiers for selection UIs.
// Categories are never used to validate a request.
type Category string

const (
	CategoryPaid               Category = "paid"
	CategoryFreeTrial          Category = "freeTrial"
	CategoryReasoning          Category = "reasoning"
	CategoryReasoningFreeTrial Category = "reasoningFreeTrial"
	CategoryEmbeddings         Category = "embeddings"
	CategoryVisual             Category = "visual"
	CategoryVisualFreeTrial    Category = "visualFreeTrial"
)

// DefaultCategory is used when a work item does not name a category.
const DefaultCategory = CategoryPaid

// ModelOption is a single selectable model.
type ModelOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CategoryInfo describes a category for display.
type CategoryInfo struct {
	Name  string   `json:"name"`
	Value Category `json:"value"`
}

var categories = []CategoryInfo{
	{Name: "Paid Models", Value: CategoryPaid},
	{Name: "Free Trial Models", Value: CategoryFreeTrial},
	{Name: "Reasoning Models", Value: CategoryReasoning},
	{Name: "Reasoning Free Trial Models", Value: CategoryReasoningFreeTrial},
	{Name: "Embeddings Models", Value: CategoryEmbeddings},
	{Name: "Visual Models", Value: CategoryVisual},
	{Name: "Visual Free Trial Models", Value: CategoryVisualFreeTrial},
}

// models is read-only after package init. Callers only ever see copies.
var models = map[Category][]ModelOption{
	CategoryPaid: same(
		"qwen-max", "qwen-plus",
		"qwen-max-latest", "qwen-plus-latest",
		"qwen-max-2025-01-25", "qwen-plus-2025-01-25",
		"qwen-turbo-latest", "qwen-turbo",
		"qwen-turbo-2024-11-01",
	),
	CategoryFreeTrial: same(
		"qwen2.5-14b-instruct-1m", "qwen2.5-72b-instruct",
		"qwen2.5-32b-instruct", "qwen2.5-14b-instruct",
		"qwen2.5-7b-instruct", "qwen2.5-7b-instruct-1m",
	),
	CategoryReasoning: same("qwq-plus"),
	CategoryReasoningFreeTrial: same(
		"qvq-max", "qvq-max-latest", "qvq-max-2025-03-25",
	),
	CategoryEmbeddings: same("text-embedding-v3"),
	CategoryVisual: same(
		"qwen-vl-max", "qwen-vl-plus", "qwen2.5-vl-72b-instruct",
	),
	CategoryVisualFreeTrial: same(
		"qwen2.5-vl-32b-instruct", "qwen2.5-vl-7b-instruct", "qwen2.5-vl-3b-instruct",
	),
}

// same builds options whose display name equals the model identifier.
func same(ids ...string) []ModelOption {
	opts := make([]ModelOption, len(ids))
	for i, id := range ids {
		opts[i] = ModelOption{Name: id, Value: id}
	}
	return opts
}

// Options returns the ordered options registered for category.
// Unknown categories yield an empty, non-nil slice.
func Options(category Category) []ModelOption {
	opts, ok := models[category]
	if !ok {
		return []ModelOption{}
	}
	return slices.Clone(opts)
}

// Categories returns every known category in display order.
func Categories() []CategoryInfo {
	return slices.Clone(categories)
}

// Valid reports whether category is one of the known tags.
func Valid(category Category) bool {
	_, ok := models[category]
	return ok
}
