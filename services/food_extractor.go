package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"nutriscan/config"
	"nutriscan/models"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	extractionTemperature = 0.1
	extractionMaxTokens   = 500
	suggestionTemperature = 0.2
	suggestionMaxTokens   = 100

	defaultItemUnit = "piece"
)

const extractionSystemPrompt = "You analyse meal descriptions. Identify every food item in the user's text and answer with JSON only."

const extractionPromptTemplate = `Analyse the following meal text and return the food items it mentions as JSON.

Text: "%s"

Return JSON in this shape:
{
    "food_items": [
        {
            "name": "food name",
            "quantity": number,
            "unit": "unit of measure (gram, piece, cup, ...)",
            "description": "short description"
        }
    ]
}

Example:
Text: "2 ta tuxum va bitta kofe ichdim"
{
    "food_items": [
        {
            "name": "tuxum",
            "quantity": 2,
            "unit": "piece",
            "description": "tavla tuxum"
        },
        {
            "name": "kofe",
            "quantity": 1,
            "unit": "cup",
            "description": "qora kofe"
        }
    ]
}

Return only the JSON, no other text.
`

// FoodExtractor turns free text into food items. It never fails; no items is a valid answer.
type FoodExtractor interface {
	Extract(ctx context.Context, text string) []models.FoodItem
}

// FoodTextExtractor asks the language model first and falls back to the
// keyword table whenever the model errors or yields nothing usable.
type FoodTextExtractor struct {
	llm    ChatCompleter
	vocab  *config.Vocabulary
	logger *zap.Logger
}

func NewFoodTextExtractor(llm ChatCompleter, vocab *config.Vocabulary, logger *zap.Logger) *FoodTextExtractor {
	if vocab == nil {
		vocab = config.MustDefaultVocabulary()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FoodTextExtractor{llm: llm, vocab: vocab, logger: logger}
}

func (e *FoodTextExtractor) Extract(ctx context.Context, text string) []models.FoodItem {
	if e.llm != nil {
		content, err := e.llm.Complete(ctx, ChatRequest{
			Messages: []ChatMessage{
				{Role: "system", Content: extractionSystemPrompt},
				{Role: "user", Content: BuildExtractionPrompt(text)},
			},
			Temperature: extractionTemperature,
			MaxTokens:   extractionMaxTokens,
		})
		if err != nil {
			e.logger.Warn("llm extraction failed, using keyword fallback", zap.Error(err))
		} else if items := ParseFoodItems(content); len(items) > 0 {
			return items
		} else {
			e.logger.Info("llm extraction returned no items, using keyword fallback",
				zap.String("completion", truncate(content, 200)))
		}
	}
	return FallbackParse(text, e.vocab)
}

// Suggest asks the model for food names matching a partial input.
func (e *FoodTextExtractor) Suggest(ctx context.Context, partial string) []string {
	if e.llm == nil || strings.TrimSpace(partial) == "" {
		return []string{}
	}
	content, err := e.llm.Complete(ctx, ChatRequest{
		Messages: []ChatMessage{
			{Role: "system", Content: "Suggest food items."},
			{Role: "user", Content: "Suggest food items for: " + partial},
		},
		Temperature: suggestionTemperature,
		MaxTokens:   suggestionMaxTokens,
	})
	if err != nil {
		e.logger.Warn("food suggestion failed", zap.Error(err))
		return []string{}
	}
	out := []string{}
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// BuildExtractionPrompt embeds text into the fixed extraction template.
func BuildExtractionPrompt(text string) string {
	return fmt.Sprintf(extractionPromptTemplate, text)
}

// ParseFoodItems is best effort: it takes the span from the first '{' to the
// last '}', decodes it and maps "food_items". Anything malformed yields nil.
func ParseFoodItems(content string) []models.FoodItem {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end < start {
		return nil
	}
	raw := content[start : end+1]
	if !gjson.Valid(raw) {
		return nil
	}
	doc := gjson.Parse(raw)
	if !doc.IsObject() {
		return nil
	}
	list := doc.Get("food_items")
	if !list.IsArray() {
		return nil
	}

	var items []models.FoodItem
	for _, it := range list.Array() {
		if !it.IsObject() {
			return nil
		}
		qty, ok := itemQuantity(it.Get("quantity"))
		if !ok {
			return nil
		}
		name := strings.TrimSpace(it.Get("name").String())
		if name == "" {
			continue
		}
		items = append(items, models.FoodItem{
			Name:        name,
			Quantity:    qty,
			Unit:        orDefault(strings.TrimSpace(it.Get("unit").String()), defaultItemUnit),
			Description: it.Get("description").String(),
		})
	}
	return items
}

// itemQuantity accepts numbers and numeric strings; missing or non-positive means 1.
func itemQuantity(v gjson.Result) (float64, bool) {
	switch v.Type {
	case gjson.Null:
		return 1, true
	case gjson.Number:
		if v.Num <= 0 {
			return 1, true
		}
		return v.Num, true
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0, false
		}
		if f <= 0 {
			return 1, true
		}
		return f, true
	default:
		return 0, false
	}
}

// FallbackParse matches known food substrings in the lowercased text.
// The quantity cue is searched in the whole text, not near the matched
// food, so one numeral applies to every food found.
func FallbackParse(text string, vocab *config.Vocabulary) []models.FoodItem {
	lower := strings.ToLower(text)
	qty := quantityCue(lower, vocab.Quantities)

	var items []models.FoodItem
	for _, f := range vocab.Foods {
		if !strings.Contains(lower, f.Name) {
			continue
		}
		items = append(items, models.FoodItem{
			Name:        f.Name,
			Quantity:    qty,
			Unit:        f.Unit,
			Description: f.Description,
		})
	}
	return items
}

// quantityCue returns the first cue value found in text, in table order, or 1.
func quantityCue(lower string, cues []config.QuantityCue) float64 {
	for _, q := range cues {
		for _, c := range q.Cues {
			if c != "" && strings.Contains(lower, strings.ToLower(c)) {
				return q.Value
			}
		}
	}
	return 1
}
