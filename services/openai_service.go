package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Sentinel answers the model is instructed to give when it cannot produce
// a usable food description.
const (
	markerNoFoodDetected  = "NO_FOOD_DETECTED"
	markerImageUnclear    = "IMAGE_UNCLEAR"
	markerNoFoodDescribed = "NO_FOOD_DESCRIBED"
)

const imageSystemPrompt = "You are a nutrition expert analyzing food photos with portion estimation expertise. " +
	"Focus ONLY on actual food items that people eat. " +
	"IGNORE plates, bowls, utensils, tables, decorative items, drinks, and background objects. " +
	"Provide realistic portion estimates as multipliers of standard servings (0.5x, 1x, 1.5x, 2x, etc.). " +
	"Be conservative with portion estimates. " +
	"If no food is visible or identifiable, respond with 'NO_FOOD_DETECTED'."

const imageUserPrompt = "Analyze this food photo and list ONLY the edible food items with portion multipliers. " +
	"Format as: '[portion multiplier]x [specific food name]', comma separated. " +
	"Example: '1.5x steamed white rice, 1x roasted chicken thigh, 0.5x stir-fried vegetables'. " +
	"If you cannot clearly identify any food items, respond with 'NO_FOOD_DETECTED'. " +
	"If the image is too blurry, dark, or unclear, respond with 'IMAGE_UNCLEAR'."

const textSystemPrompt = "You are a nutrition expert. Convert user meal descriptions into realistic, " +
	"standardized food descriptions for nutritional lookup. " +
	"Estimate portions conservatively based on typical serving sizes. " +
	"Break down combo dishes into components with realistic portions. " +
	"If the text doesn't describe any actual food, respond with 'NO_FOOD_DESCRIBED'."

// OpenAIService is the Food Recognizer: it maps a photo or a free-text
// description to a structured food description.
type OpenAIService struct {
	client *openai.Client
	model  string
}

func NewOpenAIService(apiKey, model string) *OpenAIService {
	return &OpenAIService{client: openai.NewClient(apiKey), model: model}
}

// newOpenAIServiceWithBaseURL points the client at a test server.
func newOpenAIServiceWithBaseURL(apiKey, model, baseURL string) *OpenAIService {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &OpenAIService{client: openai.NewClientWithConfig(cfg), model: model}
}

// PortionItem is one recognized food with its portion multiplier.
type PortionItem struct {
	Name       string  `json:"name"`
	Multiplier float64 `json:"portion_multiplier"`
}

// FoodAnalysis is the recognizer's answer for one input.
type FoodAnalysis struct {
	Description string
	Confidence  string
	// PortionMultiplier is the average of the per-item multipliers, or an
	// estimate from wording when the model gave none.
	PortionMultiplier float64
	Items             []PortionItem
	// Snapshot is the serialized model response, stored for audit.
	Snapshot []byte
}

// RecognizeImage analyzes raw photo bytes.
func (s *OpenAIService) RecognizeImage(ctx context.Context, image []byte) (*FoodAnalysis, error) {
	dataURI := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   400,
		Temperature: 0.2,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: imageSystemPrompt},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: imageUserPrompt},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURI}},
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecognitionFailed, err)
	}

	return s.analysisFromResponse(resp, false)
}

// RecognizeText standardizes a free-text meal description.
func (s *OpenAIService) RecognizeText(ctx context.Context, text string) (*FoodAnalysis, error) {
	if len(strings.TrimSpace(text)) < 3 {
		return nil, ErrNoFoodDescribed
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   350,
		Temperature: 0.2,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: textSystemPrompt},
			{
				Role: openai.ChatMessageRoleUser,
				Content: "Convert this meal description into a realistic food list with conservative portions: " +
					text + "\nIf this doesn't describe actual food, respond with 'NO_FOOD_DESCRIBED'.",
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecognitionFailed, err)
	}

	return s.analysisFromResponse(resp, true)
}

func (s *OpenAIService) analysisFromResponse(resp openai.ChatCompletionResponse, textInput bool) (*FoodAnalysis, error) {
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty model response", ErrRecognitionFailed)
	}

	description := strings.TrimSpace(resp.Choices[0].Message.Content)
	switch description {
	case markerNoFoodDetected:
		return nil, ErrNoFoodDetected
	case markerImageUnclear:
		return nil, ErrImageUnclear
	case markerNoFoodDescribed:
		return nil, ErrNoFoodDescribed
	}
	if len(description) < 5 {
		return nil, fmt.Errorf("%w: description too short: %q", ErrRecognitionFailed, description)
	}

	snapshot, _ := json.Marshal(resp)

	analysis := &FoodAnalysis{
		Description:       description,
		Confidence:        assessConfidence(description),
		PortionMultiplier: 1.0,
		Snapshot:          snapshot,
	}
	// Photo analyses carry explicit multipliers; plain text defaults to 1x.
	if !textInput {
		analysis.Items, analysis.PortionMultiplier = parsePortions(description)
	}
	return analysis, nil
}

var (
	portionPattern     = regexp.MustCompile(`(?i)(\d+\.?\d*)x\s+([^,]+)`)
	measurementPattern = regexp.MustCompile(`(?i)\d+\s*(cup|cups|tablespoon|tablespoons|teaspoon|teaspoons|oz|ounce|ounces|g|ml|piece|pieces|slice|slices|serving|servings)\b`)
)

var foodWords = []string{
	"rice", "chicken", "beef", "pork", "fish", "vegetables", "salad", "soup",
	"bread", "pasta", "noodles", "egg", "cheese", "milk", "fruit", "meat",
	"beans", "potato", "tomato", "carrot", "broccoli", "spinach", "onion",
	"sandwich", "burger", "pizza", "curry", "toast", "tofu",
}

var cookingWords = []string{
	"grilled", "fried", "baked", "steamed", "boiled", "roasted", "sauteed",
	"stir-fried", "pan-fried", "braised", "poached",
}

var redFlagWords = []string{
	"unclear", "cannot", "unable", "not sure", "maybe", "possibly",
	"plate", "bowl", "utensil", "background",
}

// assessConfidence grades how much a description looks like actual food.
func assessConfidence(description string) string {
	if len(strings.TrimSpace(description)) < 10 {
		return "very_low"
	}
	lower := strings.ToLower(description)

	score := 0
	if measurementPattern.MatchString(description) {
		score++
	}
	foodHits := 0
	for _, w := range foodWords {
		if strings.Contains(lower, w) {
			foodHits++
		}
	}
	if foodHits > 5 {
		foodHits = 5
	}
	score += foodHits
	for _, w := range cookingWords {
		if strings.Contains(lower, w) {
			score++
			break
		}
	}
	for _, w := range redFlagWords {
		if strings.Contains(lower, w) {
			score -= 2
		}
	}

	switch {
	case score >= 3:
		return "high"
	case score >= 1:
		return "medium"
	default:
		return "low"
	}
}

// parsePortions extracts "1.5x steamed rice" style items. The overall
// multiplier is the average across items; without explicit multipliers it
// falls back to wording cues.
func parsePortions(description string) ([]PortionItem, float64) {
	matches := portionPattern.FindAllStringSubmatch(description, -1)
	items := make([]PortionItem, 0, len(matches))
	total := 0.0
	for _, m := range matches {
		mult, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		items = append(items, PortionItem{Name: strings.TrimSpace(m[2]), Multiplier: mult})
		total += mult
	}
	if len(items) > 0 {
		return items, total / float64(len(items))
	}
	return nil, estimatePortion(description)
}

func estimatePortion(description string) float64 {
	lower := strings.ToLower(description)
	switch {
	case containsAny(lower, "double", "two servings"):
		return 2.0
	case containsAny(lower, "large", "big", "huge", "jumbo"):
		return 1.5
	case containsAny(lower, "half", "1/2"):
		return 0.5
	case containsAny(lower, "small", "little", "mini"):
		return 0.75
	default:
		return 1.0
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
