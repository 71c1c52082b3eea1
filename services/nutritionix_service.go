package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ngfenglong/JiakAIBot/models"
)

const defaultNutritionixBaseURL = "https://trackapi.nutritionix.com/v2"

// NutritionixService resolves a food description into nutrition figures
// using the Nutritionix natural-language endpoint.
type NutritionixService struct {
	appID   string
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewNutritionixService(appID, apiKey string, timeout time.Duration) *NutritionixService {
	return &NutritionixService{
		appID:   appID,
		apiKey:  apiKey,
		baseURL: defaultNutritionixBaseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// ResolvedFood is one food line item as matched by Nutritionix.
type ResolvedFood struct {
	Name        string  `json:"name"`
	ServingQty  float64 `json:"serving_qty"`
	ServingUnit string  `json:"serving_unit"`
	Calories    float64 `json:"calories"`
}

// Resolution is the resolver's answer for one food description.
type Resolution struct {
	// Nutrition has the portion multiplier applied; RawNutrition does not.
	Nutrition    models.Nutrition
	RawNutrition models.Nutrition
	Foods        []ResolvedFood
	// Snapshot is the verbatim API response body, stored for audit.
	Snapshot []byte
}

type nutrientsResponse struct {
	Foods []struct {
		FoodName          string  `json:"food_name"`
		ServingQty        float64 `json:"serving_qty"`
		ServingUnit       string  `json:"serving_unit"`
		Calories          float64 `json:"nf_calories"`
		Protein           float64 `json:"nf_protein"`
		TotalCarbohydrate float64 `json:"nf_total_carbohydrate"`
		TotalFat          float64 `json:"nf_total_fat"`
		DietaryFiber      float64 `json:"nf_dietary_fiber"`
		Sugars            float64 `json:"nf_sugars"`
		Sodium            float64 `json:"nf_sodium"`
	} `json:"foods"`
}

// Resolve calls the natural/nutrients endpoint and sums the matched foods.
// Missing figures come back as zero; portionMultiplier scales the totals
// (1.0 when the recognizer saw standard servings).
func (s *NutritionixService) Resolve(ctx context.Context, foodDescription string, portionMultiplier float64) (*Resolution, error) {
	if portionMultiplier <= 0 {
		portionMultiplier = 1.0
	}

	payload, err := json.Marshal(map[string]string{"query": foodDescription})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal query: %v", ErrResolutionFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/natural/nutrients", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrResolutionFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-app-id", s.appID)
	req.Header.Set("x-app-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResolutionFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrResolutionFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: nutritionix status %d: %s", ErrResolutionFailed, resp.StatusCode, body)
	}

	var nr nutrientsResponse
	if err := json.Unmarshal(body, &nr); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrResolutionFailed, err)
	}

	var raw models.Nutrition
	foods := make([]ResolvedFood, 0, len(nr.Foods))
	for _, f := range nr.Foods {
		raw = raw.Add(models.Nutrition{
			Calories: f.Calories,
			Protein:  f.Protein,
			Carbs:    f.TotalCarbohydrate,
			Fat:      f.TotalFat,
			Fiber:    f.DietaryFiber,
			Sugar:    f.Sugars,
			Sodium:   f.Sodium,
		})
		foods = append(foods, ResolvedFood{
			Name:        f.FoodName,
			ServingQty:  f.ServingQty,
			ServingUnit: f.ServingUnit,
			Calories:    f.Calories,
		})
	}

	raw = raw.NonNegative()
	return &Resolution{
		Nutrition:    raw.Scale(portionMultiplier),
		RawNutrition: raw,
		Foods:        foods,
		Snapshot:     body,
	}, nil
}
