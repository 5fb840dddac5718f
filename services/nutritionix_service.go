package services

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nutriscan/config"
	"nutriscan/models"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// NutritionixService searches the instant endpoint, then asks the natural
// language endpoint for the first hit's nutrients.
type NutritionixService struct {
	providerBase
	appID  string
	appKey string
}

var nutritionixFields = fieldTable{
	Quantity:        "serving_qty",
	Unit:            "serving_unit",
	Calories:        "nf_calories",
	Protein:         "nf_protein",
	Fat:             "nf_total_fat",
	Carbohydrate:    "nf_total_carbohydrate",
	Fiber:           "nf_dietary_fiber",
	Sugar:           "nf_sugars",
	Sodium:          "nf_sodium",
	Cholesterol:     "nf_cholesterol",
	DefaultQuantity: 1,
	DefaultUnit:     "serving",
}

func NewNutritionixService(cfg config.ProvidersConfig, timeout time.Duration, logger *zap.Logger) *NutritionixService {
	return &NutritionixService{
		providerBase: newProviderBase("nutritionix",
			orDefault(cfg.NutritionixBaseURL, "https://trackapi.nutritionix.com/v2"),
			NutritionixConfidence, timeout, logger,
			"calories", "protein", "fat", "carbohydrates", "fiber", "sugar", "sodium",
			"cholesterol", "branded_foods", "common_foods"),
		appID:  cfg.NutritionixAppID,
		appKey: cfg.NutritionixAppKey,
	}
}

func (s *NutritionixService) CredentialsPresent() bool { return s.appID != "" && s.appKey != "" }

func (s *NutritionixService) Info() models.ProviderInfo { return s.info(s.CredentialsPresent()) }

func (s *NutritionixService) headers() http.Header {
	h := http.Header{}
	h.Set("x-app-id", s.appID)
	h.Set("x-app-key", s.appKey)
	return h
}

func (s *NutritionixService) Search(ctx context.Context, query string, maxResults int) []models.SearchHit {
	return s.search(ctx, query, maxResults, s.CredentialsPresent(), s.searchInstant)
}

func (s *NutritionixService) FetchNutrition(ctx context.Context, name string) (models.NutrientRecord, bool) {
	return s.fetch(ctx, name, s.CredentialsPresent(), func(ctx context.Context, name string) (models.NutrientRecord, error) {
		return lookupFirstHit(ctx, name, s.searchInstant, s.nutrients)
	})
}

// searchInstant merges common foods ahead of branded ones.
func (s *NutritionixService) searchInstant(ctx context.Context, q string, n int) ([]models.SearchHit, error) {
	payload := map[string]interface{}{
		"query":    q,
		"detailed": true,
		"branded":  true,
		"common":   true,
	}
	body, err := s.post(ctx, s.baseURL+"/search/instant", s.headers(), payload)
	if err != nil {
		return nil, err
	}
	doc := gjson.ParseBytes(body)
	var hits []models.SearchHit
	for _, group := range []string{"common", "branded"} {
		for _, f := range doc.Get(group).Array() {
			if len(hits) == n {
				return hits, nil
			}
			hits = append(hits, models.SearchHit{
				ID:       f.Get("food_name").String(),
				Name:     f.Get("food_name").String(),
				Brand:    f.Get("brand_name").String(),
				ImageURL: f.Get("photo.thumb").String(),
			})
		}
	}
	return hits, nil
}

func (s *NutritionixService) nutrients(ctx context.Context, hit models.SearchHit) (models.NutrientRecord, error) {
	payload := map[string]interface{}{
		"query":    hit.ID,
		"timezone": "Asia/Tashkent",
	}
	body, err := s.post(ctx, s.baseURL+"/natural/nutrients", s.headers(), payload)
	if err != nil {
		return models.NutrientRecord{}, err
	}
	food := gjson.GetBytes(body, "foods.0")
	if !food.Exists() {
		return models.NutrientRecord{}, ErrNoMatch
	}
	return nutritionixFields.normalize(food), nil
}

// FoodByID reads a branded item by its nix_item_id. Values are per serving.
func (s *NutritionixService) FoodByID(ctx context.Context, nixItemID string) (models.NutrientRecord, bool) {
	nixItemID = strings.TrimSpace(nixItemID)
	return s.fetch(ctx, nixItemID, s.CredentialsPresent() && nixItemID != "", s.brandedItem)
}

func (s *NutritionixService) brandedItem(ctx context.Context, nixItemID string) (models.NutrientRecord, error) {
	params := url.Values{}
	params.Set("nix_item_id", nixItemID)
	body, err := s.get(ctx, s.baseURL+"/search/item?"+params.Encode(), s.headers())
	if err != nil {
		return models.NutrientRecord{}, err
	}
	food := gjson.GetBytes(body, "foods.0")
	if !food.Exists() {
		return models.NutrientRecord{}, ErrNoMatch
	}
	return nutritionixFields.normalize(food), nil
}
