package services

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"nutriscan/config"
	"nutriscan/models"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// CalorieNinjas answers a name query directly with nutrients, so a lookup is one call.
type CalorieNinjasService struct {
	providerBase
	apiKey string
}

var calorieNinjasFields = fieldTable{
	Quantity:        "serving_size_g",
	Calories:        "calories",
	Protein:         "protein_g",
	Fat:             "fat_total_g",
	Carbohydrate:    "carbohydrates_total_g",
	Fiber:           "fiber_g",
	Sugar:           "sugar_g",
	Sodium:          "sodium_mg",
	Cholesterol:     "cholesterol_mg",
	DefaultQuantity: 100,
	DefaultUnit:     "g",
}

func NewCalorieNinjasService(cfg config.ProvidersConfig, timeout time.Duration, logger *zap.Logger) *CalorieNinjasService {
	return &CalorieNinjasService{
		providerBase: newProviderBase("calorieninjas",
			orDefault(cfg.CalorieNinjasBaseURL, "https://api.calorieninjas.com/v1"),
			CalorieNinjasConfidence, timeout, logger,
			"calories", "protein", "fat", "carbohydrates", "fiber", "sugar", "sodium"),
		apiKey: cfg.CalorieNinjasKey,
	}
}

func (s *CalorieNinjasService) CredentialsPresent() bool { return s.apiKey != "" }

func (s *CalorieNinjasService) Info() models.ProviderInfo { return s.info(s.CredentialsPresent()) }

func (s *CalorieNinjasService) Search(ctx context.Context, query string, maxResults int) []models.SearchHit {
	return s.search(ctx, query, maxResults, s.CredentialsPresent(), func(ctx context.Context, q string, n int) ([]models.SearchHit, error) {
		items, err := s.query(ctx, q)
		if err != nil {
			return nil, err
		}
		hits := make([]models.SearchHit, 0, len(items))
		for _, it := range items {
			name := it.Get("name").String()
			hits = append(hits, models.SearchHit{ID: name, Name: name})
		}
		return hits, nil
	})
}

func (s *CalorieNinjasService) FetchNutrition(ctx context.Context, name string) (models.NutrientRecord, bool) {
	return s.fetch(ctx, name, s.CredentialsPresent(), func(ctx context.Context, name string) (models.NutrientRecord, error) {
		items, err := s.query(ctx, name)
		if err != nil {
			return models.NutrientRecord{}, err
		}
		if len(items) == 0 {
			return models.NutrientRecord{}, ErrNoMatch
		}
		return calorieNinjasFields.normalize(items[0]), nil
	})
}

func (s *CalorieNinjasService) query(ctx context.Context, q string) ([]gjson.Result, error) {
	params := url.Values{}
	params.Set("query", q)
	header := http.Header{}
	header.Set("X-Api-Key", s.apiKey)

	body, err := s.get(ctx, s.baseURL+"/nutrition?"+params.Encode(), header)
	if err != nil {
		return nil, err
	}
	return gjson.GetBytes(body, "items").Array(), nil
}
