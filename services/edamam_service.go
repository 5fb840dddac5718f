package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"nutriscan/config"
	"nutriscan/models"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const edamamGramMeasure = "http://www.edamam.com/ontologies/edamam.owl#Measure_gram"

// EdamamService uses the Food Database parser for search and the nutrients
// endpoint for detail. The two endpoints can run on separate app credentials.
type EdamamService struct {
	providerBase
	foodAppID, foodAppKey   string
	nutriAppID, nutriAppKey string
}

var edamamFields = fieldTable{
	Calories:        "totalNutrients.ENERC_KCAL.quantity",
	Protein:         "totalNutrients.PROCNT.quantity",
	Fat:             "totalNutrients.FAT.quantity",
	Carbohydrate:    "totalNutrients.CHOCDF.quantity",
	Water:           "totalNutrients.WATER.quantity",
	Fiber:           "totalNutrients.FIBTG.quantity",
	Sugar:           "totalNutrients.SUGAR.quantity",
	Sodium:          "totalNutrients.NA.quantity",
	Cholesterol:     "totalNutrients.CHOLE.quantity",
	DefaultQuantity: 100,
	DefaultUnit:     "g",
}

// NewEdamamService initializes the EdamamService with credentials and HTTP client
func NewEdamamService(cfg config.ProvidersConfig, timeout time.Duration, logger *zap.Logger) *EdamamService {
	return &EdamamService{
		providerBase: newProviderBase("edamam",
			orDefault(cfg.EdamamBaseURL, "https://api.edamam.com/api"),
			EdamamConfidence, timeout, logger,
			"calories", "protein", "fat", "carbohydrates", "water", "fiber", "sugar",
			"sodium", "detailed_nutrition", "food_search"),
		foodAppID:   cfg.EdamamAppID,
		foodAppKey:  cfg.EdamamAppKey,
		nutriAppID:  orDefault(cfg.EdamamNutriID, cfg.EdamamAppID),
		nutriAppKey: orDefault(cfg.EdamamNutriKey, cfg.EdamamAppKey),
	}
}

func (s *EdamamService) CredentialsPresent() bool {
	return s.foodAppID != "" && s.foodAppKey != "" && s.nutriAppID != "" && s.nutriAppKey != ""
}

func (s *EdamamService) Info() models.ProviderInfo { return s.info(s.CredentialsPresent()) }

func (s *EdamamService) Search(ctx context.Context, query string, maxResults int) []models.SearchHit {
	return s.search(ctx, query, maxResults, s.CredentialsPresent(), s.parse)
}

func (s *EdamamService) FetchNutrition(ctx context.Context, name string) (models.NutrientRecord, bool) {
	return s.fetch(ctx, name, s.CredentialsPresent(), func(ctx context.Context, name string) (models.NutrientRecord, error) {
		return lookupFirstHit(ctx, name, s.parse, s.nutrients)
	})
}

// FoodByID analyzes 100 g of a food by its Edamam foodId. Only the nutrients
// credentials are needed.
func (s *EdamamService) FoodByID(ctx context.Context, foodID string) (models.NutrientRecord, bool) {
	foodID = strings.TrimSpace(foodID)
	hasCreds := s.nutriAppID != "" && s.nutriAppKey != "" && foodID != ""
	return s.fetch(ctx, foodID, hasCreds, func(ctx context.Context, id string) (models.NutrientRecord, error) {
		return s.nutrients(ctx, models.SearchHit{ID: id})
	})
}

// parse calls the Food Database parser endpoint
func (s *EdamamService) parse(ctx context.Context, q string, n int) ([]models.SearchHit, error) {
	params := url.Values{}
	params.Set("ingr", q)
	params.Set("app_id", s.foodAppID)
	params.Set("app_key", s.foodAppKey)

	body, err := s.get(ctx, s.baseURL+"/food-database/v2/parser?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("edamam parser: %w", err)
	}

	hints := gjson.GetBytes(body, "hints").Array()
	hits := make([]models.SearchHit, 0, len(hints))
	for _, h := range hints {
		if len(hits) == n {
			break
		}
		food := h.Get("food")
		hits = append(hits, models.SearchHit{
			ID:       edamamFoodID(food),
			Name:     food.Get("label").String(),
			Category: food.Get("category").String(),
			ImageURL: food.Get("image").String(),
		})
	}
	return hits, nil
}

// edamamFoodID prefers foodId and falls back to the fragment of the food URI.
func edamamFoodID(food gjson.Result) string {
	if id := food.Get("foodId").String(); id != "" {
		return id
	}
	uri := food.Get("uri").String()
	if i := strings.LastIndex(uri, "#"); i >= 0 {
		return uri[i+1:]
	}
	return ""
}

// nutrients analyzes 100 g of the hit through the nutrients endpoint
func (s *EdamamService) nutrients(ctx context.Context, hit models.SearchHit) (models.NutrientRecord, error) {
	payload := map[string]interface{}{
		"ingredients": []map[string]interface{}{{
			"quantity":   100,
			"measureURI": edamamGramMeasure,
			"foodId":     hit.ID,
		}},
	}
	params := url.Values{}
	params.Set("app_id", s.nutriAppID)
	params.Set("app_key", s.nutriAppKey)

	body, err := s.post(ctx, s.baseURL+"/food-database/v2/nutrients?"+params.Encode(), nil, payload)
	if err != nil {
		return models.NutrientRecord{}, fmt.Errorf("edamam nutrients: %w", err)
	}
	doc := gjson.ParseBytes(body)
	if !doc.Get("totalNutrients").Exists() {
		return models.NutrientRecord{}, ErrMalformedResponse
	}
	return edamamFields.normalize(doc), nil
}
