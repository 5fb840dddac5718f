package services

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"nutriscan/config"
	"nutriscan/models"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// USDA FoodData Central nutrient ids.
const (
	usdaProtein      = 1003
	usdaFat          = 1004
	usdaCarbohydrate = 1005
	usdaEnergyKcal   = 1008
	usdaWater        = 1051
	usdaFiber        = 1079
	usdaSodium       = 1093
	usdaCholesterol  = 1253
	usdaSugars       = 2000
)

var usdaDataTypes = []string{"Foundation", "SR Legacy", "Survey (FNDDS)"}

// USDAService queries FoodData Central. Values are per 100 g.
type USDAService struct {
	providerBase
	apiKey string
}

var usdaFields = fieldTable{
	Calories:        usdaNutrient(usdaEnergyKcal),
	Protein:         usdaNutrient(usdaProtein),
	Fat:             usdaNutrient(usdaFat),
	Carbohydrate:    usdaNutrient(usdaCarbohydrate),
	Water:           usdaNutrient(usdaWater),
	Fiber:           usdaNutrient(usdaFiber),
	Sugar:           usdaNutrient(usdaSugars),
	Sodium:          usdaNutrient(usdaSodium),
	Cholesterol:     usdaNutrient(usdaCholesterol),
	DefaultQuantity: 100,
	DefaultUnit:     "g",
}

func usdaNutrient(id int) string {
	return "foodNutrients.#(nutrient.id==" + strconv.Itoa(id) + ").amount"
}

func NewUSDAService(cfg config.ProvidersConfig, timeout time.Duration, logger *zap.Logger) *USDAService {
	return &USDAService{
		providerBase: newProviderBase("usda",
			orDefault(cfg.USDABaseURL, "https://api.nal.usda.gov/fdc/v1"),
			USDAConfidence, timeout, logger,
			"calories", "protein", "fat", "carbohydrates", "water", "fiber", "sugar",
			"sodium", "detailed_nutrition", "food_search", "government_data"),
		apiKey: cfg.USDAKey,
	}
}

func (s *USDAService) CredentialsPresent() bool { return s.apiKey != "" }

func (s *USDAService) Info() models.ProviderInfo { return s.info(s.CredentialsPresent()) }

func (s *USDAService) Search(ctx context.Context, query string, maxResults int) []models.SearchHit {
	return s.search(ctx, query, maxResults, s.CredentialsPresent(), s.searchFoods)
}

func (s *USDAService) FetchNutrition(ctx context.Context, name string) (models.NutrientRecord, bool) {
	return s.fetch(ctx, name, s.CredentialsPresent(), func(ctx context.Context, name string) (models.NutrientRecord, error) {
		return lookupFirstHit(ctx, name, s.searchFoods, s.food)
	})
}

// FoodByID reads one FoodData Central entry by fdcId.
func (s *USDAService) FoodByID(ctx context.Context, id string) (models.NutrientRecord, bool) {
	id = strings.TrimSpace(id)
	return s.fetch(ctx, id, s.CredentialsPresent() && id != "", func(ctx context.Context, id string) (models.NutrientRecord, error) {
		return s.food(ctx, models.SearchHit{ID: id})
	})
}

// FoodCategories lists the FoodData Central food categories.
func (s *USDAService) FoodCategories(ctx context.Context) []models.CatalogTag {
	if !s.CredentialsPresent() {
		return nil
	}
	params := url.Values{}
	params.Set("api_key", s.apiKey)
	body, err := s.get(ctx, s.baseURL+"/food-categories?"+params.Encode(), nil)
	if err != nil {
		s.logFailure("category listing failed", "/food-categories", err)
		return nil
	}
	raw := gjson.ParseBytes(body).Array()
	tags := make([]models.CatalogTag, 0, len(raw))
	for _, c := range raw {
		tags = append(tags, models.CatalogTag{
			ID:   c.Get("id").String(),
			Name: c.Get("description").String(),
		})
	}
	return tags
}

func (s *USDAService) searchFoods(ctx context.Context, q string, n int) ([]models.SearchHit, error) {
	params := url.Values{}
	params.Set("api_key", s.apiKey)
	params.Set("query", q)
	params.Set("pageSize", strconv.Itoa(n))
	for _, dt := range usdaDataTypes {
		params.Add("dataType", dt)
	}
	body, err := s.get(ctx, s.baseURL+"/foods/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	foods := gjson.GetBytes(body, "foods").Array()
	hits := make([]models.SearchHit, 0, len(foods))
	for _, f := range foods {
		hits = append(hits, models.SearchHit{
			ID:       f.Get("fdcId").String(),
			Name:     f.Get("description").String(),
			Brand:    f.Get("brandOwner").String(),
			Category: f.Get("foodCategory").String(),
		})
	}
	return hits, nil
}

func (s *USDAService) food(ctx context.Context, hit models.SearchHit) (models.NutrientRecord, error) {
	params := url.Values{}
	params.Set("api_key", s.apiKey)
	body, err := s.get(ctx, s.baseURL+"/food/"+url.PathEscape(hit.ID)+"?"+params.Encode(), nil)
	if err != nil {
		return models.NutrientRecord{}, err
	}
	return usdaFields.normalize(gjson.ParseBytes(body)), nil
}
