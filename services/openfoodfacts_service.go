package services

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"nutriscan/config"
	"nutriscan/models"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// saltToSodiumMg converts g salt per 100 g into mg sodium. Approximate and one-way.
const saltToSodiumMg = 400

const openFoodFactsSearchFields = "code,product_name,brands,nutrition_grade_fr,image_front_url"

// OpenFoodFactsService is the free product catalog. It needs no credentials.
type OpenFoodFactsService struct {
	providerBase
}

var openFoodFactsFields = fieldTable{
	Calories:        "nutriments.energy-kcal_100g",
	Protein:         "nutriments.proteins_100g",
	Fat:             "nutriments.fat_100g",
	Carbohydrate:    "nutriments.carbohydrates_100g",
	Fiber:           "nutriments.fiber_100g",
	Sugar:           "nutriments.sugars_100g",
	DefaultQuantity: 100,
	DefaultUnit:     "g",
}

func NewOpenFoodFactsService(cfg config.ProvidersConfig, timeout time.Duration, logger *zap.Logger) *OpenFoodFactsService {
	return &OpenFoodFactsService{
		providerBase: newProviderBase("openfoodfacts",
			orDefault(cfg.OpenFoodFactsBaseURL, "https://world.openfoodfacts.org"),
			OpenFoodFactsConfidence, timeout, logger,
			"calories", "protein", "fat", "carbohydrates", "fiber", "sugar", "sodium",
			"salt", "food_search", "barcode_scanning", "brands", "categories",
			"ingredients", "allergens", "nutrition_grade", "nova_group", "ecoscore",
			"product_images", "free_api"),
	}
}

func (s *OpenFoodFactsService) CredentialsPresent() bool { return true }

func (s *OpenFoodFactsService) Info() models.ProviderInfo { return s.info(true) }

func (s *OpenFoodFactsService) Search(ctx context.Context, query string, maxResults int) []models.SearchHit {
	return s.search(ctx, query, maxResults, true, s.searchProducts)
}

func (s *OpenFoodFactsService) FetchNutrition(ctx context.Context, name string) (models.NutrientRecord, bool) {
	return s.fetch(ctx, name, true, func(ctx context.Context, name string) (models.NutrientRecord, error) {
		return lookupFirstHit(ctx, name, s.searchProducts, func(ctx context.Context, hit models.SearchHit) (models.NutrientRecord, error) {
			p, err := s.product(ctx, hit.ID)
			if err != nil {
				return models.NutrientRecord{}, err
			}
			if p.Product.ProductName == "" {
				p.Product.ProductName = hit.Name
			}
			return p.NutrientRecord, nil
		})
	})
}

// ProductByBarcode looks a product up by its barcode.
func (s *OpenFoodFactsService) ProductByBarcode(ctx context.Context, barcode string) (models.CatalogProduct, bool) {
	p, err := s.product(ctx, barcode)
	if err != nil {
		s.logFailure("barcode lookup failed", barcode, err)
		return models.CatalogProduct{}, false
	}
	return p, true
}

// Categories lists catalog categories; nil on failure.
func (s *OpenFoodFactsService) Categories(ctx context.Context) []models.CatalogTag {
	return s.tags(ctx, "/categories.json")
}

// Brands lists catalog brands; nil on failure.
func (s *OpenFoodFactsService) Brands(ctx context.Context) []models.CatalogTag {
	return s.tags(ctx, "/brands.json")
}

func (s *OpenFoodFactsService) searchProducts(ctx context.Context, q string, n int) ([]models.SearchHit, error) {
	params := url.Values{}
	params.Set("search_terms", q)
	params.Set("search_simple", "1")
	params.Set("action", "process")
	params.Set("json", "1")
	params.Set("page_size", strconv.Itoa(n))
	params.Set("fields", openFoodFactsSearchFields)

	body, err := s.get(ctx, s.baseURL+"/cgi/search.pl?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	products := gjson.GetBytes(body, "products").Array()
	hits := make([]models.SearchHit, 0, len(products))
	for _, p := range products {
		hits = append(hits, models.SearchHit{
			ID:       p.Get("code").String(),
			Name:     p.Get("product_name").String(),
			Brand:    p.Get("brands").String(),
			ImageURL: p.Get("image_front_url").String(),
			Grade:    p.Get("nutrition_grade_fr").String(),
		})
	}
	return hits, nil
}

func (s *OpenFoodFactsService) product(ctx context.Context, code string) (models.CatalogProduct, error) {
	body, err := s.get(ctx, s.baseURL+"/api/v2/product/"+url.PathEscape(code), nil)
	if err != nil {
		return models.CatalogProduct{}, err
	}
	doc := gjson.ParseBytes(body)
	if doc.Get("status").Int() != 1 {
		return models.CatalogProduct{}, ErrNoMatch
	}
	return models.CatalogProduct{
		Code:           orDefault(doc.Get("code").String(), code),
		NutrientRecord: normalizeProduct(doc.Get("product")),
	}, nil
}

func normalizeProduct(product gjson.Result) models.NutrientRecord {
	rec := openFoodFactsFields.normalize(product)
	salt := nonNegative(product, "nutriments.salt_100g")
	rec.Sodium = salt * saltToSodiumMg

	var allergens []string
	for _, a := range product.Get("allergens_tags").Array() {
		allergens = append(allergens, a.String())
	}
	rec.Product = &models.ProductDetails{
		ProductName:    product.Get("product_name").String(),
		Brand:          product.Get("brands").String(),
		Salt:           salt,
		ImageURL:       product.Get("image_front_url").String(),
		Ingredients:    product.Get("ingredients_text").String(),
		Allergens:      allergens,
		NutritionGrade: product.Get("nutrition_grade_fr").String(),
		NovaGroup:      product.Get("nova_group").String(),
		Ecoscore:       product.Get("ecoscore_grade").String(),
	}
	return rec
}

func (s *OpenFoodFactsService) tags(ctx context.Context, path string) []models.CatalogTag {
	body, err := s.getLimited(ctx, s.baseURL+path, nil, catalogListMaxBody)
	if err != nil {
		s.logFailure("tag listing failed", path, err)
		return nil
	}
	raw := gjson.GetBytes(body, "tags").Array()
	tags := make([]models.CatalogTag, 0, len(raw))
	for _, t := range raw {
		tags = append(tags, models.CatalogTag{
			ID:       t.Get("id").String(),
			Name:     t.Get("name").String(),
			Products: int(t.Get("products").Int()),
			URL:      t.Get("url").String(),
		})
	}
	return tags
}
