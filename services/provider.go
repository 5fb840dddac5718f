package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"nutriscan/models"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Fixed trust constants, one per provider. They are not derived from data quality.
const (
	CalorieNinjasConfidence = 0.9
	NutritionixConfidence   = 0.85
	EdamamConfidence        = 0.8
	USDAConfidence          = 0.75
	OpenFoodFactsConfidence = 0.8
)

const defaultSearchResults = 5

// Body size ceilings. Catalog tag listings are full dumps and get their own.
const (
	defaultMaxBody     int64 = 4 << 20
	catalogListMaxBody int64 = 64 << 20
)

var (
	ErrMissingCredentials = errors.New("provider credentials not configured")
	ErrRateLimited        = errors.New("provider rate limit reached")
	ErrNoMatch            = errors.New("provider has no match")
	ErrMalformedResponse  = errors.New("malformed provider response")
	ErrResponseTooLarge   = errors.New("provider response too large")
)

// NutritionProvider is one external nutrition source. Lookups never fail:
// every problem (no credentials, timeout, non-2xx, bad payload) is absent.
type NutritionProvider interface {
	Name() string
	Confidence() float64
	CredentialsPresent() bool
	Search(ctx context.Context, query string, maxResults int) []models.SearchHit
	FetchNutrition(ctx context.Context, name string) (models.NutrientRecord, bool)
	Info() models.ProviderInfo
}

// FoodByIDProvider is implemented by providers that can read one food by
// their own identifier. Same absent-on-failure contract as FetchNutrition.
type FoodByIDProvider interface {
	FoodByID(ctx context.Context, id string) (models.NutrientRecord, bool)
}

// CategoryProvider is implemented by providers that publish a food category list.
type CategoryProvider interface {
	FoodCategories(ctx context.Context) []models.CatalogTag
}

// ProviderError carries the HTTP status of a failed provider call.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s http %d: %s", e.Provider, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// fieldTable maps canonical nutrient fields to gjson paths in a provider payload.
// An empty path means the provider never reports that field.
type fieldTable struct {
	Quantity     string
	Unit         string
	Calories     string
	Protein      string
	Fat          string
	Carbohydrate string
	Water        string
	Fiber        string
	Sugar        string
	Sodium       string
	Cholesterol  string

	DefaultQuantity float64
	DefaultUnit     string
}

func (t fieldTable) normalize(doc gjson.Result) models.NutrientRecord {
	rec := models.NutrientRecord{
		Quantity:     t.DefaultQuantity,
		Unit:         t.DefaultUnit,
		Calories:     nonNegative(doc, t.Calories),
		Protein:      nonNegative(doc, t.Protein),
		Fat:          nonNegative(doc, t.Fat),
		Carbohydrate: nonNegative(doc, t.Carbohydrate),
		Water:        nonNegative(doc, t.Water),
		Fiber:        nonNegative(doc, t.Fiber),
		Sugar:        nonNegative(doc, t.Sugar),
		Sodium:       nonNegative(doc, t.Sodium),
		Cholesterol:  nonNegative(doc, t.Cholesterol),
	}
	if t.Quantity != "" {
		if q := doc.Get(t.Quantity); q.Exists() && q.Float() > 0 {
			rec.Quantity = q.Float()
		}
	}
	if t.Unit != "" {
		if u := doc.Get(t.Unit).String(); u != "" {
			rec.Unit = u
		}
	}
	return rec
}

func nonNegative(doc gjson.Result, path string) float64 {
	if path == "" {
		return 0
	}
	v := doc.Get(path).Float()
	if v < 0 {
		return 0
	}
	return v
}

// providerBase holds the transport and logging every provider shares.
type providerBase struct {
	name       string
	baseURL    string
	confidence float64
	features   []string
	client     *http.Client
	logger     *zap.Logger
}

func newProviderBase(name, baseURL string, confidence float64, timeout time.Duration, logger *zap.Logger, features ...string) providerBase {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return providerBase{
		name:       name,
		baseURL:    baseURL,
		confidence: confidence,
		features:   features,
		client:     &http.Client{Timeout: timeout},
		logger:     logger.With(zap.String("provider", name)),
	}
}

func (b *providerBase) Name() string        { return b.name }
func (b *providerBase) Confidence() float64 { return b.confidence }

func (b *providerBase) info(hasCreds bool) models.ProviderInfo {
	return models.ProviderInfo{
		Name:           b.name,
		BaseURL:        b.baseURL,
		HasCredentials: hasCreds,
		Confidence:     b.confidence,
		Features:       b.features,
	}
}

func (b *providerBase) get(ctx context.Context, u string, header http.Header) ([]byte, error) {
	return b.getLimited(ctx, u, header, defaultMaxBody)
}

func (b *providerBase) getLimited(ctx context.Context, u string, header http.Header, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return b.do(req, limit)
}

func (b *providerBase) post(ctx context.Context, u string, header http.Header, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", b.name, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	return b.do(req, defaultMaxBody)
}

// do sends req and returns a validated JSON body of at most limit bytes.
// 429 is not special-cased beyond tagging the error; callers treat it like
// any other failure.
func (b *providerBase) do(req *http.Request, limit int64) ([]byte, error) {
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: b.name, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, &ProviderError{Provider: b.name, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > limit {
		return nil, &ProviderError{Provider: b.name, Err: fmt.Errorf("%w: over %d bytes", ErrResponseTooLarge, limit)}
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &ProviderError{Provider: b.name, StatusCode: resp.StatusCode, Body: truncate(string(body), 200), Err: ErrRateLimited}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &ProviderError{Provider: b.name, StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
	}
	if !gjson.ValidBytes(body) {
		return nil, &ProviderError{Provider: b.name, Err: ErrMalformedResponse}
	}
	return body, nil
}

// fetch applies the absent-on-failure contract around a lookup.
func (b *providerBase) fetch(ctx context.Context, name string, hasCreds bool, fn func(context.Context, string) (models.NutrientRecord, error)) (models.NutrientRecord, bool) {
	if !hasCreds {
		b.logger.Debug("skipping lookup", zap.String("food", name), zap.Error(ErrMissingCredentials))
		return models.NutrientRecord{}, false
	}
	rec, err := fn(ctx, name)
	if err != nil {
		b.logFailure("nutrition lookup failed", name, err)
		return models.NutrientRecord{}, false
	}
	return rec, true
}

func (b *providerBase) search(ctx context.Context, query string, maxResults int, hasCreds bool, fn func(context.Context, string, int) ([]models.SearchHit, error)) []models.SearchHit {
	if !hasCreds {
		return nil
	}
	if maxResults <= 0 {
		maxResults = defaultSearchResults
	}
	hits, err := fn(ctx, query, maxResults)
	if err != nil {
		b.logFailure("search failed", query, err)
		return nil
	}
	if len(hits) > maxResults {
		hits = hits[:maxResults]
	}
	return hits
}

func (b *providerBase) logFailure(msg, query string, err error) {
	fields := []zap.Field{zap.String("query", query), zap.Error(err)}
	var pe *ProviderError
	if errors.As(err, &pe) && pe.StatusCode > 0 {
		fields = append(fields, zap.Int("status", pe.StatusCode))
	}
	if errors.Is(err, ErrNoMatch) {
		b.logger.Debug(msg, fields...)
		return
	}
	b.logger.Warn(msg, fields...)
}

// lookupFirstHit is the search-then-detail shape: search for one hit,
// take its identifier and ask the provider for that item's nutrients.
func lookupFirstHit(
	ctx context.Context,
	name string,
	search func(context.Context, string, int) ([]models.SearchHit, error),
	detail func(context.Context, models.SearchHit) (models.NutrientRecord, error),
) (models.NutrientRecord, error) {
	hits, err := search(ctx, name, 1)
	if err != nil {
		return models.NutrientRecord{}, err
	}
	if len(hits) == 0 || hits[0].ID == "" {
		return models.NutrientRecord{}, ErrNoMatch
	}
	return detail(ctx, hits[0])
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
