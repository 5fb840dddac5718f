package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nutriscan/config"
	"nutriscan/controllers"
	"nutriscan/models"
	"nutriscan/services"
	"nutriscan/testutil"
	"nutriscan/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

type noFood struct{}

func (noFood) Extract(ctx context.Context, text string) []models.FoodItem { return nil }

func testRouter(t *testing.T, origins []string) *gin.Engine {
	t.Helper()
	return testRouterWithSecret(t, origins, testSecret)
}

func testRouterWithSecret(t *testing.T, origins []string, secret string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Config{JWTSecret: secret, AllowedOrigins: origins}
	providers := services.DefaultProviders(config.ProvidersConfig{}, time.Second, nil)
	resolver := services.NewNutritionResolver(providers, nil)
	audit := services.NewAuditService(nil, nil)
	analysis := services.NewAnalysisService(noFood{}, resolver, nil, services.WithAudit(audit))

	var off *services.OpenFoodFactsService
	for _, p := range providers {
		if o, ok := p.(*services.OpenFoodFactsService); ok {
			off = o
		}
	}
	return SetupRouter(cfg, Handlers{
		Analysis:      controllers.NewAnalysisController(analysis, audit, time.Second),
		Nutrition:     controllers.NewNutritionController(resolver, providers, nil),
		OpenFoodFacts: controllers.NewOpenFoodFactsController(off),
		MCP:           controllers.NewMCPController(analysis, time.Second),
	}, zap.NewNop())
}

func serve(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthAndRequestID(t *testing.T) {
	r := testRouter(t, []string{"*"})

	w := serve(r, http.MethodGet, "/health", "", nil)
	testutil.AssertEqual(t, w.Code, http.StatusOK)
	testutil.AssertTrue(t, w.Header().Get("X-Request-ID") != "")

	w = serve(r, http.MethodGet, "/health", "", map[string]string{"X-Request-ID": "abc-123"})
	testutil.AssertEqual(t, w.Header().Get("X-Request-ID"), "abc-123")
}

func TestCORS(t *testing.T) {
	r := testRouter(t, []string{"https://app.example"})

	w := serve(r, http.MethodGet, "/health", "", map[string]string{"Origin": "https://app.example"})
	testutil.AssertEqual(t, w.Header().Get("Access-Control-Allow-Origin"), "https://app.example")

	w = serve(r, http.MethodGet, "/health", "", map[string]string{"Origin": "https://evil.example"})
	testutil.AssertEqual(t, w.Code, http.StatusForbidden)
}

func TestOptionalAuth(t *testing.T) {
	r := testRouter(t, []string{"*"})
	body := `{"food_text":"xyz123###"}`

	w := serve(r, http.MethodPost, "/api/analyze-food", body, nil)
	testutil.AssertEqual(t, w.Code, http.StatusBadRequest)

	w = serve(r, http.MethodPost, "/api/analyze-food", body, map[string]string{"Authorization": "Bearer not-a-jwt"})
	testutil.AssertEqual(t, w.Code, http.StatusUnauthorized)

	w = serve(r, http.MethodPost, "/api/analyze-food", body, map[string]string{"Authorization": "Basic dTpw"})
	testutil.AssertEqual(t, w.Code, http.StatusUnauthorized)

	tok, err := utils.GenerateJWT("user-1", testSecret, time.Hour)
	testutil.AssertNoError(t, err)
	w = serve(r, http.MethodPost, "/api/analyze-food", body, map[string]string{"Authorization": "Bearer " + tok})
	testutil.AssertEqual(t, w.Code, http.StatusBadRequest)
}

func TestOptionalAuth_UnsetSecretServesAnonymously(t *testing.T) {
	r := testRouterWithSecret(t, []string{"*"}, "")
	body := `{"food_text":"xyz123###"}`

	w := serve(r, http.MethodPost, "/api/analyze-food", body, map[string]string{"Authorization": "Bearer some-token"})
	testutil.AssertEqual(t, w.Code, http.StatusBadRequest)
	testutil.AssertTrue(t, !strings.Contains(w.Body.String(), "JWT_SECRET"))
}

func TestHistoryRequiresUser(t *testing.T) {
	r := testRouter(t, []string{"*"})

	w := serve(r, http.MethodGet, "/api/analyses", "", nil)
	testutil.AssertEqual(t, w.Code, http.StatusUnauthorized)

	tok, _ := utils.GenerateJWT("user-1", testSecret, time.Hour)
	w = serve(r, http.MethodGet, "/api/analyses", "", map[string]string{"Authorization": "Bearer " + tok})
	testutil.AssertEqual(t, w.Code, http.StatusOK)
	testutil.AssertContains(t, w.Body.String(), `"count":0`)
}

func TestProvidersRoute(t *testing.T) {
	r := testRouter(t, nil)
	w := serve(r, http.MethodGet, "/api/providers", "", nil)
	testutil.AssertEqual(t, w.Code, http.StatusOK)
	testutil.AssertContains(t, w.Body.String(), `"name":"usda"`)
}
