package routes

import (
	"nutriscan/config"
	"nutriscan/controllers"
	"nutriscan/middlewares"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers groups the controllers the router mounts.
type Handlers struct {
	Analysis      *controllers.AnalysisController
	Nutrition     *controllers.NutritionController
	OpenFoodFacts *controllers.OpenFoodFactsController
	MCP           *controllers.MCPController
}

func SetupRouter(cfg config.Config, h Handlers, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.Logger(logger))
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	r.GET("/health", h.Nutrition.Health)

	api := r.Group("/api")
	api.Use(middlewares.OptionalAuth(cfg.JWTSecret))
	{
		api.POST("/analyze-food", h.Analysis.AnalyzeFood)
		api.POST("/analyze-image", h.Analysis.AnalyzeImage)
		api.GET("/analyses", middlewares.RequireUser(), h.Analysis.History)

		api.GET("/nutrition/:food_name", h.Nutrition.GetNutrition)
		api.GET("/providers", h.Nutrition.ListProviders)
		api.GET("/providers/:provider/foods/:id", h.Nutrition.FoodByID)
		api.GET("/providers/:provider/categories", h.Nutrition.FoodCategories)
		api.GET("/suggestions", h.Nutrition.Suggestions)

		off := api.Group("/openfoodfacts")
		{
			off.GET("/search", h.OpenFoodFacts.Search)
			off.GET("/barcode/:barcode", h.OpenFoodFacts.Barcode)
			off.GET("/categories", h.OpenFoodFacts.Categories)
			off.GET("/brands", h.OpenFoodFacts.Brands)
		}
	}

	r.POST("/mcp", middlewares.OptionalAuth(cfg.JWTSecret), h.MCP.CallTool)

	return r
}

func corsConfig(origins []string) cors.Config {
	cc := cors.DefaultConfig()
	cc.AllowHeaders = append(cc.AllowHeaders, "Authorization", middlewares.HeaderRequestID)
	cc.ExposeHeaders = []string{middlewares.HeaderRequestID}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cc.AllowAllOrigins = true
		return cc
	}
	cc.AllowOrigins = origins
	cc.AllowCredentials = true
	return cc
}
