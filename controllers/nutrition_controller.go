package controllers

import (
	"net/http"
	"strings"
	"time"

	"nutriscan/models"
	"nutriscan/services"

	"github.com/gin-gonic/gin"
)

type NutritionController struct {
	Resolver  services.Resolver
	Providers []services.NutritionProvider
	Extractor *services.FoodTextExtractor
}

func NewNutritionController(resolver services.Resolver, providers []services.NutritionProvider, extractor *services.FoodTextExtractor) *NutritionController {
	return &NutritionController{Resolver: resolver, Providers: providers, Extractor: extractor}
}

// GET /api/nutrition/:food_name
func (h *NutritionController) GetNutrition(c *gin.Context) {
	name := strings.TrimSpace(c.Param("food_name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "food_name is required"})
		return
	}
	out, ok := h.Resolver.Resolve(c.Request.Context(), name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Nutrition data not found for " + name})
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/providers
func (h *NutritionController) ListProviders(c *gin.Context) {
	infos := make([]models.ProviderInfo, 0, len(h.Providers))
	for _, p := range h.Providers {
		infos = append(infos, p.Info())
	}
	c.JSON(http.StatusOK, gin.H{"providers": infos})
}

func (h *NutritionController) provider(name string) services.NutritionProvider {
	for _, p := range h.Providers {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// GET /api/providers/:provider/foods/:id
func (h *NutritionController) FoodByID(c *gin.Context) {
	name, id := c.Param("provider"), strings.TrimSpace(c.Param("id"))
	p, ok := h.provider(name).(services.FoodByIDProvider)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Provider " + name + " does not support lookup by id"})
		return
	}
	rec, found := p.FoodByID(c.Request.Context(), id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Food " + id + " not found at " + name})
		return
	}
	c.JSON(http.StatusOK, gin.H{"provider": name, "food_id": id, "nutrition": rec})
}

// GET /api/providers/:provider/categories
func (h *NutritionController) FoodCategories(c *gin.Context) {
	name := c.Param("provider")
	p, ok := h.provider(name).(services.CategoryProvider)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Provider " + name + " does not publish categories"})
		return
	}
	tags := nonNilTags(p.FoodCategories(c.Request.Context()))
	c.JSON(http.StatusOK, gin.H{"provider": name, "categories": tags, "count": len(tags)})
}

// GET /health
func (h *NutritionController) Health(c *gin.Context) {
	names := make([]string, 0, len(h.Providers))
	for _, p := range h.Providers {
		names = append(names, p.Name())
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"services":  names,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// GET /api/suggestions?q=tux
func (h *NutritionController) Suggestions(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	var out []string
	if h.Extractor != nil {
		out = h.Extractor.Suggest(c.Request.Context(), q)
	}
	if out == nil {
		out = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"query": q, "suggestions": out})
}
