package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"nutriscan/models"
	"nutriscan/services"

	"github.com/gin-gonic/gin"
)

const maxCatalogSearch = 50

type OpenFoodFactsController struct {
	Svc *services.OpenFoodFactsService
}

func NewOpenFoodFactsController(svc *services.OpenFoodFactsService) *OpenFoodFactsController {
	return &OpenFoodFactsController{Svc: svc}
}

// GET /api/openfoodfacts/search?query=olma&limit=5
func (h *OpenFoodFactsController) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("query"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "5"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}
	if limit > maxCatalogSearch {
		limit = maxCatalogSearch
	}
	hits := h.Svc.Search(c.Request.Context(), q, limit)
	if hits == nil {
		hits = []models.SearchHit{}
	}
	c.JSON(http.StatusOK, gin.H{"query": q, "products": hits, "count": len(hits)})
}

// GET /api/openfoodfacts/barcode/:barcode
func (h *OpenFoodFactsController) Barcode(c *gin.Context) {
	code := strings.TrimSpace(c.Param("barcode"))
	p, ok := h.Svc.ProductByBarcode(c.Request.Context(), code)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found for barcode " + code})
		return
	}
	c.JSON(http.StatusOK, p)
}

// GET /api/openfoodfacts/categories
func (h *OpenFoodFactsController) Categories(c *gin.Context) {
	tags := nonNilTags(h.Svc.Categories(c.Request.Context()))
	c.JSON(http.StatusOK, gin.H{"categories": tags, "count": len(tags)})
}

// GET /api/openfoodfacts/brands
func (h *OpenFoodFactsController) Brands(c *gin.Context) {
	tags := nonNilTags(h.Svc.Brands(c.Request.Context()))
	c.JSON(http.StatusOK, gin.H{"brands": tags, "count": len(tags)})
}

func nonNilTags(tags []models.CatalogTag) []models.CatalogTag {
	if tags == nil {
		return []models.CatalogTag{}
	}
	return tags
}
