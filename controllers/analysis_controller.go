package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"nutriscan/middlewares"
	"nutriscan/services"

	"github.com/gin-gonic/gin"
)

type AnalysisController struct {
	Svc     *services.AnalysisService
	Audit   *services.AuditService
	Timeout time.Duration
}

func NewAnalysisController(svc *services.AnalysisService, audit *services.AuditService, timeout time.Duration) *AnalysisController {
	return &AnalysisController{Svc: svc, Audit: audit, Timeout: timeout}
}

// POST /api/analyze-food  { "food_text": "2 ta tuxum va kofe" }
func (h *AnalysisController) AnalyzeFood(c *gin.Context) {
	var req services.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.FoodText) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "food_text is required"})
		return
	}
	if uid := c.GetString(middlewares.ContextUserID); uid != "" {
		req.UserID = uid
	}
	req.RequestID = requestID(c)

	ctx, cancel := withDeadline(c, h.Timeout)
	defer cancel()

	out, err := h.Svc.Analyze(ctx, req)
	if err != nil {
		status, msg := analysisStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, out)
}

// POST /api/analyze-image  { "image_base64": "data:image/jpeg;base64,..." }
func (h *AnalysisController) AnalyzeImage(c *gin.Context) {
	var req services.ImageAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if uid := c.GetString(middlewares.ContextUserID); uid != "" {
		req.UserID = uid
	}
	req.RequestID = requestID(c)

	ctx, cancel := withDeadline(c, h.Timeout)
	defer cancel()

	out, err := h.Svc.AnalyzeImage(ctx, req)
	if err != nil {
		status, msg := analysisStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/analyses?limit=20
func (h *AnalysisController) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	logs, err := h.Audit.History(c.Request.Context(), c.GetString(middlewares.ContextUserID), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"analyses": logs, "count": len(logs)})
}
