package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"nutriscan/middlewares"
	"nutriscan/services"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/gin-gonic/gin"
)

type analyzeFoodParams struct {
	FoodText string `json:"food_text" description:"Free text describing what was eaten"`
	UserID   string `json:"user_id,omitempty" description:"Caller's user id"`
	MealType string `json:"meal_type,omitempty" description:"breakfast, lunch, dinner or snack"`
}

type getNutritionParams struct {
	FoodName string `json:"food_name" description:"Single food name to look up"`
}

// errToolInput marks a caller mistake in tool arguments.
var errToolInput = errors.New("invalid tool arguments")

type toolHandler func(c *gin.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error)

// MCPController exposes the analysis pipeline as MCP tools over plain HTTP.
type MCPController struct {
	Analysis *services.AnalysisService
	Timeout  time.Duration
	tools    map[string]toolHandler
}

func NewMCPController(analysis *services.AnalysisService, timeout time.Duration) *MCPController {
	h := &MCPController{Analysis: analysis, Timeout: timeout}
	h.tools = map[string]toolHandler{
		"analyze_food":  h.analyzeFood,
		"get_nutrition": h.getNutrition,
	}
	return h
}

// POST /mcp
func (h *MCPController) CallTool(c *gin.Context) {
	var req protocol.CallToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid JSON: %v", err)})
		return
	}
	handler, ok := h.tools[req.Name]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown tool: " + req.Name})
		return
	}

	result, err := handler(c, &req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, errToolInput) {
			status = http.StatusBadRequest
		} else if errors.Is(err, services.ErrNoFoodRecognized) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *MCPController) analyzeFood(c *gin.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params analyzeFoodParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if strings.TrimSpace(params.FoodText) == "" {
		return nil, fmt.Errorf("%w: food_text is required", errToolInput)
	}
	if uid := c.GetString(middlewares.ContextUserID); uid != "" {
		params.UserID = uid
	}

	ctx, cancel := withDeadline(c, h.Timeout)
	defer cancel()

	out, err := h.Analysis.Analyze(ctx, services.AnalysisRequest{
		FoodText:  params.FoodText,
		UserID:    params.UserID,
		MealType:  params.MealType,
		RequestID: requestID(c),
		Source:    "mcp",
	})
	if err != nil {
		return nil, err
	}
	return textResult(out)
}

func (h *MCPController) getNutrition(c *gin.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params getNutritionParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(params.FoodName)
	if name == "" {
		return nil, fmt.Errorf("%w: food_name is required", errToolInput)
	}
	out, ok := h.Analysis.Resolve(c.Request.Context(), name)
	if !ok {
		return textResult(gin.H{"food_name": name, "found": false})
	}
	return textResult(out)
}

// extractParams round-trips the argument map into a typed struct.
func extractParams(req *protocol.CallToolRequest, target interface{}) error {
	raw, err := json.Marshal(req.Arguments)
	if err != nil {
		return fmt.Errorf("%w: %v", errToolInput, err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: %v", errToolInput, err)
	}
	return nil
}

func textResult(data interface{}) (*protocol.CallToolResult, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return &protocol.CallToolResult{
		Content: []protocol.Content{
			protocol.TextContent{
				Type: "text",
				Text: string(raw),
			},
		},
	}, nil
}
