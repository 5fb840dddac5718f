package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nutriscan/models"

	"go.uber.org/zap"
)

// AnalysisConfidence is reported for every analysis regardless of item confidences.
const AnalysisConfidence = 0.85

// ErrNoFoodRecognized means extraction found nothing. It is the caller's problem, not ours.
var ErrNoFoodRecognized = errors.New("no food items recognized")

type AnalysisRequest struct {
	FoodText  string `json:"food_text" binding:"required"`
	UserID    string `json:"user_id,omitempty"`
	MealType  string `json:"meal_type,omitempty"`
	RequestID string `json:"-"`
	Source    string `json:"-"`
}

type ImageAnalysisRequest struct {
	ImageBase64 string `json:"image_base64" binding:"required"`
	UserID      string `json:"user_id,omitempty"`
	MealType    string `json:"meal_type,omitempty"`
	RequestID   string `json:"-"`
}

// AnalysisNotifier is told about every successful analysis.
type AnalysisNotifier interface {
	AnalysisCompleted(ctx context.Context, req AnalysisRequest, result *models.AnalysisResult)
}

// FoodRecognizer turns an image into food items.
type FoodRecognizer interface {
	FoodItems(ctx context.Context, base64Img string) ([]models.FoodItem, error)
}

// AnalysisService drives extract -> resolve -> aggregate for one request.
type AnalysisService struct {
	extractor  FoodExtractor
	resolver   Resolver
	recognizer FoodRecognizer
	audit      *AuditService
	notifier   AnalysisNotifier
	logger     *zap.Logger
}

type AnalysisOption func(*AnalysisService)

func WithAudit(a *AuditService) AnalysisOption { return func(s *AnalysisService) { s.audit = a } }

func WithNotifier(n AnalysisNotifier) AnalysisOption {
	return func(s *AnalysisService) { s.notifier = n }
}

func WithRecognizer(r FoodRecognizer) AnalysisOption {
	return func(s *AnalysisService) { s.recognizer = r }
}

func NewAnalysisService(extractor FoodExtractor, resolver Resolver, logger *zap.Logger, opts ...AnalysisOption) *AnalysisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AnalysisService{extractor: extractor, resolver: resolver, logger: logger}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ErrImageRecognitionDisabled is returned when no recognizer is configured.
var ErrImageRecognitionDisabled = errors.New("image recognition is not enabled")

// Analyze extracts foods from free text and aggregates their nutrition.
func (s *AnalysisService) Analyze(ctx context.Context, req AnalysisRequest) (*models.AnalysisResult, error) {
	start := time.Now()
	items := s.extractor.Extract(ctx, req.FoodText)
	return s.analyzeItems(ctx, req, orDefault(req.Source, "text"), items, start)
}

// AnalyzeImage recognizes foods in a photo and aggregates their nutrition.
func (s *AnalysisService) AnalyzeImage(ctx context.Context, req ImageAnalysisRequest) (*models.AnalysisResult, error) {
	if s.recognizer == nil {
		return nil, ErrImageRecognitionDisabled
	}
	start := time.Now()
	items, err := s.recognizer.FoodItems(ctx, req.ImageBase64)
	if err != nil {
		return nil, fmt.Errorf("image recognition failed: %w", err)
	}
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name)
	}
	textReq := AnalysisRequest{
		FoodText:  strings.Join(names, ", "),
		UserID:    req.UserID,
		MealType:  req.MealType,
		RequestID: req.RequestID,
	}
	return s.analyzeItems(ctx, textReq, "image", items, start)
}

// Resolve looks up a single food name.
func (s *AnalysisService) Resolve(ctx context.Context, foodName string) (models.ResolvedNutrition, bool) {
	return s.resolver.Resolve(ctx, foodName)
}

func (s *AnalysisService) analyzeItems(ctx context.Context, req AnalysisRequest, source string, items []models.FoodItem, start time.Time) (result *models.AnalysisResult, err error) {
	logger := s.logger.With(zap.String("request_id", req.RequestID), zap.String("source", source))
	entry := &models.AnalysisLog{
		RequestID:      req.RequestID,
		UserID:         req.UserID,
		MealType:       req.MealType,
		Source:         source,
		FoodText:       req.FoodText,
		ItemsExtracted: len(items),
	}
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("food analysis failed: %v", v)
			result = nil
		}
		entry.DurationMs = time.Since(start).Milliseconds()
		switch {
		case err == nil:
			entry.Status = "ok"
			entry.ItemsResolved = len(result.NutritionItems)
		case errors.Is(err, ErrNoFoodRecognized):
			entry.Status = "no_food"
		default:
			entry.Status = "error"
			entry.Error = err.Error()
			logger.Error("analysis failed", zap.Error(err))
		}
		s.audit.Record(ctx, entry)
	}()

	if len(items) == 0 {
		logger.Info("no food items recognized", zap.String("food_text", truncate(req.FoodText, 200)))
		return nil, ErrNoFoodRecognized
	}

	result = &models.AnalysisResult{
		RequestID:      req.RequestID,
		FoodText:       req.FoodText,
		NutritionItems: []models.ResolvedNutrition{},
		Confidence:     AnalysisConfidence,
	}
	for _, it := range items {
		n, ok := s.resolver.Resolve(ctx, it.Name)
		if !ok {
			logger.Info("food item skipped, no nutrition data", zap.String("food", it.Name))
			continue
		}
		result.Add(n)
	}

	logger.Info("analysis complete",
		zap.Int("items_extracted", len(items)),
		zap.Int("items_resolved", len(result.NutritionItems)),
		zap.Float64("total_calories", result.TotalCalories))

	if s.notifier != nil {
		s.notifier.AnalysisCompleted(ctx, req, result)
	}
	return result, nil
}
