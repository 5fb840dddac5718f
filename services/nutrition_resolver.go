package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nutriscan/config"
	"nutriscan/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Resolver finds nutrition for one food name.
type Resolver interface {
	Resolve(ctx context.Context, foodName string) (models.ResolvedNutrition, bool)
}

// NutritionResolver walks providers in priority order and stops at the first hit.
// There is no scoring: the first provider that answers wins.
type NutritionResolver struct {
	providers []NutritionProvider
	logger    *zap.Logger
	tracer    trace.Tracer
}

// ResolverOption configures a NutritionResolver.
type ResolverOption func(*NutritionResolver)

// WithTracerProvider makes the resolver emit spans through tp instead of the
// global provider.
func WithTracerProvider(tp trace.TracerProvider) ResolverOption {
	return func(r *NutritionResolver) {
		if tp != nil {
			r.tracer = tp.Tracer(tracerName)
		}
	}
}

const tracerName = "nutriscan/services"

func NewNutritionResolver(providers []NutritionProvider, logger *zap.Logger, opts ...ResolverOption) *NutritionResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &NutritionResolver{
		providers: providers,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultProviders builds the fixed priority order used in production.
func DefaultProviders(cfg config.ProvidersConfig, timeout time.Duration, logger *zap.Logger) []NutritionProvider {
	return []NutritionProvider{
		NewCalorieNinjasService(cfg, timeout, logger),
		NewNutritionixService(cfg, timeout, logger),
		NewEdamamService(cfg, timeout, logger),
		NewUSDAService(cfg, timeout, logger),
		NewOpenFoodFactsService(cfg, timeout, logger),
	}
}

// Providers returns the providers in priority order.
func (r *NutritionResolver) Providers() []NutritionProvider {
	return r.providers
}

func (r *NutritionResolver) Resolve(ctx context.Context, foodName string) (models.ResolvedNutrition, bool) {
	ctx, span := r.tracer.Start(ctx, "NutritionResolver.Resolve",
		trace.WithAttributes(attribute.String("food", foodName)))
	defer span.End()

	if strings.TrimSpace(foodName) == "" {
		return models.ResolvedNutrition{}, false
	}

	for _, p := range r.providers {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, "cancelled")
			r.logger.Warn("resolution cancelled", zap.String("food", foodName), zap.Error(err))
			return models.ResolvedNutrition{}, false
		}
		rec, ok := r.try(ctx, p, foodName)
		if !ok {
			continue
		}

		name := foodName
		if rec.Product != nil && rec.Product.ProductName != "" {
			name = rec.Product.ProductName
		}
		span.SetAttributes(attribute.String("provider", p.Name()))
		r.logger.Debug("food resolved", zap.String("food", foodName), zap.String("provider", p.Name()))
		return models.ResolvedNutrition{
			FoodName:       name,
			NutrientRecord: rec,
			Confidence:     p.Confidence(),
			Provider:       p.Name(),
		}, true
	}

	span.SetAttributes(attribute.Bool("resolved", false))
	r.logger.Info("no provider had nutrition data", zap.String("food", foodName))
	return models.ResolvedNutrition{}, false
}

// try isolates one provider; a panic counts as absent.
func (r *NutritionResolver) try(ctx context.Context, p NutritionProvider, foodName string) (rec models.NutrientRecord, ok bool) {
	ctx, span := r.tracer.Start(ctx, "provider.FetchNutrition",
		trace.WithAttributes(attribute.String("provider", p.Name())))
	defer span.End()

	defer func() {
		if v := recover(); v != nil {
			msg := fmt.Sprint(v)
			r.logger.Error("provider panicked", zap.String("provider", p.Name()), zap.String("food", foodName), zap.String("panic", msg))
			span.SetStatus(codes.Error, msg)
			span.SetAttributes(attribute.Bool("found", false))
			rec, ok = models.NutrientRecord{}, false
		}
	}()

	rec, ok = p.FetchNutrition(ctx, foodName)
	span.SetAttributes(attribute.Bool("found", ok))
	return rec, ok
}
