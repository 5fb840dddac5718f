package services

import (
	"context"
	"encoding/json"
	"time"

	"nutriscan/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"go.uber.org/zap"
)

const eventAnalysisCompleted = "analysis.completed"

type snsPublisher interface {
	Publish(ctx context.Context, params *awssns.PublishInput, optFns ...func(*awssns.Options)) (*awssns.PublishOutput, error)
}

// NotificationService publishes analysis events to an SNS topic.
type NotificationService struct {
	sns      snsPublisher
	topicARN string
	logger   *zap.Logger
}

type analysisEvent struct {
	Event         string    `json:"event"`
	RequestID     string    `json:"request_id"`
	UserID        string    `json:"user_id,omitempty"`
	MealType      string    `json:"meal_type,omitempty"`
	ItemsResolved int       `json:"items_resolved"`
	TotalCalories float64   `json:"total_calories"`
	TotalProtein  float64   `json:"total_protein"`
	TotalFat      float64   `json:"total_fat"`
	TotalCarbs    float64   `json:"total_carbohydrate"`
	Providers     []string  `json:"providers"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func NewNotificationService(ctx context.Context, region, topicARN string, logger *zap.Logger) (*NotificationService, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return newNotificationService(awssns.NewFromConfig(cfg), topicARN, logger), nil
}

func newNotificationService(pub snsPublisher, topicARN string, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{sns: pub, topicARN: topicARN, logger: logger}
}

// AnalysisCompleted publishes a summary event. Failures are logged only.
func (n *NotificationService) AnalysisCompleted(ctx context.Context, req AnalysisRequest, result *models.AnalysisResult) {
	if n == nil || n.topicARN == "" || result == nil {
		return
	}
	ev := analysisEvent{
		Event:         eventAnalysisCompleted,
		RequestID:     result.RequestID,
		UserID:        req.UserID,
		MealType:      req.MealType,
		ItemsResolved: len(result.NutritionItems),
		TotalCalories: result.TotalCalories,
		TotalProtein:  result.TotalProtein,
		TotalFat:      result.TotalFat,
		TotalCarbs:    result.TotalCarbohydrate,
		Providers:     []string{},
		OccurredAt:    time.Now().UTC(),
	}
	for _, it := range result.NutritionItems {
		ev.Providers = append(ev.Providers, it.Provider)
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		n.logger.Warn("encode analysis event", zap.Error(err))
		return
	}

	_, err = n.sns.Publish(context.WithoutCancel(ctx), &awssns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Message:  aws.String(string(raw)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {DataType: aws.String("String"), StringValue: aws.String(eventAnalysisCompleted)},
		},
	})
	if err != nil {
		n.logger.Warn("publish analysis event", zap.String("request_id", result.RequestID), zap.Error(err))
	}
}
