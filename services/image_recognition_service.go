package services

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"nutriscan/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

var ErrInvalidImage = errors.New("invalid base64 image")

// Labels that describe a plate rather than what is on it.
var genericLabels = map[string]bool{
	"food": true, "meal": true, "dish": true, "plate": true, "produce": true,
	"fruit": true, "vegetable": true, "plant": true, "tableware": true,
	"cutlery": true, "dinner": true, "lunch": true, "breakfast": true,
}

type labelDetector interface {
	DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

type ImageRecognitionService struct {
	client labelDetector
}

func NewImageRecognitionService(ctx context.Context, region string) (*ImageRecognitionService, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &ImageRecognitionService{client: rekognition.NewFromConfig(cfg)}, nil
}

// decodeImage accepts raw base64 or a data URI.
func decodeImage(img string) ([]byte, error) {
	img = strings.TrimSpace(img)
	if strings.HasPrefix(img, "data:") {
		i := strings.Index(img, ",")
		if i < 0 || !strings.Contains(img[:i], "base64") {
			return nil, ErrInvalidImage
		}
		img = img[i+1:]
	}
	if img == "" {
		return nil, ErrInvalidImage
	}
	data, err := base64.StdEncoding.DecodeString(img)
	if err != nil {
		return nil, ErrInvalidImage
	}
	return data, nil
}

// RecognizeLabels returns the top labels for a base64-encoded image
func (r *ImageRecognitionService) RecognizeLabels(ctx context.Context, base64Img string) ([]string, error) {
	data, err := decodeImage(base64Img)
	if err != nil {
		return nil, err
	}
	out, err := r.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: data},
		MaxLabels:     aws.Int32(5),
		MinConfidence: aws.Float32(75),
	})
	if err != nil {
		return nil, err
	}
	labels := make([]string, 0, len(out.Labels))
	for _, l := range out.Labels {
		if name := aws.ToString(l.Name); name != "" {
			labels = append(labels, name)
		}
	}
	return labels, nil
}

// FoodItems maps specific labels to one-piece food items.
func (r *ImageRecognitionService) FoodItems(ctx context.Context, base64Img string) ([]models.FoodItem, error) {
	labels, err := r.RecognizeLabels(ctx, base64Img)
	if err != nil {
		return nil, err
	}
	var items []models.FoodItem
	for _, l := range labels {
		name := strings.ToLower(l)
		if genericLabels[name] {
			continue
		}
		items = append(items, models.FoodItem{
			Name:        name,
			Quantity:    1,
			Unit:        defaultItemUnit,
			Description: "detected in image",
		})
	}
	return items, nil
}
