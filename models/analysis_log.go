package models

import (
	"gorm.io/gorm"
)

// AnalysisLog is an audit row per analysis request. No nutrient values.
type AnalysisLog struct {
	gorm.Model
	RequestID      string `gorm:"type:varchar(64);index" json:"request_id"`
	UserID         string `gorm:"index" json:"user_id,omitempty"`
	MealType       string `json:"meal_type,omitempty"`
	Source         string `json:"source"` // text | image | mcp
	FoodText       string `json:"food_text"`
	ItemsExtracted int    `json:"items_extracted"`
	ItemsResolved  int    `json:"items_resolved"`
	Status         string `json:"status"` // ok | no_food | error
	Error          string `json:"error,omitempty"`
	DurationMs     int64  `json:"duration_ms"`
}
