package models

// FoodItem is one food extracted from free text. Built once by the extractor.
type FoodItem struct {
	Name        string  `json:"name"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	Description string  `json:"description,omitempty"`
}

// NutrientRecord is the canonical shape every provider is normalised into.
// Missing values are zero; a provider that reports nothing and one that
// reports a real zero look the same here.
type NutrientRecord struct {
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	Calories     float64 `json:"calories"`
	Protein      float64 `json:"protein"`
	Fat          float64 `json:"fat"`
	Carbohydrate float64 `json:"carbohydrate"`
	Water        float64 `json:"water"`

	Fiber       float64 `json:"fiber,omitempty"`
	Sugar       float64 `json:"sugar,omitempty"`
	Sodium      float64 `json:"sodium,omitempty"` // mg
	Cholesterol float64 `json:"cholesterol,omitempty"`

	// product catalog extras
	Product *ProductDetails `json:"product,omitempty"`
}

// ProductDetails only comes from the product catalog provider.
type ProductDetails struct {
	ProductName    string   `json:"product_name,omitempty"`
	Brand          string   `json:"brand,omitempty"`
	Salt           float64  `json:"salt,omitempty"`
	ImageURL       string   `json:"image_url,omitempty"`
	Ingredients    string   `json:"ingredients,omitempty"`
	Allergens      []string `json:"allergens,omitempty"`
	NutritionGrade string   `json:"nutrition_grade,omitempty"`
	NovaGroup      string   `json:"nova_group,omitempty"`
	Ecoscore       string   `json:"ecoscore,omitempty"`
}

// ResolvedNutrition is a NutrientRecord tagged with where it came from.
type ResolvedNutrition struct {
	FoodName string `json:"food_name"`
	NutrientRecord
	Confidence float64 `json:"confidence"`
	Provider   string  `json:"provider"`
}

// AnalysisResult is the response for one free-text analysis.
type AnalysisResult struct {
	RequestID         string              `json:"request_id,omitempty"`
	FoodText          string              `json:"food_text"`
	NutritionItems    []ResolvedNutrition `json:"nutrition_items"`
	TotalCalories     float64             `json:"total_calories"`
	TotalProtein      float64             `json:"total_protein"`
	TotalFat          float64             `json:"total_fat"`
	TotalCarbohydrate float64             `json:"total_carbohydrate"`
	TotalWater        float64             `json:"total_water"`
	Confidence        float64             `json:"confidence"`
}

// Add sums the five tracked totals. Units are not reconciled.
func (r *AnalysisResult) Add(n ResolvedNutrition) {
	r.NutritionItems = append(r.NutritionItems, n)
	r.TotalCalories += n.Calories
	r.TotalProtein += n.Protein
	r.TotalFat += n.Fat
	r.TotalCarbohydrate += n.Carbohydrate
	r.TotalWater += n.Water
}
