package models

// SearchHit is one row of a provider search, trimmed to what callers use.
type SearchHit struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Brand    string `json:"brand,omitempty"`
	Category string `json:"category,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	Grade    string `json:"nutrition_grade,omitempty"`
}

// CatalogTag is an entry of the catalog's category or brand listing.
type CatalogTag struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Products int    `json:"products"`
	URL      string `json:"url,omitempty"`
}

// ProviderInfo describes a configured provider.
type ProviderInfo struct {
	Name           string   `json:"name"`
	BaseURL        string   `json:"base_url"`
	HasCredentials bool     `json:"has_credentials"`
	Confidence     float64  `json:"confidence"`
	Features       []string `json:"features"`
}

// CatalogProduct is a product catalog entry normalised like any other record.
type CatalogProduct struct {
	Code string `json:"code"`
	NutrientRecord
}
