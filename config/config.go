package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	TraceExporter  string
	AllowedOrigins []string

	LLM       LLMConfig
	Providers ProvidersConfig

	ProviderTimeout time.Duration
	AnalysisTimeout time.Duration // 0 means no overall deadline

	VocabularyPath string

	DBDriver   string
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBPath     string

	JWTSecret string

	AWSRegion          string
	RekognitionEnabled bool
	SNSTopicARN        string
}

type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// ProvidersConfig holds credentials and, optionally, base URL overrides.
// Empty base URLs fall back to the public endpoints.
type ProvidersConfig struct {
	CalorieNinjasKey     string
	CalorieNinjasBaseURL string

	NutritionixAppID   string
	NutritionixAppKey  string
	NutritionixBaseURL string

	EdamamAppID    string
	EdamamAppKey   string
	EdamamNutriID  string
	EdamamNutriKey string
	EdamamBaseURL  string

	USDAKey     string
	USDABaseURL string

	OpenFoodFactsBaseURL string
}

// Load reads .env (if present) and the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using process environment")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() Config {
	edamamID := os.Getenv("EDAMAM_APP_ID")
	edamamKey := os.Getenv("EDAMAM_APP_KEY")

	return Config{
		Port:           getEnv("PORT", "8000"),
		GinMode:        os.Getenv("GIN_MODE"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		TraceExporter:  getEnv("TRACE_EXPORTER", "stdout"),
		AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		LLM: LLMConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
			Model:   getEnv("LLM_MODEL", "gpt-3.5-turbo"),
			Timeout: seconds("LLM_TIMEOUT_SECONDS", 30),
		},
		Providers: ProvidersConfig{
			CalorieNinjasKey:     os.Getenv("CALORIE_NINJAS_API_KEY"),
			CalorieNinjasBaseURL: os.Getenv("CALORIE_NINJAS_BASE_URL"),
			NutritionixAppID:     os.Getenv("NUTRITIONIX_APP_ID"),
			NutritionixAppKey:    os.Getenv("NUTRITIONIX_APP_KEY"),
			NutritionixBaseURL:   os.Getenv("NUTRITIONIX_BASE_URL"),
			EdamamAppID:          edamamID,
			EdamamAppKey:         edamamKey,
			EdamamNutriID:        getEnv("EDAMAM_NUTRI_APP_ID", edamamID),
			EdamamNutriKey:       getEnv("EDAMAM_NUTRI_APP_KEY", edamamKey),
			EdamamBaseURL:        os.Getenv("EDAMAM_BASE_URL"),
			USDAKey:              os.Getenv("USDA_API_KEY"),
			USDABaseURL:          os.Getenv("USDA_BASE_URL"),
			OpenFoodFactsBaseURL: os.Getenv("OPENFOODFACTS_BASE_URL"),
		},

		ProviderTimeout: seconds("PROVIDER_TIMEOUT_SECONDS", 10),
		AnalysisTimeout: seconds("ANALYSIS_TIMEOUT_SECONDS", 120),

		VocabularyPath: os.Getenv("VOCABULARY_PATH"),

		DBDriver:   strings.ToLower(os.Getenv("DB_DRIVER")),
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBPath:     getEnv("DB_PATH", "nutriscan.db"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		AWSRegion:          getEnv("AWS_REGION", "ap-south-1"),
		RekognitionEnabled: getBool("REKOGNITION_ENABLED", false),
		SNSTopicARN:        os.Getenv("SNS_TOPIC_ARN"),
	}
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func seconds(key string, def int) time.Duration {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n < 0 {
		n = def
	}
	return time.Duration(n) * time.Second
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
