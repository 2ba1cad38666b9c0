package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config 应用配置
type Config struct {
	Port  string
	DBDSN string

	// 模型接口配置
	GeminiAPIKey  string
	GeminiBaseURL string
	GeminiModel   string

	// 接口限流
	RateLimit  int
	RateWindow time.Duration
}

// Load 加载配置
func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = ":8080"
	}

	// 内存数据库，进程退出即清空
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "file:moralgraph?mode=memory&cache=shared"
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Println("GEMINI_API_KEY not set, analysis requests will fail authentication")
	}

	baseURL := os.Getenv("GEMINI_BASE_URL")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-2.0-flash"
	}

	limit := 30
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	window := 60 * time.Second
	if v := os.Getenv("RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			window = time.Duration(n) * time.Second
		}
	}

	return &Config{
		Port:          port,
		DBDSN:         dsn,
		GeminiAPIKey:  apiKey,
		GeminiBaseURL: baseURL,
		GeminiModel:   model,
		RateLimit:     limit,
		RateWindow:    window,
	}
}
