package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	GeminiAPIKey   string   `envconfig:"GEMINI_API_KEY"`
	LLMProvider    string   `envconfig:"LLM_PROVIDER" default:"gemini"`
	LLMModels      []string `envconfig:"LLM_MODELS" default:"gemini-2.0-flash,gemini-1.5-flash,gemini-pro"`
	LLMMaxTokens   int      `envconfig:"LLM_MAX_TOKENS" default:"500"`
	LLMTimeout     int      `envconfig:"LLM_TIMEOUT" default:"30"`
	LLMMaxAttempts int      `envconfig:"LLM_MAX_ATTEMPTS" default:"2"`
	LLMRetryDelay  int      `envconfig:"LLM_RETRY_DELAY" default:"2"`
	LLMRegion      string   `envconfig:"LLM_REGION"`
	LLMBaseURL     string   `envconfig:"LLM_BASE_URL"`

	MaxPermits     int `envconfig:"MAX_PERMITS" default:"1"`
	RefillInterval int `envconfig:"REFILL_INTERVAL" default:"1"`

	NewsKeywords []string `envconfig:"NEWS_KEYWORDS" default:"房地產,房市,建案,重劃區"`
	NewsCities   []string `envconfig:"NEWS_CITIES" default:"台北,新北,桃園,台中,台南,高雄"`
	NewsWindow   string   `envconfig:"NEWS_WINDOW" default:"1d"`
	NewsLimit    int      `envconfig:"NEWS_LIMIT" default:"10"`
	NewsLang     string   `envconfig:"NEWS_LANG" default:"zh-TW"`
	NewsCountry  string   `envconfig:"NEWS_COUNTRY" default:"TW"`
	NewsTTL      int      `envconfig:"NEWS_TTL" default:"3600"`

	StrategyEnabled bool `envconfig:"STRATEGY_ENABLED" default:"false"`

	ScrapeEnabled bool `envconfig:"SCRAPE_ENABLED" default:"false"`
	ScrapeTimeout int  `envconfig:"SCRAPE_TIMEOUT" default:"15"`

	CachePath string `envconfig:"CACHE_PATH"`

	RefreshInterval int `envconfig:"REFRESH_INTERVAL" default:"0"`

	Debug bool `envconfig:"DEBUG" default:"false"`
}

func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if len(cfg.NewsKeywords) == 0 || len(cfg.NewsCities) == 0 {
		return nil, fmt.Errorf("NEWS_KEYWORDS and NEWS_CITIES must not be empty")
	}
	if len(cfg.LLMModels) == 0 {
		return nil, fmt.Errorf("LLM_MODELS must list at least one model")
	}

	return &cfg, nil
}

func (c *Config) GetLLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeout) * time.Second
}

func (c *Config) GetLLMRetryDelay() time.Duration {
	return time.Duration(c.LLMRetryDelay) * time.Second
}

func (c *Config) GetRefillInterval() time.Duration {
	return time.Duration(c.RefillInterval) * time.Second
}

func (c *Config) GetNewsTTL() time.Duration {
	return time.Duration(c.NewsTTL) * time.Second
}

func (c *Config) GetScrapeTimeout() time.Duration {
	return time.Duration(c.ScrapeTimeout) * time.Second
}

func (c *Config) GetRefreshInterval() time.Duration {
	return time.Duration(c.RefreshInterval) * time.Second
}
