package store

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Asset string `yaml:"asset" default:"BTC-USD" validate:"required"`

	Prices struct {
		Source string `yaml:"source" default:"csv" validate:"oneof=csv kite"`
		Dir    string `yaml:"dir" default:"data/raw/prices"`
		// File overrides the newest-file lookup in Dir
		File string `yaml:"file"`
		Kite struct {
			APIKeyEnv       string `yaml:"api_key_env" default:"KITE_API_KEY"`
			AccessTokenEnv  string `yaml:"access_token_env" default:"KITE_ACCESS_TOKEN"`
			InstrumentToken int    `yaml:"instrument_token"`
			Interval        string `yaml:"interval" default:"60minute"`
			LookbackDays    int    `yaml:"lookback_days" default:"30" validate:"gt=0"`

			APIKey      string `yaml:"-"`
			AccessToken string `yaml:"-"`
		} `yaml:"kite"`
	} `yaml:"prices"`

	Sentiment struct {
		Enabled       bool    `yaml:"enabled" default:"true"`
		Engine        string  `yaml:"engine" default:"naive"`
		Source        string  `yaml:"source" default:"csv" validate:"oneof=csv rss scrape"`
		File          string  `yaml:"file" default:"data/raw/sentiment/sentiment.csv"`
		Workers       int     `yaml:"workers" default:"4" validate:"gte=1"`
		BuyThreshold  float64 `yaml:"buy_threshold" default:"0.55" validate:"gte=0,lte=1"`
		SellThreshold float64 `yaml:"sell_threshold" default:"0.45" validate:"gte=0,lte=1"`
		RSS           struct {
			// URL may contain {asset}
			URL string `yaml:"url"`
		} `yaml:"rss"`
		Scrape struct {
			URL           string `yaml:"url"`
			ItemSelector  string `yaml:"item_selector" default:"article"`
			TitleSelector string `yaml:"title_selector" default:"h3"`
			TextSelector  string `yaml:"text_selector" default:"p"`
			TimeSelector  string `yaml:"time_selector" default:"time[datetime]"`
		} `yaml:"scrape"`
	} `yaml:"sentiment"`

	LLM struct {
		MaxTokens      int     `yaml:"max_tokens" default:"64" validate:"gt=0"`
		Temperature    float32 `yaml:"temperature"`
		TimeoutSeconds int     `yaml:"timeout_seconds" default:"20" validate:"gt=0"`
		// RequestsPerMinute paces remote scorer calls across workers
		RequestsPerMinute int `yaml:"requests_per_minute" default:"120" validate:"gt=0"`
		MaxRetries        int `yaml:"max_retries" default:"2" validate:"gte=1"`
		Claude            struct {
			Model     string `yaml:"model" default:"claude-3-haiku-latest"`
			Endpoint  string `yaml:"endpoint" default:"https://api.anthropic.com/v1/messages"`
			Version   string `yaml:"version" default:"2023-06-01"`
			APIKeyEnv string `yaml:"api_key_env" default:"CLAUDE_API_KEY"`
			APIKey    string `yaml:"-"`
		} `yaml:"claude"`
		OpenAI struct {
			Model     string `yaml:"model" default:"gpt-4o-mini"`
			Endpoint  string `yaml:"endpoint" default:"https://api.openai.com/v1/chat/completions"`
			APIKeyEnv string `yaml:"api_key_env" default:"OPENAI_API_KEY"`
			APIKey    string `yaml:"-"`
		} `yaml:"openai"`
		Gemini struct {
			Model     string `yaml:"model" default:"gemini-2.0-flash"`
			APIKeyEnv string `yaml:"api_key_env" default:"GEMINI_API_KEY"`
			APIKey    string `yaml:"-"`
		} `yaml:"gemini"`
	} `yaml:"llm"`

	Indicators struct {
		MAWindows []int `yaml:"ma_windows" default:"[10,20,50]" validate:"min=1,dive,gt=0"`
		VolWindow int   `yaml:"vol_window" default:"20" validate:"gt=1"`
		RSIWindow int   `yaml:"rsi_window" default:"14" validate:"gt=0"`
	} `yaml:"indicators"`

	Rules struct {
		MAWindow  int     `yaml:"ma_window" default:"20"`
		RSIWindow int     `yaml:"rsi_window" default:"14"`
		BuyRSI    float64 `yaml:"buy_rsi" default:"55" validate:"gte=0,lte=100"`
		SellRSI   float64 `yaml:"sell_rsi" default:"45" validate:"gte=0,lte=100"`
	} `yaml:"rules"`

	Server struct {
		Addr string `yaml:"addr" default:":8000"`
	} `yaml:"server"`

	Watch struct {
		Schedule string `yaml:"schedule" default:"@every 15m"`
		Mode     string `yaml:"mode" default:"combined" validate:"oneof=price_only combined"`
	} `yaml:"watch"`

	Cache struct {
		Backend    string `yaml:"backend" default:"memory" validate:"oneof=none memory redis"`
		TTLMinutes int    `yaml:"ttl_minutes" default:"60" validate:"gte=0"`
		Redis      struct {
			Addr        string `yaml:"addr" default:"localhost:6379"`
			PasswordEnv string `yaml:"password_env" default:"REDIS_PASSWORD"`
			DB          int    `yaml:"db"`
			Password    string `yaml:"-"`
		} `yaml:"redis"`
	} `yaml:"cache"`
}

var validate = validator.New()

// Default returns a config populated only from struct defaults.
func Default() *Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &c
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Rules.SellRSI >= c.Rules.BuyRSI {
		return fmt.Errorf("rules.sell_rsi (%.2f) must be below rules.buy_rsi (%.2f)", c.Rules.SellRSI, c.Rules.BuyRSI)
	}
	if c.Sentiment.SellThreshold >= c.Sentiment.BuyThreshold {
		return fmt.Errorf("sentiment.sell_threshold (%.2f) must be below sentiment.buy_threshold (%.2f)",
			c.Sentiment.SellThreshold, c.Sentiment.BuyThreshold)
	}
	if !slices.Contains(c.Indicators.MAWindows, c.Rules.MAWindow) {
		return fmt.Errorf("rules.ma_window %d is not among indicators.ma_windows %v", c.Rules.MAWindow, c.Indicators.MAWindows)
	}
	if c.Rules.RSIWindow != c.Indicators.RSIWindow {
		return fmt.Errorf("rules.rsi_window %d must equal indicators.rsi_window %d", c.Rules.RSIWindow, c.Indicators.RSIWindow)
	}
	if c.Prices.Source == "kite" && c.Prices.Kite.InstrumentToken == 0 {
		return errors.New("prices.kite.instrument_token is required when prices.source is kite")
	}
	if c.Sentiment.Enabled {
		switch c.Sentiment.Source {
		case "rss":
			if c.Sentiment.RSS.URL == "" {
				return errors.New("sentiment.rss.url is required when sentiment.source is rss")
			}
		case "scrape":
			if c.Sentiment.Scrape.URL == "" {
				return errors.New("sentiment.scrape.url is required when sentiment.source is scrape")
			}
		}
	}
	return nil
}

// ResolveSecrets copies credentials from the environment variables named in the config.
func (c *Config) ResolveSecrets() {
	c.LLM.Claude.APIKey = strings.TrimSpace(os.Getenv(c.LLM.Claude.APIKeyEnv))
	c.LLM.OpenAI.APIKey = strings.TrimSpace(os.Getenv(c.LLM.OpenAI.APIKeyEnv))
	c.LLM.Gemini.APIKey = strings.TrimSpace(os.Getenv(c.LLM.Gemini.APIKeyEnv))
	c.Prices.Kite.APIKey = strings.TrimSpace(os.Getenv(c.Prices.Kite.APIKeyEnv))
	c.Prices.Kite.AccessToken = strings.TrimSpace(os.Getenv(c.Prices.Kite.AccessTokenEnv))
	c.Cache.Redis.Password = os.Getenv(c.Cache.Redis.PasswordEnv)
}

// LoadConfig reads the YAML file at path over the struct defaults, resolves
// secrets from the environment and validates the result.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(b)
}

func ParseConfig(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}
	c.Sentiment.Engine = strings.ToLower(strings.TrimSpace(c.Sentiment.Engine))

	c.ResolveSecrets()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return c, nil
}
