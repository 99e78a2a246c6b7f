package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ProviderPinecone = "pinecone"
	ProviderQdrant   = "qdrant"
)

type TopicRule struct {
	Name            string   `mapstructure:"name"`
	Keywords        []string `mapstructure:"keywords"`
	StandardNumbers []string `mapstructure:"standard_numbers"`
	SectionTitles   []string `mapstructure:"section_titles"`
}

type Config struct {
	Server struct {
		Port           string
		AllowedOrigins []string
		RequestTimeout time.Duration
		RateLimit      int
	}
	OpenAI struct {
		APIKey      string
		BaseURL     string
		EmbedModel  string
		ChatModel   string
		Temperature float32
		MaxTokens   int
	}
	Index struct {
		Provider string
	}
	Pinecone struct {
		APIKey    string
		Host      string
		Index     string
		Namespace string
	}
	Qdrant struct {
		Addr       string
		Collection string
		APIKey     string
	}
	Retrieval struct {
		TopK           int
		ScoreThreshold float64
	}
	Answer struct {
		Mode             string
		LocalizeFallback bool
		Separator        string
	}
	Prompts struct {
		Dir   string
		Watch bool
	}
	Upstream struct {
		MaxRetries int
	}
	Database struct {
		URL string
	}
	Redis struct {
		URL string
	}
	Cache struct {
		TTL time.Duration
	}
	Topics struct {
		Enabled bool
		Rules   []TopicRule
	}
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindLegacyEnv(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.allowed_origins", []string{"https://www.ailat.kz", "https://ailat.kz"})
	v.SetDefault("server.request_timeout", 60*time.Second)
	v.SetDefault("server.rate_limit", 60)
	v.SetDefault("openai.embed_model", "text-embedding-3-small")
	v.SetDefault("openai.chat_model", "gpt-3.5-turbo")
	v.SetDefault("openai.temperature", 0.0)
	v.SetDefault("openai.max_tokens", 800)
	v.SetDefault("index.provider", ProviderPinecone)
	v.SetDefault("pinecone.index", "aaoifi-standards")
	v.SetDefault("qdrant.addr", "localhost:6334")
	v.SetDefault("qdrant.collection", "aaoifi-standards")
	v.SetDefault("retrieval.top_k", 15)
	v.SetDefault("retrieval.score_threshold", 0.0)
	v.SetDefault("answer.mode", "single")
	v.SetDefault("answer.localize_fallback", false)
	v.SetDefault("answer.separator", "\n\n---\n\n")
	v.SetDefault("upstream.max_retries", 0)
	v.SetDefault("cache.ttl", time.Duration(0))
	v.SetDefault("topics.enabled", false)
}

// bindLegacyEnv keeps the environment names the deployment already uses.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("server.port", "SERVER_PORT", "PORT")
	_ = v.BindEnv("openai.embed_model", "OPENAI_EMBED_MODEL", "EMBED_MODEL")
	_ = v.BindEnv("openai.chat_model", "OPENAI_CHAT_MODEL", "CHAT_MODEL")
	_ = v.BindEnv("retrieval.top_k", "RETRIEVAL_TOP_K", "TOP_K")
	_ = v.BindEnv("pinecone.index", "PINECONE_INDEX")
}

func fromViper(v *viper.Viper) (*Config, error) {
	var config Config

	config.Server.Port = v.GetString("server.port")
	config.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	config.Server.RequestTimeout = v.GetDuration("server.request_timeout")
	config.Server.RateLimit = v.GetInt("server.rate_limit")

	config.OpenAI.APIKey = v.GetString("openai.api_key")
	config.OpenAI.BaseURL = v.GetString("openai.base_url")
	config.OpenAI.EmbedModel = v.GetString("openai.embed_model")
	config.OpenAI.ChatModel = v.GetString("openai.chat_model")
	config.OpenAI.Temperature = float32(v.GetFloat64("openai.temperature"))
	config.OpenAI.MaxTokens = v.GetInt("openai.max_tokens")

	config.Index.Provider = strings.ToLower(v.GetString("index.provider"))

	config.Pinecone.APIKey = v.GetString("pinecone.api_key")
	config.Pinecone.Host = v.GetString("pinecone.host")
	config.Pinecone.Index = v.GetString("pinecone.index")
	config.Pinecone.Namespace = v.GetString("pinecone.namespace")

	config.Qdrant.Addr = v.GetString("qdrant.addr")
	config.Qdrant.Collection = v.GetString("qdrant.collection")
	config.Qdrant.APIKey = v.GetString("qdrant.api_key")

	config.Retrieval.TopK = v.GetInt("retrieval.top_k")
	config.Retrieval.ScoreThreshold = v.GetFloat64("retrieval.score_threshold")

	config.Answer.Mode = strings.ToLower(v.GetString("answer.mode"))
	config.Answer.LocalizeFallback = v.GetBool("answer.localize_fallback")
	config.Answer.Separator = v.GetString("answer.separator")

	config.Prompts.Dir = v.GetString("prompts.dir")
	config.Prompts.Watch = v.GetBool("prompts.watch")

	config.Upstream.MaxRetries = v.GetInt("upstream.max_retries")

	config.Database.URL = v.GetString("database.url")
	config.Redis.URL = v.GetString("redis.url")
	config.Cache.TTL = v.GetDuration("cache.ttl")

	config.Topics.Enabled = v.GetBool("topics.enabled")
	if err := v.UnmarshalKey("topics.rules", &config.Topics.Rules); err != nil {
		return nil, fmt.Errorf("invalid topics.rules: %w", err)
	}

	return &config, nil
}

// Validate checks the keys the selected providers cannot run without.
func (c *Config) Validate() error {
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be positive, got %d", c.Retrieval.TopK)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be positive")
	}

	switch c.Answer.Mode {
	case "single", "roundtrip", "two_step":
	default:
		return fmt.Errorf("unknown answer.mode %q", c.Answer.Mode)
	}

	switch c.Index.Provider {
	case ProviderPinecone:
		if c.Pinecone.APIKey == "" {
			return fmt.Errorf("PINECONE_API_KEY is required")
		}
		if c.Pinecone.Host == "" && c.Pinecone.Index == "" {
			return fmt.Errorf("PINECONE_HOST or PINECONE_INDEX is required")
		}
	case ProviderQdrant:
		if c.Qdrant.Addr == "" || c.Qdrant.Collection == "" {
			return fmt.Errorf("QDRANT_ADDR and QDRANT_COLLECTION are required")
		}
	default:
		return fmt.Errorf("unknown index.provider %q", c.Index.Provider)
	}

	if c.Cache.TTL > 0 && c.Redis.URL == "" {
		return fmt.Errorf("cache.ttl is set but REDIS_URL is empty")
	}
	return nil
}
