package model

import "time"

// Config is the resolved, immutable configuration threaded through every component
type Config struct {
	LLM          LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Search       SearchConfig    `yaml:"search" mapstructure:"search"`
	Pipeline     PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	HTTP         HTTPConfig      `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig     `yaml:"cache" mapstructure:"cache"`
	RateLimiting RateLimitConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Authority    AuthorityConfig `yaml:"authority" mapstructure:"authority"`
	Links        LinkCheckConfig `yaml:"links" mapstructure:"links"`
	Server       ServerConfig    `yaml:"server" mapstructure:"server"`
	Logging      LoggingConfig   `yaml:"logging" mapstructure:"logging"`
	Telemetry    TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
}

// LLMConfig selects and parameterizes the chat provider
type LLMConfig struct {
	Provider    string        `yaml:"provider" mapstructure:"provider"` // groq, xai, openai, anthropic, ollama, http
	Model       string        `yaml:"model" mapstructure:"model"`
	APIKey      string        `yaml:"-" mapstructure:"api_key"` // Never written to disk
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Temperature float32       `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// SearchConfig selects the evidence search provider
type SearchConfig struct {
	Provider   string        `yaml:"provider" mapstructure:"provider"` // duckduckgo, tavily
	APIKey     string        `yaml:"-" mapstructure:"api_key"`
	BaseURL    string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxResults int           `yaml:"max_results" mapstructure:"max_results"`
}

// PipelineConfig controls the orchestrator
type PipelineConfig struct {
	Workers         int    `yaml:"workers" mapstructure:"workers"` // 1 = strictly sequential per-claim loop
	MaxTextLength   int    `yaml:"max_text_length" mapstructure:"max_text_length"`
	DefaultLanguage string `yaml:"default_language" mapstructure:"default_language"`
	Policy          string `yaml:"policy" mapstructure:"policy"` // Verdict policy name (binary-v1, graded-v2)
}

// HTTPConfig holds shared outbound HTTP settings
type HTTPConfig struct {
	UserAgent  string `yaml:"user_agent" mapstructure:"user_agent"`
	HTTPProxy  string `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// CacheConfig controls the evidence cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	Dir       string        `yaml:"dir" mapstructure:"dir"` // Empty = memory only
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// RateLimitConfig limits outbound search requests per host
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// AuthorityConfig configures evidence authority classification
type AuthorityConfig struct {
	PrimaryDomains   []string          `yaml:"primary_domains" mapstructure:"primary_domains"`
	SecondaryDomains []string          `yaml:"secondary_domains" mapstructure:"secondary_domains"`
	DomainMap        map[string]string `yaml:"domain_map,omitempty" mapstructure:"domain_map"`
	PathPatterns     []PathPattern     `yaml:"path_patterns,omitempty" mapstructure:"path_patterns"`
}

// PathPattern maps a URL path regex to a tier name
type PathPattern struct {
	Pattern string `yaml:"pattern" mapstructure:"pattern"`
	Tier    string `yaml:"tier" mapstructure:"tier"`
}

// LinkCheckConfig controls opt-in evidence link checking
type LinkCheckConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Workers int           `yaml:"workers" mapstructure:"workers"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ServerConfig controls the HTTP transport
type ServerConfig struct {
	Addr         string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// LoggingConfig controls the zap logger
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json, console
}

// TelemetryConfig controls OpenTelemetry tracing
type TelemetryConfig struct {
	Endpoint    string `yaml:"endpoint" mapstructure:"endpoint"` // Empty = tracing disabled
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
}

// DefaultConfig returns the defaults, matching the reference behaviour
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    "groq",
			Model:       "llama-3.3-70b-versatile",
			Timeout:     60 * time.Second,
			Temperature: 0.1,
			MaxTokens:   2048,
		},
		Search: SearchConfig{
			Provider:   "duckduckgo",
			Timeout:    20 * time.Second,
			MaxResults: 5,
		},
		Pipeline: PipelineConfig{
			Workers:         1,
			MaxTextLength:   10000,
			DefaultLanguage: "en",
			Policy:          "binary-v1",
		},
		HTTP: HTTPConfig{
			UserAgent: "Integrity/0.1 (+https://github.com/ppiankov/integrity)",
		},
		Cache: CacheConfig{
			Enabled:   false,
			MemoryTTL: 1 * time.Hour,
			DiskTTL:   24 * time.Hour,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 2,
			BurstSize:         5,
		},
		Authority: AuthorityConfig{
			PrimaryDomains: []string{
				"gov", "gov.uk", "europa.eu", "who.int", "un.org", "nih.gov", "nature.com", "science.org",
			},
			SecondaryDomains: []string{
				"wikipedia.org", "britannica.com", "reuters.com", "apnews.com", "bbc.co.uk", "bbc.com",
			},
		},
		Links: LinkCheckConfig{
			Enabled: false,
			Workers: 8,
			Timeout: 10 * time.Second,
		},
		Server: ServerConfig{
			Addr:         ":8000",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "integrity",
		},
	}
}
