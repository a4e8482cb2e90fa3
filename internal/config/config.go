package config

import "time"

type Duration struct {
	Duration time.Duration
}

func D(d time.Duration) Duration { return Duration{Duration: d} }

type HTTPConfig struct {
	Addr              string   `json:"addr" yaml:"addr"`
	ReadHeaderTimeout Duration `json:"read_header_timeout" yaml:"read_header_timeout"`
	IdleTimeout       Duration `json:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout   Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxRequestBytes   int64    `json:"max_request_bytes" yaml:"max_request_bytes"`
	AllowedOrigins    []string `json:"allowed_origins,omitempty" yaml:"allowed_origins,omitempty"`
}

type JSONSchemaConfig struct {
	// Mode is one of "none", "guided_json", "prompt" or "auto".
	Mode           string `json:"mode,omitempty" yaml:"mode,omitempty"`
	MaxRetries     int    `json:"max_retries,omitempty" yaml:"max_retries,omitempty"`
	MaxPromptBytes int    `json:"max_prompt_bytes,omitempty" yaml:"max_prompt_bytes,omitempty"`
}

type EngineConfig struct {
	// Type is "mock", "oai_http" (any OpenAI-compatible server) or "openai" (go-openai SDK).
	Type string `json:"type" yaml:"type"`

	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	APIKey  string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	ChatCompletionsPath string `json:"chat_completions_path,omitempty" yaml:"chat_completions_path,omitempty"`
	EmbeddingsPath      string `json:"embeddings_path,omitempty" yaml:"embeddings_path,omitempty"`

	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// Retries is how many times a rate-limited or unavailable upstream is
	// retried. Replies are latency sensitive, so keep it small.
	Retries      int      `json:"retries,omitempty" yaml:"retries,omitempty"`
	RetryBackoff Duration `json:"retry_backoff,omitempty" yaml:"retry_backoff,omitempty"`

	JSONSchema JSONSchemaConfig `json:"json_schema,omitempty" yaml:"json_schema,omitempty"`
}

type ModelConfig struct {
	ID            string       `json:"id" yaml:"id"`
	UpstreamModel string       `json:"upstream_model,omitempty" yaml:"upstream_model,omitempty"`
	Temperature   float64      `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens     int          `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	Engine        EngineConfig `json:"engine" yaml:"engine"`
}

// PurposeConfig maps each kind of inference the service performs to a model id.
type PurposeConfig struct {
	Reply string `json:"reply" yaml:"reply"`
	Coach string `json:"coach" yaml:"coach"`
	Embed string `json:"embed,omitempty" yaml:"embed,omitempty"`
}

type TurnConfig struct {
	ShortDelay         Duration `json:"short_delay" yaml:"short_delay"`
	LongDelay          Duration `json:"long_delay" yaml:"long_delay"`
	ShortWordThreshold int      `json:"short_word_threshold" yaml:"short_word_threshold"`
	ReplyTimeout       Duration `json:"reply_timeout" yaml:"reply_timeout"`
	ExtraFillers       []string `json:"extra_fillers,omitempty" yaml:"extra_fillers,omitempty"`
}

type CoachConfig struct {
	InsightInterval Duration `json:"insight_interval" yaml:"insight_interval"`
	ReplayInsights  int      `json:"replay_insights" yaml:"replay_insights"`
	QueueSize       int      `json:"queue_size" yaml:"queue_size"`
	MaxInsightWords int      `json:"max_insight_words" yaml:"max_insight_words"`
	CallTimeout     Duration `json:"call_timeout" yaml:"call_timeout"`
}

type SessionConfig struct {
	GreetingDelay Duration `json:"greeting_delay" yaml:"greeting_delay"`
	HistoryWindow int      `json:"history_window" yaml:"history_window"`
	TTL           Duration `json:"ttl" yaml:"ttl"`
}

type StorageConfig struct {
	// Driver is "none", "postgres" or "sqlite".
	Driver      string `json:"driver" yaml:"driver"`
	DSN         string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	AutoMigrate bool   `json:"auto_migrate" yaml:"auto_migrate"`
}

type RedisConfig struct {
	Addr    string `json:"addr,omitempty" yaml:"addr,omitempty"`
	Channel string `json:"channel,omitempty" yaml:"channel,omitempty"`
}

func (r RedisConfig) Enabled() bool { return r.Addr != "" }

type RetrievalConfig struct {
	// Provider is "none" or "qdrant".
	Provider   string   `json:"provider" yaml:"provider"`
	QdrantURL  string   `json:"qdrant_url,omitempty" yaml:"qdrant_url,omitempty"`
	Collection string   `json:"collection,omitempty" yaml:"collection,omitempty"`
	VectorDim  int      `json:"vector_dim,omitempty" yaml:"vector_dim,omitempty"`
	TopK       int      `json:"top_k,omitempty" yaml:"top_k,omitempty"`
	MaxChars   int      `json:"max_chars,omitempty" yaml:"max_chars,omitempty"`
	Timeout    Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

type Config struct {
	Env         string `json:"env" yaml:"env"`
	ServiceName string `json:"service_name" yaml:"service_name"`

	HTTP      HTTPConfig      `json:"http" yaml:"http"`
	Models    []ModelConfig   `json:"models" yaml:"models"`
	Purposes  PurposeConfig   `json:"purposes" yaml:"purposes"`
	Turn      TurnConfig      `json:"turn" yaml:"turn"`
	Coach     CoachConfig     `json:"coach" yaml:"coach"`
	Session   SessionConfig   `json:"session" yaml:"session"`
	Storage   StorageConfig   `json:"storage" yaml:"storage"`
	Redis     RedisConfig     `json:"redis" yaml:"redis"`
	Retrieval RetrievalConfig `json:"retrieval" yaml:"retrieval"`
}
