package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/interviewcoach-backend/internal/platform/envutil"
)

func (d *Duration) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		d.Duration = 0
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		u, err := strconv.Unquote(s)
		if err != nil {
			return err
		}
		return d.parse(u)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("duration must be a JSON string like \"5s\" or an int nanoseconds: %w", err)
	}
	d.Duration = time.Duration(n)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Duration.String())
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be a scalar, got kind %d", value.Kind)
	}
	if n, err := strconv.ParseInt(value.Value, 10, 64); err == nil {
		d.Duration = time.Duration(n)
		return nil
	}
	return d.parse(value.Value)
}

func (d *Duration) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		d.Duration = 0
		return nil
	}
	dd, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = dd
	return nil
}

func Default() *Config {
	return &Config{
		Env:         "development",
		ServiceName: "interviewcoach",
		HTTP: HTTPConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: D(5 * time.Second),
			IdleTimeout:       D(2 * time.Minute),
			ShutdownTimeout:   D(15 * time.Second),
			MaxRequestBytes:   1 << 20,
		},
		Models: []ModelConfig{
			{ID: "mock-1", Engine: EngineConfig{Type: "mock"}},
		},
		Purposes: PurposeConfig{Reply: "mock-1", Coach: "mock-1", Embed: "mock-1"},
		Turn: TurnConfig{
			ShortDelay:         D(900 * time.Millisecond),
			LongDelay:          D(750 * time.Millisecond),
			ShortWordThreshold: 2,
			ReplyTimeout:       D(30 * time.Second),
		},
		Coach: CoachConfig{
			InsightInterval: D(10 * time.Second),
			ReplayInsights:  5,
			QueueSize:       64,
			MaxInsightWords: 15,
			CallTimeout:     D(20 * time.Second),
		},
		Session: SessionConfig{
			GreetingDelay: D(2 * time.Second),
			HistoryWindow: 6,
			TTL:           D(24 * time.Hour),
		},
		Storage:   StorageConfig{Driver: "none", AutoMigrate: true},
		Redis:     RedisConfig{Channel: "interview-events"},
		Retrieval: RetrievalConfig{Provider: "none", TopK: 4, MaxChars: 1200, Timeout: D(3 * time.Second)},
	}
}

// Load resolves configuration in order: defaults, config file, .env file,
// environment overrides. The result is validated before it is returned.
func Load() (*Config, error) {
	cfg := Default()

	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	if path := configPath(); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := normalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv() error {
	path := envutil.String("INTERVIEW_ENV_FILE", ".env")
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func configPath() string {
	if p := strings.TrimSpace(os.Getenv("INTERVIEW_CONFIG_PATH")); p != "" {
		return p
	}
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for _, name := range []string{"config.yaml", "config.yml", "config.json"} {
		p := filepath.Join(wd, "config", name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func loadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	inherited := cfg.Purposes
	cfg.Purposes = PurposeConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, cfg)
	default:
		err = json.Unmarshal(b, cfg)
	}
	if err != nil {
		return err
	}
	keepPurposes(&cfg.Purposes, inherited, cfg.Models)
	return nil
}

// keepPurposes restores purposes the file left blank, but only when the
// inherited model is still configured. Anything else falls through to the
// first-model default in normalize.
func keepPurposes(dst *PurposeConfig, inherited PurposeConfig, models []ModelConfig) {
	known := map[string]bool{}
	for _, m := range models {
		known[strings.TrimSpace(m.ID)] = true
	}
	pairs := []struct {
		dst *string
		src string
	}{
		{&dst.Reply, inherited.Reply},
		{&dst.Coach, inherited.Coach},
		{&dst.Embed, inherited.Embed},
	}
	for _, p := range pairs {
		if strings.TrimSpace(*p.dst) == "" && known[p.src] {
			*p.dst = p.src
		}
	}
}

func applyEnv(cfg *Config) {
	cfg.Env = envutil.String("LOG_MODE", cfg.Env)
	cfg.HTTP.Addr = envutil.String("INTERVIEW_HTTP_ADDR", cfg.HTTP.Addr)
	if v := strings.TrimSpace(os.Getenv("INTERVIEW_ALLOWED_ORIGINS")); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}

	cfg.Turn.ShortDelay.Duration = envutil.Duration("INTERVIEW_TURN_SHORT_DELAY", cfg.Turn.ShortDelay.Duration)
	cfg.Turn.LongDelay.Duration = envutil.Duration("INTERVIEW_TURN_LONG_DELAY", cfg.Turn.LongDelay.Duration)
	cfg.Coach.InsightInterval.Duration = envutil.Duration("INTERVIEW_INSIGHT_INTERVAL", cfg.Coach.InsightInterval.Duration)
	cfg.Session.GreetingDelay.Duration = envutil.Duration("INTERVIEW_GREETING_DELAY", cfg.Session.GreetingDelay.Duration)

	cfg.Storage.Driver = envutil.String("INTERVIEW_STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Storage.DSN = envutil.String("INTERVIEW_DATABASE_DSN", envutil.String("DATABASE_URL", cfg.Storage.DSN))

	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Channel = envutil.String("REDIS_CHANNEL", cfg.Redis.Channel)

	cfg.Retrieval.QdrantURL = envutil.String("QDRANT_URL", cfg.Retrieval.QdrantURL)
	cfg.Retrieval.Collection = envutil.String("QDRANT_COLLECTION", cfg.Retrieval.Collection)
	cfg.Retrieval.VectorDim = envutil.Int("QDRANT_VECTOR_DIM", cfg.Retrieval.VectorDim)
	if cfg.Retrieval.QdrantURL != "" && (cfg.Retrieval.Provider == "" || cfg.Retrieval.Provider == "none") {
		cfg.Retrieval.Provider = "qdrant"
	}

	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	for i := range cfg.Models {
		if cfg.Models[i].Engine.APIKey == "" && apiKey != "" {
			cfg.Models[i].Engine.APIKey = apiKey
		}
	}
}

func normalize(cfg *Config) error {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "development"
	}
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.HTTP.MaxRequestBytes <= 0 {
		cfg.HTTP.MaxRequestBytes = 1 << 20
	}

	if len(cfg.Models) == 0 {
		return errors.New("config must define at least one model")
	}
	ids := map[string]bool{}
	for i := range cfg.Models {
		m := &cfg.Models[i]
		m.ID = strings.TrimSpace(m.ID)
		if m.ID == "" {
			return errors.New("model id is required")
		}
		if ids[m.ID] {
			return fmt.Errorf("duplicate model id: %s", m.ID)
		}
		ids[m.ID] = true
		if strings.TrimSpace(m.UpstreamModel) == "" {
			m.UpstreamModel = m.ID
		}
		if err := normalizeEngine(m); err != nil {
			return err
		}
	}

	first := cfg.Models[0].ID
	for _, p := range []*string{&cfg.Purposes.Reply, &cfg.Purposes.Coach, &cfg.Purposes.Embed} {
		*p = strings.TrimSpace(*p)
		if *p == "" {
			*p = first
		}
		if !ids[*p] {
			return fmt.Errorf("purpose references unknown model %q", *p)
		}
	}

	if cfg.Turn.ShortDelay.Duration <= 0 || cfg.Turn.LongDelay.Duration <= 0 {
		return errors.New("turn delays must be positive")
	}
	if cfg.Turn.ShortWordThreshold <= 0 {
		cfg.Turn.ShortWordThreshold = 2
	}
	if cfg.Turn.ReplyTimeout.Duration <= 0 {
		cfg.Turn.ReplyTimeout = D(30 * time.Second)
	}
	if cfg.Coach.InsightInterval.Duration < 0 {
		return errors.New("coach.insight_interval must not be negative")
	}
	if cfg.Coach.ReplayInsights <= 0 {
		cfg.Coach.ReplayInsights = 5
	}
	if cfg.Coach.QueueSize <= 0 {
		cfg.Coach.QueueSize = 64
	}
	if cfg.Coach.MaxInsightWords <= 0 {
		cfg.Coach.MaxInsightWords = 15
	}
	if cfg.Session.HistoryWindow <= 0 {
		cfg.Session.HistoryWindow = 6
	}
	if cfg.Session.TTL.Duration <= 0 {
		cfg.Session.TTL = D(24 * time.Hour)
	}

	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	switch cfg.Storage.Driver {
	case "", "none":
		cfg.Storage.Driver = "none"
	case "postgres", "sqlite":
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return fmt.Errorf("storage driver %q requires a dsn", cfg.Storage.Driver)
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}

	cfg.Retrieval.Provider = strings.ToLower(strings.TrimSpace(cfg.Retrieval.Provider))
	switch cfg.Retrieval.Provider {
	case "", "none":
		cfg.Retrieval.Provider = "none"
	case "qdrant":
		if cfg.Retrieval.QdrantURL == "" || cfg.Retrieval.Collection == "" {
			return errors.New("qdrant retrieval requires qdrant_url and collection")
		}
	default:
		return fmt.Errorf("unsupported retrieval provider %q", cfg.Retrieval.Provider)
	}
	if cfg.Retrieval.TopK <= 0 {
		cfg.Retrieval.TopK = 4
	}
	if cfg.Retrieval.MaxChars <= 0 {
		cfg.Retrieval.MaxChars = 1200
	}
	if strings.TrimSpace(cfg.Redis.Channel) == "" {
		cfg.Redis.Channel = "interview-events"
	}
	return nil
}

func normalizeEngine(m *ModelConfig) error {
	e := &m.Engine
	e.Type = strings.ToLower(strings.TrimSpace(e.Type))
	e.BaseURL = strings.TrimRight(strings.TrimSpace(e.BaseURL), "/")

	switch e.Type {
	case "":
		return fmt.Errorf("model %q missing engine.type", m.ID)
	case "mock":
		return nil
	case "openai":
		if e.Timeout.Duration <= 0 {
			e.Timeout = D(60 * time.Second)
		}
		return nil
	case "openai_http", "oai_http":
		e.Type = "oai_http"
	default:
		return fmt.Errorf("model %q has unsupported engine.type %q", m.ID, e.Type)
	}

	if e.BaseURL == "" {
		return fmt.Errorf("model %q (oai_http) missing engine.base_url", m.ID)
	}
	if e.ChatCompletionsPath == "" {
		e.ChatCompletionsPath = "/v1/chat/completions"
	}
	if e.EmbeddingsPath == "" {
		e.EmbeddingsPath = "/v1/embeddings"
	}
	if e.Timeout.Duration <= 0 {
		e.Timeout = D(60 * time.Second)
	}
	if e.Retries < 0 {
		return fmt.Errorf("model %q invalid engine.retries", m.ID)
	}
	if e.RetryBackoff.Duration <= 0 {
		e.RetryBackoff = D(200 * time.Millisecond)
	}

	e.JSONSchema.Mode = strings.ToLower(strings.TrimSpace(e.JSONSchema.Mode))
	switch e.JSONSchema.Mode {
	case "", "auto":
		e.JSONSchema.Mode = "auto"
	case "none", "guided_json", "prompt":
	default:
		return fmt.Errorf("model %q invalid engine.json_schema.mode=%q", m.ID, e.JSONSchema.Mode)
	}
	if e.JSONSchema.MaxRetries < 0 {
		return fmt.Errorf("model %q invalid engine.json_schema.max_retries", m.ID)
	}
	if e.JSONSchema.MaxRetries == 0 {
		e.JSONSchema.MaxRetries = 2
	}
	if e.JSONSchema.MaxPromptBytes <= 0 {
		e.JSONSchema.MaxPromptBytes = 64 << 10
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
