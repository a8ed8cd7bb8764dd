package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 应用总配置，按环境加载
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	LLM      LLMConfig      `yaml:"llm"`
	Mediator MediatorConfig `yaml:"mediator"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port         int      `yaml:"port"`
	Mode         string   `yaml:"mode"`         // debug, release, test
	CORSOrigins  []string `yaml:"cors_origins"` // 为空时允许所有来源
	MaxBodyBytes int64    `yaml:"max_body_bytes"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"` // gemini, openai, ollama
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	// Timeout 单次请求的模型调用总时长（含重试）
	Timeout              time.Duration `yaml:"timeout"`
	MaxRetries           int           `yaml:"max_retries"`
	RetryInitialInterval time.Duration `yaml:"retry_initial_interval"`
	RetryMaxInterval     time.Duration `yaml:"retry_max_interval"`
	// RatePerSecond <=0 不限流
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
	Temperature   float32 `yaml:"temperature"`
	ForceJSON     bool    `yaml:"force_json"`
}

type MediatorConfig struct {
	Strict        bool   `yaml:"strict"`
	MaxActions    int    `yaml:"max_actions"`
	Apology       string `yaml:"apology"`
	Clarification string `yaml:"clarification"`
}

type LogConfig struct {
	Level      string `yaml:"level"`  // debug, info, warn, error
	Format     string `yaml:"format"` // json, console
	File       string `yaml:"file"`   // 为空时只写 stdout
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

const (
	defaultPort         = 8080
	defaultMaxBodyBytes = 64 << 10
	defaultTimeout      = 20 * time.Second
)

// Env 返回当前环境名，默认 local
func Env() string {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	return "local"
}

// Load 根据环境变量 APP_ENV 加载对应配置文件
// 支持: local, dev, prod，默认 local
func Load() (*Config, error) {
	return LoadFile(fmt.Sprintf("config/%s.yaml", Env()))
}

// LoadFile 从指定路径加载配置，依次应用环境变量覆盖、默认值与校验
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse 解析 YAML 配置
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// 允许环境变量覆盖敏感配置
	if err := overrideFromEnv(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func overrideFromEnv(c *Config) error {
	// GEMINI_API_KEY 兼容旧部署，LLM_API_KEY 优先
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("GIN_MODE"); v != "" {
		c.Server.Mode = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = defaultMaxBodyBytes
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "gemini"
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = defaultTimeout
	}
	if c.LLM.RetryInitialInterval == 0 {
		c.LLM.RetryInitialInterval = 500 * time.Millisecond
	}
	if c.LLM.RetryMaxInterval == 0 {
		c.LLM.RetryMaxInterval = 2 * time.Second
	}
	if c.LLM.RatePerSecond > 0 && c.LLM.Burst <= 0 {
		c.LLM.Burst = 1
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("unknown server.mode %q", c.Server.Mode))
	}
	switch c.LLM.Provider {
	case "gemini", "openai":
		if c.LLM.APIKey == "" {
			errs = append(errs, fmt.Errorf("llm.api_key is required for provider %q", c.LLM.Provider))
		}
	case "ollama":
	default:
		errs = append(errs, fmt.Errorf("unknown llm.provider %q", c.LLM.Provider))
	}
	if c.LLM.Timeout < 0 {
		errs = append(errs, errors.New("llm.timeout must not be negative"))
	}
	if c.LLM.MaxRetries < 0 {
		errs = append(errs, errors.New("llm.max_retries must not be negative"))
	}
	if c.LLM.RetryInitialInterval < 0 || c.LLM.RetryMaxInterval < 0 {
		errs = append(errs, errors.New("llm retry intervals must not be negative"))
	}
	if c.Mediator.MaxActions < 0 {
		errs = append(errs, errors.New("mediator.max_actions must not be negative"))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("unknown log.format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
