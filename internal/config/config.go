package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// 与原前端保持一致的默认值
const (
	DefaultBaseURL            = "http://localhost:5000"
	DefaultPageSize           = 25
	DefaultDuplicateMinLength = 10
	DefaultDuplicateDebounce  = 400 * time.Millisecond
	DefaultMaxImageBytes      = 500 * 1024
	DefaultSessionKeyPrefix   = "research-admin:session:"
	DefaultMetricsListen      = "127.0.0.1:9464"
)

// Load 加载配置
// 1. 加载 .env.{env}（敏感信息）
// 2. 根据 APP_ENV 加载 common.yaml + {env}.yaml
// 3. 环境变量覆盖
func Load() *Config {
	env := parseEnv(getEnv("APP_ENV", "dev"))
	loadEnvFiles(env)

	yamlCfg := loadYAMLConfig(env)
	cfg := &Config{
		Env:            env,
		API:            yamlCfg.API,
		Session:        yamlCfg.Session,
		Redis:          yamlCfg.Redis,
		Console:        yamlCfg.Console,
		MinIO:          yamlCfg.MinIO,
		Metrics:        yamlCfg.Metrics,
		Log:            yamlCfg.Log,
		ConfigFilePath: yamlCfg.loadedFrom,
	}
	cfg.applyEnv()
	cfg.validate()
	return cfg
}

// defaultYAMLConfig 硬编码默认值
func defaultYAMLConfig() YAMLConfig {
	return YAMLConfig{
		API: APIConfig{BaseURL: DefaultBaseURL},
		Session: SessionConfig{
			Driver:    SessionDriverFile,
			Path:      defaultSessionPath(),
			KeyPrefix: DefaultSessionKeyPrefix,
		},
		Redis: RedisConfig{URL: "redis://localhost:6379/0"},
		Console: ConsoleConfig{
			PageSize:           DefaultPageSize,
			DuplicateMinLength: DefaultDuplicateMinLength,
			DuplicateDebounce:  DefaultDuplicateDebounce,
			MaxImageBytes:      DefaultMaxImageBytes,
		},
		MinIO:   MinIOConfig{Endpoint: "", Bucket: "research-screenshots"},
		Metrics: MetricsConfig{Enabled: false, Listen: DefaultMetricsListen},
		Log:     LogConfig{Level: "warn", Format: "text", Output: "stderr"},
	}
}

// loadYAMLConfig 加载 YAML 配置文件
// 加载顺序：默认值 → common.yaml → {env}.yaml
func loadYAMLConfig(env Environment) *yamlConfigInternal {
	cfg := &yamlConfigInternal{YAMLConfig: defaultYAMLConfig()}

	for _, base := range effectiveConfigPaths(env) {
		path := filepath.Join(base, "common.yaml")
		if data, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(data, &cfg.YAMLConfig); err != nil {
				fmt.Fprintf(os.Stderr, "config: ignoring malformed %s: %v\n", path, err)
			}
			break
		}
	}

	filename := ConfigFileNameFor(env)
	for _, base := range effectiveConfigPaths(env) {
		path := filepath.Join(base, filename)
		if data, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(data, &cfg.YAMLConfig); err != nil {
				fmt.Fprintf(os.Stderr, "config: ignoring malformed %s: %v\n", path, err)
				break
			}
			cfg.loadedFrom = path
			break
		}
	}

	return cfg
}

// applyEnv 环境变量覆盖 YAML
func (c *Config) applyEnv() {
	c.API.BaseURL = getEnv("API_BASE_URL", c.API.BaseURL)
	if v := os.Getenv("API_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.API.Timeout = d
		}
	}

	c.Session.Driver = strings.ToLower(getEnv("SESSION_DRIVER", c.Session.Driver))
	c.Session.Path = getEnv("SESSION_PATH", c.Session.Path)
	c.Session.Secret = os.Getenv("SESSION_SECRET")

	c.Redis.URL = getEnv("REDIS_URL", c.Redis.URL)
	c.Redis.Password = os.Getenv("REDIS_PASSWORD")

	c.MinIO.Endpoint = getEnv("MINIO_ENDPOINT", c.MinIO.Endpoint)
	c.MinIO.AccessKey = os.Getenv("MINIO_ROOT_USER")
	c.MinIO.SecretKey = os.Getenv("MINIO_ROOT_PASSWORD")

	if v := os.Getenv("METRICS_LISTEN"); v != "" {
		c.Metrics.Listen = v
		c.Metrics.Enabled = true
	}
	if v := os.Getenv("PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Console.PageSize = n
		}
	}

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

// validate 验证并填充默认值
func (c *Config) validate() {
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.Timeout < 0 {
		c.API.Timeout = 0
	}

	switch c.Session.Driver {
	case SessionDriverFile, SessionDriverSQLite, SessionDriverRedis, SessionDriverMemory:
	default:
		c.Session.Driver = SessionDriverFile
	}
	if c.Session.Path == "" {
		c.Session.Path = defaultSessionPath()
	}
	if c.Session.KeyPrefix == "" {
		c.Session.KeyPrefix = DefaultSessionKeyPrefix
	}

	// 页大小只允许 10/25/50
	switch c.Console.PageSize {
	case 10, 25, 50:
	default:
		c.Console.PageSize = DefaultPageSize
	}
	if c.Console.DuplicateMinLength <= 0 {
		c.Console.DuplicateMinLength = DefaultDuplicateMinLength
	}
	if c.Console.DuplicateDebounce <= 0 {
		c.Console.DuplicateDebounce = DefaultDuplicateDebounce
	}
	if c.Console.MaxImageBytes <= 0 {
		c.Console.MaxImageBytes = DefaultMaxImageBytes
	}

	if c.Metrics.Listen == "" {
		c.Metrics.Listen = DefaultMetricsListen
	}
}

// defaultSessionPath 默认会话文件位于用户配置目录
func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "research-admin", "session.json")
}

func parseEnv(env string) Environment {
	switch strings.ToLower(env) {
	case "test":
		return EnvTest
	case "prod", "production":
		return EnvProduction
	default:
		return EnvDevelopment
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsTest 是否为测试环境
func (c *Config) IsTest() bool {
	return c.Env == EnvTest
}

// String 返回配置摘要（隐藏密码）
func (c *Config) String() string {
	return fmt.Sprintf("Config{Env: %s, API: %s, Session: %s(%s), Redis: %s, MinIO: %s}",
		c.Env, c.API.BaseURL, c.Session.Driver, c.sessionTarget(), maskPassword(c.Redis.URL), c.MinIO.Endpoint)
}

func (c *Config) sessionTarget() string {
	if c.Session.Driver == SessionDriverRedis {
		return c.Session.KeyPrefix
	}
	return c.Session.Path
}

// maskPassword 隐藏密码
func maskPassword(url string) string {
	re := regexp.MustCompile(`(://[^:]*:)([^@]+)(@)`)
	return re.ReplaceAllString(url, "${1}***${3}")
}
