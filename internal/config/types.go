// Package config 统一配置管理
//
// 配置加载优先级（高→低）：
//  1. 环境变量（通过 .env 文件或 shell 注入）
//  2. YAML 配置文件（common.yaml → {env}.yaml）
//  3. 代码硬编码默认值
//
// 凭据单一数据源：
//
//	SESSION_SECRET / REDIS_PASSWORD / MINIO_ROOT_* 只存在 .env 或环境变量中，
//	YAML 中不存储任何密钥。
//
// 配置路径确定策略：
//  1. -config 命令行参数（SetConfigDir）
//  2. CONFIG_DIR 环境变量
//  3. 按 APP_ENV 选择默认路径：
//     - prod → /etc/research-admin/
//     - dev/test → ./configs/
package config

import "time"

// Environment 环境类型
type Environment string

const (
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
	EnvDevelopment Environment = "dev"
)

// 会话存储驱动
const (
	SessionDriverFile   = "file"
	SessionDriverSQLite = "sqlite"
	SessionDriverRedis  = "redis"
	SessionDriverMemory = "memory"
)

// YAMLConfig YAML 配置文件结构
type YAMLConfig struct {
	API     APIConfig     `yaml:"api"`
	Session SessionConfig `yaml:"session"`
	Redis   RedisConfig   `yaml:"redis"`
	Console ConsoleConfig `yaml:"console"`
	MinIO   MinIOConfig   `yaml:"minio"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

// APIConfig 后端 REST API 配置
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"` // 0 表示使用传输层默认值
}

// SessionConfig 本地会话持久化配置（token + user 快照）
type SessionConfig struct {
	Driver    string `yaml:"driver"`     // file | sqlite | redis | memory
	Path      string `yaml:"path"`       // file/sqlite 路径
	KeyPrefix string `yaml:"key_prefix"` // redis 键前缀
	Secret    string `yaml:"-"`          // 只从 SESSION_SECRET 环境变量读取
}

// RedisConfig Redis 连接（session.driver=redis 时使用）
type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"-"` // 只从 REDIS_PASSWORD 环境变量读取
}

// ConsoleConfig 列表、查重、上传等前端规则参数
type ConsoleConfig struct {
	PageSize           int           `yaml:"page_size"`
	DuplicateMinLength int           `yaml:"duplicate_min_length"`
	DuplicateDebounce  time.Duration `yaml:"duplicate_debounce"`
	MaxImageBytes      int64         `yaml:"max_image_bytes"`
}

// MinIOConfig MinIO 对象存储配置（截图来源）
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"-"` // 只从 MINIO_ROOT_USER 环境变量读取
	SecretKey string `yaml:"-"` // 只从 MINIO_ROOT_PASSWORD 环境变量读取
	UseSSL    bool   `yaml:"use_ssl"`
	Bucket    string `yaml:"bucket"`
}

// MetricsConfig Prometheus 指标导出
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Config 应用配置（最终使用的配置）
type Config struct {
	Env            Environment
	API            APIConfig
	Session        SessionConfig
	Redis          RedisConfig
	Console        ConsoleConfig
	MinIO          MinIOConfig
	Metrics        MetricsConfig
	Log            LogConfig
	ConfigFilePath string // 实际加载的配置文件路径
}

// yamlConfigInternal 内部包装，记录配置文件来源（不参与 YAML 序列化）
type yamlConfigInternal struct {
	YAMLConfig `yaml:",inline"`
	loadedFrom string
}
