package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"career-guide-go/internal/constants"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// 目录数据源类型
const (
	CatalogSourceFile  = "file"
	CatalogSourceMySQL = "mysql"
)

// 会话/缓存后端类型
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// RedisConfig holds configuration for Redis
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// 连接池设置
	PoolSize     int `yaml:"pool_size"`      // 连接池大小
	MinIdleConns int `yaml:"min_idle_conns"` // 最小空闲连接数
	// 超时设置
	DialTimeoutSeconds  int `yaml:"dial_timeout_seconds"`  // 连接超时(秒)
	ReadTimeoutSeconds  int `yaml:"read_timeout_seconds"`  // 读取超时(秒)
	WriteTimeoutSeconds int `yaml:"write_timeout_seconds"` // 写入超时(秒)
	// 重试设置
	MaxRetries        int `yaml:"max_retries"`          // 最大重试次数
	MinRetryBackoffMS int `yaml:"min_retry_backoff_ms"` // 最小重试间隔(毫秒)
	MaxRetryBackoffMS int `yaml:"max_retry_backoff_ms"` // 最大重试间隔(毫秒)
	// 连接生命周期
	ConnMaxLifetimeMinutes int `yaml:"conn_max_lifetime_minutes"`  // 连接最大生命周期(分钟)
	ConnMaxIdleTimeMinutes int `yaml:"conn_max_idle_time_minutes"` // 空闲连接最大生命周期(分钟)
}

// Config 应用程序配置
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logger    LoggerConfig    `yaml:"logger"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Recommend RecommendConfig `yaml:"recommend"`
	Session   SessionConfig   `yaml:"session"`
	Redis     RedisConfig     `yaml:"redis"`
	MySQL     MySQLConfig     `yaml:"mysql"`
	MinIO     MinIOConfig     `yaml:"minio"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Auth      AuthConfig      `yaml:"auth"`
}

// EmbeddingConfig OpenAI 兼容的向量化接口配置
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	Timeout    string `yaml:"timeout"` // 例如 "30s"
}

// CatalogConfig 职业目录配置
type CatalogConfig struct {
	Source       string `yaml:"source"`        // file 或 mysql
	Path         string `yaml:"path"`          // JSON/YAML 数据文件
	BatchSize    int    `yaml:"batch_size"`    // 每批向量化的记录数
	SnapshotPath string `yaml:"snapshot_path"` // 向量快照文件，空表示不使用文件快照
	// SnapshotInMySQL 为 true 时向量快照存入 MySQL
	SnapshotInMySQL bool `yaml:"snapshot_in_mysql"`
}

// RecommendConfig 推荐参数
type RecommendConfig struct {
	DefaultTopN int `yaml:"default_top_n"`
	MaxTopN     int `yaml:"max_top_n"`
	// QueryCache 查询向量缓存: memory, redis 或 none
	QueryCache    string `yaml:"query_cache"`
	QueryCacheTTL string `yaml:"query_cache_ttl"`
}

// SessionConfig 收藏会话配置
type SessionConfig struct {
	Store string `yaml:"store"` // memory 或 redis
	TTL   string `yaml:"ttl"`
}

// MinIOConfig MinIO配置结构
type MinIOConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"accessKeyID"`
	SecretAccessKey string `yaml:"secretAccessKey"`
	UseSSL          bool   `yaml:"useSSL"`
	ReportsBucket   string `yaml:"reportsBucket"`
	Location        string `yaml:"location"` // 可选，存储桶区域
	// 报告过期天数，用于生命周期规则
	ReportExpireDays int `yaml:"report_expire_days"`
	// 预签名链接有效期
	PresignExpiry string `yaml:"presign_expiry"`
}

// MySQLConfig MySQL配置结构
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	// 连接池设置
	MaxIdleConns int `yaml:"max_idle_conns"` // 最大空闲连接数
	MaxOpenConns int `yaml:"max_open_conns"` // 最大打开连接数
	// 连接生命周期
	ConnMaxLifetimeMinutes int `yaml:"conn_max_lifetime_minutes"`  // 连接最大生命周期(分钟)
	ConnMaxIdleTimeMinutes int `yaml:"conn_max_idle_time_minutes"` // 空闲连接最大生命周期(分钟)
	// 超时设置
	ConnectTimeoutSeconds int `yaml:"connect_timeout_seconds"` // 连接超时(秒)
	ReadTimeoutSeconds    int `yaml:"read_timeout_seconds"`    // 读取超时(秒)
	WriteTimeoutSeconds   int `yaml:"write_timeout_seconds"`   // 写入超时(秒)
	// 日志设置
	LogLevel int `yaml:"log_level"` // 日志级别(1-4)
}

// ServerConfig 定义服务器配置
type ServerConfig struct {
	Address         string `yaml:"address"` // 例如 ":8080" or "0.0.0.0:8080"
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// TracingConfig OpenTelemetry 配置
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ServiceName  string  `yaml:"service_name"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"` // 例如 "localhost:4317"
	SampleRatio  float64 `yaml:"sample_ratio"`
}

// AuthConfig API 鉴权配置，APIKeys 为空时不启用
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level        string `yaml:"level"`         // debug, info, warn, error
	Format       string `yaml:"format"`        // json, pretty
	TimeFormat   string `yaml:"time_format"`   // 时间格式
	ReportCaller bool   `yaml:"report_caller"` // 是否报告调用位置
}

// LoadConfig 从文件加载配置，并使用 .env 与环境变量覆盖
func LoadConfig(configPath string) (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	if configPath == "" {
		configPath = findConfigFile()
	}
	if configPath == "" {
		cfg := createDefaultConfig()
		applyEnvOverrides(cfg)
		return cfg, cfg.Validate()
	}

	cfg, err := readConfigFile(configPath)
	if err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigFromFileOnly 从文件加载配置，不尝试从环境变量覆盖
func LoadConfigFromFileOnly(configPath string) (*Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("必须提供配置文件路径")
	}

	cfg, err := readConfigFile(configPath)
	if err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验配置中的取值范围
func (c *Config) Validate() error {
	if c.Recommend.DefaultTopN < 1 {
		return fmt.Errorf("recommend.default_top_n 必须大于 0，当前为 %d", c.Recommend.DefaultTopN)
	}
	if c.Recommend.MaxTopN < c.Recommend.DefaultTopN {
		return fmt.Errorf("recommend.max_top_n(%d) 不能小于 default_top_n(%d)",
			c.Recommend.MaxTopN, c.Recommend.DefaultTopN)
	}
	switch c.Catalog.Source {
	case CatalogSourceFile:
		if c.Catalog.Path == "" {
			return fmt.Errorf("catalog.source 为 file 时必须配置 catalog.path")
		}
	case CatalogSourceMySQL:
	default:
		return fmt.Errorf("未知的目录数据源类型: %q", c.Catalog.Source)
	}
	switch c.Session.Store {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("未知的会话存储类型: %q", c.Session.Store)
	}
	switch c.Recommend.QueryCache {
	case BackendMemory, BackendRedis, "none":
	default:
		return fmt.Errorf("未知的查询缓存类型: %q", c.Recommend.QueryCache)
	}
	if (c.Session.Store == BackendRedis || c.Recommend.QueryCache == BackendRedis) && !c.Redis.Enabled {
		return fmt.Errorf("使用 redis 会话或缓存时必须启用 redis")
	}
	return nil
}

// MySQLDSN 生成 gorm mysql 驱动使用的 DSN
func (c *MySQLConfig) MySQLDSN() string {
	timeout := c.ConnectTimeoutSeconds
	if timeout <= 0 {
		timeout = 10
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds",
		c.Username, c.Password, c.Host, c.Port, c.Database, timeout)
}

func readConfigFile(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("配置文件不存在: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	return &cfg, nil
}

// findConfigFile 在常见位置查找配置文件，找不到时返回空字符串
func findConfigFile() string {
	searchPaths := []string{
		"config.yaml",
		"configs/config.yaml",
		"../config.yaml",
		"../../config.yaml",
		filepath.Join(os.Getenv("HOME"), ".career-guide", "config.yaml"),
	}
	if execPath, err := os.Executable(); err == nil {
		execDir := filepath.Dir(execPath)
		searchPaths = append(searchPaths,
			filepath.Join(execDir, "config.yaml"),
			filepath.Join(execDir, "..", "config.yaml"))
	}
	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// applyEnvOverrides 从环境变量覆盖配置（如果存在）
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("EMBEDDING_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv("EMBEDDING_BASE_URL"); v != "" {
		cfg.Embedding.BaseURL = v
	}
	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("CAREER_CATALOG_PATH"); v != "" {
		cfg.Catalog.Path = v
	}
	if v := os.Getenv("REDIS_ADDRESS"); v != "" {
		cfg.Redis.Address = v
	}
	if v := os.Getenv("CAREER_API_KEYS"); v != "" {
		cfg.Auth.APIKeys = strings.Split(v, ",")
	}
}

// applyDefaults 为未设置的字段填充默认值
func applyDefaults(cfg *Config) {
	def := createDefaultConfig()

	if cfg.Server.Address == "" {
		cfg.Server.Address = def.Server.Address
	}
	if cfg.Server.ShutdownTimeout == "" {
		cfg.Server.ShutdownTimeout = def.Server.ShutdownTimeout
	}
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = def.Logger.Level
	}
	if cfg.Logger.Format == "" {
		cfg.Logger.Format = def.Logger.Format
	}
	if cfg.Logger.TimeFormat == "" {
		cfg.Logger.TimeFormat = def.Logger.TimeFormat
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = def.Embedding.BaseURL
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = def.Embedding.Model
	}
	if cfg.Embedding.Timeout == "" {
		cfg.Embedding.Timeout = def.Embedding.Timeout
	}
	if cfg.Catalog.Source == "" {
		cfg.Catalog.Source = def.Catalog.Source
	}
	if cfg.Catalog.Source == CatalogSourceFile && cfg.Catalog.Path == "" {
		cfg.Catalog.Path = def.Catalog.Path
	}
	if cfg.Catalog.BatchSize <= 0 {
		cfg.Catalog.BatchSize = def.Catalog.BatchSize
	}
	if cfg.Recommend.DefaultTopN == 0 {
		cfg.Recommend.DefaultTopN = def.Recommend.DefaultTopN
	}
	if cfg.Recommend.MaxTopN == 0 {
		cfg.Recommend.MaxTopN = def.Recommend.MaxTopN
	}
	if cfg.Recommend.QueryCache == "" {
		cfg.Recommend.QueryCache = def.Recommend.QueryCache
	}
	if cfg.Recommend.QueryCacheTTL == "" {
		cfg.Recommend.QueryCacheTTL = def.Recommend.QueryCacheTTL
	}
	if cfg.Session.Store == "" {
		cfg.Session.Store = def.Session.Store
	}
	if cfg.Session.TTL == "" {
		cfg.Session.TTL = def.Session.TTL
	}
	if cfg.MinIO.ReportsBucket == "" {
		cfg.MinIO.ReportsBucket = def.MinIO.ReportsBucket
	}
	if cfg.MinIO.PresignExpiry == "" {
		cfg.MinIO.PresignExpiry = def.MinIO.PresignExpiry
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = def.Tracing.ServiceName
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = def.Tracing.SampleRatio
	}
}

// 创建一个默认配置，用于测试环境或无配置文件启动
func createDefaultConfig() *Config {
	config := &Config{}

	config.Server.Address = ":8080"
	config.Server.ShutdownTimeout = "10s"

	config.Logger.Level = "info"
	config.Logger.Format = "pretty" // 开发环境默认使用美化输出
	config.Logger.TimeFormat = "2006-01-02 15:04:05"
	config.Logger.ReportCaller = false

	config.Embedding.BaseURL = "https://api.openai.com/v1/embeddings"
	config.Embedding.Model = "text-embedding-3-small"
	config.Embedding.Timeout = "30s"

	config.Catalog.Source = CatalogSourceFile
	config.Catalog.Path = "data/careers.json"
	config.Catalog.BatchSize = constants.DefaultEmbeddingBatchSize

	config.Recommend.DefaultTopN = constants.DefaultTopN
	config.Recommend.MaxTopN = constants.DefaultMaxTopN
	config.Recommend.QueryCache = BackendMemory
	config.Recommend.QueryCacheTTL = constants.QueryVectorCacheDuration.String()

	config.Session.Store = BackendMemory
	config.Session.TTL = constants.SessionDuration.String()

	// Redis默认配置
	config.Redis.Address = "localhost:6379"
	config.Redis.PoolSize = 10
	config.Redis.MinIdleConns = 2
	config.Redis.DialTimeoutSeconds = 5
	config.Redis.ReadTimeoutSeconds = 3
	config.Redis.WriteTimeoutSeconds = 3
	config.Redis.MaxRetries = 3
	config.Redis.MinRetryBackoffMS = 8
	config.Redis.MaxRetryBackoffMS = 512
	config.Redis.ConnMaxLifetimeMinutes = 60
	config.Redis.ConnMaxIdleTimeMinutes = 30

	// MySQL默认配置
	config.MySQL.Host = "localhost"
	config.MySQL.Port = 3306
	config.MySQL.Username = "root"
	config.MySQL.Database = "career_guide"
	config.MySQL.MaxIdleConns = 10
	config.MySQL.MaxOpenConns = 50
	config.MySQL.ConnMaxLifetimeMinutes = 60
	config.MySQL.ConnMaxIdleTimeMinutes = 30
	config.MySQL.ConnectTimeoutSeconds = 10
	config.MySQL.ReadTimeoutSeconds = 30
	config.MySQL.WriteTimeoutSeconds = 30
	config.MySQL.LogLevel = 2 // Error级别

	// MinIO默认配置
	config.MinIO.Endpoint = "localhost:9000"
	config.MinIO.AccessKeyID = "minioadmin"
	config.MinIO.SecretAccessKey = "minioadmin"
	config.MinIO.ReportsBucket = "career-reports"
	config.MinIO.ReportExpireDays = 30
	config.MinIO.PresignExpiry = "24h"

	config.Tracing.ServiceName = "career-guide-go"
	config.Tracing.OTLPEndpoint = "localhost:4317"
	config.Tracing.SampleRatio = 1.0

	return config
}

// CreateSampleConfig 创建一个示例配置文件
func CreateSampleConfig(filePath string) error {
	if _, err := os.Stat(filePath); err == nil {
		return fmt.Errorf("文件 '%s' 已存在，不会覆盖", filePath)
	}

	data, err := yaml.Marshal(createDefaultConfig())
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("写入示例配置文件 '%s' 失败: %w", filePath, err)
	}
	return nil
}

// GetDuration utility to parse duration strings from config
func GetDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	if durationStr == "" {
		return defaultDuration
	}
	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return defaultDuration
	}
	return d
}
