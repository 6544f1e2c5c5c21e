package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644), "无法写入临时配置文件")
	return configPath
}

// TestLoadConfigFromFileOnly_AppliesDefaults 验证未设置的字段会被填充默认值
func TestLoadConfigFromFileOnly_AppliesDefaults(t *testing.T) {
	configPath := writeTempConfig(t, `
server:
  address: ":9090"
catalog:
  source: file
  path: "testdata/careers.json"
recommend:
  max_top_n: 20
`)

	cfg, err := LoadConfigFromFileOnly(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "testdata/careers.json", cfg.Catalog.Path)
	assert.Equal(t, 3, cfg.Recommend.DefaultTopN, "默认 top_n 应为 3")
	assert.Equal(t, 20, cfg.Recommend.MaxTopN)
	assert.Equal(t, BackendMemory, cfg.Session.Store)
	assert.Equal(t, BackendMemory, cfg.Recommend.QueryCache)
	assert.Equal(t, 10, cfg.Catalog.BatchSize)
	assert.NotEmpty(t, cfg.Embedding.Model)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoadConfigFromFileOnly_IgnoresEnv(t *testing.T) {
	t.Setenv("EMBEDDING_MODEL", "env-model")
	configPath := writeTempConfig(t, `
embedding:
  model: "file-model"
`)

	cfg, err := LoadConfigFromFileOnly(configPath)
	require.NoError(t, err)
	assert.Equal(t, "file-model", cfg.Embedding.Model)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("EMBEDDING_MODEL", "env-model")
	t.Setenv("EMBEDDING_API_KEY", "sk-test")
	t.Setenv("CAREER_CATALOG_PATH", "/srv/careers.yaml")
	t.Setenv("CAREER_API_KEYS", "k1,k2")
	configPath := writeTempConfig(t, `
embedding:
  model: "file-model"
`)

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, "env-model", cfg.Embedding.Model)
	assert.Equal(t, "sk-test", cfg.Embedding.APIKey)
	assert.Equal(t, "/srv/careers.yaml", cfg.Catalog.Path)
	assert.Equal(t, []string{"k1", "k2"}, cfg.Auth.APIKeys)
}

func TestLoadConfigFromFileOnly_Errors(t *testing.T) {
	_, err := LoadConfigFromFileOnly("")
	assert.Error(t, err)

	_, err = LoadConfigFromFileOnly(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	badYAML := writeTempConfig(t, "server: [unterminated")
	_, err = LoadConfigFromFileOnly(badYAML)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"默认配置合法", func(c *Config) {}, false},
		{"default_top_n 为 0", func(c *Config) { c.Recommend.DefaultTopN = 0 }, true},
		{"max_top_n 小于默认值", func(c *Config) { c.Recommend.MaxTopN = 1 }, true},
		{"未知数据源", func(c *Config) { c.Catalog.Source = "s3" }, true},
		{"file 数据源缺少路径", func(c *Config) { c.Catalog.Path = "" }, true},
		{"mysql 数据源", func(c *Config) { c.Catalog.Source = CatalogSourceMySQL; c.Catalog.Path = "" }, false},
		{"redis 会话未启用 redis", func(c *Config) { c.Session.Store = BackendRedis }, true},
		{"redis 会话且启用 redis", func(c *Config) { c.Session.Store = BackendRedis; c.Redis.Enabled = true }, false},
		{"未知查询缓存", func(c *Config) { c.Recommend.QueryCache = "disk" }, true},
		{"关闭查询缓存", func(c *Config) { c.Recommend.QueryCache = "none" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := createDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMySQLDSN(t *testing.T) {
	c := MySQLConfig{Host: "db", Port: 3307, Username: "u", Password: "p", Database: "careers"}
	assert.Equal(t, "u:p@tcp(db:3307)/careers?charset=utf8mb4&parseTime=True&loc=Local&timeout=10s", c.MySQLDSN())
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 5*time.Second, GetDuration("5s", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("five", time.Minute))
}

func TestCreateSampleConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.yaml")
	require.NoError(t, CreateSampleConfig(path))

	cfg, err := LoadConfigFromFileOnly(path)
	require.NoError(t, err)
	assert.Equal(t, "data/careers.json", cfg.Catalog.Path)

	assert.Error(t, CreateSampleConfig(path), "已存在的文件不应被覆盖")
}
