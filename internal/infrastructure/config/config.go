package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig      `mapstructure:"app"`
	Server      ServerConfig   `mapstructure:"server"`
	Backend     BackendConfig  `mapstructure:"backend"`
	Keystore    KeystoreConfig `mapstructure:"keystore"`
	DedupWindow time.Duration  `mapstructure:"dedup_window"`
	LogLevel    string         `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env      string `mapstructure:"env"`
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
	Version  string `mapstructure:"version"`
	Name     string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// BackendConfig 菜單排程後端配置
type BackendConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	AdminKey string        `mapstructure:"admin_key"` // 啟動時預載的管理金鑰（可為空，由操作者之後設定）
}

// KeystoreConfig 管理金鑰儲存槽配置
type KeystoreConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// 加載 .env 文件
	if err := godotenv.Load(); err != nil {
		if !strings.Contains(err.Error(), "no such file") {
			return nil, err
		}
	}

	// 設定預設值
	setDefaults()

	// 設定環境變數前綴
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 綁定環境變量
	viper.BindEnv("backend.base_url", "MENU_BACKEND_URL")
	viper.BindEnv("backend.timeout", "MENU_BACKEND_TIMEOUT")
	viper.BindEnv("backend.admin_key", "MENU_ADMIN_KEY")
	viper.BindEnv("keystore.enabled", "KEYSTORE_ENABLED")
	viper.BindEnv("keystore.addr", "KEYSTORE_ADDR")
	viper.BindEnv("dedup_window", "DEDUP_WINDOW")
	viper.BindEnv("log_level", "LOG_LEVEL")

	// 設定設定檔名稱和路徑
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	// 讀取設定檔
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 解析設定
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// MaskKey 遮罩金鑰，只顯示前後各 4 個字符
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults() {
	// 應用程式設定
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.debug", true)
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.name", "menu-console")

	// 伺服器設定
	viper.SetDefault("server.port", 8090)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	// 後端設定
	viper.SetDefault("backend.base_url", "http://localhost:8000")
	viper.SetDefault("backend.timeout", "60s")
	viper.SetDefault("backend.admin_key", "")

	// 金鑰儲存槽設定
	viper.SetDefault("keystore.enabled", false)
	viper.SetDefault("keystore.addr", "localhost:6379")

	// 排程/匯出防重複觸發視窗
	viper.SetDefault("dedup_window", "1s")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	// 驗證後端設定
	if config.Backend.BaseURL == "" {
		return fmt.Errorf("backend base url is required")
	}
	if config.Backend.Timeout <= 0 {
		return fmt.Errorf("invalid backend timeout")
	}

	// 驗證金鑰儲存槽設定
	if config.Keystore.Enabled && config.Keystore.Addr == "" {
		return fmt.Errorf("keystore addr is required when enabled")
	}

	return nil
}
