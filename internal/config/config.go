package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gorm.io/gorm/logger"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`   // 服务器配置
	Database DatabaseConfig `mapstructure:"database"` // PostgreSQL配置
	Log      LogConfig      `mapstructure:"log"`      // 日志配置
	Circuit  CircuitConfig  `mapstructure:"circuit"`  // 锦标赛结算配置
	Notify   NotifyConfig   `mapstructure:"notify"`   // 通知 webhook 配置
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port  int    `mapstructure:"port"`  // 服务端口
	Mode  string `mapstructure:"mode"`  // Gin运行模式：debug/release/test
	Pprof bool   `mapstructure:"pprof"` // 是否注册 pprof 路由
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`               // 连接DSN（URL 形式）
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
	LogLevel        string        `mapstructure:"log_level"`         // GORM日志级别：silent/error/warn/info
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug/info/warn/error
	Format string `mapstructure:"format"` // text/json
}

// CircuitConfig 锦标赛结算配置
type CircuitConfig struct {
	StartingBalance string        `mapstructure:"starting_balance"` // 新用户初始余额
	CurrencyScale   int32         `mapstructure:"currency_scale"`   // 货币小数位
	WatchInterval   time.Duration `mapstructure:"watch_interval"`   // 完成检测间隔，0 表示不启动
	AutoComplete    bool          `mapstructure:"auto_complete"`    // 唯一领先者时自动结算
}

// NotifyConfig 通知 webhook（为空则只写站内通知）
type NotifyConfig struct {
	WebhookURL string `mapstructure:"webhook_url"` // 推送地址
	Token      string `mapstructure:"token"`       // Bearer Token
	Timeout    int    `mapstructure:"timeout"`     // 请求超时（秒）
	Proxy      string `mapstructure:"proxy"`       // 代理地址
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	return LoadConfigFrom("./config")
}

// LoadConfigFrom 从指定目录加载 config.yaml
func LoadConfigFrom(dir string) (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 读取 config.yaml
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	v.SetTypeByDefaultValue(true)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	if _, err := cfg.Circuit.StartingBalanceDecimal(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.pprof", false)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("circuit.starting_balance", "1000.00")
	v.SetDefault("circuit.currency_scale", 2)
	v.SetDefault("circuit.watch_interval", time.Minute)
	v.SetDefault("circuit.auto_complete", false)
	v.SetDefault("notify.timeout", 10)
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("NOTIFY_WEBHOOK_URL"); v != "" {
		cfg.Notify.WebhookURL = v
	}
	if v := os.Getenv("NOTIFY_WEBHOOK_TOKEN"); v != "" {
		cfg.Notify.Token = v
	}
	if v := os.Getenv("NOTIFY_PROXY"); v != "" {
		cfg.Notify.Proxy = v
	}
}

// StartingBalanceDecimal 初始余额
func (c *CircuitConfig) StartingBalanceDecimal() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(c.StartingBalance))
	if err != nil {
		return decimal.Zero, fmt.Errorf("circuit.starting_balance 非法: %w", err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("circuit.starting_balance 不能为负: %s", d.String())
	}
	return d, nil
}

// LogrusLevel 解析日志级别，非法时回退到 info
func (l *LogConfig) LogrusLevel() logrus.Level {
	lvl, err := logrus.ParseLevel(l.Level)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// GormLogLevel 获取 GORM 日志级别
func (d *DatabaseConfig) GormLogLevel() logger.LogLevel {
	switch strings.ToLower(d.LogLevel) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
