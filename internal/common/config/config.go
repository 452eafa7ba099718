package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Redis     RedisConfig     `json:"redis"`
	RabbitMQ  RabbitMQConfig  `json:"rabbitmq"`
	Consul    ConsulConfig    `json:"consul"`
	Jaeger    JaegerConfig    `json:"jaeger"`
	Auth      AuthConfig      `json:"auth"`
	Telemetry TelemetryConfig `json:"telemetry"`
	Log       LogConfig       `json:"log"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	Name     string `json:"name"`      // 服务名称
	Host     string `json:"host"`      // 监听地址
	HTTPPort int    `json:"http_port"` // HTTP端口
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver   string `json:"driver"`   // 数据库驱动
	Host     string `json:"host"`     // 数据库地址
	Port     int    `json:"port"`     // 数据库端口
	User     string `json:"user"`     // 用户名
	Password string `json:"password"` // 密码
	Database string `json:"database"` // 数据库名
	MaxIdle  int    `json:"max_idle"` // 最大空闲连接
	MaxOpen  int    `json:"max_open"` // 最大打开连接
}

// RedisConfig Redis配置（车辆最新快照缓存 + 跨实例发布）
type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

// RabbitMQConfig 遥测事件外发（可选，host 为空则不启用）
type RabbitMQConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Exchange string `json:"exchange"` // topic exchange 名称
}

// ConsulConfig Consul配置
type ConsulConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// JaegerConfig Jaeger配置
type JaegerConfig struct {
	Endpoint string  `json:"endpoint"`
	Sampler  float64 `json:"sampler"` // 采样率 0.0-1.0
}

// AuthConfig 鉴权配置
type AuthConfig struct {
	Enabled     bool     `json:"enabled"`
	JWTSecret   string   `json:"jwt_secret"`
	Issuer      string   `json:"issuer"`
	Audience    string   `json:"audience"`
	PublicPaths []string `json:"public_paths"` // 免鉴权路径（设备上报、登录等）
}

// TelemetryConfig 遥测阈值与采集参数
type TelemetryConfig struct {
	MaxSpeedKMH       float64 `json:"max_speed_kmh"`       // 超速阈值
	MaxCoolantTempC   float64 `json:"max_coolant_temp_c"`  // 水温过热阈值
	MinFuelLevelPct   float64 `json:"min_fuel_level_pct"`  // 低油量阈值
	MinBatteryVoltage float64 `json:"min_battery_voltage"` // 低电压阈值
	AlertWindowDays   int     `json:"alert_window_days"`   // 统计用告警回看窗口
	IngestRatePerSec  int64   `json:"ingest_rate_per_sec"` // 单车每秒上报限流
	IngestBurst       int64   `json:"ingest_burst"`        // 限流桶容量
	SnapshotTTLSec    int     `json:"snapshot_ttl_sec"`    // Redis 快照过期时间
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
	Output string `json:"output"` // stdout, file
	Path   string `json:"path"`   // 日志文件路径
}

var (
	globalConfig *Config
	configOnce   sync.Once
)

// LoadConfig 加载配置：先加载 .env（仅注入环境变量）；设置了
// FROTALINK_CONSUL_KV_KEY 时从 Consul KV 读取，否则读 JSON 配置文件，
// 均覆盖在默认配置之上。配置文件不存在时退回默认配置（开发环境）。
func LoadConfig(configPath string) (*Config, error) {
	var err error
	configOnce.Do(func() {
		// .env 不存在属于正常情况
		_ = godotenv.Load()

		if key := os.Getenv("FROTALINK_CONSUL_KV_KEY"); key != "" {
			defaults := defaultConfig()
			host, port := defaults.Consul.Host, defaults.Consul.Port
			if h := os.Getenv("FROTALINK_CONSUL_HOST"); h != "" {
				host = h
			}
			if p := os.Getenv("FROTALINK_CONSUL_PORT"); p != "" {
				if n, convErr := strconv.Atoi(p); convErr == nil {
					port = n
				}
			}
			cfg, kvErr := LoadConfigFromConsulKV(host, port, key)
			if kvErr != nil {
				err = fmt.Errorf("failed to load config from consul kv: %w", kvErr)
				return
			}
			globalConfig = cfg
			return
		}

		if p := os.Getenv("FROTALINK_CONFIG"); p != "" {
			configPath = p
		}

		if _, statErr := os.Stat(configPath); os.IsNotExist(statErr) {
			logrus.Warnf("Config file not found: %s, using default config", configPath)
			globalConfig = defaultConfig()
			return
		}

		data, readErr := os.ReadFile(configPath)
		if readErr != nil {
			err = fmt.Errorf("failed to read config file: %w", readErr)
			return
		}

		cfg := defaultConfig()
		if unmarshalErr := json.Unmarshal(data, cfg); unmarshalErr != nil {
			err = fmt.Errorf("failed to parse config file: %w", unmarshalErr)
			return
		}
		globalConfig = cfg
	})

	if err != nil {
		return nil, err
	}

	return globalConfig, nil
}

// GetConfig 获取全局配置
func GetConfig() *Config {
	if globalConfig == nil {
		return defaultConfig()
	}
	return globalConfig
}

// defaultConfig 默认配置（开发环境）
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name:     "fleet-service",
			Host:     "0.0.0.0",
			HTTPPort: 8080,
		},
		Database: DatabaseConfig{
			Driver:   "mysql",
			Host:     "localhost",
			Port:     3306,
			User:     "root",
			Password: "root",
			Database: "frotalink",
			MaxIdle:  10,
			MaxOpen:  100,
		},
		Redis: RedisConfig{
			Host:     "localhost",
			Port:     6379,
			Password: "",
			DB:       0,
			PoolSize: 20,
		},
		RabbitMQ: RabbitMQConfig{
			Host:     "",
			Port:     5672,
			User:     "guest",
			Password: "guest",
			Exchange: "telemetry_topic",
		},
		Consul: ConsulConfig{
			Host: "localhost",
			Port: 8500,
		},
		Jaeger: JaegerConfig{
			Endpoint: "localhost:6831",
			Sampler:  1.0,
		},
		Auth: AuthConfig{
			Enabled:   true,
			JWTSecret: "dev-secret-change-me",
			Issuer:    "frotalink",
			Audience:  "frotalink",
			PublicPaths: []string{
				"/healthz",
				"/metrics",
				"/api/auth/login",
				"/api/auth/register",
				"/api/vehicles/*/obd",
			},
		},
		Telemetry: TelemetryConfig{
			MaxSpeedKMH:       120,
			MaxCoolantTempC:   105,
			MinFuelLevelPct:   10,
			MinBatteryVoltage: 11.8,
			AlertWindowDays:   30,
			IngestRatePerSec:  10,
			IngestBurst:       30,
			SnapshotTTLSec:    60,
		},
		Log: LogConfig{
			Level:  "debug",
			Format: "text",
			Output: "stdout",
			Path:   "logs/app.log",
		},
	}
}
