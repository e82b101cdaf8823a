package config

import (
	"os"
	"strconv"
)

// Config foodforward-data（HTTP API）配置
type Config struct {
	HTTP struct {
		Addr string
	}
	DBEnabled bool
	Database  DatabaseConfig
	Redis     struct {
		Addr     string
		Password string
		DB       int
	}
	Log struct {
		Level  string
		Format string
	}
	Geocode GeocodeConfig `yaml:"geocode"`
	Media   MediaConfig   `yaml:"media"`
	Mailgun MailgunConfig `yaml:"mailgun"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Events  EventsConfig  `yaml:"events"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return "host=" + c.Host + " port=" + strconv.Itoa(c.Port) +
		" user=" + c.User + " password=" + c.Password +
		" dbname=" + c.Database + " sslmode=" + c.SSLMode
}

// GeocodeConfig 地理编码服务配置
type GeocodeConfig struct {
	BaseURL        string `yaml:"base_url"`        // Nominatim 兼容服务地址
	TimeoutSeconds int    `yaml:"timeout_seconds"` // 单次请求超时（秒），投影不允许无限阻塞
	CacheTTLHours  int    `yaml:"cache_ttl_hours"` // Redis 缓存 TTL（小时）
}

// MediaConfig 图片存储配置（S3）
type MediaConfig struct {
	Enabled bool   `yaml:"enabled"`
	Bucket  string `yaml:"bucket"`
	Region  string `yaml:"region"`
}

// MailgunConfig 邮件通知配置（旁路通道，默认禁用）
type MailgunConfig struct {
	Enabled bool   `yaml:"enabled"`
	Domain  string `yaml:"domain"`
	APIKey  string `yaml:"api_key"`
	Sender  string `yaml:"sender"`
}

// MQTTConfig MQTT 配置（用于仪表盘实时推送，默认禁用）
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"`    // 如 "tcp://localhost:1883"
	ClientID string `yaml:"client_id"` // 客户端 ID
	Username string `yaml:"username"`  // 用户名（可选）
	Password string `yaml:"password"`  // 密码（可选）
	Topic    string `yaml:"topic"`     // 发布主题
}

// EventsConfig 变更事件流配置（Redis Streams）
type EventsConfig struct {
	Stream string `yaml:"stream"`  // Stream 名称
	MaxLen int64  `yaml:"max_len"` // 近似截断长度
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	// Default to true for local dev: if DB is unavailable, foodforward-data will fall
	// back to in-memory repositories so dashboards aren't empty with plain `go run`.
	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "foodforward")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	// 地理编码配置
	cfg.Geocode.BaseURL = getEnv("GEOCODE_BASE_URL", "https://nominatim.openstreetmap.org")
	cfg.Geocode.TimeoutSeconds = parseInt(getEnv("GEOCODE_TIMEOUT_SECONDS", "5"), 5)
	cfg.Geocode.CacheTTLHours = parseInt(getEnv("GEOCODE_CACHE_TTL_HOURS", "24"), 24)

	// 图片存储配置（S3，默认禁用）
	cfg.Media.Enabled = getEnv("MEDIA_ENABLED", "false") == "true"
	cfg.Media.Bucket = getEnv("MEDIA_S3_BUCKET", "")
	cfg.Media.Region = getEnv("MEDIA_S3_REGION", "us-east-1")

	// 邮件通知配置（默认禁用）
	cfg.Mailgun.Enabled = getEnv("MAILGUN_ENABLED", "false") == "true"
	cfg.Mailgun.Domain = getEnv("MAILGUN_DOMAIN", "")
	cfg.Mailgun.APIKey = getEnv("MAILGUN_KEY", "")
	cfg.Mailgun.Sender = getEnv("MAILGUN_SENDER", "FoodForward <no-reply@foodforward.local>")

	// MQTT 配置（仪表盘推送，默认禁用）
	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "foodforward-data")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "foodforward/donations")

	// 变更事件流配置
	cfg.Events.Stream = getEnv("EVENTS_STREAM", "foodforward:donations:events")
	cfg.Events.MaxLen = int64(parseInt(getEnv("EVENTS_STREAM_MAXLEN", "10000"), 10000))

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
