package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Cache    CacheConfig

	ProductsService  ServiceConfig
	AccountsService  ServiceConfig
	TaxService       ServiceConfig
	CouponsService   ServiceConfig
	ShipmentsService ServiceConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

func (d DatabaseConfig) ConnectionString() string {
	return "host=" + d.Host +
		" port=" + strconv.Itoa(d.Port) +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Name +
		" sslmode=" + d.SSLMode
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

type KafkaConfig struct {
	Enabled     bool
	Brokers     []string
	OrdersTopic string
}

// CacheConfig selects the aggregate cache backend. "memory" is a bounded
// in-process LRU; "redis" shares the cache across replicas.
type CacheConfig struct {
	Backend  string
	Capacity int
}

type ServiceConfig struct {
	BaseURL string
	Timeout time.Duration
	APIKey  string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:  time.Duration(getEnvInt("SERVER_READ_TIMEOUT", 30)) * time.Second,
			WriteTimeout: time.Duration(getEnvInt("SERVER_WRITE_TIMEOUT", 30)) * time.Second,
		},
		Database: DatabaseConfig{
			Host:         getEnvString("DB_HOST", "localhost"),
			Port:         getEnvInt("DB_PORT", 5432),
			User:         getEnvString("DB_USER", "kauppa"),
			Password:     getEnvString("DB_PASSWORD", "kauppa"),
			Name:         getEnvString("DB_NAME", "kauppa_orders"),
			SSLMode:      getEnvString("DB_SSLMODE", "disable"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		Redis: RedisConfig{
			Host:     getEnvString("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnvString("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      time.Duration(getEnvInt("REDIS_TTL", 300)) * time.Second,
		},
		Kafka: KafkaConfig{
			Enabled:     getEnvBool("KAFKA_ENABLED", false),
			Brokers:     getEnvList("KAFKA_BROKERS", "localhost:9092"),
			OrdersTopic: getEnvString("KAFKA_ORDERS_TOPIC", "kauppa.orders"),
		},
		Cache: CacheConfig{
			Backend:  getEnvString("CACHE_BACKEND", "memory"),
			Capacity: getEnvInt("CACHE_CAPACITY", 1024),
		},
		ProductsService:  loadService("PRODUCTS", "http://localhost:8081"),
		AccountsService:  loadService("ACCOUNTS", "http://localhost:8082"),
		TaxService:       loadService("TAX", "http://localhost:8083"),
		CouponsService:   loadService("COUPONS", "http://localhost:8084"),
		ShipmentsService: loadService("SHIPMENTS", "http://localhost:8085"),
	}
}

func loadService(prefix, defaultURL string) ServiceConfig {
	return ServiceConfig{
		BaseURL: getEnvString(prefix+"_SERVICE_URL", defaultURL),
		Timeout: time.Duration(getEnvInt(prefix+"_SERVICE_TIMEOUT", 30)) * time.Second,
		APIKey:  getEnvString(prefix+"_SERVICE_API_KEY", ""),
	}
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvList(key, defaultValue string) []string {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
