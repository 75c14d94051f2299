package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/dwarvesf/xray-txhistory/internal/consts"
	"github.com/dwarvesf/xray-txhistory/internal/types/environments"
)

type AppConfig struct {
	Environment environments.Environment
	ApiServer   ApiServerConfig
	Postgres    DBConnection
	Redis       RedisConfig
	Koios       KoiosConfig
	History     HistoryConfig
	Host        HostConfig
	Vault       VaultConfig
	Tracing     TracingConfig
	Monitoring  MonitoringConfig
}

type ApiServerConfig struct {
	Port           string
	AllowedOrigins string
}

type DBConnection struct {
	Host string
	Port string
	User string
	Name string
	Pass string

	SSLMode string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type KoiosConfig struct {
	URLTemplate string
	APIToken    string
	MaxRetries  int
	Backoff     time.Duration
	Timeout     time.Duration
}

type HistoryConfig struct {
	PageSize      int
	CacheTTL      time.Duration
	TipPollPeriod string
}

type HostConfig struct {
	// Network used until the host tells us otherwise
	DefaultNetwork  string
	DefaultExplorer string
}

type VaultConfig struct {
	Addr          string
	Role          string
	KVSecretPath  string
	KoiosTokenKey string
}

type MonitoringConfig struct {
	UptimeWebhookURL string
}

type TracingConfig struct {
	ServiceName  string
	OTLPEndpoint string
}

func New() *AppConfig {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// this will not override env variables if they already exist
	godotenv.Load(".env." + env)

	pageSize := envVarAtoiOr("HISTORY_PAGE_SIZE", consts.DEFAULT_PAGE_SIZE)
	if pageSize <= 0 {
		pageSize = consts.DEFAULT_PAGE_SIZE
	}
	if pageSize > consts.MAX_PAGE_SIZE {
		pageSize = consts.MAX_PAGE_SIZE
	}

	urlTemplate := os.Getenv("KOIOS_URL_TEMPLATE")
	if urlTemplate == "" {
		urlTemplate = consts.DEFAULT_KOIOS_URL_TEMPLATE
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	return &AppConfig{
		Environment: environments.Environment(env),
		ApiServer: ApiServerConfig{
			Port:           port,
			AllowedOrigins: os.Getenv("ALLOWED_ORIGINS"),
		},
		Postgres: DBConnection{
			Host:    os.Getenv("DB_HOST"),
			Port:    os.Getenv("DB_PORT"),
			User:    os.Getenv("DB_USER"),
			Name:    os.Getenv("DB_NAME"),
			Pass:    os.Getenv("DB_PASS"),
			SSLMode: os.Getenv("DB_SSL_MODE"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envVarAtoiOr("REDIS_DB", 0),
			TTL:      envVarDurationOr("REDIS_TTL", time.Hour),
		},
		Koios: KoiosConfig{
			URLTemplate: urlTemplate,
			APIToken:    os.Getenv("KOIOS_API_TOKEN"),
			MaxRetries:  envVarAtoiOr("KOIOS_MAX_RETRIES", 3),
			Backoff:     envVarDurationOr("KOIOS_BACKOFF", time.Second),
			Timeout:     envVarDurationOr("KOIOS_TIMEOUT", 15*time.Second),
		},
		History: HistoryConfig{
			PageSize:      pageSize,
			CacheTTL:      envVarDurationOr("HISTORY_CACHE_TTL", 30*time.Minute),
			TipPollPeriod: os.Getenv("TIP_POLL_PERIOD"),
		},
		Host: HostConfig{
			DefaultNetwork:  os.Getenv("HOST_DEFAULT_NETWORK"),
			DefaultExplorer: os.Getenv("HOST_DEFAULT_EXPLORER"),
		},
		Vault: VaultConfig{
			Addr:          os.Getenv("VAULT_ADDR"),
			Role:          os.Getenv("VAULT_ROLE"),
			KVSecretPath:  os.Getenv("VAULT_KV_SECRET_PATH"),
			KoiosTokenKey: os.Getenv("VAULT_KOIOS_TOKEN_KEY"),
		},
		Monitoring: MonitoringConfig{
			UptimeWebhookURL: os.Getenv("UPTIME_WEBHOOK_URL"),
		},
		Tracing: TracingConfig{
			ServiceName:  "xray-txhistory",
			OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		},
	}
}

func envVarAtoiOr(envName string, fallback int) int {
	valueStr := os.Getenv(envName)
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		panic(err)
	}

	return value
}

func envVarDurationOr(envName string, fallback time.Duration) time.Duration {
	valueStr := os.Getenv(envName)
	if valueStr == "" {
		return fallback
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		panic(err)
	}

	return value
}
