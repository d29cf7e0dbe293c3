package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Configはアプリ全体の設定
type Config struct {
	Port     string // サーバーポート（8080）
	GoEnv    string // dev/prod
	LogLevel string // debug/info/warn/error

	DatabaseURL      string // あればPOSTGRES_*より優先
	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5432）
	PostgresSSLMode  string
	DBMaxRetries     int           // 起動時の接続リトライ回数
	DBMaxRetryDelay  time.Duration // リトライ間隔の上限

	PageSize int // 1ページの商品数

	SessionSecret      string        // cookieの署名/暗号化キーの元
	SessionIdleTimeout time.Duration // 無操作でのセッション失効
	SessionBackend     string        // redis（既定）/cookie。cookieは同一セッションの同時更新を直列化できない
	RedisAddr          string
	RedisPassword      string

	JWTSecret string // 管理画面用。IdPと共有するHS256シークレット

	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIModel      string
	OpenAIAPIVersion string

	DocIntelEndpoint string
	DocIntelAPIKey   string
	DocIntelModelID  string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	KafkaBrokers []string // 空ならイベントはログに出すだけ
	KafkaTopic   string
}

func (c Config) IsProd() bool {
	return c.GoEnv == "prod"
}

// Loadは環境変数
func Load() (Config, error) {
	pgPort, err := atoiDefault("POSTGRES_PORT", 5432)
	if err != nil {
		return Config{}, err
	}
	retries, err := atoiDefault("DB_MAX_RETRIES", 5)
	if err != nil {
		return Config{}, err
	}
	retryDelay, err := durationDefault("DB_MAX_RETRY_DELAY", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	pageSize, err := atoiDefault("PAGE_SIZE", 4)
	if err != nil {
		return Config{}, err
	}
	idle, err := durationDefault("SESSION_IDLE_TIMEOUT", 30*time.Minute)
	if err != nil {
		return Config{}, err
	}
	minioSSL, err := boolDefault("MINIO_USE_SSL", false)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:     os.Getenv("PORT"),
		GoEnv:    getenv("GO_ENV", "dev"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     getenv("POSTGRES_USER", "postgres"),
		PostgresPassword: getenv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getenv("POSTGRES_DB", "laekning"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresPort:     pgPort,
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),
		DBMaxRetries:     retries,
		DBMaxRetryDelay:  retryDelay,

		PageSize: pageSize,

		SessionSecret:      os.Getenv("SESSION_SECRET"),
		SessionIdleTimeout: idle,
		SessionBackend:     getenv("SESSION_BACKEND", "redis"),
		RedisAddr:          getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:      getenv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIAPIVersion: getenv("OPENAI_API_VERSION", "2024-06-01"),

		DocIntelEndpoint: os.Getenv("DOCINTEL_ENDPOINT"),
		DocIntelAPIKey:   os.Getenv("DOCINTEL_API_KEY"),
		DocIntelModelID:  getenv("DOCINTEL_MODEL_ID", "prescription-model"),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getenv("MINIO_BUCKET", "prescriptions"),
		MinioUseSSL:    minioSSL,

		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   getenv("KAFKA_TOPIC", "laekning.events"),
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.SessionSecret == "" {
		return Config{}, fmt.Errorf("SESSION_SECRET is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}

	//範囲チェック
	if cfg.PageSize < 1 {
		return Config{}, fmt.Errorf("PAGE_SIZE must be >= 1")
	}
	if cfg.DBMaxRetries < 0 {
		return Config{}, fmt.Errorf("DB_MAX_RETRIES must be >= 0")
	}
	switch cfg.SessionBackend {
	case "cookie", "redis":
	default:
		return Config{}, fmt.Errorf("SESSION_BACKEND must be cookie or redis")
	}

	return cfg, nil
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiDefault(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func durationDefault(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}

func boolDefault(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be bool: %w", key, err)
	}
	return b, nil
}

// "a, b,,c" -> [a b c]
func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
