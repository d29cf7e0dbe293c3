package db

import (
	"fmt"
	"time"

	"laekning/internal/config"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// 接続の試行を差し替えられるようにしておく（テスト用）
var open = func(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
}

// Connect はDBに接続して *gorm.DB を返す。
// 失敗したら DBMaxRetries 回まで、指数バックオフ（上限 DBMaxRetryDelay）で再試行する。
func Connect(cfg config.Config) (*gorm.DB, error) {
	lg := log.WithField("component", "db")
	dsn := DSN(cfg)

	var lastErr error
	delay := min(time.Second, cfg.DBMaxRetryDelay)
	for attempt := 0; attempt <= cfg.DBMaxRetries; attempt++ {
		gdb, err := open(dsn)
		if err == nil {
			err = ping(gdb)
		}
		if err == nil {
			return gdb, nil
		}
		lastErr = err

		if attempt == cfg.DBMaxRetries {
			break
		}
		lg.WithError(err).WithFields(log.Fields{
			"attempt":  attempt + 1,
			"retry_in": delay.String(),
		}).Warn("db connect failed")

		time.Sleep(delay)
		delay = nextDelay(delay, cfg.DBMaxRetryDelay)
	}

	return nil, fmt.Errorf("db connect: %w", lastErr)
}

func ping(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func nextDelay(cur, max time.Duration) time.Duration {
	next := cur * 2
	if next > max {
		return max
	}
	return next
}

// DATABASE_URL があれば最優先で使う
func DSN(cfg config.Config) string {
	if cfg.DatabaseURL != "" {
		return cfg.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDB, cfg.PostgresSSLMode,
	)
}
