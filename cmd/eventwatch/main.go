package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"laekning/internal/infra/events"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// 発行されたイベントを購読してログに出すだけの運用ツール
func main() {
	_ = godotenv.Load()

	brokers := splitBrokers(os.Getenv("KAFKA_BROKERS"))
	if len(brokers) == 0 {
		log.Fatal("KAFKA_BROKERS is required")
	}
	topic := getenv("KAFKA_TOPIC", "laekning.events")
	groupID := getenv("KAFKA_GROUP_ID", "laekning-eventwatch")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := events.NewWatcher(brokers, groupID, topic)
	if err != nil {
		log.WithError(err).Fatal("watcher setup failed")
	}
	defer func() {
		if err := w.Close(); err != nil {
			log.WithError(err).Warn("failed to close watcher")
		}
	}()

	if err := w.Run(ctx); err != nil {
		log.WithError(err).Error("watcher stopped")
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitBrokers(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
