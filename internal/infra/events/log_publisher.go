package events

import (
	"context"
	"encoding/json"

	"laekning/internal/domain/model"

	log "github.com/sirupsen/logrus"
)

// KAFKA_BROKERS未設定時の代替。イベントをログに出すだけ
type LogPublisher struct {
	logger *log.Entry
}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{logger: log.WithField("component", "event-log")}
}

func (p *LogPublisher) Publish(_ context.Context, key string, ev model.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	p.logger.WithFields(log.Fields{
		"event_type": ev.Type(),
		"key":        key,
		"payload":    string(data),
	}).Info("event")
	return nil
}

func (p *LogPublisher) Close() error { return nil }
