package usecase

import (
	"context"

	"laekning/internal/domain/model"
	"laekning/internal/metrics"

	log "github.com/sirupsen/logrus"
)

// イベント送信。失敗はログとメトリクスに残すだけで、呼び出し元には返さない
func publishEvent(ctx context.Context, pub EventPublisher, m *metrics.Metrics, key string, ev model.Event) {
	if pub == nil {
		return
	}
	err := pub.Publish(ctx, key, ev)
	m.EventPublished(ev.Type(), err)
	if err != nil {
		log.WithField("component", "events").WithError(err).WithFields(log.Fields{
			"event_type": ev.Type(),
			"key":        key,
		}).Warn("event publish failed")
	}
}
