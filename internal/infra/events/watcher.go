package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

// Watcher はイベントトピックを購読し、種別ごとに要点をログに出す（運用確認用）
type Watcher struct {
	group  sarama.ConsumerGroup
	topics []string
	logger *log.Entry
	wg     sync.WaitGroup
}

func NewWatcher(brokers []string, groupID string, topic string) (*Watcher, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()
	//最初から読む
	config.Consumer.Offsets.Initial = sarama.OffsetOldest
	config.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}
	return &Watcher{
		group:  group,
		topics: []string{topic},
		logger: log.WithField("component", "event-watcher"),
	}, nil
}

// Run はctxがキャンセルされるまで購読する
func (w *Watcher) Run(ctx context.Context) error {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for err := range w.group.Errors() {
			w.logger.WithError(err).Error("consumer error")
		}
	}()

	w.logger.WithField("topics", w.topics).Info("watching events")
	for {
		// rebalanceで戻ってくるのでループ
		if err := w.group.Consume(ctx, w.topics, w); err != nil {
			w.logger.WithError(err).Error("error from consumer")
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (w *Watcher) Close() error {
	if err := w.group.Close(); err != nil {
		return fmt.Errorf("failed to close kafka consumer: %w", err)
	}
	w.wg.Wait()
	return nil
}

func (w *Watcher) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (w *Watcher) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (w *Watcher) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg := <-claim.Messages():
			if msg == nil {
				return nil
			}
			fields, err := Describe(msg.Value)
			if err != nil {
				w.logger.WithError(err).WithField("offset", msg.Offset).Warn("error parsing event")
			} else {
				fields["partition"] = msg.Partition
				fields["offset"] = msg.Offset
				w.logger.WithFields(fields).Info("event received")
			}
			sess.MarkMessage(msg, "")
		case <-sess.Context().Done():
			return nil
		}
	}
}

// Describe はイベントJSONから種別ごとの表示項目を取り出す。
// 無い項目は "N/A"。
func Describe(raw []byte) (log.Fields, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}

	eventType := valueOr(payload, "EventType", "Unknown")
	fields := log.Fields{"event_type": eventType}

	pick := func(keys ...string) {
		for _, k := range keys {
			fields[k] = valueOr(payload, k, "N/A")
		}
	}

	switch eventType {
	case "PrescriptionUploaded":
		pick("PrescriptionId", "FileName", "Timestamp")
	case "PrescriptionAnalyzed":
		pick("PrescriptionId", "FileName", "Timestamp", "ExtractedInscription", "ExtractedPatientDetails")
	case "ProductsIdentified":
		pick("Timestamp")
		var names []string
		if list, ok := payload["IdentifiedProducts"].([]any); ok {
			for _, item := range list {
				if p, ok := item.(map[string]any); ok {
					names = append(names, fmt.Sprintf("%v (%v) %v",
						valueOr(p, "Name", "Unknown"), valueOr(p, "Category", "Unknown"), valueOr(p, "Price", 0)))
				}
			}
		}
		fields["IdentifiedProducts"] = names
	case "OrderPlaced":
		pick("OrderId", "Customer")
		fields["ItemCount"] = valueOr(payload, "ItemCount", 0)
		fields["GiftWrap"] = valueOr(payload, "GiftWrap", false)
	}
	return fields, nil
}

func valueOr(m map[string]any, key string, def any) any {
	if v, ok := m[key]; ok && v != nil {
		return v
	}
	return def
}
