package kafka

import (
	"Mediahub/internal/api/config"
	"Mediahub/internal/api/dto"
	"context"
	"fmt"
	log "log/slog"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

// Notifier 通过 Kafka 发布媒体资源变更事件
type Notifier struct {
	producer sarama.SyncProducer
	topic    string
}

func NewNotifier(cfg *config.Config) (*Notifier, error) {
	producer, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, newSaramaProducerConfig(cfg.Kafka))
	if err != nil {
		return nil, fmt.Errorf("failed to create change notifier producer: %w", err)
	}
	return &Notifier{
		producer: producer,
		topic:    cfg.Notifier.Topic,
	}, nil
}

// Notify 发布一条变更事件，key 取记录 id 保证同一记录的事件有序
func (s *Notifier) Notify(ctx context.Context, record *dto.MediaRecordDTO, operation dto.CrudOperation) error {
	event := dto.MediaRecordChangeEvent{
		MediaRecord: record,
		Operation:   operation,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	_, _, err = s.producer.SendMessage(&sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(record.ID.String()),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	return nil
}

func (s *Notifier) Close() error {
	return s.producer.Close()
}

// NoopNotifier 本地/隔离环境用的空实现，只记日志
type NoopNotifier struct{}

func NewNoopNotifier() *NoopNotifier {
	log.Warn("Change notifier is disabled, events will only be logged")
	return &NoopNotifier{}
}

func (s *NoopNotifier) Notify(ctx context.Context, record *dto.MediaRecordDTO, operation dto.CrudOperation) error {
	log.InfoContext(ctx, "media record change (notifier disabled)",
		"media_record_id", record.ID, "operation", operation)
	return nil
}
