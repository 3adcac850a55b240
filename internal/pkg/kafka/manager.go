package kafka

import (
	"Mediahub/internal/api/config"
	"Mediahub/internal/service"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// ConsumerManager 管理所有 Kafka 消费者
type ConsumerManager struct {
	contentConsumer sarama.ConsumerGroup
	contentHandler  sarama.ConsumerGroupHandler
}

// NewConsumerManager 构造函数
func NewConsumerManager(cfg *config.Config, mediaService service.MediaRecordService) (*ConsumerManager, error) {
	saramaCfg := newSaramaConsumerConfig(cfg.Kafka)

	contentConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaContentConsumer.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}
	contentHandler := NewContentChangeHandler(mediaService)

	return &ConsumerManager{
		contentConsumer: contentConsumer,
		contentHandler:  contentHandler,
	}, nil
}

// Start 启动所有消费者，阻塞到 ctx 结束
func (m *ConsumerManager) Start(ctx context.Context, cfg *config.Config) error {
	go func() {
		topic := cfg.KafkaContentConsumer.Topic
		log.Info("Content change consumer started", "topic", topic)
		for {
			if err := m.contentConsumer.Consume(ctx, []string{topic}, m.contentHandler); err != nil {
				log.Error("Error from consumer", "err", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	<-ctx.Done()
	log.Info("Kafka Manager shutting down...")

	if err := m.contentConsumer.Close(); err != nil {
		log.Error("Failed to close content change consumer", "err", err)
	}

	return nil
}
