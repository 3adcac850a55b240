package kafka

import (
	"Mediahub/internal/api/dto"
	"Mediahub/internal/service"
	"context"
	"errors"
	log "log/slog"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

// ContentChangeHandler 消费内容服务的生命周期事件，
// 清理被删除内容在媒体记录上的关联
type ContentChangeHandler struct {
	mediaService service.MediaRecordService
}

func NewContentChangeHandler(mediaService service.MediaRecordService) *ContentChangeHandler {
	return &ContentChangeHandler{
		mediaService: mediaService,
	}
}

func (s *ContentChangeHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (s *ContentChangeHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (s *ContentChangeHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	return pullMessageBatch(session, claim, s.handle)
}

// handle 解码失败和校验失败都属于毒消息，跳过而不重试；
// 其余错误返回给重试逻辑
func (s *ContentChangeHandler) handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var event dto.ContentChangeEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.ErrorContext(ctx, "unmarshal content change event error, skipping",
			"topic", msg.Topic, "offset", msg.Offset, "err", err)
		return nil
	}

	if err := s.mediaService.RemoveContentIDs(ctx, &event); err != nil {
		if errors.Is(err, service.ErrParamInvalid) {
			log.ErrorContext(ctx, "invalid content change event, skipping",
				"topic", msg.Topic, "offset", msg.Offset, "err", err)
			return nil
		}
		return err
	}
	return nil
}
