package wire

import (
	"Mediahub/internal/api"
	"Mediahub/internal/api/config"
	"Mediahub/internal/api/handler"
	"Mediahub/internal/job"
	"Mediahub/internal/pkg/cron"
	"Mediahub/internal/pkg/kafka"
	"Mediahub/internal/pkg/minio"
	"Mediahub/internal/repository"
	"Mediahub/internal/service"
	log "log/slog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router       *gin.Engine
	DB           *gorm.DB
	KafkaManager *kafka.ConsumerManager
	CronMgr      *cron.Manager
	Notifier     service.ChangeNotifier
}

func BuildApplication(db *gorm.DB, cfg *config.Config) (*ApplicationContainer, error) {
	mediaRepo := repository.NewMediaRecordRepo(db)
	progressRepo := repository.NewProgressRepo(db)

	storage := minio.NewStorage(minio.Client)

	// 变更通知未启用时降级为仅记录日志
	var notifier service.ChangeNotifier
	if cfg.Notifier.Enabled {
		kafkaNotifier, err := kafka.NewNotifier(cfg)
		if err != nil {
			return nil, err
		}
		notifier = kafkaNotifier
	} else {
		notifier = kafka.NewNoopNotifier()
	}

	mediaService := service.NewMediaRecordService(mediaRepo, storage, notifier)
	progressService := service.NewProgressService(progressRepo, mediaRepo)

	handlers := &api.HandlersGroup{
		MediaRecordHandler: handler.NewMediaRecordHandler(mediaService),
		ProgressHandler:    handler.NewProgressHandler(progressService),
	}

	router := api.SetupRouter(handlers)

	kafkaMgr, err := kafka.NewConsumerManager(cfg, mediaService)
	if err != nil {
		return nil, err
	}

	orphanBlobJob := job.NewOrphanBlobJob(storage, mediaRepo)
	cronMgr := cron.NewCronManager(orphanBlobJob)

	log.Info("application components wired")

	return &ApplicationContainer{
		Router:       router,
		DB:           db,
		KafkaManager: kafkaMgr,
		CronMgr:      cronMgr,
		Notifier:     notifier,
	}, nil
}
