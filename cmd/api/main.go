package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"laekning/internal/config"
	"laekning/internal/domain/model"
	"laekning/internal/handler"
	"laekning/internal/infra/ai"
	"laekning/internal/infra/blob"
	"laekning/internal/infra/db"
	"laekning/internal/infra/events"
	"laekning/internal/infra/ocr"
	infraRepo "laekning/internal/infra/repository"
	infraSession "laekning/internal/infra/session"
	"laekning/internal/metrics"
	"laekning/internal/server"
	"laekning/internal/session"
	"laekning/internal/usecase"
	"laekning/internal/validator"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

// usecaseに渡すpublisherはCloseも持つ
type eventPublisher interface {
	usecase.EventPublisher
	Close() error
}

func setupLogger(cfg config.Config) {
	if cfg.IsProd() {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	lvl, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
	log.SetOutput(os.Stdout)
}

func newSessionProvider(cfg config.Config) (session.Provider, error) {
	secure := cfg.IsProd()
	if cfg.SessionBackend == "redis" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		return infraSession.NewRedisProvider(rdb, cfg.SessionSecret, cfg.SessionIdleTimeout, secure)
	}
	return infraSession.NewCookieProvider(cfg.SessionSecret, cfg.SessionIdleTimeout, secure)
}

func newPublisher(cfg config.Config) (eventPublisher, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return events.NewLogPublisher(), nil
	}
	return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
}

func main() {
	//.envは無くてもよい（本番は環境変数）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("config error")
	}
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.WithError(err).Fatal("db connect failed")
	}
	if err := gormDB.AutoMigrate(
		&model.Product{},
		&model.Order{},
		&model.OrderLine{},
		&model.AuditLog{},
	); err != nil {
		log.WithError(err).Fatal("migrate failed")
	}

	//Repository（GORM実装）生成
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	sessions, err := newSessionProvider(cfg)
	if err != nil {
		log.WithError(err).Fatal("session setup failed")
	}

	//外部サービス
	chat := ai.NewOpenAIChatClient(ai.Config{
		APIKey:     cfg.OpenAIAPIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		Model:      cfg.OpenAIModel,
		APIVersion: cfg.OpenAIAPIVersion,
	})
	analyzer := ocr.NewDocIntelClient(ocr.Config{
		Endpoint: cfg.DocIntelEndpoint,
		APIKey:   cfg.DocIntelAPIKey,
		ModelID:  cfg.DocIntelModelID,
	})
	blobs, err := blob.NewMinioStorage(ctx, blob.Config{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	})
	if err != nil {
		log.WithError(err).Fatal("blob storage setup failed")
	}

	publisher, err := newPublisher(cfg)
	if err != nil {
		log.WithError(err).Fatal("event publisher setup failed")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.WithError(err).Warn("failed to close publisher")
		}
	}()

	m := metrics.New()

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}
	locks := session.NewKeyedMutex()

	//Usecase生成
	productUC := usecase.NewProductUsecase(productRepo, cfg.PageSize)
	cartUC := usecase.NewCartUsecase(productRepo, locks, m)
	orderUC := usecase.NewOrderUsecase(orderRepo, productRepo, validator.NewOrderValidator(), publisher, locks, clock, m)
	assistantUC := usecase.NewAssistantUsecase(productRepo, chat, locks, m)
	recommendationsUC := usecase.NewRecommendationsUsecase(productRepo, orderRepo, chat, m)
	prescriptionUC := usecase.NewPrescriptionUsecase(blobs, analyzer, chat, productRepo, publisher, idGen, clock, m)
	supportUC := usecase.NewSupportUsecase()
	adminProductUC := usecase.NewAdminProductUsecase(txm, validator.NewProductValidator(), clock)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, orderRepo, auditRepo, clock)

	//Handler生成
	h := server.Handlers{
		Product:      handler.NewProductHandler(productUC),
		Cart:         handler.NewCartHandler(cartUC),
		Order:        handler.NewOrderHandler(orderUC),
		Assistant:    handler.NewAssistantHandler(assistantUC, recommendationsUC),
		Prescription: handler.NewPrescriptionHandler(prescriptionUC),
		Support:      handler.NewSupportHandler(supportUC),
		AdminProduct: handler.NewAdminProductHandler(adminProductUC),
		AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC),
	}
	e := server.New(cfg, h, sessions, m, prometheus.DefaultGatherer)

	//Server起動
	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}
	if err := server.Start(ctx, e, addr); err != nil {
		log.WithError(err).Error("server stopped")
	}
}
