package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	mqcontracts "routedesk/contracts/mq"
	"routedesk/internal/config"
	"routedesk/internal/httpserver"
	"routedesk/internal/mqhandler"
	"routedesk/internal/repository"
	"routedesk/internal/service/classifier"
	"routedesk/internal/service/mailer"
	"routedesk/internal/service/onboarding"
	"routedesk/internal/service/routing"
	"routedesk/internal/service/scheduler"
	pkgconfig "routedesk/pkg/config"
	"routedesk/pkg/db"
	"routedesk/pkg/logger"
	"routedesk/pkg/mq"
	"routedesk/pkg/redis"
	"routedesk/pkg/util"
)

var errMQDisconnected = errors.New("mq connection closed")

func main() {
	env := pkgconfig.GetConfigEnv()
	cfg, err := config.Load(env, pkgconfig.GetEnv("CONFIG_DIR", "config"))
	if err != nil {
		// logger 尚未初始化
		zap.NewExample().Fatal("Failed to load config", zap.Error(err))
	}

	log := logger.NewLogger(cfg.Log.Level)
	defer log.Sync()

	log.Info("Starting routedesk...",
		zap.String("env", env),
		zap.String("db_host", cfg.DB.Host),
		zap.String("mail_backend", cfg.Mail.Backend),
		zap.Bool("trigger_enabled", cfg.Routing.TriggerEnabled),
		zap.String("batch_cron", cfg.Routing.BatchCron),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// DB
	dbConn, err := db.NewConnection(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to init DB", zap.Error(err))
	}
	defer dbConn.Close()

	// MQ publisher，仅 mq 邮件后端需要
	var publisher *mq.Publisher
	if cfg.Mail.Backend == mailer.BackendMQ {
		publisher, err = mq.NewPublisher(cfg.MQ.URL)
		if err != nil {
			log.Fatal("Failed to init MQ publisher", zap.Error(err))
		}
		defer publisher.Close()
	}

	mail, err := mailer.New(cfg.Mail, publisher)
	if err != nil {
		log.Fatal("Failed to init mailer", zap.Error(err))
	}

	llm, err := classifier.New(ctx, cfg.LLM, log)
	if err != nil {
		log.Fatal("Failed to init classifier", zap.Error(err))
	}

	teams, err := routing.NewTeamDirectory(cfg.Routing.Teams)
	if err != nil {
		log.Fatal("Invalid team directory", zap.Error(err))
	}
	tiers, err := onboarding.NewTierTable(cfg.Onboarding.Tiers)
	if err != nil {
		log.Fatal("Invalid tier table", zap.Error(err))
	}
	log.Info("Routing table loaded",
		zap.Any("teams", teams.All()),
		zap.Strings("tiers", tiers.Names()),
	)

	messageRepo := repository.NewMessageRepository(dbConn)
	projectRepo := repository.NewProjectRepository(dbConn)
	taskRepo := repository.NewOnboardingTaskRepository(dbConn)

	notifier := routing.NewNotifier(mail, projectRepo, teams, cfg.Routing.FromName, log)
	routingService := routing.NewService(messageRepo, llm, notifier, log)

	if ttl := cfg.Routing.DedupeTTL(); ttl > 0 {
		rdb, err := redis.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to init Redis for routing dedupe", zap.Error(err))
		}
		defer rdb.Close()
		routingService.WithGuard(util.NewDeduper(rdb, ttl, log))
		log.Info("Routing dedupe enabled", zap.Duration("ttl", ttl))
	}

	onboardingService := onboarding.NewService(taskRepo, mail, onboarding.Config{
		ManagerEmail: cfg.Onboarding.ManagerEmail,
		FromName:     cfg.Onboarding.FromName,
		Tiers:        tiers,
	}, log)

	readiness := map[string]httpserver.ReadinessCheck{
		"db": pingDB(dbConn),
	}
	if publisher != nil {
		readiness["mq_publisher"] = func(context.Context) error {
			if !publisher.IsConnected() {
				return errMQDisconnected
			}
			return nil
		}
	}

	// 后台任务需在连接池关闭前退出
	var workers sync.WaitGroup

	// message.created 触发器
	if cfg.Routing.TriggerEnabled {
		consumer, err := mq.NewConsumer(cfg.MQ.URL, cfg.Routing.TriggerQueue, mqcontracts.RoutingKeyMessageCreated, log)
		if err != nil {
			log.Fatal("Failed to init consumer", zap.Error(err))
		}
		defer consumer.Close()
		consumer.SetHandler(mqhandler.NewMessageCreatedHandler(routingService, log).Handle)

		readiness["mq"] = func(context.Context) error {
			if !consumer.IsConnected() {
				return errMQDisconnected
			}
			return nil
		}

		workers.Add(1)
		go func() {
			defer workers.Done()
			if err := consumer.StartConsuming(ctx); err != nil {
				log.Error("Consumer stopped with error", zap.Error(err))
			}
		}()
	}

	// 定时批量路由
	if cfg.Routing.BatchCron != "" {
		batch, err := scheduler.New("batch_route", cfg.Routing.BatchCron, func(ctx context.Context) error {
			_, err := routingService.RouteBatch(ctx)
			return err
		}, log)
		if err != nil {
			log.Fatal("Failed to init batch scheduler", zap.Error(err))
		}
		workers.Add(1)
		go func() {
			defer workers.Done()
			batch.Run(ctx)
		}()
	}

	router := httpserver.NewRouter(httpserver.RouterDeps{
		Routing:    httpserver.NewRoutingHandler(routingService),
		Onboarding: httpserver.NewOnboardingHandler(onboardingService),
		JWTSecret:  cfg.JWT.Secret,
		JWTIssuer:  cfg.JWT.Issuer,
		Logger:     log,
		Readiness:  readiness,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 优雅退出处理
	<-ctx.Done()
	log.Info("Shutting down routedesk gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	if waitForWorkers(shutdownCtx, &workers) {
		log.Info("Background workers stopped")
	} else {
		log.Warn("Timed out waiting for background workers")
	}

	log.Info("routedesk shutdown complete")
}

// waitForWorkers reports false if ctx expires before wg drains.
func waitForWorkers(ctx context.Context, wg *sync.WaitGroup) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}

func pingDB(pool *pgxpool.Pool) httpserver.ReadinessCheck {
	return func(ctx context.Context) error {
		return pool.Ping(ctx)
	}
}
