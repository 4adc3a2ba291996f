package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Astemirdum/foyer-service/pkg/kafka"
	"github.com/Astemirdum/foyer-service/pkg/logger"
	"github.com/Astemirdum/foyer-service/pkg/postgres"
	"github.com/Astemirdum/foyer-service/pkg/server"
	"github.com/Astemirdum/foyer-service/reservation/config"
	"github.com/Astemirdum/foyer-service/reservation/internal/client"
	"github.com/Astemirdum/foyer-service/reservation/internal/handler"
	"github.com/Astemirdum/foyer-service/reservation/internal/queue"
	"github.com/Astemirdum/foyer-service/reservation/internal/repository"
	"github.com/Astemirdum/foyer-service/reservation/internal/service"
	"github.com/Astemirdum/foyer-service/reservation/migrations"
)

func Run(cfg *config.Config) error {
	log := logger.NewLogger(cfg.Log, "reservation")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.NewPostgresDB(ctx, &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		return fmt.Errorf("db init %v", err)
	}
	defer db.Close()
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		return fmt.Errorf("repo reservation %v", err)
	}

	policy, err := service.ParseAvailabilityPolicy(cfg.AvailabilityPolicy)
	if err != nil {
		return err
	}
	opts := []service.Option{service.WithAvailabilityPolicy(policy)}

	if cfg.Kafka.Enabled() {
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			return fmt.Errorf("kafka.NewProducer %v", err)
		}
		defer producer.Close()
		opts = append(opts, service.WithEnqueuer(queue.NewEnqueuer(producer, kafka.DirectorySyncTopic)))
	} else {
		log.Warn("kafka is not configured: directory failures are returned to the caller")
	}

	svc := service.NewService(
		repo,
		client.NewStudentClient(log, cfg.StudentHTTPServer),
		client.NewRoomClient(log, cfg.RoomHTTPServer),
		log,
		opts...,
	)

	if cfg.Kafka.Enabled() {
		consumer, err := kafka.NewConsumer(cfg.Kafka, kafka.DirectorySyncConsumerGroup)
		if err != nil {
			return fmt.Errorf("kafka.NewConsumer %v", err)
		}
		defer consumer.Close()
		go kafka.Consume(ctx, consumer, handler.NewConsumer(svc.ApplySync, log), log, kafka.DirectorySyncTopic)
	}

	h := handler.New(svc, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)),
		zap.String("availabilityPolicy", string(policy)))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, closeCancel := context.WithTimeout(context.Background(), time.Second*5)
	defer closeCancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.Error("srv.Stop", zap.Error(err))
	}
	cancel()
	log.Info("Graceful shutdown finished")
	return nil
}
