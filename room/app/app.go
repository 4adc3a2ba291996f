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

	"github.com/Astemirdum/foyer-service/pkg/logger"
	"github.com/Astemirdum/foyer-service/pkg/postgres"
	"github.com/Astemirdum/foyer-service/pkg/server"
	"github.com/Astemirdum/foyer-service/room/config"
	"github.com/Astemirdum/foyer-service/room/internal/handler"
	"github.com/Astemirdum/foyer-service/room/internal/repository"
	"github.com/Astemirdum/foyer-service/room/internal/service"
	"github.com/Astemirdum/foyer-service/room/migrations"
)

func Run(cfg *config.Config) error {
	log := logger.NewLogger(cfg.Log, "room")
	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		return fmt.Errorf("db init %v", err)
	}
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		return fmt.Errorf("repo room %v", err)
	}
	svc := service.NewService(repo, log)
	h := handler.New(svc, log)

	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.Error("srv.Stop", zap.Error(err))
	}
	db.Close()
	log.Info("Graceful shutdown finished")
	return nil
}
