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
	"golang.org/x/sync/errgroup"

	"github.com/confbook/booking-service/config"
	"github.com/confbook/booking-service/internal/handler"
	"github.com/confbook/booking-service/internal/repository"
	"github.com/confbook/booking-service/internal/server"
	"github.com/confbook/booking-service/internal/service"
	"github.com/confbook/booking-service/migrations"
	"github.com/confbook/booking-service/pkg/auth"
	"github.com/confbook/booking-service/pkg/kafka"
	"github.com/confbook/booking-service/pkg/logger"
	"github.com/confbook/booking-service/pkg/postgres"
)

func Run(cfg config.Config) error {
	log := logger.NewLogger(cfg.Log, "booking")
	auth.JWTKey = []byte(cfg.JWTKey)

	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		return fmt.Errorf("db init %v", err)
	}

	reservationRepo := repository.NewReservationRepository(db, log)
	roomRepo := repository.NewRoomRepository(db, log)
	maintenanceRepo := repository.NewMaintenanceRepository(db, log)
	userRepo := repository.NewUserRepository(db, log)
	statsRepo := repository.NewStatsRepository(db, log)

	var notifier service.Notifier = service.NopNotifier{}
	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		log.Warn("kafka producer unavailable, notifications disabled", zap.Error(err))
	} else {
		notifier = service.NewKafkaNotifier(producer, cfg.Kafka.Topic, log)
		defer producer.Close() //nolint:errcheck
	}

	bookingSvc := service.NewBookingService(reservationRepo, roomRepo, notifier, log)
	roomSvc := service.NewRoomService(roomRepo, maintenanceRepo, log)
	maintenanceSvc := service.NewMaintenanceService(maintenanceRepo, roomRepo, log)
	statsSvc := service.NewStatsService(statsRepo, log)
	authSvc := service.NewAuthService(userRepo, log)

	h := handler.New(bookingSvc, roomSvc, maintenanceSvc, statsSvc, authSvc, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server start ON: ",
			zap.String("addr",
				net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
		return srv.Run()
	})
	g.Go(func() error {
		maintenanceSvc.RunSweeper(gctx, cfg.SweepInterval)
		return nil
	})

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
	if err := g.Wait(); err != nil {
		log.Debug("background tasks", zap.Error(err))
	}
	db.Close()
	log.Info("Graceful shutdown finished")
	return nil
}
