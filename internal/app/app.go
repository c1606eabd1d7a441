// Package app builds the shared object graph of the api and worker binaries.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"venuebook/internal/calendarsync"
	"venuebook/internal/config"
	"venuebook/internal/database"
	"venuebook/internal/lock"
	"venuebook/internal/modules/errclass"
	"venuebook/internal/modules/reservation"
	"venuebook/internal/notification"
	"venuebook/internal/pkg/jwt"
	"venuebook/internal/repository"
)

type App struct {
	Config *config.Config
	Log    *zap.Logger
	DB     *gorm.DB

	Reservations *repository.ReservationRepository
	Resources    *repository.ResourceRepository
	Guard        *errclass.Guard
	Processor    *calendarsync.Processor
	Service      *reservation.Service
	Tokens       *jwt.Service

	inline  *calendarsync.InlineDispatcher
	closers []func() error
}

// New connects the database, migrates it and wires every backend selected
// in cfg. Close releases them in reverse order.
func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log}

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}
	a.DB = db
	a.closers = append(a.closers, func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})
	if err := repository.AutoMigrate(db); err != nil {
		_ = a.Close()
		return nil, err
	}

	locker, err := a.newLocker()
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Guard = newGuard(cfg, log)
	a.Reservations = repository.NewReservationRepository(db, locker)
	a.Resources = repository.NewResourceRepository(db)
	a.Processor = calendarsync.NewProcessor(a.newSyncer(), a.Reservations, log.Named("calendarsync"))
	a.Tokens = jwt.New(cfg.JWTSecret, cfg.JWTAccessTTL)

	a.Service = reservation.NewService(
		a.Reservations,
		a.Resources,
		a.newDispatcher(),
		a.newNotifier(),
		a.Guard,
		log.Named("reservation"),
		reservation.Options{MaxOccurrences: cfg.RecurringMaxOccurrences},
	)
	return a, nil
}

// RedisOpt is the asynq connection shared by the dispatcher and the worker.
func (a *App) RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     a.Config.RedisAddr,
		Password: a.Config.RedisPassword,
		DB:       a.Config.RedisDB,
	}
}

func (a *App) Close() error {
	if a.inline != nil {
		a.inline.Wait()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) newLocker() (lock.Locker, error) {
	switch a.Config.LockBackend {
	case config.LockMutex:
		return lock.NewMutex(), nil
	case config.LockRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     a.Config.RedisAddr,
			Password: a.Config.RedisPassword,
			DB:       a.Config.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), a.Config.LockWait)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		a.closers = append(a.closers, rdb.Close)
		return lock.NewRedis(rdb, a.Config.LockTTL, a.Config.LockWait), nil
	}
	// Row locks only.
	return nil, nil
}

func newGuard(cfg *config.Config, log *zap.Logger) *errclass.Guard {
	policy := errclass.DefaultPolicy()
	policy.MaxAttempts = cfg.RetryMaxAttempts
	policy.BaseDelay = cfg.RetryBaseDelay

	return errclass.NewGuard(policy, errclass.Hooks{
		OnAuth: func(ctx context.Context, err error) {
			log.Warn("session rejected by backend, client must sign in again", zap.Error(err))
		},
		OnPermission: func(ctx context.Context, err error) {
			log.Warn("tenant access revoked, dropping cached membership", zap.Error(err))
		},
	}, log.Named("guard"))
}

func (a *App) newSyncer() calendarsync.Syncer {
	if a.Config.CalendarSyncURL == "" {
		return calendarsync.Disabled{}
	}
	return calendarsync.NewHTTPSyncer(a.Config.CalendarSyncURL, a.Config.CalendarSyncToken)
}

func (a *App) newDispatcher() reservation.CalendarSync {
	switch a.Config.SyncBackend {
	case config.SyncAsynq:
		client := asynq.NewClient(a.RedisOpt())
		a.closers = append(a.closers, client.Close)
		return calendarsync.NewAsynqDispatcher(client, a.Config.RetryMaxAttempts)
	case config.SyncInline:
		if a.Config.CalendarSyncURL == "" {
			a.Log.Info("CALENDAR_SYNC_URL is empty, calendar sync disabled")
			return calendarsync.Nop{}
		}
		a.inline = calendarsync.NewInlineDispatcher(a.Processor, a.Guard, a.Log.Named("calendarsync"))
		return a.inline
	}
	return calendarsync.Nop{}
}

func (a *App) newNotifier() reservation.Notifier {
	if a.Config.AMQPURL == "" {
		return notification.Nop{}
	}
	pub := notification.NewAMQPPublisher(a.Config.AMQPURL, a.Config.NotifyQueue, a.Log.Named("notification"))
	a.closers = append(a.closers, pub.Close)
	return pub
}
