package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"venuebook/internal/app"
	"venuebook/internal/config"
	"venuebook/internal/domain"
	"venuebook/internal/modules/errclass"
	"venuebook/internal/modules/reservation"
	"venuebook/internal/pkg/logger"
)

type demoResource struct {
	name     string
	kind     string
	rateKind string
	rate     string
}

var demoResources = []demoResource{
	{"Hall A", "space", "hourly", "120"},
	{"Hall B", "space", "hourly", "80"},
	{"Cyclorama", "space", "flat", "450"},
	{"Makeup artist", "professional", "hourly", "35"},
}

// Seed fills two demo tenants with resources and a week of bookings. It
// books through the reservation service, so overlapping picks are skipped.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	cfg.SyncBackend = config.SyncOff
	cfg.AMQPURL = ""

	lg, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	a, err := app.New(cfg, lg)
	if err != nil {
		lg.Fatal("startup failed", zap.Error(err))
	}
	defer func() { _ = a.Close() }()

	ctx := context.Background()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	monday := nextMonday(time.Now().UTC())

	for tenant := int64(1); tenant <= 2; tenant++ {
		actor := reservation.Actor{UserID: tenant * 100, TenantID: tenant}
		var ids []int64
		for _, d := range demoResources {
			res, err := a.Service.CreateResource(ctx, actor, reservation.CreateResourceRequest{
				Name:     d.name,
				Kind:     d.kind,
				RateKind: d.rateKind,
				Rate:     decimal.RequireFromString(d.rate),
				Currency: "USD",
			})
			if err != nil {
				lg.Fatal("create resource", zap.String("name", d.name), zap.Error(err))
			}
			ids = append(ids, res.ID)
		}

		created, skipped := 0, 0
		for i := 0; i < 25; i++ {
			start := monday.AddDate(0, 0, rng.Intn(7)).Add(time.Duration(9+rng.Intn(10)) * time.Hour)
			req := reservation.CreateRequest{
				ResourceID:   ids[rng.Intn(len(ids))],
				CustomerName: fmt.Sprintf("Customer %d", i+1),
				StartTime:    start,
				EndTime:      start.Add(time.Duration(1+rng.Intn(3)) * time.Hour),
			}
			if rng.Intn(5) == 0 {
				req.Status = domain.ReservationPending
			}
			if _, err := a.Service.Create(ctx, actor, req); err != nil {
				if errclass.Classify(err) != errclass.CategoryConflict {
					lg.Fatal("create reservation", zap.Error(err))
				}
				skipped++
				continue
			}
			created++
		}

		token, err := a.Tokens.GenerateToken(actor.UserID, tenant, "owner")
		if err != nil {
			lg.Fatal("token", zap.Error(err))
		}
		lg.Info("tenant seeded",
			zap.Int64("tenant_id", tenant),
			zap.Int("resources", len(ids)),
			zap.Int("reservations", created),
			zap.Int("skipped_overlaps", skipped),
			zap.String("owner_token", token))
	}
}

func nextMonday(now time.Time) time.Time {
	d := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	offset := (8 - int(d.Weekday())) % 7
	if offset == 0 {
		offset = 7
	}
	return d.AddDate(0, 0, offset)
}
