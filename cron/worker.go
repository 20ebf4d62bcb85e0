package cron

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"bookmytime/config"
	slotRepo "bookmytime/database/repository/slot"
	"bookmytime/services/booking"
	"bookmytime/utils"
)

const (
	TypeSlotRelease      = "slot:release"
	TypeAppointmentSweep = "appointment:sweep"
)

// SlotReleasePayload is the queued half of a deferred capacity release.
type SlotReleasePayload struct {
	SlotID string `json:"slotId"`
	Token  string `json:"token"`
}

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// AsynqReleaseScheduler defers slot releases through the task queue so a
// cancellation's capacity only reopens after the configured grace period.
type AsynqReleaseScheduler struct {
	client *asynq.Client
}

func NewAsynqReleaseScheduler() *AsynqReleaseScheduler {
	return &AsynqReleaseScheduler{client: asynq.NewClient(redisOpts())}
}

var _ booking.ReleaseScheduler = (*AsynqReleaseScheduler)(nil)

func (s *AsynqReleaseScheduler) ScheduleRelease(ctx context.Context, slotID, token string, delay time.Duration) error {
	payload, err := json.Marshal(SlotReleasePayload{SlotID: slotID, Token: token})
	if err != nil {
		return err
	}
	task := asynq.NewTask(TypeSlotRelease, payload)
	_, err = s.client.EnqueueContext(ctx, task, asynq.ProcessIn(delay), asynq.MaxRetry(10))
	return err
}

func (s *AsynqReleaseScheduler) Close() error {
	return s.client.Close()
}

// InitBookingWorker runs the async worker and the periodic sweep scheduler
// in the background.
func InitBookingWorker(coordinator booking.Coordinator, slots slotRepo.SlotRepository) {
	logger := utils.GetLogger()

	srv := asynq.NewServer(
		redisOpts(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeSlotRelease, handleSlotRelease(slots))
	mux.HandleFunc(TypeAppointmentSweep, handleSweep(coordinator))

	go func() {
		logger.Info("starting booking worker")
		if err := srv.Run(mux); err != nil {
			logger.Fatal("booking worker stopped", zap.Error(err))
		}
	}()

	scheduler := asynq.NewScheduler(redisOpts(), nil)
	if _, err := scheduler.Register("@every 5m", asynq.NewTask(TypeAppointmentSweep, nil)); err != nil {
		logger.Fatal("failed to register sweep schedule", zap.Error(err))
	}
	go func() {
		if err := scheduler.Run(); err != nil {
			logger.Fatal("sweep scheduler stopped", zap.Error(err))
		}
	}()
}

// handleSlotRelease frees one reservation. Releases are idempotent per
// token, so redelivery after a crash is harmless.
func handleSlotRelease(slots slotRepo.SlotRepository) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p SlotReleasePayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			utils.GetLogger().Error("invalid slot release payload", zap.Error(err))
			return nil
		}

		err := slots.Release(ctx, p.SlotID, p.Token)
		if errors.Is(err, slotRepo.ErrAlreadyReleased) || errors.Is(err, slotRepo.ErrNotFound) {
			return nil
		}
		if err != nil {
			utils.GetLogger().Warn("deferred slot release failed, will retry",
				zap.String("slotId", p.SlotID), zap.Error(err))
		}
		return err
	}
}

// handleSweep expires stale PENDING appointments and releases orphaned
// reservations left behind by crashes between reserve and commit.
func handleSweep(coordinator booking.Coordinator) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		logger := utils.GetLogger()

		expired, err := coordinator.SweepExpiredPending(ctx)
		if err != nil {
			logger.Warn("pending sweep failed", zap.Error(err))
			return err
		}
		orphaned, err := coordinator.ReconcileReservations(ctx)
		if err != nil {
			logger.Warn("reservation reconcile failed", zap.Error(err))
			return err
		}
		if expired > 0 || orphaned > 0 {
			logger.Info("maintenance sweep finished",
				zap.Int("expiredPending", expired), zap.Int("orphanedReservations", orphaned))
		}
		return nil
	}
}
