package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/ritalabs/rita/internal/models"
	"github.com/ritalabs/rita/pkg/logger"
)

// ScheduleService manages future survey batches and the cron dispatcher
// that releases them. Batches live in the database, never in process
// memory, so a restart loses nothing and multiple instances can share the
// work through the scheduler lock table.
type ScheduleService struct {
	db     *gorm.DB
	window *SendWindowService
	queue  TaskQueue
	cron   *cron.Cron
}

func NewScheduleService(db *gorm.DB, window *SendWindowService, queue TaskQueue) *ScheduleService {
	return &ScheduleService{db: db, window: window, queue: queue}
}

// Create schedules a batch of ready customers for a future time.
func (s *ScheduleService) Create(groupName string, scheduledAt time.Time, customerIDs []string, createdBy uint) (*models.ScheduledBatch, error) {
	if !scheduledAt.After(time.Now()) {
		return nil, newValidationError("scheduled time must be in the future")
	}
	if len(customerIDs) == 0 {
		return nil, newValidationError("batch must include at least one customer")
	}

	var count int64
	err := s.db.Model(&models.Customer{}).
		Where("id IN ? AND status = ?", customerIDs, models.CustomerStatusReady).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count != int64(len(customerIDs)) {
		return nil, newValidationError("all customers must exist and be ready to survey")
	}

	batch := &models.ScheduledBatch{
		GroupName:   groupName,
		ScheduledAt: scheduledAt,
		Status:      models.BatchStatusScheduled,
		CreatedBy:   createdBy,
	}
	batch.SetCustomerIDs(customerIDs)
	if err := s.db.Create(batch).Error; err != nil {
		return nil, fmt.Errorf("create scheduled batch: %w", err)
	}
	logger.Info().Uint("batch_id", batch.ID).Time("at", scheduledAt).
		Int("customers", len(customerIDs)).Msg("survey batch scheduled")
	return batch, nil
}

func (s *ScheduleService) List() ([]models.ScheduledBatch, error) {
	var batches []models.ScheduledBatch
	err := s.db.Order("scheduled_at ASC").Find(&batches).Error
	return batches, err
}

func (s *ScheduleService) Get(id uint) (*models.ScheduledBatch, error) {
	var batch models.ScheduledBatch
	if err := s.db.First(&batch, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "scheduled batch", ID: strconv.FormatUint(uint64(id), 10)}
		}
		return nil, err
	}
	return &batch, nil
}

// Cancel aborts a batch that has not dispatched yet.
func (s *ScheduleService) Cancel(id uint) error {
	batch, err := s.Get(id)
	if err != nil {
		return err
	}
	if batch.Status != models.BatchStatusScheduled {
		return newStateError("batch already %s", batch.Status)
	}
	batch.Status = models.BatchStatusCanceled
	return s.db.Save(batch).Error
}

// StartDispatcher runs the due-batch sweep every minute.
func (s *ScheduleService) StartDispatcher() {
	s.cron = cron.New()
	_, err := s.cron.AddFunc("* * * * *", s.dispatchDue)
	if err != nil {
		logger.Error().Err(err).Msg("schedule dispatcher registration failed")
		return
	}
	s.cron.Start()
	logger.Info().Msg("survey batch dispatcher started")
}

func (s *ScheduleService) StopDispatcher() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *ScheduleService) dispatchDue() {
	if ok, reason := s.window.CanSendNow(); !ok {
		logger.Debug().Str("reason", reason).Msg("dispatch deferred by send window")
		return
	}

	var due []models.ScheduledBatch
	err := s.db.
		Where("status = ? AND scheduled_at <= ?", models.BatchStatusScheduled, time.Now()).
		Find(&due).Error
	if err != nil {
		logger.Error().Err(err).Msg("query due batches failed")
		return
	}

	for i := range due {
		s.dispatchBatch(&due[i])
	}
}

// dispatchBatch fans one batch out to the task queue. A row in the
// scheduler lock table keeps a second instance from dispatching the same
// batch; the lock expires in case the holder dies mid-dispatch.
func (s *ScheduleService) dispatchBatch(batch *models.ScheduledBatch) {
	lockKey := strconv.FormatUint(uint64(batch.ID), 10)
	if !s.acquireLock("batch_dispatch", lockKey, 10*time.Minute) {
		return
	}
	defer s.releaseLock("batch_dispatch", lockKey)

	// Re-read under the lock; another instance may have already finished.
	fresh, err := s.Get(batch.ID)
	if err != nil || fresh.Status != models.BatchStatusScheduled {
		return
	}

	enqueued := 0
	for _, customerID := range fresh.CustomerIDList() {
		task := &SurveyStartTask{CustomerID: customerID, BatchID: &fresh.ID}
		if err := s.queue.Enqueue(task); err != nil {
			logger.Error().Err(err).Str("customer_id", customerID).Msg("enqueue survey start failed")
			continue
		}
		enqueued++
	}

	now := time.Now()
	fresh.Status = models.BatchStatusDispatched
	fresh.DispatchedAt = &now
	if err := s.db.Save(fresh).Error; err != nil {
		logger.Error().Err(err).Uint("batch_id", fresh.ID).Msg("mark batch dispatched failed")
		return
	}
	logger.Info().Uint("batch_id", fresh.ID).Int("enqueued", enqueued).Msg("survey batch dispatched")
}

func (s *ScheduleService) acquireLock(name, key string, ttl time.Duration) bool {
	now := time.Now()
	s.db.Where("lock_name = ? AND lock_key = ? AND expires_at < ?", name, key, now).
		Delete(&models.SchedulerLock{})

	lock := models.SchedulerLock{
		LockName:  name,
		LockKey:   key,
		LockedBy:  lockHolder(),
		LockedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	// The unique index on (lock_name, lock_key) makes this insert the
	// arbitration point.
	return s.db.Create(&lock).Error == nil
}

func (s *ScheduleService) releaseLock(name, key string) {
	s.db.Where("lock_name = ? AND lock_key = ?", name, key).
		Delete(&models.SchedulerLock{})
}

func lockHolder() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

// ProcessSurveyStart is the task-queue processor: it starts one customer's
// survey. Wired to both the sync queue and the async worker at bootstrap.
func ProcessSurveyStart(conversations *ConversationService) func(context.Context, *SurveyStartTask) error {
	return func(ctx context.Context, task *SurveyStartTask) error {
		_, err := conversations.Start(ctx, task.CustomerID)
		if err != nil {
			var stateErr *StateError
			if errors.As(err, &stateErr) {
				// Already started or terminal; a duplicate task is not a failure.
				logger.Warn().Str("customer_id", task.CustomerID).Str("reason", stateErr.Message).
					Msg("survey start skipped")
				return nil
			}
			var deliveryErr *DeliveryError
			if errors.As(err, &deliveryErr) {
				markFailed(conversations.db, task.CustomerID)
			}
			return err
		}
		return nil
	}
}

func markFailed(db *gorm.DB, customerID string) {
	db.Model(&models.Customer{}).
		Where("id = ? AND status = ?", customerID, models.CustomerStatusActive).
		Update("status", models.CustomerStatusFailed)
}
