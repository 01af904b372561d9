package scheduler

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/example/flashdeck/internal/gateway"
	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Константы для настроек уведомлений по умолчанию
const (
	DefaultNotificationStartHour = 8  // Время начала уведомлений
	DefaultNotificationEndHour   = 22 // Время окончания уведомлений
)

// DueChecker reports the current due count
type DueChecker interface {
	GetDueQueue(ctx context.Context) (*gateway.DueQueue, error)
}

// Notifier interface for sending notifications
type Notifier interface {
	SendReminder(count int) error
}

// Scheduler manages the periodic due-card reminder job
type Scheduler struct {
	scheduler *gocron.Scheduler
	checker   DueChecker
	notifier  Notifier
	logger    *zap.Logger
}

// New creates a new scheduler instance
func New(checker DueChecker, notifier Notifier, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		checker:   checker,
		notifier:  notifier,
		logger:    logger,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() {
	// Schedule hourly check for due cards
	s.scheduler.Every(1).Hour().Do(s.checkAndSendReminder)

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// checkAndSendReminder checks the due count and notifies if cards are waiting
func (s *Scheduler) checkAndSendReminder() {
	currentHour := time.Now().Hour()

	startHour := DefaultNotificationStartHour
	endHour := DefaultNotificationEndHour

	// Проверяем, задано ли время в переменных окружения
	if startHourStr := os.Getenv("NOTIFICATION_START_HOUR"); startHourStr != "" {
		if h, err := strconv.Atoi(startHourStr); err == nil && h >= 0 && h <= 23 {
			startHour = h
		}
	}
	if endHourStr := os.Getenv("NOTIFICATION_END_HOUR"); endHourStr != "" {
		if h, err := strconv.Atoi(endHourStr); err == nil && h >= 0 && h <= 23 {
			endHour = h
		}
	}

	if currentHour < startHour || currentHour > endHour {
		s.logger.Debug("outside notification hours, skipping reminder",
			zap.Int("current_hour", currentHour),
			zap.Int("start_hour", startHour),
			zap.Int("end_hour", endHour),
		)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	queue, err := s.checker.GetDueQueue(ctx)
	if err != nil {
		s.logger.Warn("failed to check due cards", zap.Error(err))
		return
	}

	if queue.TotalDue == 0 {
		return
	}

	if err := s.notifier.SendReminder(queue.TotalDue); err != nil {
		s.logger.Warn("failed to send reminder", zap.Error(err))
	}
}

// RunManualCheck forces a due check and reminder outside the schedule
func (s *Scheduler) RunManualCheck(ctx context.Context) error {
	queue, err := s.checker.GetDueQueue(ctx)
	if err != nil {
		return err
	}
	if queue.TotalDue > 0 {
		return s.notifier.SendReminder(queue.TotalDue)
	}
	return nil
}
