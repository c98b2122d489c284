package services

import (
	"context"
	"log"
	"time"

	"github.com/ekalavyajud/backend/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
)

// OTPCleanupService periodically invalidates codes that outlived their
// validity window, so a stale code is gone from storage even if nobody
// ever tries to use it.
type OTPCleanupService struct {
	userRepo repositories.UserRepository
	validity time.Duration
	cron     *cron.Cron
}

// NewOTPCleanupService creates a new cleanup service
func NewOTPCleanupService(userRepo repositories.UserRepository, validity time.Duration) *OTPCleanupService {
	return &OTPCleanupService{
		userRepo: userRepo,
		validity: validity,
		cron:     cron.New(),
	}
}

// Start schedules the sweep every minute
func (s *OTPCleanupService) Start() {
	if _, err := s.cron.AddFunc("@every 1m", s.sweep); err != nil {
		log.Printf("otp cleanup schedule error: %v", err)
		return
	}
	s.cron.Start()
	log.Println("otp cleanup service started")
}

// Stop halts the scheduler and waits for a running sweep to finish
func (s *OTPCleanupService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("otp cleanup service stopped")
}

func (s *OTPCleanupService) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-s.validity)
	cleared, err := s.userRepo.ClearExpiredOtps(ctx, cutoff)
	if err != nil {
		log.Printf("otp cleanup sweep error: %v", err)
		return
	}
	if cleared > 0 {
		log.Printf("otp cleanup: invalidated %d expired code(s)", cleared)
	}
}
