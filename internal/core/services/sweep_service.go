package services

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// SweepService runs the background reaper: idle sessions and stale wallet
// transfer requests are cleaned up once a minute.
type SweepService struct {
	manager *SessionManager
	cron    *cron.Cron
}

// NewSweepService creates a new sweep service
func NewSweepService(manager *SessionManager) *SweepService {
	return &SweepService{
		manager: manager,
		cron:    cron.New(),
	}
}

// Start registers the sweep job and starts the scheduler
func (s *SweepService) Start() error {
	_, err := s.cron.AddFunc("@every 1m", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if reaped := s.manager.SweepExpired(ctx, time.Now()); reaped > 0 {
			log.Printf("✅ Sweep reaped %d idle session(s), %d remaining", reaped, s.manager.Count())
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	log.Println("✅ Sweep scheduler started")
	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (s *SweepService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
