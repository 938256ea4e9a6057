package backup

import (
	"log/slog"
	"sync"
	"time"

	"github.com/opsboard/backend/internal"
)

// Scheduler runs a snapshot function on a fixed interval. A run that is
// still going when the next tick fires is skipped, never stacked. Errors and
// panics from the run function are logged and swallowed; a failing backup
// must not take the scheduler down.
type Scheduler struct {
	run    func() error
	clock  Clock
	logger *slog.Logger

	mu       sync.Mutex
	interval time.Duration
	started  bool
	inFlight bool
	stop     chan struct{}
	done     chan struct{}
}

func NewScheduler(intervalMinutes int, run func() error, clock Clock, logger *slog.Logger) (*Scheduler, error) {
	if err := validateInterval(intervalMinutes); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = SystemClock
	}
	return &Scheduler{
		run:      run,
		clock:    clock,
		logger:   logger,
		interval: time.Duration(intervalMinutes) * time.Minute,
	}, nil
}

func validateInterval(minutes int) error {
	for _, allowed := range internal.AllowedBackupIntervals {
		if minutes == allowed {
			return nil
		}
	}
	return internal.NewValidationError("backup interval is not in the allowed set", internal.ErrCodeInvalidInterval)
}

// Start launches the tick loop. Starting an already-running scheduler is a
// no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(s.interval, s.stop, s.done)
	s.logger.Info("backup scheduler started", "interval", s.interval)
}

// Stop halts the tick loop and waits for it to exit. An in-flight snapshot
// is left to finish on its own goroutine.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	stop, done := s.stop, s.done
	s.mu.Unlock()

	close(stop)
	<-done
	s.logger.Info("backup scheduler stopped")
}

// Reconfigure changes the interval, restarting the loop if it is running.
func (s *Scheduler) Reconfigure(intervalMinutes int) error {
	if err := validateInterval(intervalMinutes); err != nil {
		return err
	}

	s.mu.Lock()
	wasStarted := s.started
	s.interval = time.Duration(intervalMinutes) * time.Minute
	s.mu.Unlock()

	if wasStarted {
		s.Stop()
		s.Start()
	}
	s.logger.Info("backup scheduler reconfigured", "interval_minutes", intervalMinutes)
	return nil
}

func (s *Scheduler) loop(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		case <-s.clock.After(interval):
			s.fire()
		}
	}
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		s.logger.Warn("auto snapshot still running, skipping this tick")
		return
	}
	s.inFlight = true
	s.mu.Unlock()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("auto snapshot panicked", "panic", r)
			}
			s.mu.Lock()
			s.inFlight = false
			s.mu.Unlock()
		}()

		if err := s.run(); err != nil {
			s.logger.Error("auto snapshot failed", "error", err)
			return
		}
		s.logger.Info("auto snapshot completed")
	}()
}
