package checkout

import "time"

// Scheduler owns the two timers of the payment step: the countdown tick and
// the status poll. They are armed and disarmed together. A Scheduler is used
// by exactly one goroutine, the flow loop.
type Scheduler struct {
	clock     Clock
	tick      time.Duration
	poll      time.Duration
	countdown Ticker
	poller    Ticker
}

func NewScheduler(clock Clock, tick, poll time.Duration) *Scheduler {
	return &Scheduler{clock: clock, tick: tick, poll: poll}
}

// Start arms both timers. Starting an armed scheduler does nothing.
func (s *Scheduler) Start() {
	if s.Armed() {
		return
	}
	s.countdown = s.clock.NewTicker(s.tick)
	s.poller = s.clock.NewTicker(s.poll)
}

// Stop disarms both timers. Stopping a disarmed scheduler does nothing.
func (s *Scheduler) Stop() {
	if s.countdown != nil {
		s.countdown.Stop()
		s.countdown = nil
	}
	if s.poller != nil {
		s.poller.Stop()
		s.poller = nil
	}
}

func (s *Scheduler) Armed() bool { return s.countdown != nil }

// Ticks delivers countdown ticks; nil while disarmed, so a select on it
// blocks forever.
func (s *Scheduler) Ticks() <-chan time.Time {
	if s.countdown == nil {
		return nil
	}
	return s.countdown.C()
}

// Polls delivers poll ticks; nil while disarmed.
func (s *Scheduler) Polls() <-chan time.Time {
	if s.poller == nil {
		return nil
	}
	return s.poller.C()
}
