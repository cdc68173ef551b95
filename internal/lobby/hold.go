package lobby

import (
	"log"
	"time"
)

// championHold reserves the table for the last winner. Until readyAt the
// winner waits for a challenger instead of joining the queue.
type championHold struct {
	participantID string
	name          string
	readyAt       time.Time
	timer         Timer
}

// HoldStatus is the public view of the champion hold.
type HoldStatus struct {
	ParticipantID string    `json:"participant_id"`
	Name          string    `json:"name"`
	ReadyAt       time.Time `json:"ready_at"`
}

// Hold returns the current champion hold, if any.
func (s *Scheduler) Hold() (HoldStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hold == nil {
		return HoldStatus{}, false
	}
	return HoldStatus{ParticipantID: s.hold.participantID, Name: s.hold.name, ReadyAt: s.hold.readyAt}, true
}

// CancelHold gives up the champion slot. Only the holder may cancel.
func (s *Scheduler) CancelHold(participantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hold == nil || s.hold.participantID != participantID {
		log.Printf("[LOBBY] cancel-hold from %s ignored: not the champion", participantID)
		return
	}
	log.Printf("[LOBBY] champion %s gave up the table", participantID)
	s.clearHold()
	s.tryAdmit()
}

// grantHold replaces any existing hold with a fresh one for the winner.
func (s *Scheduler) grantHold(participantID, name string) {
	if s.hold != nil {
		s.clearHold()
	}

	h := &championHold{
		participantID: participantID,
		name:          name,
		readyAt:       s.clock.Now().Add(s.cfg.HoldDuration),
	}
	h.timer = s.clock.AfterFunc(s.cfg.HoldDuration, func() { s.holdExpired(h) })
	s.hold = h

	log.Printf("[LOBBY] %s holds the table until %s", name, h.readyAt.Format(time.RFC3339))
}

func (s *Scheduler) clearHold() {
	if s.hold == nil {
		return
	}
	if s.hold.timer != nil {
		s.hold.timer.Stop()
	}
	s.hold = nil
}

// holdExpired fires when nobody challenged the champion in time. A hold
// that was cleared or replaced meanwhile is ignored.
func (s *Scheduler) holdExpired(h *championHold) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hold != h {
		return
	}
	h.readyAt = s.clock.Now()
	h.timer = nil

	log.Printf("[LOBBY] hold for %s expired (queue=%d)", h.participantID, len(s.queue))
	s.notifier.Publish(toParticipant(h.participantID, EventWinnerTimeout, nil))
	s.tryAdmit()
}
