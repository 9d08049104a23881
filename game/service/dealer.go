package service

import (
	"context"
	"log"
	"time"

	"github.com/wricardo/klondike/game/engine"
)

// dealRun is the background deal of one game in one session
type dealRun struct {
	gameID string
	cancel context.CancelFunc
}

// beginDeal starts pacing the opening deal of the session's current game. Tables with no
// deal interval are dealt at once and the placements are returned. Callers hold s.mu.
func (s *gameServiceImpl) beginDeal(sess *Session) []engine.Event {
	s.stopDeal(sess.ID)

	interval := sess.Config.DealInterval()
	if interval <= 0 {
		return sess.Engine.DealAll()
	}

	ctx, cancel := context.WithCancel(context.Background())
	run := &dealRun{gameID: sess.Engine.GameID(), cancel: cancel}
	s.dealers[sess.ID] = run
	go s.runDeal(ctx, sess.ID, run, interval)
	return nil
}

// stopDeal cancels a running deal. Callers hold s.mu.
func (s *gameServiceImpl) stopDeal(sessionID string) {
	if run, ok := s.dealers[sessionID]; ok {
		run.cancel()
		delete(s.dealers, sessionID)
	}
}

func (s *gameServiceImpl) runDeal(ctx context.Context, sessionID string, run *dealRun, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if done := s.dealStep(ctx, sessionID, run); done {
				return
			}
		}
	}
}

// dealStep places one card and reports whether the deal is over for this run
func (s *gameServiceImpl) dealStep(ctx context.Context, sessionID string, run *dealRun) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil {
		return true
	}
	sess, err := s.sessions.Get(sessionID)
	if err != nil || sess.Engine.GameID() != run.gameID || sess.Engine.Phase() != engine.PhaseDealing {
		s.finishDeal(sessionID, run)
		return true
	}

	events := sess.Engine.DealStep()
	s.publish(sessionID, sess.Engine.Snapshot(), events)

	if sess.Engine.Phase() != engine.PhaseDealing {
		log.Printf("[DEAL] session=%s game=%s complete", sessionID, run.gameID)
		s.finishDeal(sessionID, run)
		return true
	}
	return false
}

func (s *gameServiceImpl) finishDeal(sessionID string, run *dealRun) {
	if current, ok := s.dealers[sessionID]; ok && current == run {
		delete(s.dealers, sessionID)
	}
	run.cancel()
}
