package engine

import (
	"time"

	"github.com/sirupsen/logrus"

	"contact-autoclose/pkg/constants"
	"contact-autoclose/pkg/models"
)

// countdown tracks one running auto-close window against a monotonic start
// instant. Time spent paused (agent typing) is accumulated and excluded from
// the elapsed computation rather than discarded.
type countdown struct {
	mode        models.TimerMode
	total       time.Duration
	startedAt   time.Time
	pausedAccum time.Duration
	pauseStart  time.Time // zero when not paused
	stop        chan struct{}
}

func (cd *countdown) remaining(now time.Time) time.Duration {
	elapsed := now.Sub(cd.startedAt) - cd.pausedAccum
	if !cd.pauseStart.IsZero() {
		elapsed -= now.Sub(cd.pauseStart)
	}
	if elapsed >= cd.total {
		return 0
	}
	return cd.total - elapsed
}

// startCountdownLocked replaces any running countdown with a new one.
// Cancellation of the old and creation of the new happen under the same
// lock hold, so two tickers never run for one conversation.
func (e *Engine) startCountdownLocked(conv *conversation, mode models.TimerMode, total time.Duration) {
	e.stopCountdownLocked(conv)

	cd := &countdown{
		mode:      mode,
		total:     total,
		startedAt: time.Now(),
		stop:      make(chan struct{}),
	}
	conv.countdown = cd
	conv.epoch++

	e.metrics.ActiveCountdowns.Inc()
	e.metrics.TimersStarted.WithLabelValues(string(mode)).Inc()

	go e.runCountdown(conv, cd)
}

// stopCountdownLocked cancels the running countdown, if any. The epoch bump
// invalidates classification results still in flight for the old window.
func (e *Engine) stopCountdownLocked(conv *conversation) {
	if conv.countdown == nil {
		return
	}
	close(conv.countdown.stop)
	conv.countdown = nil
	conv.epoch++
	e.metrics.ActiveCountdowns.Dec()
}

func (e *Engine) runCountdown(conv *conversation, cd *countdown) {
	ticker := time.NewTicker(e.cfg.Tick())
	defer ticker.Stop()

	for {
		select {
		case <-cd.stop:
			return
		case <-e.stopCh:
			return
		case now := <-ticker.C:
			conv.mu.Lock()
			if conv.countdown != cd {
				conv.mu.Unlock()
				return
			}

			if conv.typing {
				justPaused := cd.pauseStart.IsZero()
				if justPaused {
					cd.pauseStart = now
				}
				conv.mu.Unlock()
				if justPaused {
					e.emitPhase(conv.id, models.PhasePaused)
				}
				continue
			}

			resumed := false
			if !cd.pauseStart.IsZero() {
				cd.pausedAccum += now.Sub(cd.pauseStart)
				cd.pauseStart = time.Time{}
				resumed = true
			}

			if cd.remaining(now) > 0 {
				conv.mu.Unlock()
				if resumed {
					e.emitPhase(conv.id, models.PhaseCountingDown)
				}
				continue
			}

			mode := cd.mode
			conv.countdown = nil
			conv.epoch++
			conv.closed = true
			e.metrics.ActiveCountdowns.Dec()
			conv.mu.Unlock()

			e.metrics.TimersFired.WithLabelValues(string(mode), string(models.CauseAuto)).Inc()
			e.logger.WithFields(logrus.Fields{
				"conversation_id": conv.id,
				"mode":            mode,
			}).Info("Contact closed automatically")
			e.emitFired(conv.id, models.CauseAuto, mode)
			e.emitPhase(conv.id, models.PhaseFired)
			return
		}
	}
}

// nudgeLoop injects a synthetic "Are you there?" customer message after the
// configured span of agent inactivity. It runs from conversation open until
// the conversation closes or a closure statement is ever detected; once a
// closure has been seen, the conversation is past the nudge phase for good.
func (e *Engine) nudgeLoop(conv *conversation) {
	ticker := time.NewTicker(e.cfg.Tick())
	defer ticker.Stop()

	for {
		select {
		case <-e.stopCh:
			return
		case now := <-ticker.C:
			conv.mu.Lock()
			if conv.closed || conv.everDetected {
				conv.mu.Unlock()
				return
			}

			if now.Sub(conv.lastAgentAt) < e.cfg.IdleNudge() {
				conv.mu.Unlock()
				continue
			}

			conv.messages = append(conv.messages, models.Message{
				Text:    constants.NudgeMessage,
				Speaker: models.SpeakerCustomer,
				SentAt:  now,
			})
			conv.lastAgentAt = now
			conv.mu.Unlock()

			e.metrics.IdleNudgesInjected.Inc()
			e.logger.WithField("conversation_id", conv.id).Info("Agent idle, injected nudge message")
		}
	}
}
