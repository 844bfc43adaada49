package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"contact-autoclose/pkg/config"
	"contact-autoclose/pkg/metrics"
	"contact-autoclose/pkg/models"
)

var (
	ErrUnknownConversation = errors.New("unknown conversation")
	ErrConversationClosed  = errors.New("conversation is closed")
)

// Detector is the closure detection capability the engine depends on.
type Detector interface {
	DetectDetailed(ctx context.Context, message string) models.DetectionResult
}

// Classifier is the intent classification capability the engine depends on.
type Classifier interface {
	ClassifyDetailed(ctx context.Context, conversation []models.Message) models.ClassificationResult
}

// Events are collaborator callbacks (UI, metrics logger). All callbacks are
// invoked without engine locks held; nil callbacks are skipped.
type Events struct {
	OnFired        func(conversationID string, cause models.CloseCause, mode models.TimerMode)
	OnCanceled     func(conversationID string, reason string)
	OnPhaseChanged func(conversationID string, phase models.TimerPhase)
}

// Engine runs one adaptive auto-close countdown per conversation. A closure
// statement from the agent starts a standard window; the customer's next
// reply is classified once and either cancels the countdown, accelerates it,
// or leaves it alone. Agent typing pauses elapsed-time accrual. Conversations
// are fully isolated from each other.
type Engine struct {
	cfg        *config.Config
	logger     *logrus.Logger
	metrics    *metrics.Metrics
	detector   Detector
	classifier Classifier
	events     Events

	mu            sync.Mutex
	conversations map[string]*conversation
	stopCh        chan struct{}
}

// conversation holds mutable per-contact state, guarded by its own mutex.
type conversation struct {
	id string

	mu             sync.Mutex
	messages       []models.Message
	closed         bool
	closureActive  bool // a closure episode is in progress
	everDetected   bool // closure detected at least once; disables the idle nudge
	issueResolved  bool
	lastClassified int // index of the last classified customer message
	lastAgentAt    time.Time
	typing         bool
	typingSeq      int
	mode           models.TimerMode
	countdown      *countdown
	epoch          int // bumps on every countdown start/cancel; stale async results check it
}

func New(cfg *config.Config, det Detector, cls Classifier, events Events, logger *logrus.Logger, m *metrics.Metrics) *Engine {
	return &Engine{
		cfg:           cfg,
		logger:        logger,
		metrics:       m,
		detector:      det,
		classifier:    cls,
		events:        events,
		conversations: make(map[string]*conversation),
		stopCh:        make(chan struct{}),
	}
}

// OpenNew creates a conversation with a generated ID.
func (e *Engine) OpenNew() string {
	id := uuid.New().String()
	e.Open(id)
	return id
}

// Open creates conversation state and arms the idle-nudge watcher.
// Opening an existing ID is a no-op.
func (e *Engine) Open(id string) {
	e.mu.Lock()
	if _, exists := e.conversations[id]; exists {
		e.mu.Unlock()
		return
	}
	conv := &conversation{
		id:             id,
		lastClassified: -1,
		lastAgentAt:    time.Now(),
		mode:           models.ModeStandard,
	}
	e.conversations[id] = conv
	e.mu.Unlock()

	go e.nudgeLoop(conv)

	e.logger.WithField("conversation_id", id).Debug("Conversation opened")
}

// End tears down a conversation's state and timers.
func (e *Engine) End(id string) {
	e.mu.Lock()
	conv, ok := e.conversations[id]
	if ok {
		delete(e.conversations, id)
	}
	e.mu.Unlock()
	if !ok {
		return
	}

	conv.mu.Lock()
	conv.closed = true
	e.stopCountdownLocked(conv)
	conv.mu.Unlock()
}

// Shutdown stops all loops for all conversations.
func (e *Engine) Shutdown() {
	close(e.stopCh)

	e.mu.Lock()
	conversations := make([]*conversation, 0, len(e.conversations))
	for _, conv := range e.conversations {
		conversations = append(conversations, conv)
	}
	e.mu.Unlock()

	for _, conv := range conversations {
		conv.mu.Lock()
		e.stopCountdownLocked(conv)
		conv.mu.Unlock()
	}
}

func (e *Engine) lookup(id string) (*conversation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	conv, ok := e.conversations[id]
	if !ok {
		return nil, ErrUnknownConversation
	}
	return conv, nil
}

// AgentMessage records an agent message and runs closure detection. A fresh
// closure starts the standard countdown; a repeat closure while counting
// down only re-arms classification for the next customer reply.
func (e *Engine) AgentMessage(ctx context.Context, id, text string) (models.DetectionResult, error) {
	conv, err := e.lookup(id)
	if err != nil {
		return models.DetectionResult{}, err
	}

	conv.mu.Lock()
	if conv.closed {
		conv.mu.Unlock()
		return models.DetectionResult{}, ErrConversationClosed
	}
	conv.messages = append(conv.messages, models.Message{
		Text:    text,
		Speaker: models.SpeakerAgent,
		SentAt:  time.Now(),
	})
	conv.lastAgentAt = time.Now()
	conv.typing = false
	conv.typingSeq++
	conv.mu.Unlock()

	// Detection is a remote round trip; never hold the lock across it.
	result := e.detector.DetectDetailed(ctx, text)
	if !result.IsClosure {
		return result, nil
	}

	conv.mu.Lock()
	if conv.closed {
		conv.mu.Unlock()
		return result, nil
	}

	if conv.closureActive {
		// Repeat closure statement: the timer keeps running, but the
		// next customer reply becomes eligible for classification again.
		conv.lastClassified = -1
		conv.mu.Unlock()
		e.logger.WithField("conversation_id", id).Debug("Repeat closure statement, classification re-armed")
		return result, nil
	}

	conv.closureActive = true
	conv.everDetected = true
	conv.issueResolved = true
	conv.lastClassified = -1
	conv.mode = models.ModeStandard
	e.startCountdownLocked(conv, models.ModeStandard, e.cfg.StandardClose())
	conv.mu.Unlock()

	e.logger.WithFields(logrus.Fields{
		"conversation_id": id,
		"max_similarity":  result.MaxSimilarity,
		"window":          e.cfg.StandardClose(),
	}).Info("Closure statement detected, auto-close countdown started")

	e.emitPhase(id, models.PhaseCountingDown)
	return result, nil
}

// CustomerMessage records a customer message and, when a closure episode is
// active, classifies it at most once and applies the outcome to the timer.
func (e *Engine) CustomerMessage(ctx context.Context, id, text string) error {
	conv, err := e.lookup(id)
	if err != nil {
		return err
	}

	conv.mu.Lock()
	if conv.closed {
		conv.mu.Unlock()
		return ErrConversationClosed
	}
	conv.messages = append(conv.messages, models.Message{
		Text:    text,
		Speaker: models.SpeakerCustomer,
		SentAt:  time.Now(),
	})
	index := len(conv.messages) - 1

	// A message is classified only once, and only while a countdown is
	// running for this closure episode.
	eligible := conv.closureActive && conv.countdown != nil && index > conv.lastClassified
	if !eligible {
		conv.mu.Unlock()
		return nil
	}
	conv.lastClassified = index
	epoch := conv.epoch
	transcript := append([]models.Message(nil), conv.messages...)
	conv.mu.Unlock()

	result := e.classifier.ClassifyDetailed(ctx, transcript)
	e.applyClassification(conv, epoch, result)
	return nil
}

// applyClassification applies a classification outcome unless the timer has
// moved on (canceled, fired, restarted) while the remote call was in flight.
func (e *Engine) applyClassification(conv *conversation, epoch int, result models.ClassificationResult) {
	conv.mu.Lock()

	if conv.closed || !conv.closureActive || conv.countdown == nil || conv.epoch != epoch {
		conv.mu.Unlock()
		e.logger.WithFields(logrus.Fields{
			"conversation_id": conv.id,
			"label":           result.Label,
		}).Debug("Discarding stale classification result")
		return
	}

	switch result.Label {
	case models.LabelNeedsHelp:
		e.stopCountdownLocked(conv)
		conv.closureActive = false
		conv.issueResolved = false
		conv.lastClassified = -1
		conv.mode = models.ModeStandard
		conv.mu.Unlock()

		e.metrics.TimersCanceled.WithLabelValues("needs_help").Inc()
		e.logger.WithField("conversation_id", conv.id).Info("Customer needs more help, auto-close canceled")
		e.emitCanceled(conv.id, "needs_help")
		e.emitPhase(conv.id, models.PhaseIdle)

	case models.LabelSatisfied:
		remaining := conv.countdown.remaining(time.Now())
		if remaining > e.cfg.FastCloseFloor() {
			conv.mode = models.ModeFast
			e.startCountdownLocked(conv, models.ModeFast, e.cfg.FastClose())
			conv.mu.Unlock()

			e.logger.WithFields(logrus.Fields{
				"conversation_id": conv.id,
				"discarded":       remaining,
				"window":          e.cfg.FastClose(),
			}).Info("Customer satisfied, switched to fast close")
			e.emitPhase(conv.id, models.PhaseCountingDown)
		} else {
			// Already at or below the fast target; flip the mode tag
			// for display but leave the running countdown alone.
			conv.mode = models.ModeFast
			conv.countdown.mode = models.ModeFast
			conv.mu.Unlock()
		}

	default:
		conv.mu.Unlock()
		e.logger.WithField("conversation_id", conv.id).Debug("Customer response uncertain, countdown unchanged")
	}
}

// Typing is the agent keystroke signal. It pauses elapsed-time accrual; the
// countdown resumes after the configured debounce of keyboard silence.
func (e *Engine) Typing(id string) error {
	conv, err := e.lookup(id)
	if err != nil {
		return err
	}

	conv.mu.Lock()
	if conv.closed || conv.countdown == nil {
		conv.mu.Unlock()
		return nil
	}
	conv.typing = true
	conv.typingSeq++
	seq := conv.typingSeq
	conv.mu.Unlock()

	time.AfterFunc(e.cfg.TypingDebounce(), func() {
		conv.mu.Lock()
		if conv.typingSeq == seq {
			conv.typing = false
		}
		conv.mu.Unlock()
	})

	return nil
}

// Revert is the manual operator cancel. Permitted whenever a countdown is
// running or paused; the issue is marked unresolved.
func (e *Engine) Revert(id string) error {
	conv, err := e.lookup(id)
	if err != nil {
		return err
	}

	conv.mu.Lock()
	if conv.closed || conv.countdown == nil {
		conv.mu.Unlock()
		return nil
	}
	e.stopCountdownLocked(conv)
	conv.closureActive = false
	conv.issueResolved = false
	conv.lastClassified = -1
	conv.mode = models.ModeStandard
	conv.mu.Unlock()

	e.metrics.TimersCanceled.WithLabelValues("manual_revert").Inc()
	e.logger.WithField("conversation_id", id).Info("Auto-close reverted by operator, issue marked unresolved")
	e.emitCanceled(id, "manual_revert")
	e.emitPhase(id, models.PhaseIdle)
	return nil
}

// CloseManual closes the conversation immediately, bypassing any countdown.
func (e *Engine) CloseManual(id string) error {
	conv, err := e.lookup(id)
	if err != nil {
		return err
	}

	conv.mu.Lock()
	if conv.closed {
		conv.mu.Unlock()
		return ErrConversationClosed
	}
	e.stopCountdownLocked(conv)
	conv.closed = true
	mode := conv.mode
	conv.mu.Unlock()

	e.metrics.TimersFired.WithLabelValues(string(mode), string(models.CauseManual)).Inc()
	e.logger.WithField("conversation_id", id).Info("Conversation closed manually")
	e.emitFired(id, models.CauseManual, mode)
	e.emitPhase(id, models.PhaseFired)
	return nil
}

// Messages returns a copy of the conversation transcript.
func (e *Engine) Messages(id string) ([]models.Message, error) {
	conv, err := e.lookup(id)
	if err != nil {
		return nil, err
	}
	conv.mu.Lock()
	defer conv.mu.Unlock()
	return append([]models.Message(nil), conv.messages...), nil
}

// Snapshot returns a read-only view of the conversation's timer state.
func (e *Engine) Snapshot(id string) (models.TimerSnapshot, error) {
	conv, err := e.lookup(id)
	if err != nil {
		return models.TimerSnapshot{}, err
	}

	conv.mu.Lock()
	defer conv.mu.Unlock()

	snapshot := models.TimerSnapshot{
		ConversationID:      conv.id,
		Phase:               models.PhaseIdle,
		Mode:                conv.mode,
		Closed:              conv.closed,
		IssueResolved:       conv.issueResolved,
		MessageCount:        len(conv.messages),
		LastClassifiedIndex: conv.lastClassified,
		ClosureEverDetected: conv.everDetected,
	}

	if conv.closed {
		snapshot.Phase = models.PhaseFired
	} else if conv.countdown != nil {
		if conv.typing {
			snapshot.Phase = models.PhasePaused
		} else {
			snapshot.Phase = models.PhaseCountingDown
		}
		snapshot.Remaining = conv.countdown.remaining(time.Now())
		snapshot.Total = conv.countdown.total
	}

	return snapshot, nil
}

func (e *Engine) emitFired(id string, cause models.CloseCause, mode models.TimerMode) {
	if e.events.OnFired != nil {
		e.events.OnFired(id, cause, mode)
	}
}

func (e *Engine) emitCanceled(id, reason string) {
	if e.events.OnCanceled != nil {
		e.events.OnCanceled(id, reason)
	}
}

func (e *Engine) emitPhase(id string, phase models.TimerPhase) {
	if e.events.OnPhaseChanged != nil {
		e.events.OnPhaseChanged(id, phase)
	}
}
