package dialogue

import (
	"context"
	"fmt"

	"github.com/smartsalon/salon-booking-bot/internal/observability/metrics"
	"github.com/smartsalon/salon-booking-bot/internal/session"
	"github.com/smartsalon/salon-booking-bot/internal/whatsapp"
	"github.com/smartsalon/salon-booking-bot/pkg/logging"
)

// SessionStore loads and saves conversation sessions.
type SessionStore interface {
	Get(ctx context.Context, identity string) (session.Session, error)
	Put(ctx context.Context, sess session.Session) error
}

// ReplyRenderer delivers a reply to the caller.
type ReplyRenderer interface {
	Render(ctx context.Context, to string, reply Reply) error
}

// Service is the per-message control loop: load session, run the engine,
// persist the session, render the reply. The session is saved before the
// reply goes out so a send failure cannot desynchronize state.
type Service struct {
	engine   *Engine
	sessions SessionStore
	renderer ReplyRenderer
	metrics  *metrics.BotMetrics
	logger   *logging.Logger
}

// NewService wires the control loop.
func NewService(engine *Engine, sessions SessionStore, renderer ReplyRenderer, m *metrics.BotMetrics, logger *logging.Logger) *Service {
	if engine == nil {
		panic("dialogue: engine required")
	}
	if sessions == nil {
		panic("dialogue: session store required")
	}
	if renderer == nil {
		panic("dialogue: renderer required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{engine: engine, sessions: sessions, renderer: renderer, metrics: m, logger: logger}
}

// HandleMessage processes one inbound WhatsApp message end to end.
func (s *Service) HandleMessage(ctx context.Context, msg whatsapp.Message) error {
	sess, err := s.sessions.Get(ctx, msg.From)
	if err != nil {
		s.metrics.ObserveInbound(string(msg.Kind), "error")
		return fmt.Errorf("dialogue: load session for %s: %w", msg.From, err)
	}
	prevState := sess.State

	var (
		next  session.Session
		reply Reply
	)
	switch msg.Kind {
	case whatsapp.KindImage:
		next, reply, err = s.engine.HandleImage(ctx, sess, msg.MediaID)
	default:
		next, reply, err = s.engine.Process(ctx, sess, msg.Text)
	}
	if err != nil {
		s.metrics.ObserveInbound(string(msg.Kind), "error")
		return fmt.Errorf("dialogue: handle %s from %s: %w", msg.Kind, msg.From, err)
	}

	if err := s.sessions.Put(ctx, next); err != nil {
		s.metrics.ObserveInbound(string(msg.Kind), "error")
		return fmt.Errorf("dialogue: save session for %s: %w", msg.From, err)
	}
	if prevState != next.State {
		s.metrics.ObserveTransition(string(prevState), string(next.State))
	}

	if err := s.renderer.Render(ctx, msg.From, reply); err != nil {
		// State is already saved; the caller's next message continues the
		// conversation even though this reply was lost.
		s.metrics.ObserveInbound(string(msg.Kind), "send_failed")
		return fmt.Errorf("dialogue: render reply to %s: %w", msg.From, err)
	}

	s.metrics.ObserveInbound(string(msg.Kind), "handled")
	s.logger.Debug("message handled",
		"identity", msg.From,
		"kind", string(msg.Kind),
		"from_state", string(prevState),
		"to_state", string(next.State),
	)
	return nil
}
