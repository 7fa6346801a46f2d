package dialogue

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/concierge/pkg/domain"
)

// Progress reports the open form of a conversation. It returns
// domain.ErrSessionNotFound when no live session exists.
func (m *Machine) Progress(ctx context.Context, conversationID string) (domain.Progress, error) {
	var p domain.Progress
	err := m.sessions.WithLock(ctx, conversationID, func(ctx context.Context) error {
		s, form, err := m.load(ctx, turn{conversationID: conversationID, now: m.now()})
		if err != nil {
			return err
		}
		if s == nil {
			return domain.ErrSessionNotFound
		}
		p = domain.ProgressOf(form, s)
		return nil
	})
	return p, err
}

// Session returns a copy of the live session of a conversation.
func (m *Machine) Session(ctx context.Context, conversationID string) (*domain.DialogueSession, error) {
	var out *domain.DialogueSession
	err := m.sessions.WithLock(ctx, conversationID, func(ctx context.Context) error {
		s, _, err := m.load(ctx, turn{conversationID: conversationID, now: m.now()})
		if err != nil {
			return err
		}
		if s == nil {
			return domain.ErrSessionNotFound
		}
		out = s.Clone()
		return nil
	})
	return out, err
}

// Abandon drops the open session of a conversation without producing a
// document. Abandoning a conversation with no session is not an error.
func (m *Machine) Abandon(ctx context.Context, conversationID string) error {
	return m.sessions.WithLock(ctx, conversationID, func(ctx context.Context) error {
		t := turn{conversationID: conversationID, now: m.now()}
		s, err := m.sessions.Store().Load(ctx, conversationID)
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return m.discard(ctx, t, s, domain.DiscardAbandoned)
	})
}

// Greet asks the responder for a short review of what the user still has to
// do. It does not touch the form session.
func (m *Machine) Greet(ctx context.Context, conversationID string) domain.Reply {
	t := turn{conversationID: conversationID, utterance: m.prompts.Analysis(), now: m.now()}
	return domain.Reply{Text: m.respond(ctx, t, nil)}
}

// ReapExpired discards every session idle for longer than the session TTL and
// returns how many were removed.
func (m *Machine) ReapExpired(ctx context.Context) (int, error) {
	if m.ttl <= 0 {
		return 0, nil
	}
	now := m.now()
	reaped, err := m.sessions.Reap(ctx, func(s *domain.DialogueSession) bool {
		return s.Expired(now, m.ttl)
	})
	for _, s := range reaped {
		m.fireDiscard(ctx, turn{conversationID: s.ConversationID, now: now}, s, domain.DiscardExpired)
	}
	if len(reaped) > 0 {
		m.logger.Info("expired sessions reaped", "count", len(reaped))
	}
	return len(reaped), err
}

// StartReaper runs ReapExpired every interval until ctx is done. The returned
// channel is closed once the loop exits.
func (m *Machine) StartReaper(ctx context.Context, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := m.ReapExpired(ctx); err != nil && ctx.Err() == nil {
					m.logger.Warn("session reaper failed", "err", err)
				}
			}
		}
	}()
	return done
}
