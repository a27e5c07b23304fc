package chat

import (
	"context"
	"sync"

	"github.com/ashureev/recovery-coach/internal/domain"
)

type fakeModel struct {
	mu    sync.Mutex
	reply string
	err   error
	calls []CompletionRequest
}

func (m *fakeModel) Name() string { return "fake/test" }

func (m *fakeModel) Complete(_ context.Context, req CompletionRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	return m.reply, m.err
}

func (m *fakeModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type recordingLogger struct {
	mu    sync.Mutex
	turns []domain.ConversationTurn
}

func (l *recordingLogger) Log(turn domain.ConversationTurn) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.turns = append(l.turns, turn)
}

func (l *recordingLogger) Close() error { return nil }

func (l *recordingLogger) logged() []domain.ConversationTurn {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.ConversationTurn(nil), l.turns...)
}

type fakeTurnWriter struct {
	mu    sync.Mutex
	err   error
	block chan struct{}
	turns []domain.ConversationTurn
}

func (w *fakeTurnWriter) SaveConversationTurn(_ context.Context, turn *domain.ConversationTurn) error {
	if w.block != nil {
		<-w.block
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.turns = append(w.turns, *turn)
	return nil
}

func (w *fakeTurnWriter) saved() []domain.ConversationTurn {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]domain.ConversationTurn(nil), w.turns...)
}
