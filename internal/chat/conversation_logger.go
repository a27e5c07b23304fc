package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ashureev/recovery-coach/internal/domain"
)

// TurnWriter persists conversation turns.
type TurnWriter interface {
	SaveConversationTurn(ctx context.Context, turn *domain.ConversationTurn) error
}

// ConversationLogger records completed turns without blocking the request.
type ConversationLogger interface {
	Log(turn domain.ConversationTurn)
	Close() error
}

// ConversationLogConfig controls the async turn writer.
type ConversationLogConfig struct {
	Enabled      bool
	QueueSize    int
	WriteTimeout time.Duration
}

type noopConversationLogger struct{}

func (noopConversationLogger) Log(domain.ConversationTurn) {}
func (noopConversationLogger) Close() error                { return nil }

type asyncConversationLogger struct {
	writer       TurnWriter
	logger       *slog.Logger
	writeTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan domain.ConversationTurn
	done   chan struct{}
}

// NewConversationLogger starts a single writer goroutine draining a bounded
// queue into writer. Turns are dropped with a warning when the queue is full.
func NewConversationLogger(cfg ConversationLogConfig, writer TurnWriter, logger *slog.Logger) ConversationLogger {
	if !cfg.Enabled || writer == nil {
		return noopConversationLogger{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	l := &asyncConversationLogger{
		writer:       writer,
		logger:       logger,
		writeTimeout: cfg.WriteTimeout,
		queue:        make(chan domain.ConversationTurn, cfg.QueueSize),
		done:         make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *asyncConversationLogger) Log(turn domain.ConversationTurn) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}
	select {
	case l.queue <- turn:
	default:
		l.logger.Warn("conversation log queue full; dropping turn", "session_id", turn.SessionID)
	}
}

// Close stops accepting turns and waits for queued ones to be written.
func (l *asyncConversationLogger) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	close(l.queue)
	l.mu.Unlock()

	<-l.done
	return nil
}

func (l *asyncConversationLogger) run() {
	defer close(l.done)
	for turn := range l.queue {
		ctx, cancel := context.WithTimeout(context.Background(), l.writeTimeout)
		if err := l.writer.SaveConversationTurn(ctx, &turn); err != nil {
			l.logger.Error("failed to save conversation turn", "session_id", turn.SessionID, "error", err)
		}
		cancel()
	}
}
