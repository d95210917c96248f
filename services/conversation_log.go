package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrNoLogs is returned by Read before anything has been logged.
var ErrNoLogs = errors.New("no conversation logs available")

// ConversationLog appends one JSON object per answered question to a file:
// {"timestamp", "username", "question", "answer"}.
type ConversationLog struct {
	path   string
	logger *zap.Logger

	mu     sync.Mutex
	file   *os.File
	writer *zap.Logger
}

// NewConversationLog opens path lazily on the first Append.
func NewConversationLog(path string, logger *zap.Logger) *ConversationLog {
	return &ConversationLog{
		path:   path,
		logger: logger,
	}
}

// Path returns the log file location.
func (l *ConversationLog) Path() string {
	return l.path
}

// Append records one exchange. Failures are logged and otherwise ignored; a
// broken log never affects the answer shown to the user.
func (l *ConversationLog) Append(username, question, answer string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.writer == nil {
		if err := l.open(); err != nil {
			l.logger.Warn("Could not open conversation log", zap.String("path", l.path), zap.Error(err))
			return
		}
	}

	l.writer.Info("",
		zap.String("username", username),
		zap.String("question", question),
		zap.String("answer", answer))
}

func (l *ConversationLog) open() error {
	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     utcISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(f), zapcore.InfoLevel)

	l.file = f
	l.writer = zap.New(core, zap.ErrorOutput(zapcore.AddSync(os.Stderr)))
	return nil
}

func utcISO8601TimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.UTC().Format("2006-01-02T15:04:05.000000Z07:00"))
}

// Read returns the raw JSONL content for download.
func (l *ConversationLog) Read() ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoLogs
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read conversation log: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNoLogs
	}
	return data, nil
}

// Close flushes and closes the underlying file.
func (l *ConversationLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	_ = l.writer.Sync()
	err := l.file.Close()
	l.file = nil
	l.writer = nil
	return err
}
