package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// DisplayDuration is how long a toast stays visible to the user.
const DisplayDuration = 3 * time.Second

type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notifier is the fire-and-forget toast sink. There is no delivery
// contract beyond "show the message for DisplayDuration".
type Notifier interface {
	Notify(message string, level Level)
}

type logNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) Notifier {
	return &logNotifier{logger: logger}
}

func (n *logNotifier) Notify(message string, level Level) {
	n.logger.Info("toast",
		zap.String("message", message),
		zap.String("level", string(level)),
		zap.Duration("duration", DisplayDuration),
	)
}

// Recorder keeps every notification for assertions in tests.
type Recorder struct {
	mu       sync.Mutex
	Messages []RecordedMessage
}

type RecordedMessage struct {
	Message string
	Level   Level
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(message string, level Level) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Messages = append(r.Messages, RecordedMessage{Message: message, Level: level})
}

func (r *Recorder) Last() (RecordedMessage, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Messages) == 0 {
		return RecordedMessage{}, false
	}
	return r.Messages[len(r.Messages)-1], true
}
