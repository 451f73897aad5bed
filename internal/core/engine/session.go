package engine

import (
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SessionClock hands out nanosecond session ids that strictly increase, even
// when two calls observe the same wall-clock nanosecond.
type SessionClock struct {
	Clock func() time.Time

	mu   sync.Mutex
	last int64
}

// Next returns the next session id.
func (c *SessionClock) Next() int64 {
	now := time.Now
	if c.Clock != nil {
		now = c.Clock
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id := now().UnixNano()
	if id <= c.last {
		id = c.last + 1
	}
	c.last = id
	return id
}

// NextString returns Next formatted in base 10.
func (c *SessionClock) NextString() string {
	return strconv.FormatInt(c.Next(), 10)
}

// Logger is the logging surface the engine needs. *logging.Logger from
// gofulmen and *zap.Logger both satisfy it.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
}

func loggerOrNop(l Logger) Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
