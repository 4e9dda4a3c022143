package workspace

import (
	"sync"
	"time"
)

// Level is the tone of a transient notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notifier surfaces messages to the cashier. Alert blocks until acknowledged,
// Toast fades on its own.
type Notifier interface {
	Alert(message string)
	Toast(level Level, message string)
}

// Notice is one recorded message.
type Notice struct {
	Kind    string    `json:"kind"` // "alert" or "toast"
	Level   Level     `json:"level,omitempty"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Recorder buffers notices until a handler drains them into its response.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Alert(message string) {
	r.add(Notice{Kind: "alert", Message: message})
}

func (r *Recorder) Toast(level Level, message string) {
	r.add(Notice{Kind: "toast", Level: level, Message: message})
}

func (r *Recorder) add(n Notice) {
	n.At = time.Now()
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
}

// Drain returns and forgets the buffered notices.
func (r *Recorder) Drain() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.notices
	r.notices = nil
	if out == nil {
		out = []Notice{}
	}
	return out
}
