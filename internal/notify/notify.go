// Package notify defines the notification sink the engine reports
// human-readable outcomes to. The UI used to render these as toasts; the Go
// service logs them and lets the HTTP layer attach its own sink if needed.
package notify

import (
	"sync"

	"cargodesk/pkg/logger"
)

// Notifier receives human-readable success/error/info messages.
// Calls are fire-and-forget; the engine never consumes a return value.
type Notifier interface {
	Success(msg string)
	Error(msg string)
	Warning(msg string)
	Info(msg string)
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier creates a Notifier backed by log.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	if log == nil {
		log = logger.Default()
	}
	return &LogNotifier{log: log.WithComponent("notify")}
}

func (n *LogNotifier) Success(msg string) { n.log.Infow(msg, "kind", "success") }
func (n *LogNotifier) Error(msg string)   { n.log.Warnw(msg, "kind", "error") }
func (n *LogNotifier) Warning(msg string) { n.log.Warnw(msg, "kind", "warning") }
func (n *LogNotifier) Info(msg string)    { n.log.Infow(msg, "kind", "info") }

// Capture records notifications in memory. Test double.
type Capture struct {
	mu sync.Mutex

	Successes []string
	Errors    []string
	Warnings  []string
	Infos     []string
}

func (c *Capture) Success(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Successes = append(c.Successes, msg)
}

func (c *Capture) Error(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Errors = append(c.Errors, msg)
}

func (c *Capture) Warning(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Warnings = append(c.Warnings, msg)
}

func (c *Capture) Info(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Infos = append(c.Infos, msg)
}
