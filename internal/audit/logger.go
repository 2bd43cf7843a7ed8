package audit

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Event represents an audit log event.
type Event struct {
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Service   string    `json:"service" bson:"service"`
	Action    string    `json:"action" bson:"action"`
	User      string    `json:"user,omitempty" bson:"user,omitempty"`
	Target    string    `json:"target,omitempty" bson:"target,omitempty"`
	Details   string    `json:"details,omitempty" bson:"details,omitempty"`
	Success   bool      `json:"success" bson:"success"`
	Error     string    `json:"error,omitempty" bson:"error,omitempty"`
}

// Recorder persists audit events durably, in addition to the log stream.
type Recorder interface {
	Record(ctx context.Context, event Event) error
}

var (
	auditLogger = log.Output(os.Stdout).With().Logger()

	recorderMu sync.RWMutex
	recorder   Recorder
)

// SetRecorder installs a durable sink for audit events. Pass nil to
// disable persistence and keep log-only auditing.
func SetRecorder(r Recorder) {
	recorderMu.Lock()
	defer recorderMu.Unlock()
	recorder = r
}

// Log records an audit event. Persistence is best effort and never blocks
// the calling request.
func Log(service, action, user, target, details string, success bool, err error) {
	event := Event{
		Timestamp: time.Now().UTC(),
		Service:   service,
		Action:    action,
		User:      user,
		Target:    target,
		Details:   details,
		Success:   success,
	}
	if err != nil {
		event.Error = err.Error()
	}

	entry, marshalErr := json.Marshal(event)
	if marshalErr != nil {
		log.Error().Err(marshalErr).Msg("Failed to marshal audit event to JSON")
		return
	}
	auditLogger.Log().RawJSON("audit_event", entry).Msg("")

	recorderMu.RLock()
	r := recorder
	recorderMu.RUnlock()
	if r == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if recordErr := r.Record(ctx, event); recordErr != nil {
			log.Warn().Err(recordErr).Msg("Failed to persist audit event")
		}
	}()
}
