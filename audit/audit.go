// Package audit records every remote call outcome to an append-only trail.
package audit

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Entry is one call outcome.
type Entry struct {
	User      string
	Origin    string
	Operation string
	Success   bool
	Error     string
	Detail    string
}

// Trail is an append-only audit log.
// Recording never fails from the caller's point of view:
// a broken sink cannot abort the response being audited.
type Trail struct {
	logger *logrus.Logger
}

// New returns a Trail writing structured entries to w.
func New(w io.Writer) *Trail {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &Trail{logger: logger}
}

// FromLogger returns a Trail recording through an existing logger.
func FromLogger(logger *logrus.Logger) *Trail {
	return &Trail{logger: logger}
}

// Record appends one entry to the trail.
func (t *Trail) Record(e Entry) {
	fields := logrus.Fields{
		"user":      e.User,
		"origin":    e.Origin,
		"operation": e.Operation,
	}
	if e.Detail != "" {
		fields["detail"] = e.Detail
	}
	if e.Success {
		t.logger.WithFields(fields).Info("sync ok")
		return
	}
	fields["error"] = e.Error
	t.logger.WithFields(fields).Warn("sync failed")
}
