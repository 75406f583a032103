package query

import "go.uber.org/zap"

// Notifier receives one transient message per mutation outcome.
type Notifier interface {
	Success(message string)
	Failure(message string)
}

type logNotifier struct {
	log *zap.Logger
}

func (n logNotifier) Success(message string) {
	n.log.Info(message)
}

func (n logNotifier) Failure(message string) {
	n.log.Warn(message)
}
