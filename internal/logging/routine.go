package logging

import "log/slog"

// Routine reports wait outcomes through a structured logger, one record
// per call with the routine name attached.
type Routine struct {
	logger *slog.Logger
}

// NewRoutine wraps logger.
func NewRoutine(logger *slog.Logger) *Routine {
	return &Routine{logger: logger}
}

func (r *Routine) Info(routine, msg string) {
	r.logger.Info(msg, RoutineKey, routine)
}

func (r *Routine) Warning(routine, msg string) {
	r.logger.Warn(msg, RoutineKey, routine)
}

func (r *Routine) Error(routine, msg string) {
	r.logger.Error(msg, RoutineKey, routine)
}
