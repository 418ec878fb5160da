package storage

import (
	"errors"

	"ammPool/internal/model"
)

// Storage defines a sink for log records.
type Storage interface {
	PutLogBatch(logs []model.LogRecord) error
}

// Multi writes every batch to each sink in order. All sinks are attempted;
// their errors are joined.
type Multi []Storage

func (m Multi) PutLogBatch(logs []model.LogRecord) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.PutLogBatch(logs); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
