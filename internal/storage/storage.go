package storage

import "pairScope/internal/model"

// Storage defines a sink for calculation records.
type Storage interface {
	PutCalculations(records []model.CalculationRecord) error
}
