package service

import (
	"context"

	"PriceWindow/internal/domain/models"
)

// SignalClassifier turns an available quote into a directional call.
// Implementations are only called with quotes where Available() is true.
type SignalClassifier interface {
	Name() string
	Classify(ctx context.Context, in models.ClassifyInput) (models.Classification, error)
}
