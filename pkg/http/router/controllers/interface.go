package controllers

import (
	"context"

	"github.com/lintang-b-s/routegen/pkg/http/usecases"
)

type EvaluationService interface {
	Evaluate(ctx context.Context, req usecases.EvaluationRequest) (*usecases.EvaluationResult, error)
}
