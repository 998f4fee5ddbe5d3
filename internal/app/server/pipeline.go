package server

import (
	"context"

	apperrors "contactbook/internal/errors"
	"contactbook/internal/logger"
)

// StartupStep describes a single startup phase.
type StartupStep struct {
	Name      string
	Operation string
	Category  apperrors.ErrorCategory
	Fn        func(ctx context.Context) error
}

// StepErrorHandler handles step failures.
type StepErrorHandler func(step StartupStep, err error) error

// Pipeline executes startup steps sequentially and stops at the first failure.
type Pipeline struct {
	steps   []StartupStep
	logger  logger.Logger
	onError StepErrorHandler
}

// NewPipeline constructs a new pipeline.
func NewPipeline(log logger.Logger, steps []StartupStep, handler StepErrorHandler) *Pipeline {
	return &Pipeline{
		steps:   steps,
		logger:  log,
		onError: handler,
	}
}

// Execute runs through all configured steps.
func (p *Pipeline) Execute(ctx context.Context) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if p.logger != nil {
			p.logger.Debug("executing step: %s", step.Name)
		}
		if err := step.Fn(ctx); err != nil {
			if p.onError != nil {
				return p.onError(step, err)
			}
			return err
		}
	}

	return nil
}

// wrapStepError keeps AppErrors raised by the step and classifies anything else
// under the step's category.
func wrapStepError(step StartupStep, err error) error {
	if appErr, ok := apperrors.As(err); ok {
		if appErr.Operation == "" {
			appErr.WithOperation(step.Operation)
		}
		return err
	}

	category := step.Category
	if category == "" {
		category = apperrors.ErrCategorySystem
	}
	return apperrors.New(genericCode(category), category, step.Name+" failed", err).
		WithOperation(step.Operation).
		WithModule("app")
}

func genericCode(category apperrors.ErrorCategory) string {
	switch category {
	case apperrors.ErrCategoryDatabase:
		return apperrors.CodeDatabaseGeneric
	case apperrors.ErrCategoryNetwork:
		return apperrors.CodeNetworkGeneric
	case apperrors.ErrCategoryConfig:
		return apperrors.CodeConfigGeneric
	case apperrors.ErrCategoryValidation:
		return apperrors.CodeValidationGeneric
	default:
		return apperrors.CodeSystemGeneric
	}
}
