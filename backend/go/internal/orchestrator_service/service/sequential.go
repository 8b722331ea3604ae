package service

import (
	"context"
	"fmt"

	"LexiMind/backend/go/internal/models"
	"LexiMind/backend/go/internal/provider"
	"LexiMind/backend/go/pkg/logger"
	"LexiMind/backend/go/pkg/retry"
)

// TransformClient is the provider capability the sequential stage runs on.
type TransformClient interface {
	Name() string
	Transform(ctx context.Context, text string, profile provider.Profile) (string, error)
}

// ChainStep is one named step of a sequential pipeline.
type ChainStep struct {
	Name    string
	Profile provider.Profile
}

// ContractChain is the fixed review pipeline for contract tasks: clause
// extraction, compliance checking, revision drafting and a final audit.
func ContractChain() []ChainStep {
	return []ChainStep{
		{Name: "extract", Profile: provider.ExtractProfile},
		{Name: "compliance-check", Profile: provider.ComplianceCheckProfile},
		{Name: "draft", Profile: provider.DraftProfile},
		{Name: "audit", Profile: provider.AuditProfile},
	}
}

// SequentialStage runs a chain of transform steps on a single provider,
// feeding each step's output into the next. The first failing step aborts
// the chain.
type SequentialStage struct {
	client TransformClient
	steps  []ChainStep
	retry  retry.Config
	log    *logger.Logger
}

// NewSequentialStage creates a sequential stage over the given chain.
func NewSequentialStage(client TransformClient, steps []ChainStep, retryCfg retry.Config, log *logger.Logger) *SequentialStage {
	return &SequentialStage{client: client, steps: steps, retry: retryCfg, log: log}
}

// Run executes the chain. Intermediate outputs are kept by step name so the
// final result exposes the full derivation, not just the last output.
func (s *SequentialStage) Run(ctx context.Context, text string) (*models.ChainResult, error) {
	result := &models.ChainResult{
		Outputs: make(map[string]string, len(s.steps)),
	}

	current := text
	for i, step := range s.steps {
		out, err := retry.Do(ctx, s.retry, func(ctx context.Context) (string, error) {
			return s.client.Transform(ctx, current, step.Profile)
		})
		if err != nil {
			return nil, &models.ChainStepFailedError{Index: i, Step: step.Name, Err: err}
		}
		s.log.Debug(fmt.Sprintf("chain step %s finished on provider %s", step.Name, s.client.Name()))

		result.Steps = append(result.Steps, step.Name)
		result.Outputs[step.Name] = out
		current = out
	}

	result.Final = current
	return result, nil
}
