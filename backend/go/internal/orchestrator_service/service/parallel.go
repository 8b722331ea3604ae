package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"LexiMind/backend/go/internal/models"
	"LexiMind/backend/go/internal/provider"
	"LexiMind/backend/go/pkg/logger"
	"LexiMind/backend/go/pkg/retry"
)

// AnalysisClient is the provider capability the parallel stage fans out to.
type AnalysisClient interface {
	Name() string
	Analyze(ctx context.Context, text string, profile provider.Profile) (*models.ProviderReport, error)
}

// ParallelStage fans a document out to every configured provider at once,
// waits for all of them to settle, and merges whatever succeeded into a
// single report. One provider failing never cancels the others.
type ParallelStage struct {
	clients []AnalysisClient // configured priority order, highest first
	retry   retry.Config
	log     *logger.Logger
}

// NewParallelStage creates a parallel analysis stage. The client slice order
// is the merge priority: the first successful client in slice order becomes
// the primary report.
func NewParallelStage(clients []AnalysisClient, retryCfg retry.Config, log *logger.Logger) *ParallelStage {
	return &ParallelStage{clients: clients, retry: retryCfg, log: log}
}

// Run executes the fan-out and returns the merged report. When every
// provider fails it returns *models.AllProvidersFailedError carrying the
// per-provider outcomes.
func (s *ParallelStage) Run(ctx context.Context, text string, profile provider.Profile) (*models.AnalysisReport, error) {
	results := make([]models.ProviderResult, len(s.clients))

	var wg sync.WaitGroup
	for i, client := range s.clients {
		wg.Add(1)
		go func(i int, client AnalysisClient) {
			defer wg.Done()
			results[i] = s.callOne(ctx, client, text, profile)
		}(i, client)
	}
	wg.Wait()

	merged := mergeResults(results)
	if merged == nil {
		return nil, &models.AllProvidersFailedError{Results: results}
	}
	return merged, nil
}

// callOne runs a single provider through the retry executor and records the
// outcome. It never returns an error: failures, including panics in a
// provider adapter, become part of the result.
func (s *ParallelStage) callOne(ctx context.Context, client AnalysisClient, text string, profile provider.Profile) (result models.ProviderResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			result = models.ProviderResult{
				Provider:  client.Name(),
				Error:     fmt.Sprintf("panic: %v", r),
				LatencyMS: time.Since(start).Milliseconds(),
			}
			s.log.Error(fmt.Sprintf("provider %s panicked: %v", client.Name(), r))
		}
	}()
	report, err := retry.Do(ctx, s.retry, func(ctx context.Context) (*models.ProviderReport, error) {
		return client.Analyze(ctx, text, profile)
	})
	result = models.ProviderResult{
		Provider:  client.Name(),
		LatencyMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		result.Error = err.Error()
		s.log.Warn(fmt.Sprintf("provider %s analysis failed: %v", client.Name(), err))
		return result
	}
	result.Succeeded = true
	result.Report = report
	return result
}

// mergeResults folds per-provider outcomes into one report. The merge is a
// pure function of the result slice, whose order is fixed by configuration,
// so the output does not depend on provider arrival order. It returns nil
// when no provider succeeded.
func mergeResults(results []models.ProviderResult) *models.AnalysisReport {
	merged := &models.AnalysisReport{}

	var scoreSum float64
	successes := 0
	seen := make(map[string]bool)

	for _, r := range results {
		merged.Sources = append(merged.Sources, models.ProviderSource{
			Provider:  r.Provider,
			Succeeded: r.Succeeded,
			Error:     r.Error,
		})
		if !r.Succeeded {
			continue
		}

		if successes == 0 {
			merged.Primary = r.Provider
			merged.Summary = r.Report.Summary
		}
		successes++
		scoreSum += r.Report.Score

		for _, f := range r.Report.Findings {
			key := strings.ToLower(f.Category) + "\x00" + strings.ToLower(f.Detail)
			if seen[key] {
				continue
			}
			seen[key] = true
			f.Source = r.Provider
			merged.Findings = append(merged.Findings, f)
		}
	}

	if successes == 0 {
		return nil
	}
	merged.Score = scoreSum / float64(successes)
	return merged
}
