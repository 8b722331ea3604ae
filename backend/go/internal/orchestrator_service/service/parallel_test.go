package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"LexiMind/backend/go/internal/models"
	"LexiMind/backend/go/internal/provider"
	"LexiMind/backend/go/pkg/logger"
	"LexiMind/backend/go/pkg/retry"
)

type fakeAnalysisClient struct {
	name   string
	report *models.ProviderReport
	err    error
	delay  time.Duration
	calls  int
}

func (f *fakeAnalysisClient) Name() string { return f.name }

func (f *fakeAnalysisClient) Analyze(ctx context.Context, text string, profile provider.Profile) (*models.ProviderReport, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	report := *f.report
	return &report, nil
}

func testRetryConfig() retry.Config {
	return retry.Config{MaxAttempts: 1}
}

func newStage(clients ...AnalysisClient) *ParallelStage {
	return NewParallelStage(clients, testRetryConfig(), logger.New("test", "", ""))
}

func permanent(reason string) error {
	return &models.ProviderError{Provider: "fake", Reason: reason, IsTransient: false}
}

func TestParallelMergeUsesConfiguredPriority(t *testing.T) {
	primary := &fakeAnalysisClient{
		name:  "alpha",
		delay: 50 * time.Millisecond, // slowest, still primary
		report: &models.ProviderReport{
			Summary: "alpha summary",
			Score:   80,
			Findings: []models.Finding{
				{Category: "Liability", Detail: "Uncapped indemnity", Severity: "high"},
			},
		},
	}
	secondary := &fakeAnalysisClient{
		name: "beta",
		report: &models.ProviderReport{
			Summary: "beta summary",
			Score:   60,
			Findings: []models.Finding{
				{Category: "liability", Detail: "uncapped INDEMNITY", Severity: "medium"}, // duplicate
				{Category: "Term", Detail: "Auto-renewal clause", Severity: "low"},
			},
		},
	}

	report, err := newStage(primary, secondary).Run(context.Background(), "doc", provider.ComplianceProfile)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Primary != "alpha" {
		t.Errorf("Primary = %q, want alpha despite its latency", report.Primary)
	}
	if report.Summary != "alpha summary" {
		t.Errorf("Summary = %q", report.Summary)
	}
	if report.Score != 70 {
		t.Errorf("Score = %v, want mean 70", report.Score)
	}
	if len(report.Findings) != 2 {
		t.Fatalf("got %d findings, want 2 after de-duplication", len(report.Findings))
	}
	if report.Findings[0].Source != "alpha" || report.Findings[1].Source != "beta" {
		t.Errorf("finding sources = %q, %q", report.Findings[0].Source, report.Findings[1].Source)
	}
	if len(report.Sources) != 2 {
		t.Errorf("got %d sources, want 2", len(report.Sources))
	}
}

func TestParallelMergeIsDeterministicAcrossLatencies(t *testing.T) {
	mkClients := func(delayAlpha, delayBeta time.Duration) []AnalysisClient {
		return []AnalysisClient{
			&fakeAnalysisClient{
				name:  "alpha",
				delay: delayAlpha,
				report: &models.ProviderReport{
					Summary: "a", Score: 50,
					Findings: []models.Finding{{Category: "X", Detail: "one", Severity: "low"}},
				},
			},
			&fakeAnalysisClient{
				name:  "beta",
				delay: delayBeta,
				report: &models.ProviderReport{
					Summary: "b", Score: 70,
					Findings: []models.Finding{{Category: "Y", Detail: "two", Severity: "low"}},
				},
			},
		}
	}

	fast, err := NewParallelStage(mkClients(0, 30*time.Millisecond), testRetryConfig(), logger.New("test", "", "")).
		Run(context.Background(), "doc", provider.ComplianceProfile)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	slow, err := NewParallelStage(mkClients(30*time.Millisecond, 0), testRetryConfig(), logger.New("test", "", "")).
		Run(context.Background(), "doc", provider.ComplianceProfile)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	fastJSON, _ := json.Marshal(fast)
	slowJSON, _ := json.Marshal(slow)
	if string(fastJSON) != string(slowJSON) {
		t.Errorf("merged report depends on arrival order:\n%s\n%s", fastJSON, slowJSON)
	}
}

func TestParallelPartialFailure(t *testing.T) {
	ok := &fakeAnalysisClient{
		name:   "alpha",
		report: &models.ProviderReport{Summary: "fine", Score: 90},
	}
	broken := &fakeAnalysisClient{name: "beta", err: permanent("malformed")}

	report, err := newStage(broken, ok).Run(context.Background(), "doc", provider.ComplianceProfile)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Primary != "alpha" {
		t.Errorf("Primary = %q, want the surviving provider", report.Primary)
	}
	if report.Score != 90 {
		t.Errorf("Score = %v, failed provider contaminated the mean", report.Score)
	}
	if len(report.Sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(report.Sources))
	}
	if report.Sources[0].Succeeded || report.Sources[0].Error == "" {
		t.Errorf("failed source not recorded: %+v", report.Sources[0])
	}
}

func TestParallelAllFail(t *testing.T) {
	a := &fakeAnalysisClient{name: "alpha", err: permanent("bad json")}
	b := &fakeAnalysisClient{name: "beta", err: permanent("also bad")}

	_, err := newStage(a, b).Run(context.Background(), "doc", provider.ComplianceProfile)
	var allFailed *models.AllProvidersFailedError
	if !errors.As(err, &allFailed) {
		t.Fatalf("error %T is not *AllProvidersFailedError", err)
	}
	if len(allFailed.Results) != 2 {
		t.Errorf("got %d results, want 2", len(allFailed.Results))
	}
	detail := allFailed.Detail()
	for _, name := range []string{"alpha", "beta"} {
		if !strings.Contains(detail, name) {
			t.Errorf("detail %q missing provider %s", detail, name)
		}
	}
}

func TestParallelRetriesTransientFailures(t *testing.T) {
	flaky := &transientThenOK{
		name:     "alpha",
		failures: 2,
		report:   &models.ProviderReport{Summary: "eventually", Score: 40},
	}
	stage := NewParallelStage([]AnalysisClient{flaky},
		retry.Config{MaxAttempts: 3, BaseDelay: time.Millisecond}, logger.New("test", "", ""))

	report, err := stage.Run(context.Background(), "doc", provider.ComplianceProfile)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Summary != "eventually" {
		t.Errorf("Summary = %q", report.Summary)
	}
	if flaky.calls != 3 {
		t.Errorf("provider called %d times, want 3", flaky.calls)
	}
}

type transientThenOK struct {
	name     string
	failures int
	report   *models.ProviderReport
	calls    int
}

func (f *transientThenOK) Name() string { return f.name }

func (f *transientThenOK) Analyze(ctx context.Context, text string, profile provider.Profile) (*models.ProviderReport, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, &models.ProviderError{Provider: f.name, Reason: "timeout", IsTransient: true}
	}
	return f.report, nil
}
