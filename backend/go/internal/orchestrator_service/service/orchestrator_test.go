package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"LexiMind/backend/go/internal/models"
	"LexiMind/backend/go/internal/orchestrator_service/publisher"
	"LexiMind/backend/go/internal/provider"
	"LexiMind/backend/go/pkg/logger"
)

type recordingSink struct {
	mu      sync.Mutex
	results map[string]interface{}
	err     error
}

func (s *recordingSink) Persist(ctx context.Context, taskID string, result interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.results == nil {
		s.results = make(map[string]interface{})
	}
	s.results[taskID] = result
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publisher.LifecycleEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, key string, value interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, value.(publisher.LifecycleEvent))
	return nil
}

func (p *recordingPublisher) states() []models.TaskState {
	p.mu.Lock()
	defer p.mu.Unlock()
	var states []models.TaskState
	for _, e := range p.events {
		states = append(states, e.State)
	}
	return states
}

type fakeDocReader struct {
	texts map[string]string
}

func (r *fakeDocReader) GetText(ctx context.Context, documentID string) (string, error) {
	text, ok := r.texts[documentID]
	if !ok {
		return "", models.ErrNotFound
	}
	return text, nil
}

type panicAnalysisClient struct{ name string }

func (p *panicAnalysisClient) Name() string { return p.name }

func (p *panicAnalysisClient) Analyze(ctx context.Context, text string, profile provider.Profile) (*models.ProviderReport, error) {
	panic("analysis blew up")
}

type orchestratorFixture struct {
	orchestrator *Orchestrator
	sink         *recordingSink
	events       *recordingPublisher
}

func newFixture(t *testing.T, analysis []AnalysisClient, transform TransformClient, docs DocumentReader) *orchestratorFixture {
	t.Helper()
	log := logger.New("test", "", "")

	classifier, err := NewClassifier(ClassifierOptions{
		Escalation: &fakeKindClient{kind: models.TaskKindResearch},
	}, log)
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	if transform == nil {
		transform = &fakeTransformClient{name: "alpha"}
	}

	sink := &recordingSink{}
	events := &recordingPublisher{}
	orchestrator := NewOrchestrator(OrchestratorDeps{
		Tasks:      NewTaskManager(RetentionPolicy{}),
		Classifier: classifier,
		Parallel:   NewParallelStage(analysis, testRetryConfig(), log),
		Chain:      NewSequentialStage(transform, ContractChain(), testRetryConfig(), log),
		Documents:  docs,
		Sink:       sink,
		Events:     events,
		Logger:     log,
	})
	return &orchestratorFixture{orchestrator: orchestrator, sink: sink, events: events}
}

func healthyAnalysis() []AnalysisClient {
	return []AnalysisClient{
		&fakeAnalysisClient{name: "alpha", report: &models.ProviderReport{Summary: "ok", Score: 75}},
	}
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t, healthyAnalysis(), nil, nil)

	_, err := f.orchestrator.Submit("", models.TaskPayload{})
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("empty payload: err = %v, want *ValidationError", err)
	}

	_, err = f.orchestrator.Submit("poetry", models.TaskPayload{Text: "t"})
	if !errors.As(err, &verr) {
		t.Errorf("unknown kind: err = %v, want *ValidationError", err)
	}
}

func TestComplianceTaskCompletes(t *testing.T) {
	f := newFixture(t, healthyAnalysis(), nil, nil)

	id, err := f.orchestrator.Submit(models.TaskKindCompliance, models.TaskPayload{Text: "the policy"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	f.orchestrator.Wait()

	view, err := f.orchestrator.Status(id)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if view.Status != models.TaskStateCompleted {
		t.Fatalf("Status = %q, want completed", view.Status)
	}
	report, ok := view.Result.(*models.AnalysisReport)
	if !ok {
		t.Fatalf("Result is %T, want *AnalysisReport", view.Result)
	}
	if report.Primary != "alpha" {
		t.Errorf("Primary = %q", report.Primary)
	}
	if view.Progress != nil {
		t.Error("completed view still exposes progress")
	}

	if f.sink.results[id] == nil {
		t.Error("result was not persisted to the sink")
	}

	states := f.events.states()
	want := []models.TaskState{models.TaskStatePending, models.TaskStateProcessing, models.TaskStateCompleted}
	if len(states) != len(want) {
		t.Fatalf("published states %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("event %d state = %q, want %q", i, states[i], want[i])
		}
	}
}

func TestContractTaskRunsChain(t *testing.T) {
	transform := &fakeTransformClient{name: "alpha"}
	f := newFixture(t, healthyAnalysis(), transform, nil)

	id, err := f.orchestrator.Submit(models.TaskKindContract, models.TaskPayload{Text: "the contract"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	f.orchestrator.Wait()

	view, _ := f.orchestrator.Status(id)
	if view.Status != models.TaskStateCompleted {
		t.Fatalf("Status = %q, want completed", view.Status)
	}
	chain, ok := view.Result.(*models.ChainResult)
	if !ok {
		t.Fatalf("Result is %T, want *ChainResult", view.Result)
	}
	if len(chain.Steps) != 4 {
		t.Errorf("got %d chain steps, want 4", len(chain.Steps))
	}
}

func TestKindlessTaskIsClassified(t *testing.T) {
	f := newFixture(t, healthyAnalysis(), nil, nil)

	// Strong compliance keywords so the heuristic decides without escalating.
	id, err := f.orchestrator.Submit("", models.TaskPayload{
		Text: "GDPR compliance audit against regulatory requirements",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	f.orchestrator.Wait()

	view, _ := f.orchestrator.Status(id)
	if view.Status != models.TaskStateCompleted {
		t.Fatalf("Status = %q, want completed", view.Status)
	}
	if view.Kind != models.TaskKindCompliance {
		t.Errorf("Kind = %q, want compliance", view.Kind)
	}

	classified := false
	for _, e := range f.events.events {
		if e.Type == "classified" && e.Kind == models.TaskKindCompliance {
			classified = true
		}
	}
	if !classified {
		t.Error("no classified event was published")
	}
}

func TestDocumentTaskResolvesText(t *testing.T) {
	docs := &fakeDocReader{texts: map[string]string{"doc-1": "stored text"}}
	f := newFixture(t, healthyAnalysis(), nil, docs)

	id, err := f.orchestrator.Submit(models.TaskKindCompliance, models.TaskPayload{DocumentID: "doc-1"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	f.orchestrator.Wait()

	view, _ := f.orchestrator.Status(id)
	if view.Status != models.TaskStateCompleted {
		t.Errorf("Status = %q, want completed", view.Status)
	}
}

func TestUnresolvableDocumentFailsFromPending(t *testing.T) {
	docs := &fakeDocReader{texts: map[string]string{}}
	f := newFixture(t, healthyAnalysis(), nil, docs)

	id, err := f.orchestrator.Submit(models.TaskKindCompliance, models.TaskPayload{DocumentID: "missing"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	f.orchestrator.Wait()

	view, _ := f.orchestrator.Status(id)
	if view.Status != models.TaskStateFailed {
		t.Fatalf("Status = %q, want failed", view.Status)
	}
	if view.Error == "" {
		t.Error("failed view has no error message")
	}

	// The task never entered processing.
	history, _ := f.orchestrator.History(id)
	for _, e := range history {
		if e.ToState == models.TaskStateProcessing {
			t.Error("task entered processing despite unresolvable document")
		}
	}
}

func TestAllProvidersFailingFailsTask(t *testing.T) {
	analysis := []AnalysisClient{
		&fakeAnalysisClient{name: "alpha", err: permanent("bad")},
		&fakeAnalysisClient{name: "beta", err: permanent("worse")},
	}
	f := newFixture(t, analysis, nil, nil)

	id, _ := f.orchestrator.Submit(models.TaskKindCompliance, models.TaskPayload{Text: "t"})
	f.orchestrator.Wait()

	view, _ := f.orchestrator.Status(id)
	if view.Status != models.TaskStateFailed {
		t.Fatalf("Status = %q, want failed", view.Status)
	}
	if view.ErrorDetail == "" {
		t.Error("failed view carries no per-provider detail")
	}
}

func TestPanicInStageFailsTask(t *testing.T) {
	f := newFixture(t, []AnalysisClient{&panicAnalysisClient{name: "alpha"}}, nil, nil)

	id, _ := f.orchestrator.Submit(models.TaskKindCompliance, models.TaskPayload{Text: "t"})
	f.orchestrator.Wait()

	view, _ := f.orchestrator.Status(id)
	if view.Status != models.TaskStateFailed {
		t.Fatalf("Status = %q, want failed after panic", view.Status)
	}
}

func TestStatusUnknownTask(t *testing.T) {
	f := newFixture(t, healthyAnalysis(), nil, nil)
	if _, err := f.orchestrator.Status("nope"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListReturnsSummaries(t *testing.T) {
	f := newFixture(t, healthyAnalysis(), nil, nil)

	id, _ := f.orchestrator.Submit(models.TaskKindCompliance, models.TaskPayload{Text: "t"})
	f.orchestrator.Wait()

	summaries := f.orchestrator.List(10)
	if len(summaries) != 1 {
		t.Fatalf("got %d summaries, want 1", len(summaries))
	}
	if summaries[0].TaskID != id {
		t.Errorf("TaskID = %q", summaries[0].TaskID)
	}
	if summaries[0].Status != models.TaskStateCompleted {
		t.Errorf("Status = %q", summaries[0].Status)
	}
}
