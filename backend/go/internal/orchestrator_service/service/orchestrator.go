package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"LexiMind/backend/go/internal/models"
	"LexiMind/backend/go/internal/orchestrator_service/publisher"
	"LexiMind/backend/go/internal/provider"
	"LexiMind/backend/go/pkg/logger"
)

// ResultSink persists completed analysis results outside the task table.
type ResultSink interface {
	Persist(ctx context.Context, taskID string, result interface{}) error
}

// EventPublisher emits task lifecycle events to interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
}

// DocumentReader resolves a document id to its extracted text.
type DocumentReader interface {
	GetText(ctx context.Context, documentID string) (string, error)
}

// Orchestrator is the façade over the whole pipeline: it admits tasks,
// drives them through classification and analysis in the background, and
// answers status queries. Sink, events and docs are optional; a nil
// dependency disables that integration.
type Orchestrator struct {
	tasks      *TaskManager
	classifier *Classifier
	parallel   *ParallelStage
	chain      *SequentialStage
	docs       DocumentReader
	sink       ResultSink
	events     EventPublisher
	log        *logger.Logger

	wg sync.WaitGroup
}

// OrchestratorDeps bundles the orchestrator's collaborators.
type OrchestratorDeps struct {
	Tasks      *TaskManager
	Classifier *Classifier
	Parallel   *ParallelStage
	Chain      *SequentialStage
	Documents  DocumentReader
	Sink       ResultSink
	Events     EventPublisher
	Logger     *logger.Logger
}

// NewOrchestrator wires an orchestrator from its dependencies.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	return &Orchestrator{
		tasks:      deps.Tasks,
		classifier: deps.Classifier,
		parallel:   deps.Parallel,
		chain:      deps.Chain,
		docs:       deps.Documents,
		sink:       deps.Sink,
		events:     deps.Events,
		log:        deps.Logger,
	}
}

// Submit validates and admits a new task, starts its background processing,
// and returns the task id. Validation failures are *models.ValidationError.
func (o *Orchestrator) Submit(kind models.TaskKind, payload models.TaskPayload) (string, error) {
	if payload.Text == "" && payload.DocumentID == "" {
		return "", &models.ValidationError{Field: "payload", Reason: "either text or document_id is required"}
	}
	if kind != "" && !kind.Valid() {
		return "", &models.ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown kind %q", kind)}
	}

	task := o.tasks.Create(kind, payload)
	o.publish(task.ID, "created", models.TaskStatePending, kind, "task created")
	logger.New("orchestrator_service", task.ID, "").Info("task accepted")

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.process(task.ID)
	}()

	return task.ID, nil
}

// Status returns the caller-facing view of a task, shaped by its state:
// progress only while processing, result only when completed, error fields
// only when failed.
func (o *Orchestrator) Status(id string) (*models.TaskView, error) {
	task, err := o.tasks.Get(id)
	if err != nil {
		return nil, err
	}

	view := &models.TaskView{
		TaskID: task.ID,
		Status: task.State,
		Kind:   task.Kind,
	}
	switch task.State {
	case models.TaskStateProcessing:
		progress := task.Progress
		view.Progress = &progress
	case models.TaskStateCompleted:
		view.Result = task.Result
	case models.TaskStateFailed:
		view.Error = task.Error
		view.ErrorDetail = task.ErrorDetail
	}
	return view, nil
}

// History returns a task's full event history.
func (o *Orchestrator) History(id string) ([]models.TaskEvent, error) {
	return o.tasks.History(id)
}

// List returns summaries of retained tasks, newest first.
func (o *Orchestrator) List(limit int) []models.TaskSummary {
	tasks := o.tasks.List(limit)
	summaries := make([]models.TaskSummary, 0, len(tasks))
	for _, t := range tasks {
		summaries = append(summaries, models.TaskSummary{
			TaskID:    t.ID,
			Kind:      t.Kind,
			Status:    t.State,
			CreatedAt: t.CreatedAt,
			UpdatedAt: t.UpdatedAt,
		})
	}
	return summaries
}

// Wait blocks until every in-flight task goroutine has finished. Used on
// shutdown so accepted tasks reach a terminal state before the process exits.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// process drives one task from pending to a terminal state. It runs in its
// own goroutine; a panic in any stage fails the task instead of crashing
// the service.
func (o *Orchestrator) process(id string) {
	// Background tasks outlive the submitting request, so processing is
	// not bound to the request context.
	ctx := context.Background()
	log := logger.New("orchestrator_service", id, "")

	defer func() {
		if r := recover(); r != nil {
			log.Error(fmt.Sprintf("task processing panicked: %v", r))
			o.fail(id, "internal error", fmt.Sprintf("panic: %v", r))
		}
	}()

	task, err := o.tasks.Get(id)
	if err != nil {
		log.Error(fmt.Sprintf("task vanished before processing: %v", err))
		return
	}

	// Resolve document text before entering processing, so an unreadable
	// document fails the task from pending without a processing phase.
	text := task.Payload.Text
	if text == "" {
		if o.docs == nil {
			o.fail(id, "document resolution failed", "no document reader configured")
			return
		}
		text, err = o.docs.GetText(ctx, task.Payload.DocumentID)
		if err != nil {
			log.WithError(models.ErrorInfo{Message: err.Error(), Type: "document"}).
				Error("failed to resolve document text")
			o.fail(id, "document resolution failed", err.Error())
			return
		}
	}

	if err := o.tasks.Transition(id, models.TaskStateProcessing, TransitionUpdate{Note: "processing started"}); err != nil {
		log.Error(fmt.Sprintf("failed to enter processing: %v", err))
		return
	}
	o.publish(id, "state_changed", models.TaskStateProcessing, task.Kind, "processing started")
	o.tasks.SetProgress(id, 10)

	kind := task.Kind
	if kind == "" {
		classification, err := o.classifier.Classify(ctx, text)
		if err != nil {
			o.fail(id, "classification failed", err.Error())
			return
		}
		kind = classification.Kind
		o.tasks.SetKind(id, kind)
		o.publish(id, "classified", models.TaskStateProcessing, kind, "task classified")
		log.WithPayload(map[string]interface{}{
			"kind":       kind,
			"confidence": classification.Confidence,
			"escalated":  classification.Escalated,
		}).Info("task classified")
	}
	o.tasks.SetProgress(id, 25)

	var result interface{}
	if kind == models.TaskKindContract {
		result, err = o.chain.Run(ctx, text)
	} else {
		profile, ok := provider.AnalysisKindProfiles[string(kind)]
		if !ok {
			o.fail(id, "analysis failed", fmt.Sprintf("no analysis profile for kind %q", kind))
			return
		}
		result, err = o.parallel.Run(ctx, text, profile)
	}
	if err != nil {
		msg, detail := failureDetail(err)
		o.fail(id, msg, detail)
		return
	}
	o.tasks.SetProgress(id, 90)

	if o.sink != nil {
		if err := o.sink.Persist(ctx, id, result); err != nil {
			// Persistence is best-effort: the result stays queryable
			// through the task table.
			log.WithError(models.ErrorInfo{Message: err.Error(), Type: "sink"}).
				Error("failed to persist result")
		}
	}

	if err := o.tasks.Transition(id, models.TaskStateCompleted, TransitionUpdate{
		Note:   "analysis completed",
		Result: result,
	}); err != nil {
		log.Error(fmt.Sprintf("failed to complete task: %v", err))
		return
	}
	o.publish(id, "state_changed", models.TaskStateCompleted, kind, "analysis completed")
	log.Info("task completed")
}

// fail moves a task to failed regardless of its current phase.
func (o *Orchestrator) fail(id, message, detail string) {
	task, getErr := o.tasks.Get(id)
	if err := o.tasks.Transition(id, models.TaskStateFailed, TransitionUpdate{
		Note:        message,
		Error:       message,
		ErrorDetail: detail,
	}); err != nil {
		o.log.Error(fmt.Sprintf("failed to fail task %s: %v", id, err))
		return
	}
	var kind models.TaskKind
	if getErr == nil {
		kind = task.Kind
	}
	o.publish(id, "state_changed", models.TaskStateFailed, kind, message)
}

// publish emits a lifecycle event, logging instead of failing the task when
// the broker is unavailable.
func (o *Orchestrator) publish(id, eventType string, state models.TaskState, kind models.TaskKind, note string) {
	if o.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	event := publisher.LifecycleEvent{
		TaskID:    id,
		Type:      eventType,
		State:     state,
		Kind:      kind,
		Note:      note,
		Timestamp: time.Now(),
	}
	if err := o.events.Publish(ctx, id, event); err != nil {
		o.log.Warn(fmt.Sprintf("failed to publish lifecycle event for task %s: %v", id, err))
	}
}

// failureDetail turns a stage error into the user-facing message and the
// operator-facing detail.
func failureDetail(err error) (message, detail string) {
	var allFailed *models.AllProvidersFailedError
	if errors.As(err, &allFailed) {
		return allFailed.Error(), allFailed.Detail()
	}
	var stepFailed *models.ChainStepFailedError
	if errors.As(err, &stepFailed) {
		return fmt.Sprintf("chain step %q failed", stepFailed.Step), stepFailed.Error()
	}
	return "analysis failed", err.Error()
}
