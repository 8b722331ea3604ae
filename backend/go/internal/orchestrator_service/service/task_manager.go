package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"LexiMind/backend/go/internal/models"
)

// RetentionPolicy bounds how long terminal tasks stay queryable in memory.
// Pending and processing tasks are never evicted.
type RetentionPolicy struct {
	// TTL is how long a completed or failed task remains after it reached
	// its terminal state. Zero disables time-based eviction.
	TTL time.Duration
	// MaxTerminal caps the number of terminal tasks kept at once, evicting
	// the oldest first. Zero disables the cap.
	MaxTerminal int
}

// TransitionUpdate carries the optional fields a state transition may set.
type TransitionUpdate struct {
	Note        string
	Result      interface{}
	Error       string
	ErrorDetail string
}

// TaskManager owns the in-memory task table and enforces the task state
// machine. All mutations append to the task's event history, and all reads
// return deep copies so callers can never mutate shared state.
type TaskManager struct {
	mu        sync.Mutex
	tasks     map[string]*models.Task
	order     []string // task ids in creation order, oldest first
	retention RetentionPolicy
}

// NewTaskManager creates a task manager with the given retention policy.
func NewTaskManager(retention RetentionPolicy) *TaskManager {
	return &TaskManager{
		tasks:     make(map[string]*models.Task),
		retention: retention,
	}
}

// Create registers a new task in the pending state and returns a copy of it.
// Creation cannot fail: validation happens before a task is admitted.
func (m *TaskManager) Create(kind models.TaskKind, payload models.TaskPayload) *models.Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	task := &models.Task{
		ID:        uuid.New().String(),
		Kind:      kind,
		State:     models.TaskStatePending,
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
		Events: []models.TaskEvent{{
			Timestamp: now,
			FromState: "",
			ToState:   models.TaskStatePending,
			Note:      "task created",
		}},
	}
	m.tasks[task.ID] = task
	m.order = append(m.order, task.ID)

	m.evictLocked(now)
	return copyTask(task)
}

// legal transitions of the task state machine.
var legalTransitions = map[models.TaskState][]models.TaskState{
	models.TaskStatePending:    {models.TaskStateProcessing, models.TaskStateFailed},
	models.TaskStateProcessing: {models.TaskStateCompleted, models.TaskStateFailed},
}

// Transition moves a task to a new state, appending exactly one event.
// Illegal transitions return models.ErrInvalidTransition and leave the task
// untouched. Terminal states accept no further transitions.
func (m *TaskManager) Transition(id string, to models.TaskState, upd TransitionUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok {
		return models.ErrNotFound
	}

	allowed := false
	for _, next := range legalTransitions[task.State] {
		if next == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return models.ErrInvalidTransition
	}

	now := time.Now()
	task.Events = append(task.Events, models.TaskEvent{
		Timestamp: now,
		FromState: task.State,
		ToState:   to,
		Note:      upd.Note,
	})
	task.State = to
	task.UpdatedAt = now

	switch to {
	case models.TaskStateCompleted:
		task.Result = upd.Result
		task.Progress = 100
		task.CompletedAt = now
	case models.TaskStateFailed:
		task.Error = upd.Error
		task.ErrorDetail = upd.ErrorDetail
		task.CompletedAt = now
	}

	m.evictLocked(now)
	return nil
}

// SetProgress updates a processing task's progress indicator. Progress is
// monotonic: attempts to move it backwards are ignored. No event is appended.
func (m *TaskManager) SetProgress(id string, progress int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok {
		return models.ErrNotFound
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	if progress > task.Progress {
		task.Progress = progress
		task.UpdatedAt = time.Now()
	}
	return nil
}

// SetKind records the classified kind on a task that was submitted without
// one. No event is appended: classification is not a state transition.
func (m *TaskManager) SetKind(id string, kind models.TaskKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok {
		return models.ErrNotFound
	}
	task.Kind = kind
	task.UpdatedAt = time.Now()
	return nil
}

// Get returns a deep copy of the task, or models.ErrNotFound.
func (m *TaskManager) Get(id string) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return copyTask(task), nil
}

// History returns a copy of the task's full event history, oldest first.
func (m *TaskManager) History(id string) ([]models.TaskEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	events := make([]models.TaskEvent, len(task.Events))
	copy(events, task.Events)
	return events, nil
}

// List returns up to limit tasks, newest first. A non-positive limit
// returns all retained tasks.
func (m *TaskManager) List(limit int) []*models.Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.Task
	for i := len(m.order) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		if task, ok := m.tasks[m.order[i]]; ok {
			out = append(out, copyTask(task))
		}
	}
	return out
}

// evictLocked applies the retention policy. Callers must hold m.mu.
func (m *TaskManager) evictLocked(now time.Time) {
	if m.retention.TTL > 0 {
		cutoff := now.Add(-m.retention.TTL)
		for id, task := range m.tasks {
			if task.State.Terminal() && task.CompletedAt.Before(cutoff) {
				delete(m.tasks, id)
			}
		}
	}

	if m.retention.MaxTerminal > 0 {
		terminal := 0
		for _, task := range m.tasks {
			if task.State.Terminal() {
				terminal++
			}
		}
		// Oldest terminal tasks go first.
		for _, id := range m.order {
			if terminal <= m.retention.MaxTerminal {
				break
			}
			task, ok := m.tasks[id]
			if !ok || !task.State.Terminal() {
				continue
			}
			delete(m.tasks, id)
			terminal--
		}
	}

	m.compactOrderLocked()
}

// compactOrderLocked drops evicted ids from the creation-order slice once
// enough of them have accumulated.
func (m *TaskManager) compactOrderLocked() {
	if len(m.order) < 2*len(m.tasks)+16 {
		return
	}
	kept := m.order[:0]
	for _, id := range m.order {
		if _, ok := m.tasks[id]; ok {
			kept = append(kept, id)
		}
	}
	m.order = kept
}

// copyTask deep-copies the mutable parts of a task.
func copyTask(t *models.Task) *models.Task {
	c := *t
	c.Events = make([]models.TaskEvent, len(t.Events))
	copy(c.Events, t.Events)
	if t.Payload.Metadata != nil {
		c.Payload.Metadata = make(map[string]string, len(t.Payload.Metadata))
		for k, v := range t.Payload.Metadata {
			c.Payload.Metadata[k] = v
		}
	}
	return &c
}
