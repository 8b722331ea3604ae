package models

import (
	"time"
)

// TaskKind 定义了任务的工作类别。
type TaskKind string

const (
	TaskKindContract   TaskKind = "contract"
	TaskKindCompliance TaskKind = "compliance"
	TaskKindResearch   TaskKind = "research"
)

// KnownKinds 是按固定优先级排列的全部任务类别。
// 该顺序同时用于分类平局时的确定性裁决。
var KnownKinds = []TaskKind{TaskKindContract, TaskKindCompliance, TaskKindResearch}

// Valid 报告 k 是否属于已知的任务类别集合。
func (k TaskKind) Valid() bool {
	for _, known := range KnownKinds {
		if k == known {
			return true
		}
	}
	return false
}

// TaskState 定义了任务状态机的几种状态。
type TaskState string

const (
	TaskStatePending    TaskState = "pending"
	TaskStateProcessing TaskState = "processing"
	TaskStateCompleted  TaskState = "completed"
	TaskStateFailed     TaskState = "failed"
)

// Terminal 报告 s 是否为终态。终态任务不允许再发生任何状态迁移。
func (s TaskState) Terminal() bool {
	return s == TaskStateCompleted || s == TaskStateFailed
}

// TaskPayload 是任务的输入数据，任务创建后不可变。
// Text 与 DocumentID 至少填写一个；DocumentID 指向文档服务中已摄取的文档。
type TaskPayload struct {
	Text       string            `json:"text,omitempty" bson:"text,omitempty"`
	DocumentID string            `json:"document_id,omitempty" bson:"document_id,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty" bson:"metadata,omitempty"`
}

// TaskEvent 是任务历史中的一条只追加的审计记录。
type TaskEvent struct {
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	FromState TaskState `json:"from_state" bson:"from_state"`
	ToState   TaskState `json:"to_state" bson:"to_state"`
	Note      string    `json:"note,omitempty" bson:"note,omitempty"`
}

// Task 代表一个被编排的工作单元。
// 所有 Task 记录由 TaskManager 独占持有，其它组件只能通过
// TaskManager 的接口请求变更。
type Task struct {
	ID          string      `json:"id"`
	Kind        TaskKind    `json:"kind,omitempty"`
	State       TaskState   `json:"state"`
	Progress    int         `json:"progress"`
	Payload     TaskPayload `json:"payload"`
	Result      interface{} `json:"result,omitempty"`
	Error       string      `json:"error,omitempty"`
	ErrorDetail string      `json:"error_detail,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	CompletedAt time.Time   `json:"completed_at,omitempty"`
	Events      []TaskEvent `json:"events"`
}
