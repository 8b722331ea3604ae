package models

import (
	"time"
)

// TaskView 是状态查询接口返回的按状态裁剪的任务投影。
// Processing 只暴露进度，Completed 只暴露结果，Failed 只暴露错误。
type TaskView struct {
	TaskID      string      `json:"task_id"`
	Status      TaskState   `json:"status"`
	Kind        TaskKind    `json:"kind,omitempty"`
	Progress    *int        `json:"progress,omitempty"`
	Result      interface{} `json:"result,omitempty"`
	Error       string      `json:"error,omitempty"`
	ErrorDetail string      `json:"error_detail,omitempty"`
}

// TaskSummary 是任务列表接口返回的摘要条目。
type TaskSummary struct {
	TaskID    string    `json:"task_id"`
	Kind      TaskKind  `json:"kind,omitempty"`
	Status    TaskState `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
