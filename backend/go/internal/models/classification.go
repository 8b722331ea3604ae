package models

// Classification 是分类阶段的输出。
// Escalated 标记该结果是否来自提供商升级调用而非本地启发式。
type Classification struct {
	Kind           TaskKind `json:"kind"`
	Confidence     float64  `json:"confidence"`
	MatchedSignals []string `json:"matched_signals,omitempty"`
	Escalated      bool     `json:"escalated,omitempty"`
}
