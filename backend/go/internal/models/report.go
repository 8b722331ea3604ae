package models

// Finding 是分析报告中被标记的一个问题点。
// Source 标记该问题点来自哪个提供商，由合并阶段填写。
type Finding struct {
	Category string `json:"category" bson:"category"`
	Detail   string `json:"detail" bson:"detail"`
	Severity string `json:"severity,omitempty" bson:"severity,omitempty"`
	Source   string `json:"source,omitempty" bson:"source,omitempty"`
}

// ProviderReport 是单个提供商经过严格校验后的结构化分析输出。
type ProviderReport struct {
	Summary  string    `json:"summary" bson:"summary"`
	Findings []Finding `json:"findings" bson:"findings"`
	Score    float64   `json:"score" bson:"score"`
}

// ProviderResult 记录一次提供商调用的结果。
// 该结构是瞬态的：从不单独持久化，只会被折叠进任务的最终报告。
type ProviderResult struct {
	Provider  string          `json:"provider"`
	Succeeded bool            `json:"succeeded"`
	Report    *ProviderReport `json:"report,omitempty"`
	Error     string          `json:"error,omitempty"`
	LatencyMS int64           `json:"latency_ms"`
}

// ProviderSource 描述合并报告中一个提供商的参与情况。
// 注意其中不含延迟信息：合并结果对到达顺序必须是确定的。
type ProviderSource struct {
	Provider  string `json:"provider" bson:"provider"`
	Succeeded bool   `json:"succeeded" bson:"succeeded"`
	Error     string `json:"error,omitempty" bson:"error,omitempty"`
}

// AnalysisReport 是并行分析阶段合并后的最终报告。
// Primary 是按配置优先级确定性选出的主结果提供商。
type AnalysisReport struct {
	Primary  string           `json:"primary" bson:"primary"`
	Summary  string           `json:"summary" bson:"summary"`
	Findings []Finding        `json:"findings" bson:"findings"`
	Score    float64          `json:"score" bson:"score"`
	Sources  []ProviderSource `json:"sources" bson:"sources"`
}

// ChainResult 是顺序流水线阶段的输出。
// Outputs 按步骤名保存每一步的中间产物，下游需要单独消费这些中间结果。
type ChainResult struct {
	Steps   []string          `json:"steps" bson:"steps"`
	Outputs map[string]string `json:"outputs" bson:"outputs"`
	Final   string            `json:"final" bson:"final"`
}
