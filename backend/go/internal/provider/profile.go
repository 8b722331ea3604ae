package provider

// Profile 是一次提供商调用的提示词档案：
// 命名的指令模板，渲染时与文档文本拼接。
type Profile struct {
	Name        string
	Instruction string
}

// 结构化分析使用的提示词档案。
var (
	ComplianceProfile = Profile{
		Name: "compliance-review",
		Instruction: "You are a legal compliance analyst. Review the document below for " +
			"regulatory and contractual compliance issues: missing obligations, conflicting " +
			"clauses, regulatory exposure and data-protection gaps.",
	}

	ResearchProfile = Profile{
		Name: "legal-research",
		Instruction: "You are a legal research assistant. Analyze the document below and " +
			"surface the legal questions it raises, relevant doctrines, and points that " +
			"need further authority or precedent.",
	}
)

// 顺序流水线各步骤使用的自由文本提示词档案。
var (
	ExtractProfile = Profile{
		Name: "extract",
		Instruction: "Extract the operative clauses, defined terms, parties and key dates " +
			"from the document below. Output plain text, one item per line.",
	}

	ComplianceCheckProfile = Profile{
		Name: "compliance-check",
		Instruction: "Review the extracted clauses below and list every compliance concern " +
			"with a short explanation. Output plain text.",
	}

	DraftProfile = Profile{
		Name: "draft",
		Instruction: "Based on the compliance concerns below, draft revised clause language " +
			"that resolves each concern. Output plain text.",
	}

	AuditProfile = Profile{
		Name: "audit",
		Instruction: "Audit the drafted revisions below: confirm each concern is addressed " +
			"and flag anything the revision weakened or missed. Output plain text.",
	}
)

// AnalysisKindProfiles 将并行分析的任务类别映射到对应的提示词档案。
var AnalysisKindProfiles = map[string]Profile{
	"compliance": ComplianceProfile,
	"research":   ResearchProfile,
}
