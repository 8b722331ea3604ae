package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"LexiMind/backend/go/internal/models"
)

// reportWire 是提供商分析响应的传输结构。
// 提供商输出属于不可信输入，先解析到这里再做字段校验。
type reportWire struct {
	Summary  string   `json:"summary"`
	Score    *float64 `json:"score"`
	Findings []struct {
		Category string `json:"category"`
		Detail   string `json:"detail"`
		Severity string `json:"severity"`
	} `json:"findings"`
}

// parseReport 对提供商返回的 JSON 做严格的模式校验。
// 未知字段、缺失字段或越界数值都会导致带类型的失败，
// 而不是放任形状不符的数据进入合并阶段。
func parseReport(raw string) (*models.ProviderReport, error) {
	payload := stripCodeFence(raw)

	decoder := json.NewDecoder(strings.NewReader(payload))
	decoder.DisallowUnknownFields()

	var wire reportWire
	if err := decoder.Decode(&wire); err != nil {
		return nil, fmt.Errorf("invalid report JSON: %w", err)
	}
	// 响应必须恰好是一个 JSON 对象。
	if decoder.More() {
		return nil, fmt.Errorf("trailing content after report JSON")
	}

	if strings.TrimSpace(wire.Summary) == "" {
		return nil, fmt.Errorf("report summary is empty")
	}
	if wire.Score == nil {
		return nil, fmt.Errorf("report score is missing")
	}
	if *wire.Score < 0 || *wire.Score > 100 {
		return nil, fmt.Errorf("report score %v out of range [0,100]", *wire.Score)
	}

	report := &models.ProviderReport{
		Summary: strings.TrimSpace(wire.Summary),
		Score:   *wire.Score,
	}
	for i, f := range wire.Findings {
		if strings.TrimSpace(f.Category) == "" || strings.TrimSpace(f.Detail) == "" {
			return nil, fmt.Errorf("finding %d is missing category or detail", i)
		}
		report.Findings = append(report.Findings, models.Finding{
			Category: strings.TrimSpace(f.Category),
			Detail:   strings.TrimSpace(f.Detail),
			Severity: strings.ToLower(strings.TrimSpace(f.Severity)),
		})
	}
	return report, nil
}

// stripCodeFence 去掉提供商经常包裹在 JSON 外面的 Markdown 代码栅栏。
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
