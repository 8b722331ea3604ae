package provider

import (
	"strings"
	"testing"
)

func TestParseReportValid(t *testing.T) {
	raw := `{"summary": "Two issues found.", "score": 72.5, "findings": [
		{"category": "Liability", "detail": "Uncapped indemnity", "severity": "HIGH"}
	]}`
	report, err := parseReport(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Summary != "Two issues found." {
		t.Errorf("Summary = %q", report.Summary)
	}
	if report.Score != 72.5 {
		t.Errorf("Score = %v, want 72.5", report.Score)
	}
	if len(report.Findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(report.Findings))
	}
	if report.Findings[0].Severity != "high" {
		t.Errorf("Severity = %q, want normalized %q", report.Findings[0].Severity, "high")
	}
}

func TestParseReportStripsCodeFence(t *testing.T) {
	raw := "```json\n{\"summary\": \"ok\", \"score\": 10}\n```"
	report, err := parseReport(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Summary != "ok" {
		t.Errorf("Summary = %q", report.Summary)
	}
}

func TestParseReportRejectsBadPayloads(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", "the document looks fine to me"},
		{"unknown field", `{"summary": "ok", "score": 10, "verdict": "pass"}`},
		{"trailing content", `{"summary": "ok", "score": 10} {"summary": "again", "score": 20}`},
		{"empty summary", `{"summary": "  ", "score": 10}`},
		{"missing score", `{"summary": "ok"}`},
		{"score too high", `{"summary": "ok", "score": 101}`},
		{"negative score", `{"summary": "ok", "score": -1}`},
		{"finding missing detail", `{"summary": "ok", "score": 10, "findings": [{"category": "x", "detail": ""}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parseReport(tc.raw); err == nil {
				t.Errorf("parseReport accepted %s", tc.name)
			}
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	if got := stripCodeFence("```json\n{}\n```"); got != "{}" {
		t.Errorf("got %q", got)
	}
	if got := stripCodeFence("  {} "); got != "{}" {
		t.Errorf("got %q", got)
	}
	if got := stripCodeFence("```\n{}\n```"); !strings.Contains(got, "{}") {
		t.Errorf("got %q", got)
	}
}
