package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"LexiMind/backend/go/internal/models"
	"LexiMind/backend/go/internal/provider"
	"LexiMind/backend/go/pkg/logger"
)

type fakeTransformClient struct {
	name    string
	failOn  string // profile name that should fail, empty for none
	history []string
}

func (f *fakeTransformClient) Name() string { return f.name }

func (f *fakeTransformClient) Transform(ctx context.Context, text string, profile provider.Profile) (string, error) {
	f.history = append(f.history, profile.Name)
	if profile.Name == f.failOn {
		return "", &models.ProviderError{Provider: f.name, Reason: "step failed", IsTransient: false}
	}
	return fmt.Sprintf("%s(%s)", profile.Name, text), nil
}

func TestSequentialRunChainsOutputs(t *testing.T) {
	client := &fakeTransformClient{name: "alpha"}
	stage := NewSequentialStage(client, ContractChain(), testRetryConfig(), logger.New("test", "", ""))

	result, err := stage.Run(context.Background(), "doc")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantSteps := []string{"extract", "compliance-check", "draft", "audit"}
	if len(result.Steps) != len(wantSteps) {
		t.Fatalf("got %d steps, want %d", len(result.Steps), len(wantSteps))
	}
	for i, step := range wantSteps {
		if result.Steps[i] != step {
			t.Errorf("Steps[%d] = %q, want %q", i, result.Steps[i], step)
		}
	}

	// Each step consumed the previous step's output.
	wantFinal := "audit(draft(compliance-check(extract(doc))))"
	if result.Final != wantFinal {
		t.Errorf("Final = %q, want %q", result.Final, wantFinal)
	}
	if result.Outputs["extract"] != "extract(doc)" {
		t.Errorf("Outputs[extract] = %q", result.Outputs["extract"])
	}
	if result.Outputs["audit"] != wantFinal {
		t.Errorf("Outputs[audit] = %q", result.Outputs["audit"])
	}
}

func TestSequentialRunFailsFast(t *testing.T) {
	client := &fakeTransformClient{name: "alpha", failOn: "compliance-check"}
	stage := NewSequentialStage(client, ContractChain(), testRetryConfig(), logger.New("test", "", ""))

	_, err := stage.Run(context.Background(), "doc")
	var stepErr *models.ChainStepFailedError
	if !errors.As(err, &stepErr) {
		t.Fatalf("error %T is not *ChainStepFailedError", err)
	}
	if stepErr.Index != 1 || stepErr.Step != "compliance-check" {
		t.Errorf("failed at step %d (%s), want 1 (compliance-check)", stepErr.Index, stepErr.Step)
	}

	// Later steps never ran.
	want := []string{"extract", "compliance-check"}
	if len(client.history) != len(want) {
		t.Fatalf("ran %v, want %v", client.history, want)
	}
}
