package assist

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/codesage/codesage/services/ai"
	testutil "github.com/codesage/codesage/tests"
)

func TestStripFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "no fence", in: "int x = 1;", want: "int x = 1;"},
		{name: "plain fence", in: "```\nint x = 1;\n```", want: "int x = 1;"},
		{name: "language fence", in: "```java\nint x = 1;\n```", want: "int x = 1;"},
		{name: "multiline body", in: "```java\nint x = 1;\nint y = 2;\n```", want: "int x = 1;\nint y = 2;"},
		{name: "opening fence only", in: "```java\nint x = 1;", want: "int x = 1;"},
		{name: "fence with no body", in: "```", want: "```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripFence(tt.in); got != tt.want {
				t.Errorf("stripFence() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestService_Complete(t *testing.T) {
	provider := &ai.MockProvider{Response: "```java\nmotor.setPower(0.5);\n```"}
	svc := NewService(provider, testutil.NopLogger{})

	got, err := svc.Complete(context.Background(), "motor.", "setting motor power")
	if err != nil {
		t.Fatalf("Complete() failed: %v", err)
	}
	if got != "motor.setPower(0.5);" {
		t.Errorf("Complete() = %q", got)
	}

	if len(provider.Requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(provider.Requests))
	}
	req := provider.Requests[0]
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
		t.Fatalf("messages = %+v", req.Messages)
	}
	if !strings.Contains(req.Messages[1].Content, "setting motor power") {
		t.Error("cursor hint missing from the prompt")
	}
	if !strings.Contains(req.Messages[1].Content, "motor.") {
		t.Error("code missing from the prompt")
	}
}

func TestService_Refactor(t *testing.T) {
	original := "int x=1;\nint y=2;\n"
	provider := &ai.MockProvider{Response: "```java\nint x = 1;\nint y = 2;\n```"}
	svc := NewService(provider, testutil.NopLogger{})

	res, err := svc.Refactor(context.Background(), original, "fix spacing")
	if err != nil {
		t.Fatalf("Refactor() failed: %v", err)
	}
	if res.Code != "int x = 1;\nint y = 2;" {
		t.Errorf("Code = %q", res.Code)
	}
	for _, want := range []string{"--- original", "+++ refactored", "-int x=1;", "+int x = 1;"} {
		if !strings.Contains(res.Diff, want) {
			t.Errorf("Diff missing %q:\n%s", want, res.Diff)
		}
	}
	if !strings.Contains(provider.Requests[0].Messages[1].Content, "fix spacing") {
		t.Error("instruction missing from the prompt")
	}
}

func TestService_Ask(t *testing.T) {
	provider := &ai.MockProvider{Response: "Use a while loop with opModeIsActive()."}
	svc := NewService(provider, testutil.NopLogger{})

	got, err := svc.Ask(context.Background(), "How do I keep TeleOp running?", "public void loop() {}")
	if err != nil {
		t.Fatalf("Ask() failed: %v", err)
	}
	if got != "Use a while loop with opModeIsActive()." {
		t.Errorf("Ask() = %q", got)
	}
	content := provider.Requests[0].Messages[1].Content
	if !strings.Contains(content, "```java") || !strings.Contains(content, "public void loop() {}") {
		t.Errorf("code context missing from the prompt: %q", content)
	}
}

func TestService_providerFailure(t *testing.T) {
	provider := &ai.MockProvider{Err: errors.New("quota exceeded")}
	svc := NewService(provider, testutil.NopLogger{})

	_, err := svc.Complete(context.Background(), "int x;", "")
	if errors.Cause(err) != ErrProviderUnavailable {
		t.Errorf("Complete() error = %v, want ErrProviderUnavailable cause", err)
	}

	if _, err = svc.Refactor(context.Background(), "int x;", "rename"); errors.Cause(err) != ErrProviderUnavailable {
		t.Errorf("Refactor() error = %v", err)
	}
	if _, err = svc.Ask(context.Background(), "why?", ""); errors.Cause(err) != ErrProviderUnavailable {
		t.Errorf("Ask() error = %v", err)
	}
}
