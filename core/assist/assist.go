// Package assist builds the prompts behind the AI coding helpers and shapes
// their responses. Model transport lives in services/ai.
package assist

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/codesage/codesage/core"
	"github.com/codesage/codesage/services/ai"
)

// ErrProviderUnavailable wraps model backend failures. Requests are never
// retried synchronously; the caller decides whether to try again.
var ErrProviderUnavailable = errors.New("ai provider unavailable")

const (
	systemPrompt = "You are a coding mentor for FTC robotics students learning Java. " +
		"Target beginner to intermediate programmers writing robot op modes with the FTC SDK. " +
		"Be concise and correct."

	completeInstruction = "Complete the following Java code. Return only the completed code, no commentary."
	refactorFence       = "```"
)

type (
	Service struct {
		provider ai.Provider
		logger   core.Logger
	}

	// RefactorResult carries the rewritten code and a unified diff against the
	// submitted original.
	RefactorResult struct {
		Code string `json:"code"`
		Diff string `json:"diff"`
	}
)

func NewService(provider ai.Provider, logger core.Logger) *Service {
	return &Service{provider: provider, logger: logger}
}

func (svc *Service) complete(ctx context.Context, msgs []ai.Message, temperature float64) (string, error) {
	resp, err := svc.provider.Complete(ctx, ai.CompletionRequest{
		Messages:    msgs,
		Temperature: temperature,
	})
	if err != nil {
		svc.logger.Warn("ai completion failed: "+err.Error(), err)
		return "", errors.Wrap(ErrProviderUnavailable, err.Error())
	}
	return strings.TrimSpace(resp.Content), nil
}

// Complete suggests a continuation of the given code. cursorHint optionally
// describes where the student is stuck.
func (svc *Service) Complete(ctx context.Context, code, cursorHint string) (string, error) {
	var b strings.Builder
	b.WriteString(completeInstruction)
	if cursorHint != "" {
		b.WriteString("\nThe student is working on: ")
		b.WriteString(cursorHint)
	}
	b.WriteString("\n\n")
	b.WriteString(code)

	out, err := svc.complete(ctx, []ai.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: b.String()},
	}, 0.2)
	if err != nil {
		return "", err
	}
	return stripFence(out), nil
}

// Refactor rewrites the given code per the instruction and returns the result
// with a unified diff against the original.
func (svc *Service) Refactor(ctx context.Context, code, instruction string) (RefactorResult, error) {
	prompt := "Refactor the following Java code. Instruction: " + instruction +
		"\nReturn only the full refactored code, no commentary.\n\n" + code

	out, err := svc.complete(ctx, []ai.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: prompt},
	}, 0.2)
	if err != nil {
		return RefactorResult{}, err
	}
	refactored := stripFence(out)

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(code),
		B:        difflib.SplitLines(refactored),
		FromFile: "original",
		ToFile:   "refactored",
		Context:  3,
	})
	if err != nil {
		return RefactorResult{}, errors.Wrap(err, "computing diff")
	}
	return RefactorResult{Code: refactored, Diff: diff}, nil
}

// Ask answers a free-form question, optionally grounded on a code excerpt.
func (svc *Service) Ask(ctx context.Context, question, codeContext string) (string, error) {
	content := question
	if codeContext != "" {
		content += "\n\nRelevant code:\n" + refactorFence + "java\n" + codeContext + "\n" + refactorFence
	}
	return svc.complete(ctx, []ai.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: content},
	}, 0.7)
}

// stripFence removes a surrounding markdown code fence, if any. Models tend to
// add one even when told not to.
func stripFence(s string) string {
	if !strings.HasPrefix(s, refactorFence) {
		return s
	}
	lines := strings.SplitN(s, "\n", 2)
	if len(lines) < 2 {
		return s
	}
	body := lines[1]
	if i := strings.LastIndex(body, refactorFence); i >= 0 {
		body = body[:i]
	}
	return strings.TrimRight(body, "\n")
}
