// Package executor abstracts the AI-assistant invocation layer. The engine
// and the coach only assemble prompts; executing them is delegated to an
// opaque, potentially slow capability behind this interface.
package executor

import "context"

// Executor runs a prompt and returns the assistant's free-text response.
// Implementations may be slow; callers bound calls with the context.
type Executor interface {
	// Execute runs the prompt with the given working-directory context.
	Execute(ctx context.Context, prompt, workDir string) (string, error)
}

// NoOp is an Executor that returns the prompt unchanged. Useful in tests and
// when running without an assistant CLI installed.
type NoOp struct{}

// Execute returns the prompt as-is.
func (NoOp) Execute(_ context.Context, prompt, _ string) (string, error) {
	return prompt, nil
}
