package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/lorehub/lore/internal/domain"
	"github.com/lorehub/lore/internal/tool"
)

// scriptedCompleter returns its replies in order, repeating the last one
// when the script runs out.
type scriptedCompleter struct {
	replies []string
	err     error
	calls   int
	prompts []string
}

func (s *scriptedCompleter) Complete(_ context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	s.calls++
	s.prompts = append(s.prompts, req.UserPrompt)
	if s.err != nil {
		return domain.CompletionResult{}, s.err
	}
	idx := s.calls - 1
	if idx >= len(s.replies) {
		idx = len(s.replies) - 1
	}
	return domain.CompletionResult{Text: s.replies[idx], TotalTokens: 7}, nil
}

type echoTool struct {
	name  string
	reply string
	err   error
	calls int
}

func (e *echoTool) Name() string        { return e.name }
func (e *echoTool) Description() string { return "echo tool" }
func (e *echoTool) Schema() tool.Schema { return tool.Schema{Type: "object"} }
func (e *echoTool) Execute(context.Context, tool.Input) (string, error) {
	e.calls++
	return e.reply, e.err
}

func newTestRegistry(t *testing.T, tools ...tool.Tool) *tool.Registry {
	t.Helper()
	reg, err := tool.NewRegistry(tools...)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	return reg
}

func TestRunImmediateFinalAnswer(t *testing.T) {
	completer := &scriptedCompleter{replies: []string{"Thought: easy.\nFinal Answer: Go 1.25"}}
	svc := New(completer, newTestRegistry(t), Config{})

	result, err := svc.Run(context.Background(), "latest Go release?")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Answer != "Go 1.25" {
		t.Errorf("Answer = %q", result.Answer)
	}
	if result.Outcome != OutcomeAnswer {
		t.Errorf("Outcome = %q, want %q", result.Outcome, OutcomeAnswer)
	}
	if result.Iterations != 1 || completer.calls != 1 {
		t.Errorf("iterations = %d, completer calls = %d, want 1 and 1", result.Iterations, completer.calls)
	}
	if len(result.Steps) != 1 {
		t.Errorf("len(Steps) = %d, want 1", len(result.Steps))
	}
	if result.RunID == "" {
		t.Error("RunID must be set")
	}
}

func TestRunToolCallThenAnswer(t *testing.T) {
	completer := &scriptedCompleter{replies: []string{
		"Thought: need data.\nAction: lookup\nAction Input: {\"query\": \"x\"}",
		"Thought: got it.\nFinal Answer: found",
	}}
	echo := &echoTool{name: "lookup", reply: "lookup observation"}
	svc := New(completer, newTestRegistry(t, echo), Config{})

	result, err := svc.Run(context.Background(), "q")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if echo.calls != 1 {
		t.Errorf("tool calls = %d, want 1", echo.calls)
	}
	if result.Iterations != 2 {
		t.Errorf("iterations = %d, want 2", result.Iterations)
	}
	if result.Steps[0].Observation != "lookup observation" {
		t.Errorf("Observation = %q", result.Steps[0].Observation)
	}
	// The second prompt must replay the first step's observation.
	if !strings.Contains(completer.prompts[1], "Observation: lookup observation") {
		t.Errorf("second prompt missing observation:\n%s", completer.prompts[1])
	}
}

func TestRunUnknownToolExhaustsIterations(t *testing.T) {
	completer := &scriptedCompleter{replies: []string{
		"Thought: try this.\nAction: no_such_tool\nAction Input: {}",
	}}
	svc := New(completer, newTestRegistry(t), Config{MaxIterations: 3})

	result, err := svc.Run(context.Background(), "q")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Iterations != 3 || completer.calls != 3 {
		t.Errorf("iterations = %d, completer calls = %d, want 3 and 3", result.Iterations, completer.calls)
	}
	if result.Outcome != OutcomeMaxIterations {
		t.Errorf("Outcome = %q, want %q", result.Outcome, OutcomeMaxIterations)
	}
	if result.Answer == "" {
		t.Error("synthesized answer must not be empty")
	}
	for _, s := range result.Steps {
		if !strings.Contains(s.Observation, "Unknown tool: no_such_tool") {
			t.Errorf("Observation = %q, want unknown-tool error", s.Observation)
		}
	}
}

func TestRunUnknownToolObservationIsValidJSON(t *testing.T) {
	completer := &scriptedCompleter{replies: []string{
		"Thought: hm.\nAction: say \"hi\"\nAction Input: {}",
		"Final Answer: done",
	}}
	svc := New(completer, newTestRegistry(t), Config{})

	result, err := svc.Run(context.Background(), "q")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	var obs map[string]string
	if err := json.Unmarshal([]byte(result.Steps[0].Observation), &obs); err != nil {
		t.Fatalf("observation is not valid JSON: %v\n%s", err, result.Steps[0].Observation)
	}
	if !strings.Contains(obs["error"], `say "hi"`) {
		t.Errorf("error = %q, want the tool name preserved", obs["error"])
	}
}

func TestRunToolErrorBecomesObservation(t *testing.T) {
	completer := &scriptedCompleter{replies: []string{
		"Action: broken\nAction Input: {}",
		"Final Answer: gave up on the tool",
	}}
	broken := &echoTool{name: "broken", err: errors.New("backend unavailable")}
	svc := New(completer, newTestRegistry(t, broken), Config{})

	result, err := svc.Run(context.Background(), "q")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(result.Steps[0].Observation, "backend unavailable") {
		t.Errorf("Observation = %q, want tool error surfaced", result.Steps[0].Observation)
	}
	if result.Outcome != OutcomeAnswer {
		t.Errorf("Outcome = %q, run must continue past a tool failure", result.Outcome)
	}
}

func TestRunMalformedReplyNudges(t *testing.T) {
	completer := &scriptedCompleter{replies: []string{
		"free-form prose without any markers",
		"Final Answer: recovered",
	}}
	svc := New(completer, newTestRegistry(t), Config{})

	result, err := svc.Run(context.Background(), "q")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Answer != "recovered" {
		t.Errorf("Answer = %q", result.Answer)
	}
	if !strings.Contains(completer.prompts[1], "Please continue") {
		t.Errorf("second prompt missing the continue nudge:\n%s", completer.prompts[1])
	}
}

func TestRunMalformedRepliesKeepTranscript(t *testing.T) {
	completer := &scriptedCompleter{replies: []string{
		"free-form prose without any markers",
	}}
	svc := New(completer, newTestRegistry(t), Config{MaxIterations: 3})

	result, err := svc.Run(context.Background(), "q")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Outcome != OutcomeMaxIterations {
		t.Errorf("Outcome = %q, want %q", result.Outcome, OutcomeMaxIterations)
	}
	// One transcript entry per iteration, even when every reply is
	// unparseable.
	if len(result.Steps) != result.Iterations {
		t.Errorf("len(Steps) = %d, iterations = %d, want equal", len(result.Steps), result.Iterations)
	}
	for i, s := range result.Steps {
		if !strings.Contains(s.Observation, "unparseable reply") {
			t.Errorf("Steps[%d].Observation = %q, want re-prompt record", i, s.Observation)
		}
	}
	if result.Answer == "" {
		t.Error("synthesized answer must not be empty")
	}
}

func TestRunCompleterFailureIsFatal(t *testing.T) {
	completer := &scriptedCompleter{err: domain.ErrCompletionProviderError}
	svc := New(completer, newTestRegistry(t), Config{})

	_, err := svc.Run(context.Background(), "q")
	if !errors.Is(err, domain.ErrCompletionProviderError) {
		t.Fatalf("Run() error = %v, want ErrCompletionProviderError", err)
	}
}

func TestRunHonorsCancellationAtIterationBoundary(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	completer := &scriptedCompleter{replies: []string{"Final Answer: too late"}}
	svc := New(completer, newTestRegistry(t), Config{})

	_, err := svc.Run(ctx, "q")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if completer.calls != 0 {
		t.Errorf("completer called %d times after cancellation", completer.calls)
	}
}

func TestRunStreamEmitsStepsThenResult(t *testing.T) {
	completer := &scriptedCompleter{replies: []string{
		"Thought: need data.\nAction: lookup\nAction Input: {\"query\": \"x\"}",
		"Final Answer: streamed",
	}}
	svc := New(completer, newTestRegistry(t, &echoTool{name: "lookup", reply: "obs"}), Config{})

	var steps int
	var result *Result
	for ev := range svc.RunStream(context.Background(), "q") {
		switch {
		case ev.Err != nil:
			t.Fatalf("stream error = %v", ev.Err)
		case ev.Step != nil:
			steps++
			if result != nil {
				t.Error("step emitted after terminal result")
			}
		case ev.Result != nil:
			result = ev.Result
		}
	}
	if steps != 2 {
		t.Errorf("streamed %d steps, want 2", steps)
	}
	if result == nil || result.Answer != "streamed" {
		t.Fatalf("terminal result = %+v", result)
	}
}
