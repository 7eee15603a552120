// Package agent implements the reasoning loop: a bounded sequence of
// completion round-trips alternating with tool executions, terminated by
// a final answer or by the iteration limit.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lorehub/lore/internal/domain"
	"github.com/lorehub/lore/internal/logger"
	"github.com/lorehub/lore/internal/metrics"
	"github.com/lorehub/lore/internal/tool"
)

// Outcome is the terminal state of a run.
type Outcome string

const (
	// OutcomeAnswer means the model produced a final answer.
	OutcomeAnswer Outcome = "answer"
	// OutcomeMaxIterations means the iteration limit was hit and the
	// answer was synthesized from the transcript.
	OutcomeMaxIterations Outcome = "max_iterations"
)

// Step is one entry of the run transcript.
type Step struct {
	Thought     string     `json:"thought,omitempty"`
	Action      string     `json:"action,omitempty"`
	ActionInput tool.Input `json:"action_input,omitempty"`
	Observation string     `json:"observation,omitempty"`
}

// Result is the complete outcome of a run: the answer plus the full
// ordered transcript, regardless of how the run terminated.
type Result struct {
	RunID      string        `json:"run_id"`
	Answer     string        `json:"answer"`
	Outcome    Outcome       `json:"outcome"`
	Steps      []Step        `json:"steps"`
	Iterations int           `json:"iterations"`
	Elapsed    time.Duration `json:"-"`
}

// Config tunes the loop. Zero values fall back to defaults chosen to
// keep the structured output format stable.
type Config struct {
	MaxIterations int
	Temperature   float64
	MaxTokens     int
}

const (
	defaultMaxIterations = 5
	defaultTemperature   = 0.2
	defaultMaxTokens     = 1024
)

// Service runs the loop. The registry is read-only after construction,
// and no state is shared between runs, so one Service serves concurrent
// callers.
type Service struct {
	completer Completer
	registry  *tool.Registry
	cfg       Config
	system    string
}

// New creates an agent service. The system prompt is rendered once from
// the registry's tool list.
func New(completer Completer, registry *tool.Registry, cfg Config) *Service {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = defaultMaxIterations
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	registry.Freeze()
	return &Service{
		completer: completer,
		registry:  registry,
		cfg:       cfg,
		system:    systemPrompt(registry.List()),
	}
}

// Run executes the loop to completion. The returned Result always carries
// the full transcript; an error is returned only for unrecoverable
// provider outages or cancellation.
func (s *Service) Run(ctx context.Context, query string) (Result, error) {
	return s.run(ctx, query, nil)
}

// Event is one streaming update: either a completed step or the terminal
// result (exactly one event has Result != nil, and it is the last one).
type Event struct {
	Step   *Step
	Result *Result
	Err    error
}

// RunStream executes the loop and emits each transcript step as it
// completes. The channel is closed after the terminal event.
func (s *Service) RunStream(ctx context.Context, query string) <-chan Event {
	events := make(chan Event, 1)
	go func() {
		defer close(events)
		result, err := s.run(ctx, query, func(step Step) {
			select {
			case events <- Event{Step: &step}:
			case <-ctx.Done():
			}
		})
		if err != nil {
			events <- Event{Err: err}
			return
		}
		events <- Event{Result: &result}
	}()
	return events
}

func (s *Service) run(ctx context.Context, query string, emit func(Step)) (Result, error) {
	log := logger.FromContext(ctx)
	start := time.Now()
	result := Result{RunID: uuid.NewString()}
	nudge := false

	for result.Iterations < s.cfg.MaxIterations {
		// Cancellation is honored at the iteration boundary only, so a
		// tool side effect is never left without an observation.
		if err := ctx.Err(); err != nil {
			result.Elapsed = time.Since(start)
			metrics.AgentRunsTotal.WithLabelValues("error").Inc()
			return result, err
		}
		result.Iterations++

		completion, err := s.completer.Complete(ctx, domain.CompletionRequest{
			SystemPrompt: s.system,
			UserPrompt:   transcriptPrompt(query, result.Steps, nudge),
			Temperature:  s.cfg.Temperature,
			MaxTokens:    s.cfg.MaxTokens,
		})
		if err != nil {
			result.Elapsed = time.Since(start)
			metrics.AgentRunsTotal.WithLabelValues("error").Inc()
			return result, fmt.Errorf("iteration %d: %w", result.Iterations, err)
		}
		domain.UsageFromContext(ctx).AddTokens(completion.TotalTokens)
		nudge = false

		parsed := parseStep(completion.Text)
		switch parsed.Kind {
		case KindFinal:
			step := Step{Thought: parsed.Thought}
			result.Steps = append(result.Steps, step)
			if emit != nil {
				emit(step)
			}
			result.Answer = parsed.FinalAnswer
			result.Outcome = OutcomeAnswer
			result.Elapsed = time.Since(start)
			s.finish(log, result)
			return result, nil

		case KindAction:
			step := Step{
				Thought:     parsed.Thought,
				Action:      parsed.Action,
				ActionInput: parsed.ActionInput,
			}
			step.Observation = s.execute(ctx, parsed.Action, parsed.ActionInput)
			result.Steps = append(result.Steps, step)
			if emit != nil {
				emit(step)
			}

		case KindThought:
			step := Step{Thought: parsed.Thought}
			result.Steps = append(result.Steps, step)
			if emit != nil {
				emit(step)
			}
			nudge = true

		case KindMalformed:
			log.Debug("unparseable completion, re-prompting",
				zap.String("run_id", result.RunID), zap.Int("iteration", result.Iterations))
			// Record the failed iteration so the transcript stays a
			// complete account of the run.
			step := Step{Observation: `{"error": "unparseable reply, re-prompting"}`}
			result.Steps = append(result.Steps, step)
			if emit != nil {
				emit(step)
			}
			nudge = true
		}
	}

	result.Answer = synthesizeAnswer(result.Steps)
	result.Outcome = OutcomeMaxIterations
	result.Elapsed = time.Since(start)
	s.finish(log, result)
	return result, nil
}

// execute runs one tool call. Every failure mode becomes an observation
// string so the run continues.
func (s *Service) execute(ctx context.Context, name string, input tool.Input) string {
	t, err := s.registry.Get(name)
	if err != nil {
		metrics.AgentToolCallsTotal.WithLabelValues(name, "unknown").Inc()
		return fmt.Sprintf(`{"error": %q}`, "Unknown tool: "+name)
	}

	observation, err := t.Execute(ctx, input)
	if err != nil {
		metrics.AgentToolCallsTotal.WithLabelValues(name, "error").Inc()
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	metrics.AgentToolCallsTotal.WithLabelValues(name, "ok").Inc()
	return observation
}

func (s *Service) finish(log *zap.Logger, result Result) {
	metrics.AgentRunsTotal.WithLabelValues(string(result.Outcome)).Inc()
	metrics.AgentIterationsPerRun.Observe(float64(result.Iterations))
	log.Info("agent run finished",
		zap.String("run_id", result.RunID),
		zap.String("outcome", string(result.Outcome)),
		zap.Int("iterations", result.Iterations),
		zap.Duration("elapsed", result.Elapsed),
	)
}

// synthesizeAnswer builds a best-effort answer from the transcript when
// the iteration limit is reached. Never empty.
func synthesizeAnswer(steps []Step) string {
	var b strings.Builder
	b.WriteString("I could not reach a final answer within the iteration limit.")
	for i := len(steps) - 1; i >= 0; i-- {
		if obs := steps[i].Observation; obs != "" && !strings.HasPrefix(obs, `{"error"`) {
			b.WriteString(" Based on what I found so far: ")
			b.WriteString(obs)
			break
		}
	}
	return b.String()
}
