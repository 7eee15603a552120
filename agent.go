package lore

import (
	"context"
	"time"

	agentuc "github.com/lorehub/lore/internal/usecase/agent"
)

// Ask runs the agent loop on a natural language question and returns the
// final answer with the full reasoning transcript.
func (c *Client) Ask(ctx context.Context, query string) (answer Answer, err error) {
	defer func(start time.Time) { c.obs.observe("ask", start, err) }(time.Now())

	result, err := c.agentSvc.Run(ctx, query)
	if err != nil {
		return Answer{}, err
	}
	return answerFromUsecase(result), nil
}

// AskStream runs the agent loop and emits each transcript step as it
// completes. The channel is closed after the terminal event.
func (c *Client) AskStream(ctx context.Context, query string) <-chan AskEvent {
	start := time.Now()
	out := make(chan AskEvent, 1)
	go func() {
		defer close(out)
		var runErr error
		for ev := range c.agentSvc.RunStream(ctx, query) {
			switch {
			case ev.Err != nil:
				runErr = ev.Err
				out <- AskEvent{Err: ev.Err}
			case ev.Result != nil:
				answer := answerFromUsecase(*ev.Result)
				out <- AskEvent{Answer: &answer}
			case ev.Step != nil:
				step := stepFromUsecase(*ev.Step)
				out <- AskEvent{Step: &step}
			}
		}
		c.obs.observe("ask_stream", start, runErr)
	}()
	return out
}

func answerFromUsecase(r agentuc.Result) Answer {
	steps := make([]Step, len(r.Steps))
	for i, s := range r.Steps {
		steps[i] = stepFromUsecase(s)
	}
	return Answer{
		RunID:      r.RunID,
		Text:       r.Answer,
		Outcome:    string(r.Outcome),
		Steps:      steps,
		Iterations: r.Iterations,
		Elapsed:    r.Elapsed,
	}
}

func stepFromUsecase(s agentuc.Step) Step {
	return Step{
		Thought:     s.Thought,
		Action:      s.Action,
		ActionInput: s.ActionInput,
		Observation: s.Observation,
	}
}
