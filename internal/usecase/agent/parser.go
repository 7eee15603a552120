package agent

import (
	"encoding/json"
	"strings"

	"github.com/lorehub/lore/internal/tool"
)

// StepKind tags the parse result of one model reply so callers can
// match exhaustively instead of probing optional fields.
type StepKind int

const (
	// KindMalformed marks a reply with no recognizable marker at all.
	KindMalformed StepKind = iota
	// KindThought carries a thought but neither action nor final answer.
	KindThought
	// KindAction carries an action name plus its decoded input.
	KindAction
	// KindFinal carries a final answer.
	KindFinal
)

// ParsedStep is one model reply decoded against the grammar
// "Thought: ... [Action: ... / Action Input: {...}] | Final Answer: ...".
type ParsedStep struct {
	Kind        StepKind
	Thought     string
	Action      string
	ActionInput tool.Input
	FinalAnswer string
}

const (
	markerThought     = "Thought:"
	markerAction      = "Action:"
	markerActionInput = "Action Input:"
	markerFinal       = "Final Answer:"
)

// parseStep decodes a model reply. A final answer marker wins over any
// action also present in the same reply. When the action input block is
// not valid JSON, the raw text is kept as a single {"raw": ...} input
// instead of discarding the step.
func parseStep(reply string) ParsedStep {
	step := ParsedStep{Thought: section(reply, markerThought)}

	if answer, ok := finalAnswer(reply); ok {
		step.Kind = KindFinal
		step.FinalAnswer = answer
		return step
	}

	if action := section(reply, markerAction); action != "" {
		step.Kind = KindAction
		step.Action = firstLine(action)
		step.ActionInput = parseActionInput(section(reply, markerActionInput))
		return step
	}

	if step.Thought != "" {
		step.Kind = KindThought
		return step
	}
	return ParsedStep{Kind: KindMalformed}
}

// finalAnswer extracts everything after the final answer marker.
func finalAnswer(reply string) (string, bool) {
	idx := strings.Index(reply, markerFinal)
	if idx < 0 {
		return "", false
	}
	return strings.TrimSpace(reply[idx+len(markerFinal):]), true
}

// section extracts the text between a marker and the next known marker
// (or the end of the reply).
func section(reply, marker string) string {
	idx := strings.Index(reply, marker)
	if idx < 0 {
		return ""
	}
	body := reply[idx+len(marker):]

	end := len(body)
	for _, next := range []string{markerThought, markerAction, markerActionInput, markerFinal} {
		if next == marker {
			continue
		}
		if i := strings.Index(body, next); i >= 0 && i < end {
			end = i
		}
	}
	return strings.TrimSpace(body[:end])
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// parseActionInput decodes the action input block as a JSON object,
// tolerating a markdown code fence around it. Anything unparseable is
// wrapped as {"raw": <text>}.
func parseActionInput(block string) tool.Input {
	block = strings.TrimSpace(stripFence(block))
	if block == "" {
		return tool.Input{}
	}

	var input tool.Input
	if err := json.Unmarshal([]byte(block), &input); err == nil && input != nil {
		return input
	}
	return tool.Input{"raw": block}
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		// Drop a language tag such as ```json.
		if !strings.ContainsAny(s[:i], "{}") {
			s = s[i+1:]
		}
	}
	return strings.TrimSuffix(strings.TrimSpace(s), "```")
}
