package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lorehub/lore/internal/tool"
)

// systemPrompt renders the instruction block listing every registered
// tool with its name, description and parameter schema. The schema text
// here is the only place the schema is used.
func systemPrompt(tools []tool.Tool) string {
	var b strings.Builder
	b.WriteString(`You are a helpful assistant for a documentation and news portal. Answer the user's question, using tools when you need external information or computation.

Available tools:
`)
	for _, t := range tools {
		schema, err := json.Marshal(t.Schema())
		if err != nil {
			schema = []byte("{}")
		}
		fmt.Fprintf(&b, "- %s: %s Parameters: %s\n", t.Name(), t.Description(), schema)
	}
	b.WriteString(`
Respond in exactly one of these two formats.

To use a tool:
Thought: <your reasoning>
Action: <tool name>
Action Input: <JSON object matching the tool's parameters>

To answer:
Thought: <your reasoning>
Final Answer: <the answer to the user's question>

Use one tool per response. After each tool call you will receive an Observation with the result.`)
	return b.String()
}

// transcriptPrompt folds the question and the steps so far into the user
// prompt for the next iteration.
func transcriptPrompt(query string, steps []Step, nudge bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", query)
	for _, s := range steps {
		if s.Thought != "" {
			fmt.Fprintf(&b, "Thought: %s\n", s.Thought)
		}
		if s.Action != "" {
			input, _ := json.Marshal(s.ActionInput)
			fmt.Fprintf(&b, "Action: %s\nAction Input: %s\n", s.Action, input)
		}
		if s.Observation != "" {
			fmt.Fprintf(&b, "Observation: %s\n", s.Observation)
		}
	}
	if nudge {
		b.WriteString("Please continue. Use the required format.\n")
	}
	return b.String()
}
