package sessionagent

import (
	"context"
	"fmt"

	"github.com/haasonsaas/commander/internal/agentctx"
	"github.com/haasonsaas/commander/internal/llm"
	"github.com/haasonsaas/commander/internal/types"
)

// MaxIterationsExceededError is returned when the tool-call loop runs
// past maxToolIterations without reaching a final answer, escalated by
// the caller to a DecisionNeeded blocker.
type MaxIterationsExceededError struct{ Limit int }

func (e *MaxIterationsExceededError) Error() string {
	return fmt.Sprintf("max tool iterations exceeded: %d", e.Limit)
}

// Process runs message through the tool-calling loop: build messages
// from ambient + session context, call the model, execute any
// requested tools, and repeat until a final text answer or the
// iteration cap is hit.
func (a *Agent) Process(ctx context.Context, message string, ambient *agentctx.AgentContext) (string, error) {
	if ambient != nil {
		if ambient.CurrentTask != "" {
			a.window.SetTask(ambient.CurrentTask)
		}
	}

	messages := a.buildMessages(message, ambient)

	for iteration := 1; ; iteration++ {
		if iteration > maxToolIterations {
			return "", &MaxIterationsExceededError{Limit: maxToolIterations}
		}

		resp, err := a.client.Complete(ctx, &llm.Request{
			Model:       a.modelOrDefault(),
			Messages:    messages,
			Tools:       a.tools,
			MaxTokens:   a.template.MaxTokens,
			Temperature: a.template.Temperature,
		})
		if err != nil {
			return "", err
		}

		if !resp.HasToolCalls() {
			a.recordTurn(message, resp.Content)
			return resp.Content, nil
		}

		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: resp.Content, ToolCalls: resp.ToolCalls})

		decoded, err := resp.DecodeToolCalls()
		if err != nil {
			return "", err
		}
		for _, call := range decoded {
			result, err := a.executeTool(ctx, call)
			if err != nil {
				return "", err
			}
			messages = append(messages, llm.Message{Role: llm.RoleTool, Content: result, ToolCallID: call.ID})
		}
	}
}

func (a *Agent) recordTurn(userMessage, assistantContent string) {
	ctx := context.Background()
	_ = a.window.AddMessage(ctx, *types.NewMessage(types.RoleUser, userMessage))
	_ = a.window.AddMessage(ctx, *types.NewMessage(types.RoleAssistant, assistantContent))
}

func (a *Agent) buildMessages(userMessage string, ambient *agentctx.AgentContext) []llm.Message {
	messages := []llm.Message{{Role: llm.RoleSystem, Content: a.template.SystemPrompt}}

	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: a.stateContext()})

	if ambient != nil && ambient.SummarizedHistory != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: "Previous context:\n" + ambient.SummarizedHistory})
	} else if a.window.SummarizedHistory() != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: "Previous context:\n" + a.window.SummarizedHistory()})
	}

	for _, m := range a.window.RecentMessages() {
		messages = append(messages, llm.Message{Role: llm.Role(m.Role), Content: m.Content})
	}

	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: userMessage})
	return messages
}

func (a *Agent) stateContext() string {
	return fmt.Sprintf(
		"Current session state:\n- Session: %s\n- Current task: %q\n- Progress: %.0f%%\n- Blockers: %v\n- Files modified: %v",
		a.sessionID, a.state.CurrentTask, a.state.Progress*100, a.state.Blockers, a.state.ModifiedFiles,
	)
}
