// internal/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	"strings"

	apperrors "agri-officer/internal/common/errors"
	"agri-officer/internal/common/logger"
	"agri-officer/internal/common/metrics"
	"agri-officer/internal/language"
	"agri-officer/internal/llm"
	"agri-officer/internal/retrieval"
)

// unknownToolApology is fed back as the tool turn when the model asks for a
// tool that does not exist. The model translates it for the user.
const unknownToolApology = "Sorry, I couldn't complete that action. Please answer the farmer's question with what you already know."

// Turn is one prior exchange turn as submitted by the client.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer is the chat completion surface the orchestrator drives.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition) (*llm.Message, error)
}

// ToolExecutor runs a single tool call and returns the tool turn text.
type ToolExecutor interface {
	Execute(ctx context.Context, call llm.ToolCall) (string, error)
}

// ContextRetriever resolves local knowledge for the question being asked.
type ContextRetriever interface {
	Retrieve(ctx context.Context, question string) retrieval.RetrievedContext
}

// Orchestrator runs the response pipeline: compose the system prompt once,
// ask the model whether it needs a tool, execute at most one tool call, and
// ask for the final answer. The no-tool path costs exactly one model call,
// the tool path exactly two, and the system prompt never changes between
// them.
type Orchestrator struct {
	completer Completer
	executor  ToolExecutor
	retriever ContextRetriever
	tools     []llm.ToolDefinition
	errors    *apperrors.Handler
	logger    logger.Logger
}

func New(completer Completer, executor ToolExecutor, retriever ContextRetriever, tools []llm.ToolDefinition, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		completer: completer,
		executor:  executor,
		retriever: retriever,
		tools:     tools,
		errors:    apperrors.NewHandler(log),
		logger:    log,
	}
}

// Respond answers the conversation in the requested language. The returned
// error means the model itself could not produce a reply; every tool or
// retrieval failure has already been absorbed into the transcript by then.
func (o *Orchestrator) Respond(ctx context.Context, history []Turn, lang string) (string, error) {
	systemPrompt := o.composeSystemPrompt(ctx, history, lang)

	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	for _, turn := range history {
		messages = append(messages, llm.Message{Role: normalizeRole(turn.Role), Content: turn.Content})
	}

	metrics.LLMCallsTotal.WithLabelValues("tool_check").Inc()
	first, err := o.completer.Complete(ctx, messages, o.tools)
	if err != nil {
		return "", apperrors.NewLLMFailedError(err)
	}

	if len(first.ToolCalls) == 0 {
		o.logger.Info("Answered without tools", map[string]interface{}{
			"language": lang,
		})
		return first.Content, nil
	}

	// Only the first requested call is honored; the rest are dropped from
	// the transcript so the model never waits on unanswered calls.
	call := first.ToolCalls[0]
	if len(first.ToolCalls) > 1 {
		o.logger.Warn("Model requested multiple tool calls, honoring the first", map[string]interface{}{
			"requested": len(first.ToolCalls),
			"honored":   call.Function.Name,
		})
	}

	toolResult := o.runTool(ctx, call)

	messages = append(messages,
		llm.Message{
			Role:      llm.RoleAssistant,
			Content:   first.Content,
			ToolCalls: []llm.ToolCall{call},
		},
		llm.Message{
			Role:       llm.RoleTool,
			Content:    toolResult,
			Name:       call.Function.Name,
			ToolCallID: call.ID,
		},
	)

	// The final call carries no tool definitions, which forces a
	// natural-language reply instead of a second tool request.
	metrics.LLMCallsTotal.WithLabelValues("tool_final").Inc()
	final, err := o.completer.Complete(ctx, messages, nil)
	if err != nil {
		return "", apperrors.NewLLMFailedError(err)
	}

	o.logger.Info("Answered with tool", map[string]interface{}{
		"tool":     call.Function.Name,
		"language": lang,
	})
	return final.Content, nil
}

// composeSystemPrompt builds the single system prompt for this request:
// the language policy, plus any local knowledge relevant to the latest
// user question. Retrieval happens here, before the first model call, so
// both calls on the tool path see identical bytes.
func (o *Orchestrator) composeSystemPrompt(ctx context.Context, history []Turn, lang string) string {
	prompt := language.Compose(lang)

	if o.retriever != nil {
		if question := latestUserContent(history); question != "" {
			if rendered := o.retriever.Retrieve(ctx, question).Render(); rendered != "" {
				prompt = prompt + "\n" + rendered
			}
		}
	}
	return prompt
}

func (o *Orchestrator) runTool(ctx context.Context, call llm.ToolCall) string {
	result, err := o.executor.Execute(ctx, call)
	return o.errors.Flatten(result, err, unknownToolApology)
}

func latestUserContent(history []Turn) string {
	for i := len(history) - 1; i >= 0; i-- {
		if normalizeRole(history[i].Role) == llm.RoleUser {
			return strings.TrimSpace(history[i].Content)
		}
	}
	return ""
}

func normalizeRole(role string) llm.Role {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "assistant", "model", "bot":
		return llm.RoleAssistant
	case "system":
		return llm.RoleSystem
	default:
		return llm.RoleUser
	}
}
