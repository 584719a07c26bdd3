// Package openai implements the oracle contract on top of the OpenAI Chat
// Completions API (including function/tool calling). It adapts the engine's
// normalized Request into the SDK's message format and back.
package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/hupe1980/supportmesh/core"
	"github.com/hupe1980/supportmesh/oracle"
)

// Options configure the OpenAI oracle adapter. Fields mirror a subset of Chat
// Completion parameters intentionally kept minimal; extend via functional
// options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Oracle wraps the OpenAI Chat Completions API behind the generic oracle.Oracle interface.
type Oracle struct {
	client *openai.Client
	opts   Options
}

// New creates a new OpenAI oracle using the official client.
func New(optFns ...func(o *Options)) *Oracle {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a new OpenAI oracle from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Oracle {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0,
		MaxCompletionTokens: 2048,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Oracle{client: client, opts: opts}
}

// Decide implements oracle.Oracle with a single non-streaming completion.
func (o *Oracle) Decide(ctx context.Context, req oracle.Request) (core.AssistantMessage, error) {
	messages, err := buildMessages(req)
	if err != nil {
		return core.AssistantMessage{}, err
	}

	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               o.opts.Model,
		Temperature:         openai.Float(o.opts.Temperature),
		MaxCompletionTokens: openai.Int(o.opts.MaxCompletionTokens),
	}
	if tools := buildTools(req); len(tools) > 0 {
		params.Tools = tools
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return core.AssistantMessage{}, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return core.AssistantMessage{}, fmt.Errorf("openai api error: no choices returned")
	}

	choice := resp.Choices[0].Message
	out := core.AssistantMessage{Text: choice.Content}
	for _, tc := range choice.ToolCalls {
		args := map[string]any{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return core.AssistantMessage{}, fmt.Errorf("decode tool call arguments for %s: %w", tc.Function.Name, err)
			}
		}
		id := tc.ID
		if id == "" {
			id = core.NewID()
		}
		out.RequestedActions = append(out.RequestedActions, core.Action{ID: id, Name: tc.Function.Name, Arguments: args})
	}
	return out, nil
}

// Info returns metadata describing this OpenAI oracle implementation.
func (o *Oracle) Info() oracle.Info {
	return oracle.Info{Name: o.opts.Model, Provider: "openai"}
}

// buildMessages converts the conversation history into OpenAI chat messages.
// History is already causally ordered, so action results map directly onto
// tool messages following their requesting assistant turn.
func buildMessages(req oracle.Request) ([]openai.ChatCompletionMessageParamUnion, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+1)
	if req.Instruction != "" {
		messages = append(messages, openai.SystemMessage(req.Instruction))
	}
	for _, m := range req.History {
		switch msg := m.(type) {
		case core.UserMessage:
			messages = append(messages, openai.UserMessage(msg.Text))
		case core.AssistantMessage:
			if msg.IsFinal() {
				messages = append(messages, openai.AssistantMessage(msg.Text))
				continue
			}
			toolCalls := make([]openai.ChatCompletionMessageToolCallParam, 0, len(msg.RequestedActions))
			for _, a := range msg.RequestedActions {
				args, err := json.Marshal(a.Arguments)
				if err != nil {
					return nil, fmt.Errorf("encode arguments for action %s: %w", a.Name, err)
				}
				toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
					ID:   a.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      a.Name,
						Arguments: string(args),
					},
				})
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Role:      "assistant",
					ToolCalls: toolCalls,
				},
			})
		case core.ActionResult:
			messages = append(messages, openai.ToolMessage(msg.PayloadText(), msg.ActionID))
		default:
			return nil, fmt.Errorf("unknown message type %T", m)
		}
	}
	return messages, nil
}

// buildTools converts capability definitions into OpenAI tool declarations.
func buildTools(req oracle.Request) []openai.ChatCompletionToolParam {
	if len(req.Capabilities) == 0 {
		return nil
	}
	tools := make([]openai.ChatCompletionToolParam, len(req.Capabilities))
	for i, def := range req.Capabilities {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        def.Name,
				Description: openai.String(def.Description),
				Parameters:  def.Schema,
			},
		}
	}
	return tools
}
