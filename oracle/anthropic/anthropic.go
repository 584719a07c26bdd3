// Package anthropic implements the oracle contract on top of the Anthropic
// Messages API (including tool use).
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/hupe1980/supportmesh/core"
	"github.com/hupe1980/supportmesh/oracle"
)

// Options configures the Anthropic oracle adapter (model id, temperature,
// max tokens, API key).
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Oracle wraps the Anthropic Messages API behind the generic oracle.Oracle interface.
type Oracle struct {
	client *anthropic.Client
	opts   Options
}

// New creates a new Anthropic oracle using the official client.
func New(optFns ...func(o *Options)) *Oracle {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0,
		MaxTokens:   2048,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Oracle{client: &client, opts: opts}
}

// NewFromClient creates a new Anthropic oracle from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Oracle {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0,
		MaxTokens:   2048,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Oracle{client: client, opts: opts}
}

// Decide implements oracle.Oracle with a single non-streaming message call.
func (o *Oracle) Decide(ctx context.Context, req oracle.Request) (core.AssistantMessage, error) {
	params := anthropic.MessageNewParams{
		Model:       o.opts.Model,
		Messages:    buildMessages(req.History),
		MaxTokens:   o.opts.MaxTokens,
		Temperature: anthropic.Float(o.opts.Temperature),
	}
	if req.Instruction != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.Instruction}}
	}
	if len(req.Capabilities) > 0 {
		params.Tools = buildTools(req)
	}

	resp, err := o.client.Messages.New(ctx, params)
	if err != nil {
		return core.AssistantMessage{}, fmt.Errorf("anthropic api error: %w", err)
	}

	var out core.AssistantMessage
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			out.Text += block.AsText().Text
		case "tool_use":
			toolBlock := block.AsToolUse()
			args := map[string]any{}
			if toolBlock.Input != nil {
				var m map[string]any
				if err := json.Unmarshal(toolBlock.Input, &m); err == nil && m != nil {
					args = m
				}
			}
			id := toolBlock.ID
			if id == "" {
				id = core.NewID()
			}
			out.RequestedActions = append(out.RequestedActions, core.Action{ID: id, Name: toolBlock.Name, Arguments: args})
		}
	}
	return out, nil
}

// Info returns metadata describing this Anthropic oracle implementation.
func (o *Oracle) Info() oracle.Info {
	return oracle.Info{Name: string(o.opts.Model), Provider: "anthropic"}
}

// buildMessages converts the conversation history to Anthropic message
// params. Consecutive action results are grouped into a single user message
// of tool_result blocks, as the Messages API requires.
func buildMessages(history []core.Message) []anthropic.MessageParam {
	var messages []anthropic.MessageParam
	var pendingResults []anthropic.ContentBlockParamUnion

	flushResults := func() {
		if len(pendingResults) == 0 {
			return
		}
		messages = append(messages, anthropic.NewUserMessage(pendingResults...))
		pendingResults = nil
	}

	for _, m := range history {
		switch msg := m.(type) {
		case core.UserMessage:
			flushResults()
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Text)))
		case core.AssistantMessage:
			flushResults()
			var content []anthropic.ContentBlockParamUnion
			if msg.Text != "" {
				content = append(content, anthropic.NewTextBlock(msg.Text))
			}
			for _, a := range msg.RequestedActions {
				var input any = map[string]any{}
				if a.Arguments != nil {
					input = a.Arguments
				}
				content = append(content, anthropic.NewToolUseBlock(a.ID, input, a.Name))
			}
			if len(content) > 0 {
				messages = append(messages, anthropic.NewAssistantMessage(content...))
			}
		case core.ActionResult:
			pendingResults = append(pendingResults, anthropic.NewToolResultBlock(msg.ActionID, msg.PayloadText(), msg.Failed()))
		}
	}
	flushResults()
	return messages
}

// buildTools converts capability definitions to Anthropic tool params.
func buildTools(req oracle.Request) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, len(req.Capabilities))
	for i, def := range req.Capabilities {
		inputSchema := anthropic.ToolInputSchemaParam{Type: constant.Object("object")}
		if def.Schema != nil {
			if properties, ok := def.Schema["properties"]; ok {
				inputSchema.Properties = properties
			}
			switch required := def.Schema["required"].(type) {
			case []string:
				inputSchema.Required = required
			case []any:
				for _, r := range required {
					if s, ok := r.(string); ok {
						inputSchema.Required = append(inputSchema.Required, s)
					}
				}
			}
		}
		tools[i] = anthropic.ToolUnionParamOfTool(inputSchema, def.Name)
	}
	return tools
}
