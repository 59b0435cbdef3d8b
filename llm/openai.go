package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sashabaranov/go-openai"

	"github.com/sundial-ai/sundial/assistant"
)

// OpenAILLM adapts OpenAI's GPT models to the LLM interface. It serves as
// an alternative backend when no Gemini key is configured.
type OpenAILLM struct {
	client *openai.Client
	model  string
}

// NewOpenAILLM creates an OpenAI adapter. An empty apiKey falls back to
// the OPENAI_API_KEY environment variable.
func NewOpenAILLM(apiKey, model string) *OpenAILLM {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAILLM{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// Model returns the model identifier.
func (o *OpenAILLM) Model() string {
	return o.model
}

// Complete generates a single response from GPT. Tool calls requested by
// the model are attached to the response under MetaToolCalls.
func (o *OpenAILLM) Complete(ctx context.Context, messages []*assistant.Message, opts ...CallOption) (*assistant.Message, error) {
	options := BuildCallOptions(opts...)

	req := openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: o.convertMessages(messages),
	}
	o.applyOptions(&req, options)

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai returned no choices")
	}

	choice := resp.Choices[0]
	response := assistant.NewMessage("agent", choice.Message.Content)
	response.Metadata["model"] = resp.Model
	response.Metadata["usage"] = map[string]interface{}{
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
		"total_tokens":      resp.Usage.TotalTokens,
	}
	response.Metadata["finish_reason"] = choice.FinishReason

	if len(choice.Message.ToolCalls) > 0 {
		calls := make([]ToolCall, 0, len(choice.Message.ToolCalls))
		for _, tc := range choice.Message.ToolCalls {
			args := map[string]interface{}{}
			if tc.Function.Arguments != "" {
				if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
					return nil, fmt.Errorf("openai tool call %q: malformed arguments: %w", tc.Function.Name, err)
				}
			}
			calls = append(calls, ToolCall{ID: tc.ID, Name: tc.Function.Name, Args: args})
		}
		response.Metadata[MetaToolCalls] = calls
	}

	return response, nil
}

// Stream generates response chunks from GPT.
func (o *OpenAILLM) Stream(ctx context.Context, messages []*assistant.Message, opts ...CallOption) (<-chan *assistant.Message, error) {
	options := BuildCallOptions(opts...)

	req := openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: o.convertMessages(messages),
		Stream:   true,
	}
	o.applyOptions(&req, options)

	stream, err := o.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai stream error: %w", err)
	}

	out := make(chan *assistant.Message)
	go func() {
		defer close(out)
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				errMsg := assistant.NewMessage("agent", "")
				errMsg.Metadata["error"] = err.Error()
				errMsg.Metadata["streaming"] = true
				out <- errMsg
				return
			}

			if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
				continue
			}
			chunk := assistant.NewMessage("agent", resp.Choices[0].Delta.Content)
			chunk.Metadata["streaming"] = true
			chunk.Metadata["model"] = o.model
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// applyOptions maps call options and tool declarations onto the request.
func (o *OpenAILLM) applyOptions(req *openai.ChatCompletionRequest, options *CallOptions) {
	if options.Temperature != nil {
		req.Temperature = float32(*options.Temperature)
	}
	if options.MaxTokens != nil {
		req.MaxTokens = *options.MaxTokens
	}
	if options.TopP != nil {
		req.TopP = float32(*options.TopP)
	}
	if fp, ok := options.Extra["frequency_penalty"].(float64); ok {
		req.FrequencyPenalty = float32(fp)
	}
	if pp, ok := options.Extra["presence_penalty"].(float64); ok {
		req.PresencePenalty = float32(pp)
	}
	if stop, ok := options.Extra["stop"].([]string); ok {
		req.Stop = stop
	}

	for _, tool := range options.Tools {
		req.Tools = append(req.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters:  toJSONSchema(tool.Parameters()),
			},
		})
	}
}

// toJSONSchema converts the provider-neutral schema to the JSON Schema
// shape the chat completions API expects.
func toJSONSchema(s *assistant.Schema) map[string]interface{} {
	if s == nil {
		return nil
	}

	out := map[string]interface{}{"type": s.Type}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}
	if s.Items != nil {
		out["items"] = toJSONSchema(s.Items)
	}
	if len(s.Properties) > 0 {
		props := make(map[string]interface{}, len(s.Properties))
		for name, prop := range s.Properties {
			props[name] = toJSONSchema(prop)
		}
		out["properties"] = props
	}
	return out
}

// convertMessages maps assistant messages to the chat completions format,
// including tool-call and tool-response roundtrips.
func (o *OpenAILLM) convertMessages(messages []*assistant.Message) []openai.ChatCompletionMessage {
	converted := make([]openai.ChatCompletionMessage, 0, len(messages))

	for _, msg := range messages {
		switch {
		case msg.Role == "tool":
			name, _ := msg.Metadata[MetaToolName].(string)
			callID, _ := msg.Metadata[MetaToolCallID].(string)
			converted = append(converted, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    msg.Content,
				Name:       name,
				ToolCallID: callID,
			})
		case len(ToolCallsFrom(msg)) > 0:
			calls := ToolCallsFrom(msg)
			toolCalls := make([]openai.ToolCall, 0, len(calls))
			for _, call := range calls {
				args, _ := json.Marshal(call.Args)
				toolCalls = append(toolCalls, openai.ToolCall{
					ID:   call.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      call.Name,
						Arguments: string(args),
					},
				})
			}
			converted = append(converted, openai.ChatCompletionMessage{
				Role:      openai.ChatMessageRoleAssistant,
				Content:   msg.Content,
				ToolCalls: toolCalls,
			})
		default:
			role := msg.Role
			switch role {
			case "system", "user":
			default:
				role = openai.ChatMessageRoleAssistant
			}
			converted = append(converted, openai.ChatCompletionMessage{
				Role:    role,
				Content: msg.Content,
			})
		}
	}

	return converted
}

// Unwrap returns the underlying *openai.Client.
func (o *OpenAILLM) Unwrap() interface{} {
	return o.client
}
