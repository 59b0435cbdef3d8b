package llm

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/sundial-ai/sundial/assistant"
)

// GeminiLLM adapts Google's Gemini models to the LLM interface, including
// function calling for the assistant's tools.
type GeminiLLM struct {
	client *genai.Client
	model  string
}

// NewGeminiLLM creates a Gemini adapter. An empty apiKey falls back to the
// GEMINI_API_KEY or GOOGLE_API_KEY environment variables.
func NewGeminiLLM(ctx context.Context, apiKey, model string) (*GeminiLLM, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			apiKey = os.Getenv("GOOGLE_API_KEY")
		}
		if apiKey == "" {
			return nil, errors.New("gemini api key required: provide apiKey or set GEMINI_API_KEY or GOOGLE_API_KEY")
		}
	}
	if model == "" {
		model = "gemini-2.5-flash-lite"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiLLM{client: client, model: model}, nil
}

// Model returns the model identifier.
func (g *GeminiLLM) Model() string {
	return g.model
}

// Complete generates a single response from Gemini. Tool calls requested
// by the model are attached to the response under MetaToolCalls.
func (g *GeminiLLM) Complete(ctx context.Context, messages []*assistant.Message, opts ...CallOption) (*assistant.Message, error) {
	options := BuildCallOptions(opts...)

	model := g.client.GenerativeModel(g.model)
	g.configure(model, options)

	history, lastParts := g.convertMessages(messages)
	sess := model.StartChat()
	sess.History = history

	resp, err := sess.SendMessage(ctx, lastParts...)
	if err != nil {
		return nil, fmt.Errorf("gemini api error: %w", err)
	}

	text, calls := g.extractParts(resp)
	response := assistant.NewMessage("agent", text)
	response.Metadata["model"] = g.model
	if len(calls) > 0 {
		response.Metadata[MetaToolCalls] = calls
	}
	if resp.UsageMetadata != nil {
		response.Metadata["usage"] = map[string]interface{}{
			"prompt_tokens":     resp.UsageMetadata.PromptTokenCount,
			"completion_tokens": resp.UsageMetadata.CandidatesTokenCount,
			"total_tokens":      resp.UsageMetadata.TotalTokenCount,
		}
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != 0 {
		response.Metadata["finish_reason"] = resp.Candidates[0].FinishReason.String()
	}

	return response, nil
}

// Stream generates response chunks from Gemini.
func (g *GeminiLLM) Stream(ctx context.Context, messages []*assistant.Message, opts ...CallOption) (<-chan *assistant.Message, error) {
	options := BuildCallOptions(opts...)

	model := g.client.GenerativeModel(g.model)
	g.configure(model, options)

	history, lastParts := g.convertMessages(messages)
	sess := model.StartChat()
	sess.History = history

	iter := sess.SendMessageStream(ctx, lastParts...)
	out := make(chan *assistant.Message)

	go func() {
		defer close(out)
		for {
			resp, err := iter.Next()
			if errors.Is(err, iterator.Done) {
				return
			}
			if err != nil {
				errMsg := assistant.NewMessage("agent", "")
				errMsg.Metadata["error"] = err.Error()
				errMsg.Metadata["streaming"] = true
				out <- errMsg
				return
			}

			text, _ := g.extractParts(resp)
			if text == "" {
				continue
			}
			chunk := assistant.NewMessage("agent", text)
			chunk.Metadata["streaming"] = true
			chunk.Metadata["model"] = g.model
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// convertMessages maps assistant messages onto Gemini content. System
// messages become the system instruction equivalent position at the top of
// history; the final message is returned separately as the parts to send.
func (g *GeminiLLM) convertMessages(messages []*assistant.Message) ([]*genai.Content, []genai.Part) {
	if len(messages) == 0 {
		return nil, nil
	}

	var history []*genai.Content
	for _, msg := range messages[:len(messages)-1] {
		history = append(history, g.toContent(msg))
	}

	last := messages[len(messages)-1]
	return history, g.toParts(last)
}

// toContent converts one message to a Gemini history entry.
func (g *GeminiLLM) toContent(msg *assistant.Message) *genai.Content {
	return &genai.Content{
		Role:  g.mapRole(msg.Role),
		Parts: g.toParts(msg),
	}
}

// toParts converts one message to Gemini parts, honoring tool-call and
// tool-response metadata.
func (g *GeminiLLM) toParts(msg *assistant.Message) []genai.Part {
	if msg.Role == "tool" {
		name, _ := msg.Metadata[MetaToolName].(string)
		response, _ := msg.Metadata[MetaToolResponse].(map[string]interface{})
		if response == nil {
			response = map[string]interface{}{"output": msg.Content}
		}
		return []genai.Part{genai.FunctionResponse{Name: name, Response: response}}
	}

	if calls := ToolCallsFrom(msg); len(calls) > 0 {
		parts := make([]genai.Part, 0, len(calls)+1)
		if msg.Content != "" {
			parts = append(parts, genai.Text(msg.Content))
		}
		for _, call := range calls {
			parts = append(parts, genai.FunctionCall{Name: call.Name, Args: call.Args})
		}
		return parts
	}

	return []genai.Part{genai.Text(msg.Content)}
}

// mapRole maps assistant roles to Gemini roles.
func (g *GeminiLLM) mapRole(role string) string {
	switch role {
	case "user", "system":
		return "user"
	case "tool":
		return "function"
	default:
		return "model"
	}
}

// configure applies call options and tool declarations to the model.
func (g *GeminiLLM) configure(model *genai.GenerativeModel, options *CallOptions) {
	if options.Temperature != nil {
		temp := float32(*options.Temperature)
		model.Temperature = &temp
	}
	if options.MaxTokens != nil {
		maxTokens := int32(*options.MaxTokens)
		model.MaxOutputTokens = &maxTokens
	}
	if options.TopP != nil {
		topP := float32(*options.TopP)
		model.TopP = &topP
	}
	if stopSequences, ok := options.Extra["stop_sequences"].([]string); ok {
		model.StopSequences = stopSequences
	}

	if len(options.Tools) > 0 {
		declarations := make([]*genai.FunctionDeclaration, 0, len(options.Tools))
		for _, tool := range options.Tools {
			declarations = append(declarations, &genai.FunctionDeclaration{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters:  toGeminiSchema(tool.Parameters()),
			})
		}
		model.Tools = []*genai.Tool{{FunctionDeclarations: declarations}}
	}
}

// toGeminiSchema converts the provider-neutral schema to the SDK's type.
func toGeminiSchema(s *assistant.Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{
		Description: s.Description,
		Required:    s.Required,
		Enum:        s.Enum,
	}
	switch s.Type {
	case assistant.TypeObject:
		out.Type = genai.TypeObject
	case assistant.TypeString:
		out.Type = genai.TypeString
	case assistant.TypeInteger:
		out.Type = genai.TypeInteger
	case assistant.TypeNumber:
		out.Type = genai.TypeNumber
	case assistant.TypeBoolean:
		out.Type = genai.TypeBoolean
	case assistant.TypeArray:
		out.Type = genai.TypeArray
		out.Items = toGeminiSchema(s.Items)
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGeminiSchema(prop)
		}
	}
	return out
}

// extractParts pulls text and function calls from a Gemini response.
func (g *GeminiLLM) extractParts(resp *genai.GenerateContentResponse) (string, []ToolCall) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", nil
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return "", nil
	}

	var text string
	var calls []ToolCall
	for _, part := range candidate.Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			text += string(p)
		case genai.FunctionCall:
			calls = append(calls, ToolCall{Name: p.Name, Args: p.Args})
		}
	}
	return text, calls
}

// Unwrap returns the underlying *genai.Client.
func (g *GeminiLLM) Unwrap() interface{} {
	return g.client
}

// Close closes the Gemini client.
func (g *GeminiLLM) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
