package tools

import (
	"context"
	"fmt"

	"github.com/sundial-ai/sundial/assistant"
	"github.com/sundial-ai/sundial/session"
)

// NewLoadMemoryTool returns the load_memory tool, which surfaces everything
// the assistant remembers about the user.
func NewLoadMemoryTool() assistant.Tool {
	return NewFunc(
		"load_memory",
		"Load what the assistant remembers about the user: personal details, preferences, interests, past journal entries, and therapeutic patterns.",
		assistant.ObjectSchema(map[string]*assistant.Schema{}),
		func(ctx context.Context, params map[string]interface{}) (*assistant.ToolResult, error) {
			tc, err := session.ToolContextFrom(ctx)
			if err != nil {
				return assistant.NewToolError(err.Error()), nil
			}
			mem := tc.State().MemorySnapshot(tc.UserID)
			return assistant.NewToolResult(map[string]interface{}{
				"personal_details":     mem.PersonalDetails,
				"preferences":          mem.Preferences,
				"interests":            mem.Interests,
				"history":              mem.History,
				"therapeutic_patterns": mem.Patterns,
			}), nil
		},
	)
}

// NewSaveToMemoryTool returns the save_to_memory tool. Known keys route to
// structured slots: name, interests, preferences, history, journal_entry.
// Unknown keys are stored as personal details.
func NewSaveToMemoryTool() assistant.Tool {
	return NewFunc(
		"save_to_memory",
		"Remember something about the user. Key routes the value: 'name', 'interests', 'preferences', 'history', 'journal_entry', or any personal detail key.",
		assistant.ObjectSchema(map[string]*assistant.Schema{
			"key":   assistant.StringParam("What kind of fact this is"),
			"value": assistant.StringParam("The fact to remember"),
		}, "key", "value"),
		func(ctx context.Context, params map[string]interface{}) (*assistant.ToolResult, error) {
			tc, err := session.ToolContextFrom(ctx)
			if err != nil {
				return assistant.NewToolError(err.Error()), nil
			}
			key, err := requireString(params, "key")
			if err != nil {
				return assistant.NewToolError(err.Error()), nil
			}
			value, err := requireString(params, "value")
			if err != nil {
				return assistant.NewToolError(err.Error()), nil
			}

			tc.State().SaveMemory(tc.UserID, key, value)
			return assistant.NewToolResult(map[string]interface{}{
				"message": fmt.Sprintf("Remembered %s.", key),
			}), nil
		},
	)
}

// NewSavePatternTool returns the save_therapeutic_pattern tool, which
// records whether a support response helped for a given emotional trigger.
func NewSavePatternTool() assistant.Tool {
	return NewFunc(
		"save_therapeutic_pattern",
		"Record whether a support approach helped the user for a given emotional trigger, so future responses can favor what works.",
		assistant.ObjectSchema(map[string]*assistant.Schema{
			"trigger":  assistant.StringParam("The emotional trigger, e.g. 'work stress'"),
			"response": assistant.StringParam("The approach or response that was tried"),
			"helpful":  assistant.BoolParam("Whether the user found it helpful"),
		}, "trigger", "response", "helpful"),
		func(ctx context.Context, params map[string]interface{}) (*assistant.ToolResult, error) {
			tc, err := session.ToolContextFrom(ctx)
			if err != nil {
				return assistant.NewToolError(err.Error()), nil
			}
			trigger, err := requireString(params, "trigger")
			if err != nil {
				return assistant.NewToolError(err.Error()), nil
			}
			response, err := requireString(params, "response")
			if err != nil {
				return assistant.NewToolError(err.Error()), nil
			}
			helpful, ok := params["helpful"].(bool)
			if !ok {
				return assistant.NewToolError("parameter 'helpful' is required"), nil
			}

			tc.State().SavePattern(tc.UserID, trigger, response, helpful)
			return assistant.NewToolResult(map[string]interface{}{
				"message": fmt.Sprintf("Noted pattern for trigger '%s'.", trigger),
			}), nil
		},
	)
}
