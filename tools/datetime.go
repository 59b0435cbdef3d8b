package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/sundial-ai/sundial/assistant"
)

// Clock abstracts time for testing.
type Clock func() time.Time

// NewDatetimeTool returns the get_current_datetime tool. A nil clock uses
// the system clock.
func NewDatetimeTool(clock Clock) assistant.Tool {
	if clock == nil {
		clock = time.Now
	}
	return NewFunc(
		"get_current_datetime",
		"Get the current date and time. Use this to ground relative dates like 'tomorrow' or 'next week'.",
		assistant.ObjectSchema(map[string]*assistant.Schema{}),
		func(ctx context.Context, params map[string]interface{}) (*assistant.ToolResult, error) {
			now := clock()
			formatted := fmt.Sprintf("Date: %s (%s), Time: %s",
				now.Format("2006-01-02"),
				now.Weekday(),
				now.Format("15:04"))
			return assistant.NewToolResult(map[string]interface{}{
				"datetime": formatted,
				"date":     now.Format("2006-01-02"),
				"weekday":  now.Weekday().String(),
				"time":     now.Format("15:04"),
			}), nil
		},
	)
}
