package tools

import (
	"context"
	"fmt"

	"github.com/sundial-ai/sundial/assistant"
	"github.com/sundial-ai/sundial/session"
)

// NewCreateTaskTool returns the create_task tool.
func NewCreateTaskTool() assistant.Tool {
	return NewFunc(
		"create_task",
		"Create a todo task for the user. Priority is one of low, medium, high and defaults to medium.",
		assistant.ObjectSchema(map[string]*assistant.Schema{
			"title":    assistant.StringParam("Short description of the task"),
			"due_date": assistant.StringParam("Due date in YYYY-MM-DD format, if the user gave one"),
			"priority": assistant.StringParam("Task priority: low, medium, or high"),
		}, "title"),
		func(ctx context.Context, params map[string]interface{}) (*assistant.ToolResult, error) {
			tc, err := session.ToolContextFrom(ctx)
			if err != nil {
				return assistant.NewToolError(err.Error()), nil
			}
			title, err := requireString(params, "title")
			if err != nil {
				return assistant.NewToolError(err.Error()), nil
			}
			dueDate, _ := stringParam(params, "due_date")
			priority, _ := stringParam(params, "priority")
			switch priority {
			case "", session.PriorityLow, session.PriorityMedium, session.PriorityHigh:
			default:
				return assistant.NewToolError(fmt.Sprintf("invalid priority '%s': must be low, medium, or high", priority)), nil
			}

			task := tc.State().AppendTask(tc.UserID, title, dueDate, priority)
			return assistant.NewToolResult(map[string]interface{}{
				"message": fmt.Sprintf("Task #%d created: %s", task.ID, task.Title),
				"task":    task,
			}), nil
		},
	)
}

// NewGetTasksTool returns the get_tasks tool.
func NewGetTasksTool() assistant.Tool {
	return NewFunc(
		"get_tasks",
		"List the user's tasks.",
		assistant.ObjectSchema(map[string]*assistant.Schema{}),
		func(ctx context.Context, params map[string]interface{}) (*assistant.ToolResult, error) {
			tc, err := session.ToolContextFrom(ctx)
			if err != nil {
				return assistant.NewToolError(err.Error()), nil
			}
			tasks := tc.State().TasksFor(tc.UserID)
			return assistant.NewToolResult(map[string]interface{}{
				"count": len(tasks),
				"tasks": tasks,
			}), nil
		},
	)
}

// NewScheduleReminderTool returns the schedule_reminder tool.
func NewScheduleReminderTool() assistant.Tool {
	return NewFunc(
		"schedule_reminder",
		"Schedule a reminder for a specific date and time. Resolve relative dates with get_current_datetime first.",
		assistant.ObjectSchema(map[string]*assistant.Schema{
			"title": assistant.StringParam("What to remind the user about"),
			"date":  assistant.StringParam("Reminder date in YYYY-MM-DD format"),
			"time":  assistant.StringParam("Reminder time in HH:MM 24-hour format"),
		}, "title", "date", "time"),
		func(ctx context.Context, params map[string]interface{}) (*assistant.ToolResult, error) {
			tc, err := session.ToolContextFrom(ctx)
			if err != nil {
				return assistant.NewToolError(err.Error()), nil
			}
			title, err := requireString(params, "title")
			if err != nil {
				return assistant.NewToolError(err.Error()), nil
			}
			date, err := requireString(params, "date")
			if err != nil {
				return assistant.NewToolError(err.Error()), nil
			}
			timeOfDay, err := requireString(params, "time")
			if err != nil {
				return assistant.NewToolError(err.Error()), nil
			}

			reminder := tc.State().AppendReminder(tc.UserID, title, date, timeOfDay)
			return assistant.NewToolResult(map[string]interface{}{
				"message":  fmt.Sprintf("Reminder #%d scheduled for %s at %s: %s", reminder.ID, reminder.Date, reminder.Time, reminder.Title),
				"reminder": reminder,
			}), nil
		},
	)
}

// NewGetRemindersTool returns the get_reminders tool.
func NewGetRemindersTool() assistant.Tool {
	return NewFunc(
		"get_reminders",
		"List the user's scheduled reminders.",
		assistant.ObjectSchema(map[string]*assistant.Schema{}),
		func(ctx context.Context, params map[string]interface{}) (*assistant.ToolResult, error) {
			tc, err := session.ToolContextFrom(ctx)
			if err != nil {
				return assistant.NewToolError(err.Error()), nil
			}
			reminders := tc.State().RemindersFor(tc.UserID)
			return assistant.NewToolResult(map[string]interface{}{
				"count":     len(reminders),
				"reminders": reminders,
			}), nil
		},
	)
}

// NewGetAllItemsTool returns the get_all_items tool, a combined view of
// tasks and reminders for "what's on my plate" questions.
func NewGetAllItemsTool() assistant.Tool {
	return NewFunc(
		"get_all_items",
		"List everything scheduled for the user: tasks and reminders together.",
		assistant.ObjectSchema(map[string]*assistant.Schema{}),
		func(ctx context.Context, params map[string]interface{}) (*assistant.ToolResult, error) {
			tc, err := session.ToolContextFrom(ctx)
			if err != nil {
				return assistant.NewToolError(err.Error()), nil
			}
			state := tc.State()
			tasks := state.TasksFor(tc.UserID)
			reminders := state.RemindersFor(tc.UserID)
			return assistant.NewToolResult(map[string]interface{}{
				"task_count":     len(tasks),
				"tasks":          tasks,
				"reminder_count": len(reminders),
				"reminders":      reminders,
			}), nil
		},
	)
}
