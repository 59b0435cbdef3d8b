package tools

import (
	"context"
	"fmt"

	"github.com/sundial-ai/sundial/assistant"
	"github.com/sundial-ai/sundial/session"
)

// NewCreateGoalTool returns the create_goal tool. Goals start in
// pending_approval and must be approved by the user before becoming active.
func NewCreateGoalTool() assistant.Tool {
	return NewFunc(
		"create_goal",
		"Draft a goal with its routine for the user to approve. The goal stays pending until approve_goal is called.",
		assistant.ObjectSchema(map[string]*assistant.Schema{
			"title":       assistant.StringParam("Short name for the goal"),
			"description": assistant.StringParam("What the user wants to achieve and why"),
			"routine":     assistant.StringParam("The concrete routine that works toward the goal"),
			"frequency":   assistant.StringParam("How often the routine happens, e.g. 'daily' or '3x per week'"),
			"duration":    assistant.StringParam("How long each session lasts, e.g. '20 minutes'"),
			"start_date":  assistant.StringParam("Start date in YYYY-MM-DD format"),
		}, "title", "routine", "frequency"),
		func(ctx context.Context, params map[string]interface{}) (*assistant.ToolResult, error) {
			tc, err := session.ToolContextFrom(ctx)
			if err != nil {
				return assistant.NewToolError(err.Error()), nil
			}
			title, err := requireString(params, "title")
			if err != nil {
				return assistant.NewToolError(err.Error()), nil
			}
			routine, err := requireString(params, "routine")
			if err != nil {
				return assistant.NewToolError(err.Error()), nil
			}
			frequency, err := requireString(params, "frequency")
			if err != nil {
				return assistant.NewToolError(err.Error()), nil
			}
			description, _ := stringParam(params, "description")
			duration, _ := stringParam(params, "duration")
			startDate, _ := stringParam(params, "start_date")

			goal := tc.State().AppendGoal(tc.UserID, session.Goal{
				Title:       title,
				Description: description,
				Routine:     routine,
				Frequency:   frequency,
				Duration:    duration,
				StartDate:   startDate,
			})
			return assistant.NewToolResult(map[string]interface{}{
				"message": fmt.Sprintf("Goal #%d drafted and awaiting your approval: %s (%s, %s)", goal.ID, goal.Title, goal.Routine, goal.Frequency),
				"goal":    goal,
			}), nil
		},
	)
}

// NewApproveGoalTool returns the approve_goal tool.
func NewApproveGoalTool() assistant.Tool {
	return NewFunc(
		"approve_goal",
		"Approve a pending goal after the user confirms it. Activates the goal and its routine.",
		assistant.ObjectSchema(map[string]*assistant.Schema{
			"goal_id": assistant.IntParam("ID of the goal to approve"),
		}, "goal_id"),
		func(ctx context.Context, params map[string]interface{}) (*assistant.ToolResult, error) {
			tc, err := session.ToolContextFrom(ctx)
			if err != nil {
				return assistant.NewToolError(err.Error()), nil
			}
			goalID, ok := intParam(params, "goal_id")
			if !ok {
				return assistant.NewToolError("parameter 'goal_id' is required"), nil
			}

			goal, found := tc.State().ApproveGoal(tc.UserID, goalID)
			if !found {
				return assistant.NewToolError(fmt.Sprintf("goal #%d not found", goalID)), nil
			}
			return assistant.NewToolResult(map[string]interface{}{
				"message": fmt.Sprintf("Goal #%d approved and active: %s", goal.ID, goal.Title),
				"goal":    goal,
			}), nil
		},
	)
}

// NewGetGoalTool returns the get_goal tool.
func NewGetGoalTool() assistant.Tool {
	return NewFunc(
		"get_goal",
		"Fetch one goal by its ID.",
		assistant.ObjectSchema(map[string]*assistant.Schema{
			"goal_id": assistant.IntParam("ID of the goal to fetch"),
		}, "goal_id"),
		func(ctx context.Context, params map[string]interface{}) (*assistant.ToolResult, error) {
			tc, err := session.ToolContextFrom(ctx)
			if err != nil {
				return assistant.NewToolError(err.Error()), nil
			}
			goalID, ok := intParam(params, "goal_id")
			if !ok {
				return assistant.NewToolError("parameter 'goal_id' is required"), nil
			}

			goal, found := tc.State().GoalFor(tc.UserID, goalID)
			if !found {
				return assistant.NewToolError(fmt.Sprintf("goal #%d not found", goalID)), nil
			}
			return assistant.NewToolResult(map[string]interface{}{"goal": goal}), nil
		},
	)
}

// NewListGoalsTool returns the list_goals tool.
func NewListGoalsTool() assistant.Tool {
	return NewFunc(
		"list_goals",
		"List the user's goals. Optionally filter by status: pending_approval, active, completed, paused, cancelled.",
		assistant.ObjectSchema(map[string]*assistant.Schema{
			"status": assistant.StringParam("Only return goals with this status"),
		}),
		func(ctx context.Context, params map[string]interface{}) (*assistant.ToolResult, error) {
			tc, err := session.ToolContextFrom(ctx)
			if err != nil {
				return assistant.NewToolError(err.Error()), nil
			}

			goals := tc.State().GoalsFor(tc.UserID)
			if status, ok := stringParam(params, "status"); ok && status != "" {
				filtered := goals[:0:0]
				for _, goal := range goals {
					if goal.Status == status {
						filtered = append(filtered, goal)
					}
				}
				goals = filtered
			}
			return assistant.NewToolResult(map[string]interface{}{
				"count": len(goals),
				"goals": goals,
			}), nil
		},
	)
}

// NewUpdateGoalStatusTool returns the update_goal_status tool.
func NewUpdateGoalStatusTool() assistant.Tool {
	return NewFunc(
		"update_goal_status",
		"Change a goal's status to active, completed, paused, or cancelled.",
		assistant.ObjectSchema(map[string]*assistant.Schema{
			"goal_id": assistant.IntParam("ID of the goal to update"),
			"status":  assistant.StringParam("New status: active, completed, paused, or cancelled"),
		}, "goal_id", "status"),
		func(ctx context.Context, params map[string]interface{}) (*assistant.ToolResult, error) {
			tc, err := session.ToolContextFrom(ctx)
			if err != nil {
				return assistant.NewToolError(err.Error()), nil
			}
			goalID, ok := intParam(params, "goal_id")
			if !ok {
				return assistant.NewToolError("parameter 'goal_id' is required"), nil
			}
			status, err := requireString(params, "status")
			if err != nil {
				return assistant.NewToolError(err.Error()), nil
			}
			switch status {
			case session.GoalActive, session.GoalCompleted, session.GoalPaused, session.GoalCancelled:
			default:
				return assistant.NewToolError(fmt.Sprintf("invalid status '%s': must be active, completed, paused, or cancelled", status)), nil
			}

			goal, found := tc.State().UpdateGoalStatus(tc.UserID, goalID, status)
			if !found {
				return assistant.NewToolError(fmt.Sprintf("goal #%d not found", goalID)), nil
			}
			return assistant.NewToolResult(map[string]interface{}{
				"message": fmt.Sprintf("Goal #%d is now %s: %s", goal.ID, goal.Status, goal.Title),
				"goal":    goal,
			}), nil
		},
	)
}
