package agents

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sundial-ai/sundial/assistant"
	"github.com/sundial-ai/sundial/llm"
	"github.com/sundial-ai/sundial/session"
	"github.com/sundial-ai/sundial/tools"
)

// Routing categories.
const (
	CategoryTasks     = "tasks"
	CategorySupport   = "support"
	CategoryGoals     = "goals"
	CategoryResearch  = "research"
	CategoryJournal   = "journal"
	CategoryCompanion = "companion"
)

// routeKeywords backs the keyword fallback when the model classifier
// fails or answers off the list.
var routeKeywords = map[string][]string{
	CategoryTasks:    {"remind", "reminder", "task", "todo", "schedule", "appointment", "deadline"},
	CategorySupport:  {"stressed", "stress", "anxious", "anxiety", "sad", "overwhelm", "angry", "lonely", "feeling", "feel"},
	CategoryGoals:    {"goal", "habit", "improve", "healthier", "better", "routine", "work on"},
	CategoryResearch: {"what is", "research", "evidence", "science", "study", "studies", "benefits of"},
	CategoryJournal:  {"journal", "dear diary", "journaling", "wrote today"},
}

// Reply is the result of one assistant turn.
type Reply struct {
	SessionID string `json:"session_id"`
	Content   string `json:"reply"`
	Agent     string `json:"agent"`
	Category  string `json:"category"`
}

// Config assembles an Assistant.
type Config struct {
	// AppName labels sessions created by this assistant.
	AppName string

	// LLM backs the router, companion, and most specialists. Required.
	LLM llm.LLM

	// GoalLLM backs the goal agent, which benefits from a stronger model.
	// Defaults to LLM.
	GoalLLM llm.LLM

	// Search backs the web_search tool. When nil the research route is
	// still configured but the tool reports an error to the model.
	Search tools.SearchClient

	// Sessions stores conversation state. Required.
	Sessions session.Service

	// Clock overrides time for the datetime tool in tests.
	Clock tools.Clock

	// Wrap decorates the assembled router with middleware, e.g. timeout,
	// tracing, and metrics decorators. Optional.
	Wrap func(assistant.Agent) assistant.Agent
}

// Assistant is the top-level conversational agent: a router over the
// specialist agents, bound to a session service.
type Assistant struct {
	router   *Router
	agent    assistant.Agent
	sessions session.Service
	appName  string
	logger   *slog.Logger
}

// New assembles the assistant: specialist agents with their tool subsets,
// the journal pipeline, and the router in front of them.
func New(config Config) (*Assistant, error) {
	if config.LLM == nil {
		return nil, fmt.Errorf("llm is required")
	}
	if config.Sessions == nil {
		return nil, fmt.Errorf("session service is required")
	}
	if config.AppName == "" {
		config.AppName = "sundial"
	}
	goalLLM := config.GoalLLM
	if goalLLM == nil {
		goalLLM = config.LLM
	}

	companion, err := NewLLMAgent(LLMAgentConfig{
		Name:        "companion",
		Description: "Handles greetings, personal details, and general conversation.",
		LLM:         config.LLM,
		Instruction: companionInstruction,
		Registry: tools.NewRegistry().MustRegister(
			tools.NewLoadMemoryTool(),
			tools.NewSaveToMemoryTool(),
		),
		Capabilities: []string{"conversation", "memory"},
		UseHistory:   true,
	})
	if err != nil {
		return nil, err
	}

	support, err := NewLLMAgent(LLMAgentConfig{
		Name:        "therapeutic_support",
		Description: "Provides empathetic emotional support and coping strategies.",
		LLM:         config.LLM,
		Instruction: supportInstruction,
		Registry: tools.NewRegistry().MustRegister(
			tools.NewLoadMemoryTool(),
			tools.NewSavePatternTool(),
		),
		Capabilities: []string{"emotional_support", "memory"},
		UseHistory:   true,
	})
	if err != nil {
		return nil, err
	}

	taskManager, err := NewLLMAgent(LLMAgentConfig{
		Name:        "task_manager",
		Description: "Manages tasks, reminders, and scheduling with date awareness.",
		LLM:         config.LLM,
		Instruction: taskInstruction,
		Registry: tools.NewRegistry().MustRegister(
			tools.NewDatetimeTool(config.Clock),
			tools.NewCreateTaskTool(),
			tools.NewGetTasksTool(),
			tools.NewScheduleReminderTool(),
			tools.NewGetRemindersTool(),
			tools.NewGetAllItemsTool(),
		),
		Capabilities: []string{"tasks", "reminders", "scheduling"},
		UseHistory:   true,
	})
	if err != nil {
		return nil, err
	}

	goalAgent, err := NewLLMAgent(LLMAgentConfig{
		Name:        "goal_refinement",
		Description: "Turns vague desires into concrete goals with routines.",
		LLM:         goalLLM,
		Instruction: goalInstruction,
		Registry: tools.NewRegistry().MustRegister(
			tools.NewDatetimeTool(config.Clock),
			tools.NewCreateGoalTool(),
			tools.NewApproveGoalTool(),
			tools.NewGetGoalTool(),
			tools.NewListGoalsTool(),
			tools.NewUpdateGoalStatusTool(),
		),
		Capabilities: []string{"goals", "habit_formation"},
		UseHistory:   true,
	})
	if err != nil {
		return nil, err
	}

	searchRegistry := tools.NewRegistry()
	if config.Search != nil {
		searchRegistry.MustRegister(tools.NewWebSearchTool(config.Search))
	}
	searchAgent, err := NewLLMAgent(LLMAgentConfig{
		Name:         "search_specialist",
		Description:  "Finds and summarizes evidence-based information from the web.",
		LLM:          config.LLM,
		Instruction:  searchInstruction,
		Registry:     searchRegistry,
		Capabilities: []string{"web_search", "research"},
		UseHistory:   true,
	})
	if err != nil {
		return nil, err
	}

	journal, err := newJournalPipeline(config.LLM)
	if err != nil {
		return nil, err
	}

	classifier := NewLLMClassifier(
		config.LLM,
		[]string{CategoryTasks, CategorySupport, CategoryGoals, CategoryResearch, CategoryJournal, CategoryCompanion},
		NewKeywordClassifier(routeKeywords),
	)

	router, err := NewRouter(RouterConfig{
		Name:       "personal_assistant",
		Classifier: classifier,
		Agents: map[string]assistant.Agent{
			CategoryTasks:     taskManager,
			CategorySupport:   support,
			CategoryGoals:     goalAgent,
			CategoryResearch:  searchAgent,
			CategoryJournal:   journal,
			CategoryCompanion: companion,
		},
		DefaultKey: CategoryCompanion,
	})
	if err != nil {
		return nil, err
	}

	var agent assistant.Agent = router
	if config.Wrap != nil {
		agent = config.Wrap(router)
	}

	return &Assistant{
		router:   router,
		agent:    agent,
		sessions: config.Sessions,
		appName:  config.AppName,
		logger:   slog.Default().With("component", "assistant"),
	}, nil
}

// newJournalPipeline builds the three-stage journal analysis flow:
// emotion extraction, pattern analysis, insight generation. Only the
// final stage speaks to the user.
func newJournalPipeline(model llm.LLM) (*Sequential, error) {
	extractor, err := NewLLMAgent(LLMAgentConfig{
		Name:        "emotion_extractor",
		Description: "Extracts emotional content from journal entries.",
		LLM:         model,
		Instruction: emotionExtractorInstruction,
		OutputKey:   "emotion_data",
	})
	if err != nil {
		return nil, err
	}

	analyzer, err := NewLLMAgent(LLMAgentConfig{
		Name:        "pattern_analyzer",
		Description: "Identifies patterns in emotional responses.",
		LLM:         model,
		Instruction: patternAnalyzerInstruction,
		OutputKey:   "patterns_found",
	})
	if err != nil {
		return nil, err
	}

	generator, err := NewLLMAgent(LLMAgentConfig{
		Name:        "insight_generator",
		Description: "Generates personalized insights and stores the journal entry.",
		LLM:         model,
		Instruction: insightGeneratorInstruction,
		Registry: tools.NewRegistry().MustRegister(
			tools.NewSaveToMemoryTool(),
		),
		OutputKey: "final_insight",
	})
	if err != nil {
		return nil, err
	}

	return NewSequential("journal_analyzer", extractor, analyzer, generator)
}

// Router exposes the underlying router, mainly for tests and server
// introspection.
func (a *Assistant) Router() *Router {
	return a.router
}

// Chat runs one conversation turn: resolve the session, route the
// message, record the exchange, and persist.
func (a *Assistant) Chat(ctx context.Context, userID, sessionID, text string) (*Reply, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	sess, err := a.sessions.GetOrCreate(ctx, a.appName, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("session lookup failed: %w", err)
	}

	tc := &session.ToolContext{UserID: userID, Session: sess}
	ctx = session.WithToolContext(ctx, tc)

	userMsg := assistant.NewMessage("user", text)
	if err := userMsg.Validate(); err != nil {
		return nil, err
	}

	started := time.Now()
	response, err := a.agent.Process(ctx, userMsg)
	if err != nil {
		return nil, err
	}
	a.logger.Info("turn complete",
		"user_id", userID,
		"session_id", sess.ID,
		"agent", response.Metadata["routed_agent"],
		"category", response.Metadata["routed_category"],
		"duration", time.Since(started))

	state := sess.State
	state.AppendHistory(userMsg)
	state.AppendHistory(response)

	if err := a.sessions.Persist(ctx, sess); err != nil {
		a.logger.Error("session persist failed", "session_id", sess.ID, "error", err)
	}

	agentName, _ := response.Metadata["routed_agent"].(string)
	category, _ := response.Metadata["routed_category"].(string)
	return &Reply{
		SessionID: sess.ID,
		Content:   response.Content,
		Agent:     agentName,
		Category:  category,
	}, nil
}
