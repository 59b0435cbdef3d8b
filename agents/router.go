package agents

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/sundial-ai/sundial/assistant"
)

// Router dispatches each user message to the specialist agent for its
// category. Unmatched categories fall through to the default agent.
type Router struct {
	name       string
	classifier Classifier
	agents     map[string]assistant.Agent
	defaultKey string
	logger     *slog.Logger
}

// RouterConfig configures a Router.
type RouterConfig struct {
	// Name identifies the router in metadata and logs.
	Name string

	// Classifier determines which agent handles each message. Required.
	Classifier Classifier

	// Agents maps categories to specialist agents. Required.
	Agents map[string]assistant.Agent

	// DefaultKey names the agent for unmatched categories. Optional, but
	// without it an unmatched category is an error.
	DefaultKey string
}

// Verify that Router implements the Agent interface.
var _ assistant.Agent = (*Router)(nil)

// NewRouter creates a router agent.
func NewRouter(config RouterConfig) (*Router, error) {
	if config.Classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	if len(config.Agents) == 0 {
		return nil, fmt.Errorf("at least one agent is required")
	}
	if config.DefaultKey != "" {
		if _, ok := config.Agents[config.DefaultKey]; !ok {
			return nil, fmt.Errorf("default key '%s' not found in agents map", config.DefaultKey)
		}
	}
	name := config.Name
	if name == "" {
		name = "router"
	}

	return &Router{
		name:       name,
		classifier: config.Classifier,
		agents:     config.Agents,
		defaultKey: config.DefaultKey,
		logger:     slog.Default().With("agent", name),
	}, nil
}

// Name returns the router's identifier.
func (r *Router) Name() string {
	return r.name
}

// Capabilities returns the combined capabilities of all routed agents.
func (r *Router) Capabilities() []string {
	capMap := make(map[string]bool)
	for _, agent := range r.agents {
		for _, capability := range agent.Capabilities() {
			capMap[capability] = true
		}
	}

	capabilities := make([]string, 0, len(capMap)+2)
	for capability := range capMap {
		capabilities = append(capabilities, capability)
	}
	sort.Strings(capabilities)
	return append(capabilities, "routing", "classification")
}

// Routes returns the configured categories, sorted.
func (r *Router) Routes() []string {
	routes := make([]string, 0, len(r.agents))
	for category := range r.agents {
		routes = append(routes, category)
	}
	sort.Strings(routes)
	return routes
}

// Process classifies the message and delegates to the matching agent. The
// response carries routed_category and routed_agent metadata.
func (r *Router) Process(ctx context.Context, message *assistant.Message) (*assistant.Message, error) {
	if message == nil {
		return nil, fmt.Errorf("message cannot be nil")
	}

	category, err := r.classifier.Classify(ctx, message)
	if err != nil {
		if r.defaultKey == "" {
			return nil, fmt.Errorf("classification failed: %w", err)
		}
		r.logger.Warn("classification failed, using default route", "error", err)
		category = r.defaultKey
	}

	agent, ok := r.agents[category]
	if !ok {
		if r.defaultKey == "" {
			return nil, fmt.Errorf("no agent found for category '%s' (available: %s)",
				category, strings.Join(r.Routes(), ", "))
		}
		agent = r.agents[r.defaultKey]
		category = r.defaultKey
	}

	r.logger.Debug("routing message", "category", category, "agent", agent.Name())

	result, err := agent.Process(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("agent '%s' (category: %s) failed: %w", agent.Name(), category, err)
	}

	if result.Metadata == nil {
		result.Metadata = make(map[string]interface{})
	}
	result.Metadata["routed_category"] = category
	result.Metadata["routed_agent"] = agent.Name()

	return result, nil
}
