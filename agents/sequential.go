package agents

import (
	"context"
	"fmt"

	"github.com/sundial-ai/sundial/assistant"
)

// Sequential runs a pipeline of agents in order. Each stage receives the
// previous stage's output as its input; only the final stage's response
// reaches the user. Stages store structured output in the session's value
// store via their output keys.
type Sequential struct {
	name   string
	stages []assistant.Agent
}

// Verify that Sequential implements the Agent interface.
var _ assistant.Agent = (*Sequential)(nil)

// NewSequential creates a pipeline agent.
func NewSequential(name string, stages ...assistant.Agent) (*Sequential, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("at least one stage is required")
	}
	if name == "" {
		name = "sequential"
	}
	return &Sequential{name: name, stages: stages}, nil
}

// Name returns the pipeline's identifier.
func (s *Sequential) Name() string {
	return s.name
}

// Capabilities returns the combined capabilities of all stages.
func (s *Sequential) Capabilities() []string {
	capMap := make(map[string]bool)
	for _, stage := range s.stages {
		for _, capability := range stage.Capabilities() {
			capMap[capability] = true
		}
	}

	capabilities := make([]string, 0, len(capMap))
	for capability := range capMap {
		capabilities = append(capabilities, capability)
	}
	return append(capabilities, "pipeline")
}

// Process passes the message through each stage in order. The pipeline
// stops at the first stage error.
func (s *Sequential) Process(ctx context.Context, message *assistant.Message) (*assistant.Message, error) {
	if message == nil {
		return nil, fmt.Errorf("message cannot be nil")
	}

	stages := make([]map[string]interface{}, 0, len(s.stages))
	current := message
	for i, stage := range s.stages {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("pipeline cancelled at stage %d: %w", i, ctx.Err())
		default:
		}

		result, err := stage.Process(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("stage %d (%s) failed: %w", i, stage.Name(), err)
		}
		stages = append(stages, map[string]interface{}{
			"agent":  stage.Name(),
			"stage":  i,
			"output": result.Content,
		})

		// The next stage reads this stage's output as a user message so
		// the model sees it as input, not as its own prior turn.
		current = assistant.NewMessage("user", result.Content)
		if i == len(s.stages)-1 {
			current = result
		}
	}

	if current.Metadata == nil {
		current.Metadata = make(map[string]interface{})
	}
	current.Metadata["pipeline_stages"] = stages
	current.Metadata["pipeline_length"] = len(s.stages)

	return current, nil
}
