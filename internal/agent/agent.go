// Package agent wraps the LLM client into role agents. Each role owns a
// prompt template and an append-only call history; failed structured calls
// can be retried with error feedback threaded back into the prompt.
package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonathan/deck-agent/internal/llm"
	"github.com/jonathan/deck-agent/internal/prompts"
	"github.com/jonathan/deck-agent/internal/schemas"
	"github.com/jonathan/deck-agent/internal/types"
)

// Role names used by the generation pipeline.
const (
	RolePlanner          = "planner"
	RoleDocExtractor     = "doc_extractor"
	RoleContentOrganizer = "content_organizer"
	RoleLayoutSelector   = "layout_selector"
	RoleEditor           = "editor"
	RoleCoder            = "coder"
)

// promptFile is the embedded file holding one template per role.
const promptFile = "roles.json"

// Agent is one role backed by a model tier. Retry threads the previous
// exchange back into the prompt, so an agent must not be shared by
// concurrent tasks that retry; each slide worker hires its own staff. The
// mutex guards the history when one agent does serve concurrent calls
// (document extraction, which never retries).
type Agent struct {
	Role string

	client   llm.Client
	tier     llm.ModelTier
	template string

	mu           sync.Mutex
	history      []types.CallRecord
	lastPrompt   string
	lastResponse string
}

// New creates an agent for a role, loading its embedded prompt template.
func New(role string, client llm.Client, tier llm.ModelTier) (*Agent, error) {
	template, err := prompts.Get(promptFile, role)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", role, err)
	}
	return &Agent{Role: role, client: client, tier: tier, template: template}, nil
}

// CallError reports a failed agent call.
type CallError struct {
	Role    string
	Message string
	Cause   error
}

func (e *CallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("agent %s: %s: %v", e.Role, e.Message, e.Cause)
	}
	return fmt.Sprintf("agent %s: %s", e.Role, e.Message)
}

func (e *CallError) Unwrap() error {
	return e.Cause
}

// Call formats the role template with data and returns the model's raw
// text response.
func (a *Agent) Call(ctx context.Context, data map[string]string) (string, error) {
	prompt := prompts.Format(a.template, data)
	response, err := a.client.GenerateContent(ctx, prompt, a.tier)
	a.record(prompt, response, err)
	if err != nil {
		return "", &CallError{Role: a.Role, Message: "generation failed", Cause: err}
	}
	return response, nil
}

// CallJSON formats the role template with data, requests JSON output, and
// validates the response against the given schema. The schema is built
// from runtime-known valid values, so a conforming response cannot
// reference anything that does not exist.
func (a *Agent) CallJSON(ctx context.Context, data map[string]string, schema schemas.Schema) (string, error) {
	prompt := prompts.Format(a.template, data)
	return a.generateValidated(ctx, prompt, schema)
}

// Retry re-invokes the role with the previous exchange plus structured
// error feedback. Used by the bounded retry loops of content validation
// and slide editing.
func (a *Agent) Retry(ctx context.Context, errMsg, traceback string, schema schemas.Schema) (string, error) {
	a.mu.Lock()
	prevPrompt, prevResponse := a.lastPrompt, a.lastResponse
	a.mu.Unlock()
	prompt := prompts.Format(prompts.MustGet(promptFile, "retry"), map[string]string{
		"Prompt":    prevPrompt,
		"Response":  prevResponse,
		"Error":     errMsg,
		"Traceback": traceback,
	})
	if schema == nil {
		response, err := a.client.GenerateContent(ctx, prompt, a.tier)
		a.record(prompt, response, err)
		if err != nil {
			return "", &CallError{Role: a.Role, Message: "retry generation failed", Cause: err}
		}
		return response, nil
	}
	return a.generateValidated(ctx, prompt, schema)
}

func (a *Agent) generateValidated(ctx context.Context, prompt string, schema schemas.Schema) (string, error) {
	response, err := a.client.GenerateJSON(ctx, prompt, a.tier)
	a.record(prompt, response, err)
	if err != nil {
		return "", &CallError{Role: a.Role, Message: "generation failed", Cause: err}
	}
	if err := schemas.ValidateJSONString(schema.JSON(), response); err != nil {
		return "", &CallError{Role: a.Role, Message: "response violates schema", Cause: err}
	}
	return response, nil
}

func (a *Agent) record(prompt, response string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	record := types.CallRecord{Prompt: prompt, Response: response}
	if err != nil {
		record.Error = err.Error()
	}
	a.history = append(a.history, record)
	a.lastPrompt = prompt
	a.lastResponse = response
}

// History returns a copy of the agent's call log.
func (a *Agent) History() []types.CallRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]types.CallRecord, len(a.history))
	copy(out, a.history)
	return out
}

// Reset clears the call log after it has been collected.
func (a *Agent) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = nil
}

// Staff is the set of role agents hired for one generation run.
type Staff map[string]*Agent

// HireStaff builds the standard role set: the planner, editor, and coder
// on the advanced tier, the extractor, organizer, and selector on the
// standard tier.
func HireStaff(client llm.Client) (Staff, error) {
	tiers := map[string]llm.ModelTier{
		RolePlanner:          llm.TierAdvanced,
		RoleDocExtractor:     llm.TierStandard,
		RoleContentOrganizer: llm.TierStandard,
		RoleLayoutSelector:   llm.TierStandard,
		RoleEditor:           llm.TierAdvanced,
		RoleCoder:            llm.TierAdvanced,
	}
	staff := make(Staff, len(tiers))
	for role, tier := range tiers {
		agent, err := New(role, client, tier)
		if err != nil {
			return nil, err
		}
		staff[role] = agent
	}
	return staff, nil
}

// CollectHistory gathers every role's call log and resets them. Callers
// must ensure all slide tasks have completed first.
func (s Staff) CollectHistory() map[string][]types.CallRecord {
	agents := make(map[string][]types.CallRecord, len(s))
	for role, agent := range s {
		agents[role] = agent.History()
		agent.Reset()
	}
	return agents
}
