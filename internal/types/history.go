package types

// CallRecord is one LLM exchange made by a role agent.
type CallRecord struct {
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// OutcomeCorrect tags a code block whose API calls all applied cleanly.
const OutcomeCorrect = "api_call_correct"

// CodeRecord is one attempted edit-action code block tagged with its
// outcome. The log is append-only per slide and merged across slides in
// outline order.
type CodeRecord struct {
	Code       string `json:"code"`
	Outcome    string `json:"outcome"`
	TemplateID int    `json:"template_id"`
}

// History aggregates the agent call logs and the code-executor logs of one
// generation run.
type History struct {
	Agents      map[string][]CallRecord `json:"agents"`
	CodeHistory []CodeRecord            `json:"code_history"`
	APIHistory  []string                `json:"api_history"`
}
