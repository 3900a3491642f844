package harness

// TraceEvent records what one step did.
type TraceEvent struct {
	Seq    int64  `json:"seq"`
	Action string `json:"action"`

	// Transaction is the id the step targeted, or the id of a transaction
	// that is left waiting for the host.
	Transaction string `json:"transaction,omitempty"`

	Complete bool `json:"complete"`

	// Changed lists the cells reported in the summary as "Sheet!A1".
	Changed []string `json:"changed,omitempty"`

	// Dispatched lists host requests sent during the step as
	// "transaction language: code".
	Dispatched []string `json:"dispatched,omitempty"`

	// Cells is the payload of a successful get_cells step.
	Cells []string `json:"cells,omitempty"`

	// Error is the error code (or message) the step returned.
	Error string `json:"error,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace has one event per step.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State maps sheet name to the displayed non-blank cells by A1 address.
	State map[string]map[string]string `json:"state,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		State:  make(map[string]map[string]string),
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step event.
func (r *Result) AddTrace(event TraceEvent) {
	r.Trace = append(r.Trace, event)
}
