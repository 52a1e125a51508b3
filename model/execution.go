package model

import "time"

type ExecutionStatus string

const EXECUTION_PENDING ExecutionStatus = "pending"
const EXECUTION_RUNNING ExecutionStatus = "running"
const EXECUTION_SUCCESS ExecutionStatus = "success"
const EXECUTION_FAILED ExecutionStatus = "failed"
const EXECUTION_CANCELLED ExecutionStatus = "cancelled"

func (s ExecutionStatus) Terminal() bool {
	return s == EXECUTION_SUCCESS || s == EXECUTION_FAILED || s == EXECUTION_CANCELLED
}

// NodeResult records one node's run within one execution. Output is the
// payload downstream nodes reference through templates.
type NodeResult struct {
	Success    bool           `json:"success"`
	Output     any            `json:"output"`
	Error      string         `json:"error,omitempty"`
	DurationMs int64          `json:"duration_ms"`
	Cached     bool           `json:"cached"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Execution is a single attempt to run a workflow with specific inputs.
// Output is populated only when Status is success.
type Execution struct {
	Id          string                `json:"id"`
	WorkflowId  string                `json:"workflow_id"`
	Status      ExecutionStatus       `json:"status"`
	Input       map[string]any        `json:"input"`
	Output      any                   `json:"output,omitempty"`
	Error       string                `json:"error,omitempty"`
	NodeResults map[string]NodeResult `json:"node_results"`
	NodeOrder   []string              `json:"node_order,omitempty"`
	UseCache    bool                  `json:"use_cache"`
	StartedAt   *time.Time            `json:"started_at,omitempty"`
	FinishedAt  *time.Time            `json:"finished_at,omitempty"`
	DurationMs  int64                 `json:"duration_ms"`
}
