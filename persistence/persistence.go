package persistence

import (
	"errors"
	"fmt"

	"github.com/loomworks/loom/model"
)

type StorageLayerError struct {
	Message string
}

func (e StorageLayerError) Error() string {
	return fmt.Sprintf("storage layer error %s", e.Message)
}

type NotFoundError struct {
	Kind string
	Id   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Id)
}

type VersionConflictError struct {
	Id       string
	Expected int
	Actual   int
}

func (e VersionConflictError) Error() string {
	return fmt.Sprintf("workflow %s version conflict: have %d, got %d", e.Id, e.Expected, e.Actual)
}

func IsNotFound(err error) bool {
	var notFound NotFoundError
	return errors.As(err, &notFound)
}

func IsVersionConflict(err error) bool {
	var conflict VersionConflictError
	return errors.As(err, &conflict)
}

// Storage is the durable home of workflow definitions and execution
// records. Each call is an atomic unit; the engine assumes nothing about
// atomicity across calls.
type Storage interface {
	CreateWorkflow(wf *model.Workflow) (string, error)
	GetWorkflow(id string) (*model.Workflow, error)
	ListWorkflows() ([]*model.Workflow, error)
	UpdateWorkflow(id string, wf *model.Workflow) error
	DeleteWorkflow(id string) error

	CreateExecution(execution *model.Execution) (string, error)
	GetExecution(id string) (*model.Execution, error)
	UpdateExecution(id string, execution *model.Execution) error
	ListExecutions(workflowId string) ([]*model.Execution, error)
}
