package memory

import (
	"sync"

	"github.com/google/uuid"
	"github.com/loomworks/loom/model"
	"github.com/loomworks/loom/persistence"
	"github.com/loomworks/loom/util"
)

var _ persistence.Storage = new(Storage)

// Storage keeps workflows and executions in process memory. Values are
// cloned through the JSON codec on the way in and out so callers never
// alias stored state.
type Storage struct {
	mu               sync.RWMutex
	workflows        map[string]*model.Workflow
	workflowOrder    []string
	executions       map[string]*model.Execution
	executionsByWf   map[string][]string
	workflowCodec    util.EncoderDecoder[model.Workflow]
	executionCodec   util.EncoderDecoder[model.Execution]
}

func NewStorage() *Storage {
	return &Storage{
		workflows:      make(map[string]*model.Workflow),
		executions:     make(map[string]*model.Execution),
		executionsByWf: make(map[string][]string),
		workflowCodec:  util.NewJsonEncoderDecoder[model.Workflow](),
		executionCodec: util.NewJsonEncoderDecoder[model.Execution](),
	}
}

func (s *Storage) cloneWorkflow(wf *model.Workflow) (*model.Workflow, error) {
	data, err := s.workflowCodec.Encode(*wf)
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	out, err := s.workflowCodec.Decode(data)
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return out, nil
}

func (s *Storage) cloneExecution(execution *model.Execution) (*model.Execution, error) {
	data, err := s.executionCodec.Encode(*execution)
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	out, err := s.executionCodec.Decode(data)
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return out, nil
}

func (s *Storage) CreateWorkflow(wf *model.Workflow) (string, error) {
	if wf.Id == "" {
		wf.Id = uuid.New().String()
	}
	if wf.Version == 0 {
		wf.Version = 1
	}
	stored, err := s.cloneWorkflow(wf)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workflows[wf.Id]; !ok {
		s.workflowOrder = append(s.workflowOrder, wf.Id)
	}
	s.workflows[wf.Id] = stored
	return wf.Id, nil
}

func (s *Storage) GetWorkflow(id string) (*model.Workflow, error) {
	s.mu.RLock()
	wf, ok := s.workflows[id]
	s.mu.RUnlock()
	if !ok {
		return nil, persistence.NotFoundError{Kind: "workflow", Id: id}
	}
	return s.cloneWorkflow(wf)
}

func (s *Storage) ListWorkflows() ([]*model.Workflow, error) {
	s.mu.RLock()
	order := append([]string(nil), s.workflowOrder...)
	s.mu.RUnlock()
	out := make([]*model.Workflow, 0, len(order))
	for _, id := range order {
		wf, err := s.GetWorkflow(id)
		if err != nil {
			continue
		}
		out = append(out, wf)
	}
	return out, nil
}

func (s *Storage) UpdateWorkflow(id string, wf *model.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.workflows[id]
	if !ok {
		return persistence.NotFoundError{Kind: "workflow", Id: id}
	}
	if wf.Version != existing.Version {
		return persistence.VersionConflictError{Id: id, Expected: existing.Version, Actual: wf.Version}
	}
	wf.Id = id
	wf.Version = existing.Version + 1
	stored, err := s.cloneWorkflow(wf)
	if err != nil {
		return err
	}
	s.workflows[id] = stored
	return nil
}

func (s *Storage) DeleteWorkflow(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workflows[id]; !ok {
		return persistence.NotFoundError{Kind: "workflow", Id: id}
	}
	delete(s.workflows, id)
	for i, wfId := range s.workflowOrder {
		if wfId == id {
			s.workflowOrder = append(s.workflowOrder[:i], s.workflowOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Storage) CreateExecution(execution *model.Execution) (string, error) {
	if execution.Id == "" {
		execution.Id = uuid.New().String()
	}
	stored, err := s.cloneExecution(execution)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.executions[execution.Id]; !ok {
		s.executionsByWf[execution.WorkflowId] = append(s.executionsByWf[execution.WorkflowId], execution.Id)
	}
	s.executions[execution.Id] = stored
	return execution.Id, nil
}

func (s *Storage) GetExecution(id string) (*model.Execution, error) {
	s.mu.RLock()
	execution, ok := s.executions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, persistence.NotFoundError{Kind: "execution", Id: id}
	}
	return s.cloneExecution(execution)
}

func (s *Storage) UpdateExecution(id string, execution *model.Execution) error {
	stored, err := s.cloneExecution(execution)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.executions[id]; !ok {
		return persistence.NotFoundError{Kind: "execution", Id: id}
	}
	stored.Id = id
	s.executions[id] = stored
	return nil
}

func (s *Storage) ListExecutions(workflowId string) ([]*model.Execution, error) {
	s.mu.RLock()
	ids := append([]string(nil), s.executionsByWf[workflowId]...)
	s.mu.RUnlock()
	out := make([]*model.Execution, 0, len(ids))
	for _, id := range ids {
		execution, err := s.GetExecution(id)
		if err != nil {
			continue
		}
		out = append(out, execution)
	}
	return out, nil
}
