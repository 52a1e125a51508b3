package redis

import (
	"context"
	"errors"

	rd "github.com/go-redis/redis/v9"
	"github.com/google/uuid"
	"github.com/loomworks/loom/model"
	"github.com/loomworks/loom/persistence"
	"github.com/loomworks/loom/util"
)

const WORKFLOW_DEF string = "WF_DEF"
const WORKFLOW_ALL string = "WF_ALL"
const EXECUTION string = "EXECUTION"
const WORKFLOW_EXEC string = "WF_EXEC"

var _ persistence.Storage = new(Storage)

// Storage persists workflows and executions in redis under namespaced
// keys. Definitions and records are stored as JSON strings; ordering
// indexes are kept in lists.
type Storage struct {
	baseDao
	workflowCodec  util.EncoderDecoder[model.Workflow]
	executionCodec util.EncoderDecoder[model.Execution]
}

func NewStorage(conf Config) *Storage {
	return &Storage{
		baseDao:        *newBaseDao(conf),
		workflowCodec:  util.NewJsonEncoderDecoder[model.Workflow](),
		executionCodec: util.NewJsonEncoderDecoder[model.Execution](),
	}
}

func (s *Storage) CreateWorkflow(wf *model.Workflow) (string, error) {
	if wf.Id == "" {
		wf.Id = uuid.New().String()
	}
	if wf.Version == 0 {
		wf.Version = 1
	}
	key := s.getNamespaceKey(WORKFLOW_DEF, wf.Id)
	ctx := context.Background()
	data, err := s.workflowCodec.Encode(*wf)
	if err != nil {
		return "", err
	}
	created, err := s.redisClient.SetNX(ctx, key, data, 0).Result()
	if err != nil {
		return "", persistence.StorageLayerError{Message: err.Error()}
	}
	if !created {
		if err := s.redisClient.Set(ctx, key, data, 0).Err(); err != nil {
			return "", persistence.StorageLayerError{Message: err.Error()}
		}
		return wf.Id, nil
	}
	if err := s.redisClient.RPush(ctx, s.getNamespaceKey(WORKFLOW_ALL), wf.Id).Err(); err != nil {
		return "", persistence.StorageLayerError{Message: err.Error()}
	}
	return wf.Id, nil
}

func (s *Storage) GetWorkflow(id string) (*model.Workflow, error) {
	key := s.getNamespaceKey(WORKFLOW_DEF, id)
	ctx := context.Background()
	val, err := s.redisClient.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, persistence.NotFoundError{Kind: "workflow", Id: id}
		}
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return s.workflowCodec.Decode([]byte(val))
}

func (s *Storage) ListWorkflows() ([]*model.Workflow, error) {
	ctx := context.Background()
	ids, err := s.redisClient.LRange(ctx, s.getNamespaceKey(WORKFLOW_ALL), 0, -1).Result()
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	out := make([]*model.Workflow, 0, len(ids))
	for _, id := range ids {
		wf, err := s.GetWorkflow(id)
		if err != nil {
			if persistence.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		out = append(out, wf)
	}
	return out, nil
}

func (s *Storage) UpdateWorkflow(id string, wf *model.Workflow) error {
	existing, err := s.GetWorkflow(id)
	if err != nil {
		return err
	}
	if wf.Version != existing.Version {
		return persistence.VersionConflictError{Id: id, Expected: existing.Version, Actual: wf.Version}
	}
	wf.Id = id
	wf.Version = existing.Version + 1
	data, err := s.workflowCodec.Encode(*wf)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if err := s.redisClient.Set(ctx, s.getNamespaceKey(WORKFLOW_DEF, id), data, 0).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (s *Storage) DeleteWorkflow(id string) error {
	ctx := context.Background()
	deleted, err := s.redisClient.Del(ctx, s.getNamespaceKey(WORKFLOW_DEF, id)).Result()
	if err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	if deleted == 0 {
		return persistence.NotFoundError{Kind: "workflow", Id: id}
	}
	if err := s.redisClient.LRem(ctx, s.getNamespaceKey(WORKFLOW_ALL), 0, id).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (s *Storage) CreateExecution(execution *model.Execution) (string, error) {
	if execution.Id == "" {
		execution.Id = uuid.New().String()
	}
	data, err := s.executionCodec.Encode(*execution)
	if err != nil {
		return "", err
	}
	ctx := context.Background()
	key := s.getNamespaceKey(EXECUTION, execution.Id)
	created, err := s.redisClient.SetNX(ctx, key, data, 0).Result()
	if err != nil {
		return "", persistence.StorageLayerError{Message: err.Error()}
	}
	if created {
		index := s.getNamespaceKey(WORKFLOW_EXEC, execution.WorkflowId)
		if err := s.redisClient.RPush(ctx, index, execution.Id).Err(); err != nil {
			return "", persistence.StorageLayerError{Message: err.Error()}
		}
	}
	return execution.Id, nil
}

func (s *Storage) GetExecution(id string) (*model.Execution, error) {
	ctx := context.Background()
	val, err := s.redisClient.Get(ctx, s.getNamespaceKey(EXECUTION, id)).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, persistence.NotFoundError{Kind: "execution", Id: id}
		}
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return s.executionCodec.Decode([]byte(val))
}

func (s *Storage) UpdateExecution(id string, execution *model.Execution) error {
	ctx := context.Background()
	key := s.getNamespaceKey(EXECUTION, id)
	exists, err := s.redisClient.Exists(ctx, key).Result()
	if err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	if exists == 0 {
		return persistence.NotFoundError{Kind: "execution", Id: id}
	}
	data, err := s.executionCodec.Encode(*execution)
	if err != nil {
		return err
	}
	if err := s.redisClient.Set(ctx, key, data, 0).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (s *Storage) ListExecutions(workflowId string) ([]*model.Execution, error) {
	ctx := context.Background()
	ids, err := s.redisClient.LRange(ctx, s.getNamespaceKey(WORKFLOW_EXEC, workflowId), 0, -1).Result()
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	out := make([]*model.Execution, 0, len(ids))
	for _, id := range ids {
		execution, err := s.GetExecution(id)
		if err != nil {
			if persistence.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		out = append(out, execution)
	}
	return out, nil
}
