package executor

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/loomworks/loom/analytics"
	"github.com/loomworks/loom/cache"
	"github.com/loomworks/loom/config"
	"github.com/loomworks/loom/graph"
	"github.com/loomworks/loom/logger"
	"github.com/loomworks/loom/metrics"
	"github.com/loomworks/loom/model"
	"github.com/loomworks/loom/node"
	"github.com/loomworks/loom/persistence"
	"github.com/loomworks/loom/registry"
	"github.com/loomworks/loom/template"
	"go.uber.org/zap"
)

// SubmitRequest describes one execution to run. A zero Timeout falls back
// to the configured default; a nil ContinueOnError falls back to the
// configured error policy.
type SubmitRequest struct {
	WorkflowId      string
	Input           map[string]any
	UseCache        bool
	Timeout         time.Duration
	ContinueOnError *bool
}

// Executor drives workflow executions: it owns the worker pool, the
// per-execution cancellation handles and all writes to execution records.
type Executor struct {
	storage   persistence.Storage
	registry  *registry.Registry
	cache     *cache.ResultCache
	collector analytics.Collector
	conf      config.Config
	pool      *pool
	wg        *sync.WaitGroup

	mu      sync.Mutex
	running map[string]context.CancelFunc
}

func New(storage persistence.Storage, reg *registry.Registry, resultCache *cache.ResultCache, collector analytics.Collector, conf config.Config, wg *sync.WaitGroup) *Executor {
	workerCount := conf.WorkerCount
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	if collector == nil {
		collector = analytics.NoopCollector{}
	}
	return &Executor{
		storage:   storage,
		registry:  reg,
		cache:     resultCache,
		collector: collector,
		conf:      conf,
		pool:      newPool("node-executor", workerCount, wg),
		wg:        wg,
		running:   make(map[string]context.CancelFunc),
	}
}

// Start brings up the worker pool and fails over executions left behind
// by a previous process: anything still pending or running in storage
// cannot be resumed and is marked failed.
func (e *Executor) Start() {
	e.pool.Start()
	e.recoverStaleExecutions()
}

func (e *Executor) Stop() error {
	e.mu.Lock()
	for _, cancel := range e.running {
		cancel()
	}
	e.mu.Unlock()
	e.pool.Stop()
	return nil
}

func (e *Executor) recoverStaleExecutions() {
	workflows, err := e.storage.ListWorkflows()
	if err != nil {
		logger.Error("recovery sweep failed listing workflows", zap.Error(err))
		return
	}
	for _, wf := range workflows {
		executions, err := e.storage.ListExecutions(wf.Id)
		if err != nil {
			logger.Error("recovery sweep failed listing executions", zap.String("workflow", wf.Id), zap.Error(err))
			continue
		}
		for _, execution := range executions {
			if execution.Status.Terminal() {
				continue
			}
			execution.Status = model.EXECUTION_FAILED
			execution.Error = "process restarted while execution was in flight"
			now := time.Now()
			execution.FinishedAt = &now
			if err := e.storage.UpdateExecution(execution.Id, execution); err != nil {
				logger.Error("recovery sweep failed updating execution", zap.String("execution", execution.Id), zap.Error(err))
			}
		}
	}
}

// Submit snapshots the workflow, creates a pending execution record and
// schedules the run. Later edits to the workflow are invisible to this
// execution. Lookup failures surface to the caller synchronously.
func (e *Executor) Submit(req SubmitRequest) (string, error) {
	wf, err := e.storage.GetWorkflow(req.WorkflowId)
	if err != nil {
		return "", err
	}
	execution := &model.Execution{
		Id:          uuid.New().String(),
		WorkflowId:  wf.Id,
		Status:      model.EXECUTION_PENDING,
		Input:       req.Input,
		UseCache:    req.UseCache,
		NodeResults: make(map[string]model.NodeResult),
	}
	if _, err := e.storage.CreateExecution(execution); err != nil {
		return "", err
	}
	metrics.ExecutionsStarted.Inc()

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = e.conf.ExecutionTimeout
	}
	var ctx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	continueOnError := e.conf.ContinueOnError
	if req.ContinueOnError != nil {
		continueOnError = *req.ContinueOnError
	}

	e.mu.Lock()
	e.running[execution.Id] = cancel
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer func() {
			e.mu.Lock()
			delete(e.running, execution.Id)
			e.mu.Unlock()
			cancel()
		}()
		e.run(ctx, execution, wf, continueOnError)
	}()
	return execution.Id, nil
}

// Status returns the current execution record.
func (e *Executor) Status(executionId string) (*model.Execution, error) {
	return e.storage.GetExecution(executionId)
}

// Cancel requests cancellation of a running execution. The executor
// honours the request at the next level boundary; nodes in flight receive
// the signal through their context and may finish early. Cancelling an
// execution that already reached a terminal state is a no-op.
func (e *Executor) Cancel(executionId string) error {
	e.mu.Lock()
	cancel, ok := e.running[executionId]
	e.mu.Unlock()
	if ok {
		cancel()
		return nil
	}
	if _, err := e.storage.GetExecution(executionId); err != nil {
		return err
	}
	return nil
}

func (e *Executor) run(ctx context.Context, execution *model.Execution, wf *model.Workflow, continueOnError bool) {
	started := time.Now()
	execution.Status = model.EXECUTION_RUNNING
	execution.StartedAt = &started
	if !e.persist(execution) {
		return
	}
	logger.Info("execution started", zap.String("workflow", wf.Id), zap.String("execution", execution.Id))

	if err := graph.Validate(wf, e.registry); err != nil {
		e.finish(execution, started, model.EXECUTION_FAILED, err.Error())
		return
	}
	plan, err := graph.BuildPlan(graph.New(wf))
	if err != nil {
		e.finish(execution, started, model.EXECUTION_FAILED, err.Error())
		return
	}
	execution.NodeOrder = plan.Order()

	contextData := make(map[string]any, len(execution.Input)+len(wf.Nodes))
	for k, v := range execution.Input {
		contextData[k] = v
	}
	useCache := execution.UseCache && e.conf.CacheEnabled

	firstFailedNode := ""
	firstFailedError := ""
	for _, level := range plan.Levels {
		if ctx.Err() != nil {
			e.finish(execution, started, model.EXECUTION_CANCELLED, "execution cancelled")
			return
		}

		results := make([]model.NodeResult, len(level))
		var barrier sync.WaitGroup
		for i, nodeId := range level {
			i, nodeId := i, nodeId
			barrier.Add(1)
			e.pool.Submit(func() {
				defer barrier.Done()
				results[i] = e.runNode(ctx, execution, wf, plan, nodeId, contextData, useCache)
			})
		}
		barrier.Wait()

		// context writes happen here, after the barrier, so sibling reads
		// never observe a map mutation in flight
		for i, nodeId := range level {
			result := results[i]
			execution.NodeResults[nodeId] = result
			if result.Success {
				contextData[nodeId] = result.Output
			} else {
				if firstFailedNode == "" {
					firstFailedNode = nodeId
					firstFailedError = result.Error
				}
				if continueOnError {
					// downstream template references to this node resolve
					// to null
					contextData[nodeId] = nil
				}
			}
		}
		if ctx.Err() != nil {
			e.finish(execution, started, model.EXECUTION_CANCELLED, "execution cancelled")
			return
		}
		if firstFailedNode != "" && !continueOnError {
			e.finish(execution, started, model.EXECUTION_FAILED, fmt.Sprintf("node %s failed: %s", firstFailedNode, firstFailedError))
			return
		}
		if !e.persist(execution) {
			return
		}
	}

	if firstFailedNode != "" {
		e.finish(execution, started, model.EXECUTION_FAILED, fmt.Sprintf("node %s failed: %s", firstFailedNode, firstFailedError))
		return
	}
	execution.Output = extractOutput(wf, execution)
	e.finish(execution, started, model.EXECUTION_SUCCESS, "")
}

func (e *Executor) runNode(ctx context.Context, execution *model.Execution, wf *model.Workflow, plan *graph.Plan, nodeId string, contextData map[string]any, useCache bool) model.NodeResult {
	nodeDef := wf.Nodes[nodeId]
	desc, err := e.registry.Get(nodeDef.Kind)
	if err != nil {
		return model.NodeResult{Error: err.Error(), Metadata: nodeMetadata(nodeId, nodeDef.Kind)}
	}

	inputs := make(map[string]any, len(plan.Predecessors[nodeId]))
	for _, pred := range plan.Predecessors[nodeId] {
		inputs[pred] = contextData[pred]
	}
	resolvedConfig := template.ResolveConfig(nodeDef.Config, contextData)

	var key string
	if useCache && desc.Cacheable {
		key = cache.Fingerprint(nodeDef.Kind, resolvedConfig, inputs)
		if cached, ok := e.cache.Get(key); ok {
			cached.Cached = true
			metrics.NodeRuns.WithLabelValues(nodeDef.Kind, "cached").Inc()
			e.collector.RecordNodeSuccess(wf.Id, execution.Id, nodeId, nodeDef.Kind, cached.DurationMs)
			return cached
		}
	}

	inv := node.Invocation{
		WorkflowId:   wf.Id,
		ExecutionId:  execution.Id,
		NodeId:       nodeId,
		Config:       resolvedConfig,
		Inputs:       inputs,
		CallerInputs: execution.Input,
	}
	start := time.Now()
	output, err := safeRun(ctx, desc.Factory(), inv)
	elapsed := time.Since(start)
	metrics.NodeDuration.WithLabelValues(nodeDef.Kind).Observe(elapsed.Seconds())

	result := model.NodeResult{
		DurationMs: elapsed.Milliseconds(),
		Metadata:   nodeMetadata(nodeId, nodeDef.Kind),
	}
	if err != nil {
		result.Error = err.Error()
		metrics.NodeRuns.WithLabelValues(nodeDef.Kind, "failed").Inc()
		e.collector.RecordNodeFailure(wf.Id, execution.Id, nodeId, nodeDef.Kind, err.Error())
		logger.Error("node failed", zap.String("execution", execution.Id), zap.String("node", nodeId), zap.Error(err))
		return result
	}
	result.Success = true
	result.Output = output
	if key != "" {
		e.cache.Put(key, result, e.conf.CacheDefaultTTL)
	}
	metrics.NodeRuns.WithLabelValues(nodeDef.Kind, "success").Inc()
	e.collector.RecordNodeSuccess(wf.Id, execution.Id, nodeId, nodeDef.Kind, result.DurationMs)
	return result
}

// safeRun invokes a handler and converts panics into node failures so a
// misbehaving kind cannot take the worker down.
func safeRun(ctx context.Context, handler node.Handler, inv node.Invocation) (output any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("node panicked: %v", r)
		}
	}()
	return handler.Run(ctx, inv)
}

func nodeMetadata(nodeId string, kind string) map[string]any {
	return map[string]any{"node_id": nodeId, "kind": kind}
}

// extractOutput assembles the execution output from sink nodes: a single
// sink contributes its output directly, several contribute a map, and a
// workflow without sinks yields the full per-node output map.
func extractOutput(wf *model.Workflow, execution *model.Execution) any {
	var sinks []string
	for id, n := range wf.Nodes {
		if n.Kind == node.SinkKind {
			sinks = append(sinks, id)
		}
	}
	sort.Strings(sinks)
	switch len(sinks) {
	case 0:
		all := make(map[string]any, len(execution.NodeResults))
		for id, result := range execution.NodeResults {
			all[id] = result.Output
		}
		return all
	case 1:
		return execution.NodeResults[sinks[0]].Output
	default:
		out := make(map[string]any, len(sinks))
		for _, id := range sinks {
			out[id] = execution.NodeResults[id].Output
		}
		return out
	}
}

// persist writes the execution record, retrying once. A second failure
// marks the execution failed with an internal error; that terminal write
// is itself best-effort.
func (e *Executor) persist(execution *model.Execution) bool {
	err := e.storage.UpdateExecution(execution.Id, execution)
	if err == nil {
		return true
	}
	logger.Error("execution update failed, retrying", zap.String("execution", execution.Id), zap.Error(err))
	if err = e.storage.UpdateExecution(execution.Id, execution); err == nil {
		return true
	}
	execution.Status = model.EXECUTION_FAILED
	execution.Error = fmt.Sprintf("internal: storage failure: %v", err)
	now := time.Now()
	execution.FinishedAt = &now
	metrics.ExecutionsFinished.WithLabelValues(string(model.EXECUTION_FAILED)).Inc()
	if err := e.storage.UpdateExecution(execution.Id, execution); err != nil {
		logger.Error("failed to record internal failure", zap.String("execution", execution.Id), zap.Error(err))
	}
	return false
}

func (e *Executor) finish(execution *model.Execution, started time.Time, status model.ExecutionStatus, message string) {
	now := time.Now()
	execution.Status = status
	execution.FinishedAt = &now
	execution.DurationMs = now.Sub(started).Milliseconds()
	if status == model.EXECUTION_SUCCESS {
		execution.Error = ""
	} else {
		execution.Error = message
		execution.Output = nil
	}
	metrics.ExecutionsFinished.WithLabelValues(string(status)).Inc()
	err := e.storage.UpdateExecution(execution.Id, execution)
	if err != nil {
		logger.Error("terminal execution update failed, retrying", zap.String("execution", execution.Id), zap.Error(err))
		err = e.storage.UpdateExecution(execution.Id, execution)
	}
	if err != nil {
		logger.Error("failed to persist terminal state", zap.String("execution", execution.Id), zap.Error(err))
		return
	}
	logger.Info("execution finished", zap.String("execution", execution.Id), zap.String("status", string(status)), zap.Int64("durationMs", execution.DurationMs))
}
