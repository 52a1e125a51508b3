package executor

import (
	"context"
	"time"

	"github.com/loomworks/loom/model"
	"github.com/loomworks/loom/node"
	"github.com/loomworks/loom/template"
)

// Preview runs a single node kind in isolation against caller-provided
// inputs and context, bypassing persistence and the result cache.
// Unresolved template references pass through unchanged, the same as in a
// real execution.
func (e *Executor) Preview(kind string, cfg map[string]any, inputs map[string]any, contextData map[string]any) (model.NodeResult, error) {
	desc, err := e.registry.Get(kind)
	if err != nil {
		return model.NodeResult{}, err
	}
	if err := desc.ConfigSchema.ValidateConfig(cfg); err != nil {
		return model.NodeResult{}, err
	}
	inv := node.Invocation{
		NodeId:       "preview",
		Config:       template.ResolveConfig(cfg, contextData),
		Inputs:       inputs,
		CallerInputs: contextData,
	}
	ctx := context.Background()
	if e.conf.ExecutionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.conf.ExecutionTimeout)
		defer cancel()
	}
	start := time.Now()
	output, err := safeRun(ctx, desc.Factory(), inv)
	result := model.NodeResult{
		DurationMs: time.Since(start).Milliseconds(),
		Metadata:   nodeMetadata("preview", kind),
	}
	if err != nil {
		result.Error = err.Error()
		return result, nil
	}
	result.Success = true
	result.Output = output
	return result, nil
}
