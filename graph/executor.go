package graph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/supportmesh/core"
	"github.com/hupe1980/supportmesh/metrics"
)

// resolveActions resolves every requested action of one act step and returns
// one ActionResult per Action, in request order. Each resolution is
// independent; with ParallelActions they run concurrently and results are
// buffered back into request order before being returned.
func (g *Graph) resolveActions(ctx context.Context, actions []core.Action) []core.ActionResult {
	n := len(actions)
	results := make([]core.ActionResult, n)

	if !g.parallelActions || n == 1 {
		for i, a := range actions {
			if ctx.Err() != nil {
				break
			}
			results[i] = g.resolveOne(ctx, a)
		}
		return results
	}

	var wg sync.WaitGroup
	for i := range actions {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(idx int, a core.Action) {
			defer wg.Done()
			results[idx] = g.resolveOne(ctx, a)
		}(i, actions[i])
	}
	wg.Wait()

	return results
}

// resolveOne executes a single action with failure isolation: lookup
// failures, invocation errors and panics all become error payloads.
func (g *Graph) resolveOne(ctx context.Context, action core.Action) (res core.ActionResult) {
	res = core.ActionResult{ActionID: action.ID, Name: action.Name}

	defer func() {
		if r := recover(); r != nil {
			res.Payload = nil
			res.Error = fmt.Sprintf("panic while executing %s: %v", action.Name, r)
			g.logger.Error("graph.action.panic", "graph", g.name, "action", action.Name, "recover", r)
		}
	}()

	impl, err := g.registry.Resolve(action.Name)
	if err != nil {
		res.Error = err.Error()
		metrics.CapabilityExecutions.WithLabelValues(action.Name, "error").Inc()
		g.logger.Warn("graph.action.unknown", "graph", g.name, "action", action.Name)
		return res
	}

	start := time.Now()
	payload, err := impl.Invoke(ctx, action.Arguments)
	dur := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
		res.Error = err.Error()
	} else {
		res.Payload = payload
	}
	metrics.CapabilityExecutions.WithLabelValues(action.Name, status).Inc()
	metrics.CapabilityDuration.WithLabelValues(action.Name).Observe(float64(dur.Milliseconds()))
	g.logger.Info("graph.action.executed",
		"graph", g.name,
		"action", action.Name,
		"action_id", action.ID,
		"duration_ms", dur.Milliseconds(),
		"error", err != nil,
	)
	return res
}
