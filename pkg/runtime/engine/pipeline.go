// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package engine implements the pipeline engine (§4.E): AST → executable
// graph, the streaming forward pass, tap-based observation, and the
// pipeline instance state machine.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/divvun/divvun-runtime-go/internal/rterrors"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/ast"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/metrics"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/registry"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/runctx"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/value"
)

// State is a pipeline instance's lifecycle state: Built → Ready →
// Running → Ready | Failed. Failed records that the most recent
// invocation failed; the engine leaves the instance in Failed, but
// Forward still accepts it, and a successful invocation returns it to
// Ready. Whether a failure such as a resource loss makes the instance
// unfit for reuse is for the caller to decide.
type State int

const (
	StateBuilt State = iota
	StateReady
	StateRunning
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateBuilt:
		return "Built"
	case StateReady:
		return "Ready"
	case StateRunning:
		return "Running"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Stage is one resolved, constructed command instance in execution order.
type Stage struct {
	NodeID string
	Def    registry.CommandDef
	Runner registry.Runner
}

// Identity returns the stage's "module::command" tap identity.
func (s Stage) Identity() string { return s.Runner.Name() }

// TapPhase distinguishes a "before" tap (the stage's input) from the
// default "after" tap (the stage's output).
type TapPhase int

const (
	TapAfter TapPhase = iota
	TapBefore
)

// TapFunc observes a stage boundary. It must not mutate event and should
// not block for long: the engine runs it inline at each stage boundary.
type TapFunc func(stepIndex int, cmdIdentity string, phase TapPhase, event value.Value)

// Pipeline is a built, ready-to-run realization of one named pipeline
// from a bundle's definition.
type Pipeline struct {
	Name   string
	Stages []Stage

	entryValueType string
	logger         *slog.Logger

	mu    sync.Mutex
	state State
	tap   TapFunc
}

// Build flattens def's named pipeline (or its default, when name == "")
// into an executable chain, resolving each node via the registry,
// checking type compatibility on every edge, and calling constructors in
// order. Any unknown command, missing required asset, argument-type
// mismatch, or type-lattice violation fails the build (§4.E).
func Build(ctx *runctx.Context, def *ast.Definition, name string, logger *slog.Logger) (p *Pipeline, err error) {
	start := time.Now()
	defer func() { metrics.RecordBuild(time.Since(start).Seconds(), err == nil) }()

	if logger == nil {
		logger = slog.Default()
	}
	if name == "" {
		name = def.Default
	}
	pdef, ok := def.Pipelines[name]
	if !ok {
		return nil, rterrors.NewBuildError(
			fmt.Sprintf("unknown pipeline %q", name),
			"no such entry in pipeline.json's \"pipelines\" map",
			"check the bundle's pipeline.json for defined pipeline names",
			nil,
		)
	}

	steps, err := ast.Flatten(pdef)
	if err != nil {
		return nil, rterrors.NewBuildError(
			fmt.Sprintf("cannot flatten pipeline %q", name),
			err.Error(),
			"check that output.ref names the pipeline's final command and the chain is acyclic",
			err,
		)
	}

	p = &Pipeline{Name: name, entryValueType: pdef.Entry.ValueType, logger: logger, state: StateBuilt}

	prevMask, err := entryTypeMask(pdef.Entry.ValueType)
	if err != nil {
		return nil, rterrors.NewBuildError("invalid entry value_type", err.Error(), "use \"string\" or \"path\"", err)
	}

	for _, step := range steps {
		def, ok := registry.Lookup(step.Node.Module, step.Node.Command)
		if !ok {
			return nil, rterrors.NewBuildError(
				fmt.Sprintf("unknown command %q::%q", step.Node.Module, step.Node.Command),
				"no registry entry for this (module, command) pair",
				"check the command name against the registered command set",
				nil,
			)
		}

		if !prevMask.Intersects(def.InputMask) {
			return nil, rterrors.NewBuildError(
				fmt.Sprintf("type mismatch at %q::%q", step.Node.Module, step.Node.Command),
				fmt.Sprintf("upstream returns %s, stage accepts %s", prevMask, def.InputMask),
				"adjust the pipeline so adjacent stages' types overlap",
				nil,
			)
		}

		runner, err := def.New(ctx, step.Node.Args)
		if err != nil {
			return nil, rterrors.NewBuildError(
				fmt.Sprintf("cannot construct %q::%q", step.Node.Module, step.Node.Command),
				err.Error(),
				"check the command's required arguments and assets",
				err,
			)
		}

		p.Stages = append(p.Stages, Stage{NodeID: step.NodeID, Def: def, Runner: runner})
		prevMask = def.ReturnMask
		logger.Debug("runtime.pipeline.build.stage", slog.String("pipeline", name), slog.String("node", step.NodeID), slog.String("command", runner.Name()))
	}

	p.state = StateReady
	logger.Info("runtime.pipeline.build", slog.String("pipeline", name), slog.Int("stages", len(p.Stages)))
	return p, nil
}

func entryTypeMask(valueType string) (value.TypeMask, error) {
	switch valueType {
	case "string":
		return value.TypeString, nil
	case "path":
		return value.TypePath, nil
	default:
		return 0, fmt.Errorf("unsupported entry value_type %q", valueType)
	}
}

// SetTap installs the pipeline's tap callback (§4.E). Pass nil to remove
// it.
func (p *Pipeline) SetTap(tap TapFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tap = tap
}

// State reports the pipeline's current lifecycle state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Forward runs one invocation: input plus config flow through every
// stage in order, and the tap callback, when installed, fires before and
// after each stage. Cancellation via ctx is
// honored between stages and inside any stage that itself respects ctx;
// in-flight work is allowed to drain but no further stage is entered.
func (p *Pipeline) Forward(ctx context.Context, input value.Value, config map[string]any) (value.Value, error) {
	p.mu.Lock()
	if p.state == StateRunning {
		p.mu.Unlock()
		return value.Value{}, rterrors.NewInvocationError("pipeline already running", "Forward is not reentrant on one instance", "serialize calls or build a second pipeline instance", nil)
	}
	p.state = StateRunning
	tap := p.tap
	p.mu.Unlock()

	start := time.Now()
	out, err := p.runStages(ctx, input, config, tap)
	cancelled := errors.Is(err, rterrors.ErrCancelled)
	metrics.RecordForward(time.Since(start).Seconds(), err == nil, cancelled)

	p.mu.Lock()
	if err != nil {
		p.state = StateFailed
	} else {
		p.state = StateReady
	}
	p.mu.Unlock()

	return out, err
}

func (p *Pipeline) runStages(ctx context.Context, input value.Value, config map[string]any, tap TapFunc) (value.Value, error) {
	cur := input

	for i, stage := range p.Stages {
		select {
		case <-ctx.Done():
			return value.Value{}, rterrors.ErrCancelled
		default:
		}

		if tap != nil {
			tap(i, stage.Identity(), TapBefore, cur)
		}

		out, err := p.runStage(ctx, stage, cur, config)
		if err != nil {
			return value.Value{}, rterrors.NewInvocationError(
				fmt.Sprintf("stage %q failed", stage.Identity()),
				err.Error(),
				"",
				err,
			)
		}

		if tap != nil {
			tap(i, stage.Identity(), TapAfter, out)
		}

		cur = out
	}

	return cur, nil
}

// runStage applies the §4.E streaming policy: when the upstream value is
// Multiple, the stage is invoked once per element (whatever its declared
// input mask), collapsing back into an ArrayString/ArrayBytes when every
// result shares a scalar kind, or a Multiple otherwise.
func (p *Pipeline) runStage(ctx context.Context, stage Stage, in value.Value, config map[string]any) (value.Value, error) {
	if in.Kind() != value.KindMultiple {
		return p.forwardOne(ctx, stage, in, config)
	}

	elems := in.TryAsMultiple()
	outs := make([]value.Value, len(elems))
	for i, e := range elems {
		out, err := p.forwardOne(ctx, stage, e, config)
		if err != nil {
			return value.Value{}, err
		}
		outs[i] = out
	}
	return collapse(outs), nil
}

func (p *Pipeline) forwardOne(ctx context.Context, stage Stage, in value.Value, config map[string]any) (value.Value, error) {
	start := time.Now()
	out, err := stage.Runner.Forward(ctx, in, config)
	metrics.RecordStage(stage.Identity(), time.Since(start).Seconds(), err == nil)
	return out, err
}

func collapse(outs []value.Value) value.Value {
	if len(outs) == 0 {
		return value.Multiple(nil)
	}

	allStrings := true
	allBytes := true
	strs := make([]string, len(outs))
	byts := make([][]byte, len(outs))

	for i, o := range outs {
		if o.Kind() == value.KindString {
			s, _ := o.TryAsString()
			strs[i] = s
		} else {
			allStrings = false
		}
		if o.Kind() == value.KindBytes {
			b, _ := o.TryAsBytes()
			byts[i] = b
		} else {
			allBytes = false
		}
	}

	switch {
	case allStrings:
		return value.ArrayString(strs)
	case allBytes:
		return value.ArrayBytes(byts)
	default:
		return value.Multiple(outs)
	}
}
