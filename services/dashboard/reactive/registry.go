// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package reactive binds input components to output components through
// registered callback functions.
//
// # Description
//
// Each Callback declares one output property and the input properties it
// reads. The browser fetches the bindings once, and whenever an input value
// changes it asks the server to recompute every output that depends on it:
//
//	browser                              server
//	   │  GET /_dash-dependencies           │
//	   │ ─────────────────────────────────► │ Registry.Bindings()
//	   │                                    │
//	   │  input changed                     │
//	   │  POST /_dash-update-component      │
//	   │ ─────────────────────────────────► │ Registry.Dispatch()
//	   │ ◄───────────────────────────────── │   └─ Callback.Fn(values)
//	   │  {"response": {id: {prop: value}}} │
//
// # Thread Safety
//
// Registry is safe for concurrent use. Callbacks must be safe to run
// concurrently; the dashboard's callbacks are pure functions over a
// read-only table.
package reactive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer = otel.Tracer("launchdash.dashboard.reactive")
	meter  = otel.Meter("launchdash.dashboard.reactive")

	// dispatchCounter is bound through the global delegate, so it reports to
	// whichever meter provider is installed later.
	dispatchCounter, _ = meter.Int64Counter(
		"launchdash_reactive_dispatches",
		metric.WithDescription("Callback dispatches by output and outcome"),
		metric.WithUnit("{dispatch}"),
	)
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrDuplicateOutput is returned when two callbacks target one output.
	ErrDuplicateOutput = errors.New("output already has a callback")

	// ErrInvalidCallback is returned for a callback without inputs or function.
	ErrInvalidCallback = errors.New("invalid callback")

	// ErrUnknownOutput is returned when no callback targets the requested output.
	ErrUnknownOutput = errors.New("no callback for output")

	// ErrMissingInput is returned when a declared input has no value.
	ErrMissingInput = errors.New("missing input value")

	// ErrInvalidInput is returned by callbacks when an input value is
	// malformed or out of range.
	ErrInvalidInput = errors.New("invalid input value")
)

// =============================================================================
// Types
// =============================================================================

// PropertyValue is the only property the dashboard binds on.
const PropertyValue = "value"

// PropertyFigure is the graph property callbacks write.
const PropertyFigure = "figure"

// UnknownOutputLabel stands in for unbound or malformed outputs in metric
// labels.
const UnknownOutputLabel = "unknown"

// Dependency addresses one property of one component.
type Dependency struct {
	ID       string `json:"id"`
	Property string `json:"property"`
}

// Input declares a value dependency on a component.
func Input(id string) Dependency {
	return Dependency{ID: id, Property: PropertyValue}
}

// Output declares a figure output on a graph component.
func Output(id string) Dependency {
	return Dependency{ID: id, Property: PropertyFigure}
}

// String returns "id.property".
func (d Dependency) String() string {
	return d.ID + "." + d.Property
}

// ParseDependency splits "id.property". The property is taken after the last
// dot so component ids may themselves contain dots.
func ParseDependency(s string) (Dependency, error) {
	i := strings.LastIndex(s, ".")
	if i <= 0 || i == len(s)-1 {
		return Dependency{}, fmt.Errorf("%w: malformed dependency %q", ErrUnknownOutput, s)
	}
	return Dependency{ID: s[:i], Property: s[i+1:]}, nil
}

// Func computes an output value from the current input values.
type Func func(ctx context.Context, in Values) (any, error)

// Callback binds inputs to one output.
type Callback struct {
	Output Dependency
	Inputs []Dependency
	Fn     Func
}

// Binding is the wire form of a registered callback.
type Binding struct {
	Output Dependency   `json:"output"`
	Inputs []Dependency `json:"inputs"`
}

// InputValue is one input sent by the browser.
type InputValue struct {
	ID       string          `json:"id" binding:"required"`
	Property string          `json:"property"`
	Value    json.RawMessage `json:"value"`
}

// UpdateRequest asks for one output to be recomputed.
type UpdateRequest struct {
	Output string       `json:"output" binding:"required"`
	Inputs []InputValue `json:"inputs"`
}

// UpdateResponse carries the new output value keyed by id then property.
type UpdateResponse struct {
	Response map[string]map[string]any `json:"response"`
}

// =============================================================================
// Values
// =============================================================================

// Values holds raw JSON input values keyed by component id.
type Values map[string]json.RawMessage

// Decode unmarshals the value of id into v.
//
// # Outputs
//
//   - error: ErrMissingInput if id is absent, ErrInvalidInput wrapping the
//     JSON error if the value does not fit v.
func (v Values) Decode(id string, out any) error {
	raw, ok := v[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingInput, id)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidInput, id, err)
	}
	return nil
}

// String decodes a string input. JSON null decodes to "".
func (v Values) String(id string) (string, error) {
	var s *string
	if err := v.Decode(id, &s); err != nil {
		return "", err
	}
	if s == nil {
		return "", nil
	}
	return *s, nil
}

// =============================================================================
// Registry
// =============================================================================

// Registry holds callbacks keyed by output.
type Registry struct {
	mu        sync.RWMutex
	callbacks map[string]Callback
	order     []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{callbacks: make(map[string]Callback)}
}

// Register adds a callback.
//
// # Outputs
//
//   - error: ErrInvalidCallback for a nil function, empty output id or no
//     inputs; ErrDuplicateOutput if the output is already bound.
func (r *Registry) Register(cb Callback) error {
	if cb.Fn == nil || cb.Output.ID == "" || len(cb.Inputs) == 0 {
		return fmt.Errorf("%w: output %q", ErrInvalidCallback, cb.Output.String())
	}
	key := cb.Output.String()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.callbacks[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateOutput, key)
	}
	r.callbacks[key] = cb
	r.order = append(r.order, key)
	return nil
}

// MustRegister is Register that panics on error. For static wiring at startup.
func (r *Registry) MustRegister(cb Callback) {
	if err := r.Register(cb); err != nil {
		panic(err)
	}
}

// Bindings lists registered callbacks in registration order.
func (r *Registry) Bindings() []Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Binding, 0, len(r.order))
	for _, key := range r.order {
		cb := r.callbacks[key]
		inputs := make([]Dependency, len(cb.Inputs))
		copy(inputs, cb.Inputs)
		out = append(out, Binding{Output: cb.Output, Inputs: inputs})
	}
	return out
}

// OutputLabel returns output when a callback is bound to it, and
// UnknownOutputLabel otherwise.
func (r *Registry) OutputLabel(output string) string {
	dep, err := ParseDependency(output)
	if err != nil {
		return UnknownOutputLabel
	}
	key := dep.String()

	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.callbacks[key]; !ok {
		return UnknownOutputLabel
	}
	return key
}

// Dependents returns the outputs that read the given input component.
func (r *Registry) Dependents(inputID string) []Dependency {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Dependency
	for _, key := range r.order {
		cb := r.callbacks[key]
		for _, in := range cb.Inputs {
			if in.ID == inputID {
				out = append(out, cb.Output)
				break
			}
		}
	}
	return out
}

// Dispatch runs the callback bound to req.Output.
//
// # Description
//
// Collects the declared inputs from the request, runs the callback, and
// wraps its result in the response envelope. Inputs the callback did not
// declare are ignored.
//
// # Inputs
//
//   - ctx: Request context, carried into the callback.
//   - req: Output address and input values.
//
// # Outputs
//
//   - UpdateResponse: {"response": {output id: {property: value}}}.
//   - error: ErrUnknownOutput, ErrMissingInput, or the callback's error.
func (r *Registry) Dispatch(ctx context.Context, req UpdateRequest) (resp UpdateResponse, err error) {
	ctx, span := tracer.Start(ctx, "reactive.Dispatch")
	defer span.End()
	span.SetAttributes(attribute.String("dash.output", req.Output))
	label := UnknownOutputLabel
	defer func() {
		dispatchCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("output", label),
			attribute.Bool("ok", err == nil),
		))
	}()

	out, err := ParseDependency(req.Output)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return UpdateResponse{}, err
	}

	r.mu.RLock()
	cb, ok := r.callbacks[out.String()]
	r.mu.RUnlock()
	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownOutput, req.Output)
		span.SetStatus(codes.Error, err.Error())
		return UpdateResponse{}, err
	}
	label = out.String()

	sent := make(map[string]json.RawMessage, len(req.Inputs))
	for _, in := range req.Inputs {
		sent[in.ID] = in.Value
	}
	values := make(Values, len(cb.Inputs))
	for _, dep := range cb.Inputs {
		raw, ok := sent[dep.ID]
		if !ok {
			err := fmt.Errorf("%w: %s", ErrMissingInput, dep.String())
			span.SetStatus(codes.Error, err.Error())
			return UpdateResponse{}, err
		}
		if len(raw) == 0 {
			raw = json.RawMessage("null")
		}
		values[dep.ID] = raw
	}

	result, err := cb.Fn(ctx, values)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return UpdateResponse{}, err
	}

	return UpdateResponse{
		Response: map[string]map[string]any{
			cb.Output.ID: {cb.Output.Property: result},
		},
	}, nil
}
