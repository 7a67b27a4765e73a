package domain

import (
	"context"
	"time"
)

// PassMode tells which engine operation ran a pass.
type PassMode string

const (
	ModeStep      PassMode = "step"
	ModeStabilize PassMode = "stabilize"
)

// PassEvent reports one evaluation pass over the whole graph.
type PassEvent struct {
	Mode       PassMode
	Pass       int
	Components int
	Changed    int
}

// StabilizeEvent reports the end of a full stabilization.
type StabilizeEvent struct {
	Passes   int
	Stable   bool
	Duration time.Duration
}

// EnumerateEvent reports the end of a truth table enumeration.
type EnumerateEvent struct {
	Inputs   int
	Slots    int
	Unstable int
	Duration time.Duration
	Err      error
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnPass      func(context.Context, *PassEvent)
	OnStabilize func(context.Context, *StabilizeEvent)
	OnEnumerate func(context.Context, *EnumerateEvent)
}
