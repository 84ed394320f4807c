package lodestar

import "sync/atomic"

// stage tracks the world through its lifecycle. Transitions are one-way: a shut-down
// world is never reused.
type stage int32

const (
	stageInit stage = iota
	stageRunning
	stageShuttingDown
	stageShutDown
)

func (s stage) String() string {
	switch s {
	case stageInit:
		return "Init"
	case stageRunning:
		return "Running"
	case stageShuttingDown:
		return "ShuttingDown"
	case stageShutDown:
		return "ShutDown"
	default:
		return "Unknown"
	}
}

// stageManager holds the current stage. It is atomic because shutdown may be requested
// from outside the frame loop goroutine; everything else in the world is single-owner.
type stageManager struct {
	current atomic.Int32
}

func (sm *stageManager) Current() stage {
	return stage(sm.current.Load())
}

func (sm *stageManager) CompareAndSwap(oldStage, newStage stage) bool {
	return sm.current.CompareAndSwap(int32(oldStage), int32(newStage))
}

func (sm *stageManager) Store(s stage) {
	sm.current.Store(int32(s))
}
