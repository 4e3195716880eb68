// Package clog provides categorized, zap-backed structured logging for the
// runtime. Each engine component logs under its own category so operators can
// raise or lower verbosity per subsystem without touching the others.
package clog

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category identifies the subsystem emitting a log line.
type Category string

const (
	CategoryTick         Category = "tick"
	CategoryGraphStore   Category = "graphstore"
	CategoryBitemporal   Category = "bitemporal"
	CategoryFrontier     Category = "frontier"
	CategoryFanout       Category = "fanout"
	CategoryDiffusion    Category = "diffusion"
	CategoryDecay        Category = "decay"
	CategoryCriticality  Category = "criticality"
	CategoryStimulus     Category = "stimulus"
	CategoryScheduler    Category = "scheduler"
	CategoryStrengthen   Category = "strengthen"
	CategoryEvents       Category = "events"
	CategoryQuery        Category = "query"
	CategoryConfig       Category = "config"
)

var (
	mu      sync.RWMutex
	base    *zap.Logger = zap.NewNop()
	debug   bool
)

// Init installs the process-wide base logger. Call once during startup;
// safe to call again to hot-swap verbosity (e.g. from a config reload).
func Init(development bool, debugMode bool) error {
	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	if debugMode {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return err
	}
	mu.Lock()
	base = l
	debug = debugMode
	mu.Unlock()
	return nil
}

// Sync flushes any buffered log entries. Best-effort; errors are ignored —
// stderr sync failures are common and harmless on most platforms.
func Sync() {
	mu.RLock()
	l := base
	mu.RUnlock()
	_ = l.Sync()
}

// For returns a logger scoped to the given category.
func For(cat Category) *zap.Logger {
	mu.RLock()
	l := base
	mu.RUnlock()
	return l.With(zap.String("category", string(cat)))
}

// DebugEnabled reports whether verbose/debug logging is currently active.
func DebugEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return debug
}
