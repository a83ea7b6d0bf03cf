package database

import (
	"github.com/example/recallengine/internal/analysis"
	"github.com/example/recallengine/internal/engine"
	"github.com/example/recallengine/internal/excel"
	"github.com/example/recallengine/internal/scheduler"
)

// Compile-time checks that the repositories satisfy the interfaces the
// engine, scheduler, and analyzer consume.
var (
	_ engine.StateStore       = (*MemoryStateRepository)(nil)
	_ engine.SessionStore     = (*ReviewSessionRepository)(nil)
	_ engine.LearnerStore     = (*LearnerRepository)(nil)
	_ engine.PolicyStateStore = (*PolicyStateRepository)(nil)

	_ scheduler.StateSource   = (*MemoryStateRepository)(nil)
	_ scheduler.ItemSource    = (*ItemRepository)(nil)
	_ scheduler.LearnerSource = (*LearnerRepository)(nil)

	_ analysis.SessionSource = (*ReviewSessionRepository)(nil)
	_ analysis.StateSink     = (*MemoryStateRepository)(nil)

	_ excel.ItemStore = (*ItemRepository)(nil)
)
