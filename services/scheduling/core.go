package scheduling

import (
	"time"

	schedulingRepo "glowbook/database/repository/scheduling"
	"glowbook/services/notification"
	"glowbook/services/prediction"
)

// Core bundles the scheduling services behind one constructor so an
// embedding application wires a single entry point.
type Core struct {
	Availability AvailabilityEngine
	Conflicts    ConflictDetector
	Buffers      BufferManager
	Orchestrator SchedulingOrchestrator
}

// CoreOptions carries the optional collaborators. Zero values fall back to
// NoopCache, the system clock and the built-in deadline and retry budgets.
type CoreOptions struct {
	Cache     Cache
	Notifier  notification.NotificationService
	Predictor prediction.PredictionService
	Clock     Clock
	CacheTTL  time.Duration
	Deadline  time.Duration
	Retries   int
}

func NewCore(repo schedulingRepo.SchedulingRepository, opts CoreOptions) *Core {
	cache := opts.Cache
	if cache == nil {
		cache = &NoopCache{}
	}
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock{}
	}

	availability := &DefaultAvailabilityEngine{
		Repo:     repo,
		Cache:    cache,
		Clock:    clock,
		CacheTTL: opts.CacheTTL,
	}
	conflicts := &DefaultConflictDetector{Repo: repo}
	buffers := &DefaultBufferManager{Repo: repo, Clock: clock}
	orchestrator := &DefaultSchedulingOrchestrator{
		Repo:         repo,
		Availability: availability,
		Conflicts:    conflicts,
		Buffers:      buffers,
		Notifier:     opts.Notifier,
		Predictor:    opts.Predictor,
		Clock:        clock,
		Deadline:     opts.Deadline,
		Retries:      opts.Retries,
	}

	return &Core{
		Availability: availability,
		Conflicts:    conflicts,
		Buffers:      buffers,
		Orchestrator: orchestrator,
	}
}
