package engine

import "github.com/example/recallengine/pkg/models"

// PhaseFor recomputes the learning phase from the updated review counters.
// The phase is a pure function of the counters, evaluated in order:
//
//  1. fewer than AcquisitionReviews reviews → acquisition
//  2. more than one consecutive failure → relearning
//  3. stability above MaintenanceStability with a success streak of at least
//     MaintenanceStreak → maintenance
//  4. otherwise → consolidation
//
// There is no terminal phase; items cycle between maintenance and relearning
// indefinitely.
func PhaseFor(cfg Config, reviewCount int, stability float64, successes, failures int) models.LearningPhase {
	cfg = cfg.withDefaults()
	switch {
	case reviewCount < cfg.AcquisitionReviews:
		return models.PhaseAcquisition
	case failures > 1:
		return models.PhaseRelearning
	case stability > cfg.MaintenanceStability && successes >= cfg.MaintenanceStreak:
		return models.PhaseMaintenance
	default:
		return models.PhaseConsolidation
	}
}
