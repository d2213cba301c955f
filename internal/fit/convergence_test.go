package fit

import "testing"

func TestConvergenceTrackerDisabled(t *testing.T) {
	tracker := NewConvergenceTracker(DisabledConvergenceConfig())

	for i := 0; i < 1000; i++ {
		if tracker.Update(50) {
			t.Fatal("Disabled tracker must never report convergence")
		}
	}
}

func TestConvergenceTrackerDetectsStagnation(t *testing.T) {
	tracker := NewConvergenceTracker(ConvergenceConfig{
		Enabled:   true,
		Patience:  5,
		Threshold: 0.01,
	})

	// Steady 10% improvements keep the run alive
	fitness := 10.0
	for i := 0; i < 10; i++ {
		if tracker.Update(fitness) {
			t.Fatalf("Unexpected convergence at improving step %d", i)
		}
		fitness *= 1.1
	}

	if tracker.StaleCount() != 0 {
		t.Errorf("Stale count should be 0 after improvement, got %d", tracker.StaleCount())
	}

	// Flat fitness for patience generations
	converged := false
	for i := 0; i < 5; i++ {
		converged = tracker.Update(fitness)
	}
	if !converged {
		t.Error("Expected convergence after patience flat generations")
	}
	if len(tracker.History()) != 15 {
		t.Errorf("Expected 15 history entries, got %d", len(tracker.History()))
	}
}

func TestConvergenceTrackerSmallGainsAreStale(t *testing.T) {
	tracker := NewConvergenceTracker(ConvergenceConfig{
		Enabled:   true,
		Patience:  3,
		Threshold: 0.01,
	})

	tracker.Update(80)
	tracker.Update(80.01)
	tracker.Update(80.02)
	if !tracker.Update(80.03) {
		t.Error("Gains below threshold should count as stale")
	}
	if tracker.BestFitness() != 80.03 {
		t.Errorf("Best fitness should still track the maximum, got %f", tracker.BestFitness())
	}
}

func TestConvergenceTrackerReset(t *testing.T) {
	tracker := NewConvergenceTracker(ConvergenceConfig{Enabled: true, Patience: 2, Threshold: 0.5})
	tracker.Update(1)
	tracker.Update(1)
	tracker.Reset()

	if tracker.StaleCount() != 0 || len(tracker.History()) != 0 {
		t.Error("Reset should clear history and stale count")
	}
	if tracker.Update(1) {
		t.Error("First update after reset must not converge")
	}
}
