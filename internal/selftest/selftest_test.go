package selftest

import "testing"

func TestRunPasses(t *testing.T) {
	report, err := Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.KnownAnswerPassed {
		t.Error("known-answer test failed")
	}
	if !report.NonDegenerate {
		t.Error("non-degeneracy check failed")
	}
	if !report.BranchesDistinct {
		t.Error("branch independence check failed")
	}
	if !report.TweakSeparation {
		t.Error("tweak separation check failed")
	}
	if !report.KeySeparation {
		t.Error("key separation check failed")
	}
	if !report.MessageSensitivity {
		t.Error("message sensitivity check failed")
	}
	if !report.AvalanchePassed {
		t.Errorf("avalanche mean weight %.1f outside accepted range", report.AvalancheMeanWeight)
	}
	if !report.Passed() {
		t.Error("Report.Passed() should be true when every field passed")
	}
}
