package worker

import "testing"

func TestMockAnalysisShape(t *testing.T) {
	sawHealthy := false
	sawDiseased := false

	for i := 0; i < 500; i++ {
		result := mockAnalysis()
		if result.Confidence == nil {
			t.Fatal("analysis must always carry a confidence")
		}
		if *result.Confidence <= 0 || *result.Confidence > 1 {
			t.Fatalf("confidence out of range: %f", *result.Confidence)
		}

		if result.IsHealthy {
			sawHealthy = true
			if result.DiseaseName != nil || result.Remedy != nil {
				t.Fatal("healthy verdicts must not name a disease")
			}
		} else {
			sawDiseased = true
			if result.DiseaseName == nil || *result.DiseaseName == "" {
				t.Fatal("diseased verdicts must name the disease")
			}
			if result.Remedy == nil || *result.Remedy == "" {
				t.Fatal("diseased verdicts must suggest a remedy")
			}
		}
	}

	// Both outcomes should appear over 500 draws
	if !sawHealthy || !sawDiseased {
		t.Errorf("expected both verdicts over many draws: healthy=%t diseased=%t", sawHealthy, sawDiseased)
	}
}
