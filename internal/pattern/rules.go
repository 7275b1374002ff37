package pattern

// BuiltinRules returns the four standard rules parameterized by th, in
// evaluation order.
func BuiltinRules(th Thresholds) []Rule {
	return []Rule{
		StressRule(th),
		FlowRule(th),
		FatigueRule(th),
		CreativeRule(th),
	}
}

// StressRule fires on elevated heart rate combined with suppressed HRV.
func StressRule(th Thresholds) Rule {
	return Rule{
		Type:        StressDetected,
		Confidence:  th.StressConfidence,
		Description: "Elevated stress indicators detected",
		Match: func(in Input) bool {
			b := in.Snapshot.Biometrics
			return float64(b.HeartRate) > th.StressHeartRate && b.HeartRateVariability < th.StressHRV
		},
	}
}

// FlowRule fires on high focus with low stress.
func FlowRule(th Thresholds) Rule {
	return Rule{
		Type:        FlowState,
		Confidence:  th.FlowConfidence,
		Description: "Deep focus state achieved",
		Match: func(in Input) bool {
			return in.Snapshot.Digital.FocusScore > th.FlowFocus && in.Snapshot.Emotional.Stress < th.FlowStress
		},
	}
}

// FatigueRule fires on low energy after long screen time.
func FatigueRule(th Thresholds) Rule {
	return Rule{
		Type:        Fatigue,
		Confidence:  th.FatigueConfidence,
		Description: "Energy depletion detected",
		Match: func(in Input) bool {
			return in.Snapshot.Emotional.Energy < th.FatigueEnergy && in.Snapshot.Digital.ScreenTime > th.FatigueScreenTime
		},
	}
}

// CreativeRule fires on strong alpha inside the morning creative window.
// Both window bounds are inclusive.
func CreativeRule(th Thresholds) Rule {
	return Rule{
		Type:        CreativePeak,
		Confidence:  th.CreativeConfidence,
		Description: "Optimal creative window active",
		Match: func(in Input) bool {
			inWindow := in.Hour >= th.CreativeStartHour && in.Hour <= th.CreativeEndHour
			return inWindow && in.Snapshot.Biometrics.BrainWaves.Alpha > th.CreativeAlpha
		},
	}
}
