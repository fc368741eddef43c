package risk

import (
	"testing"
	"time"

	"airhealth-cloud/internal/apperr"
	readings "airhealth-cloud/internal/readings/domain"
)

func baseVitals() readings.VitalsSample {
	return readings.VitalsSample{
		ID:         "v-1",
		UserID:     "user-1",
		HeartRate:  72,
		SystolicBP: 118,
		DiastolicBP: 76,
		CapturedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func baseAQI() readings.AQISample {
	return readings.AQISample{
		ID:         "aqi-1",
		City:       "Chennai",
		AQIValue:   40,
		PM25:       10,
		CapturedAt: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestScore_BoundsAndLabelDerivation(t *testing.T) {
	cases := []struct {
		name string
		hr   int
		sys  int
		aqi  int
		pm25 float64
		demo Demographics
	}{
		{"mild", 72, 118, 40, 10, Demographics{Age: 30}},
		{"elevated", 95, 135, 120, 55, Demographics{Age: 45, Smoking: true}},
		{"severe", 130, 155, 180, 90, Demographics{Age: 55, Smoking: true}},
		{"extreme", 200, 250, 500, 250, Demographics{Age: 100, Smoking: true, ExistingConditions: true}},
	}
	for _, tc := range cases {
		vitals := baseVitals()
		vitals.HeartRate = tc.hr
		vitals.SystolicBP = tc.sys
		aqi := baseAQI()
		aqi.AQIValue = tc.aqi
		aqi.PM25 = tc.pm25

		assessment, err := Score(vitals, aqi, tc.demo)
		if err != nil {
			t.Fatalf("%s: score: %v", tc.name, err)
		}
		if assessment.RiskScore < 0 || assessment.RiskScore > 1 {
			t.Fatalf("%s: score %f outside [0,1]", tc.name, assessment.RiskScore)
		}
		if assessment.RiskLabel != LabelForScore(assessment.RiskScore) {
			t.Fatalf("%s: label %s not derived from score %f", tc.name, assessment.RiskLabel, assessment.RiskScore)
		}
	}
}

func TestLabelForScore_Thresholds(t *testing.T) {
	cases := []struct {
		score float64
		want  Label
	}{
		{0.0, LabelLow},
		{0.39, LabelLow},
		{0.4, LabelModerate},
		{0.69, LabelModerate},
		{0.7, LabelHigh},
		{1.0, LabelHigh},
	}
	for _, tc := range cases {
		if got := LabelForScore(tc.score); got != tc.want {
			t.Fatalf("score %f: expected %s, got %s", tc.score, tc.want, got)
		}
	}
}

func TestScore_Monotonicity(t *testing.T) {
	demo := Demographics{Age: 45}
	baseline, err := Score(baseVitals(), baseAQI(), demo)
	if err != nil {
		t.Fatalf("baseline score: %v", err)
	}

	bumps := []struct {
		name  string
		apply func(*readings.VitalsSample, *readings.AQISample, *Demographics)
	}{
		{"systolic_bp", func(v *readings.VitalsSample, _ *readings.AQISample, _ *Demographics) { v.SystolicBP += 30 }},
		{"heart_rate", func(v *readings.VitalsSample, _ *readings.AQISample, _ *Demographics) { v.HeartRate += 30 }},
		{"aqi_value", func(_ *readings.VitalsSample, a *readings.AQISample, _ *Demographics) { a.AQIValue += 100 }},
		{"pm25", func(_ *readings.VitalsSample, a *readings.AQISample, _ *Demographics) { a.PM25 += 50 }},
		{"age", func(_ *readings.VitalsSample, _ *readings.AQISample, d *Demographics) { d.Age += 20 }},
		{"smoking", func(_ *readings.VitalsSample, _ *readings.AQISample, d *Demographics) { d.Smoking = true }},
	}
	for _, bump := range bumps {
		vitals := baseVitals()
		aqi := baseAQI()
		d := demo
		bump.apply(&vitals, &aqi, &d)
		worse, err := Score(vitals, aqi, d)
		if err != nil {
			t.Fatalf("%s: score: %v", bump.name, err)
		}
		if worse.RiskScore < baseline.RiskScore {
			t.Fatalf("%s: increasing input lowered score: %f -> %f", bump.name, baseline.RiskScore, worse.RiskScore)
		}
	}
}

func TestScore_Deterministic(t *testing.T) {
	demo := Demographics{Age: 55, Smoking: true}
	first, err := Score(baseVitals(), baseAQI(), demo)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	second, err := Score(baseVitals(), baseAQI(), demo)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if first.RiskScore != second.RiskScore || first.RiskLabel != second.RiskLabel {
		t.Fatalf("same inputs produced different outputs: %f/%s vs %f/%s",
			first.RiskScore, first.RiskLabel, second.RiskScore, second.RiskLabel)
	}
}

func TestScore_HighRiskScenario(t *testing.T) {
	vitals := baseVitals()
	vitals.HeartRate = 130
	vitals.SystolicBP = 155
	vitals.DiastolicBP = 95
	aqi := baseAQI()
	aqi.AQIValue = 180
	aqi.PM25 = 90

	assessment, err := Score(vitals, aqi, Demographics{Age: 55, Smoking: true})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if assessment.RiskLabel != LabelHigh {
		t.Fatalf("expected High, got %s (score %f)", assessment.RiskLabel, assessment.RiskScore)
	}
}

func TestScore_MildScenarioIsLow(t *testing.T) {
	assessment, err := Score(baseVitals(), baseAQI(), Demographics{Age: 30})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if assessment.RiskLabel != LabelLow {
		t.Fatalf("expected Low, got %s (score %f)", assessment.RiskLabel, assessment.RiskScore)
	}
}

func TestScore_OutOfRangeRejected(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*readings.VitalsSample)
	}{
		{"heart rate low", func(v *readings.VitalsSample) { v.HeartRate = 20 }},
		{"heart rate high", func(v *readings.VitalsSample) { v.HeartRate = 250 }},
		{"systolic low", func(v *readings.VitalsSample) { v.SystolicBP = 50 }},
		{"systolic high", func(v *readings.VitalsSample) { v.SystolicBP = 300 }},
		{"diastolic low", func(v *readings.VitalsSample) { v.DiastolicBP = 30 }},
		{"diastolic high", func(v *readings.VitalsSample) { v.DiastolicBP = 180 }},
	}
	for _, tc := range cases {
		vitals := baseVitals()
		tc.mutate(&vitals)
		_, err := Score(vitals, baseAQI(), Demographics{Age: 40})
		if !apperr.IsValidation(err) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestScore_NegativeAgeRejected(t *testing.T) {
	_, err := Score(baseVitals(), baseAQI(), Demographics{Age: -1})
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
