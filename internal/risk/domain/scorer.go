package risk

import (
	"math"

	"airhealth-cloud/internal/apperr"
	readings "airhealth-cloud/internal/readings/domain"
)

// Rule-based logistic scorer. All feature weights are non-negative, so
// the score is monotonically non-decreasing in every input: a worse
// reading can never lower the score. The model is fully deterministic;
// any replacement (regression, learned model) must keep both properties.
const (
	scoreBias = -4.0

	weightHeartRate  = 2.2
	weightSystolicBP = 2.6
	weightDiastolic  = 0.6
	weightAQI        = 2.0
	weightPM25       = 1.6
	weightAge        = 1.2
	weightSmoking    = 0.8
	weightConditions = 0.6
)

// Score combines one vitals sample, one AQI sample and demographic
// factors into an Assessment. Pure computation: persistence and
// timestamps are the caller's concern.
func Score(vitals readings.VitalsSample, aqi readings.AQISample, demographics Demographics) (Assessment, error) {
	if err := vitals.Validate(); err != nil {
		return Assessment{}, err
	}
	if err := aqi.Validate(); err != nil {
		return Assessment{}, err
	}
	if demographics.Age < 0 {
		return Assessment{}, apperr.Validation("risk: negative age %d", demographics.Age)
	}

	z := scoreBias
	z += weightHeartRate * float64(vitals.HeartRate-readings.MinHeartRate) / float64(readings.MaxHeartRate-readings.MinHeartRate)
	z += weightSystolicBP * float64(vitals.SystolicBP-readings.MinSystolicBP) / float64(readings.MaxSystolicBP-readings.MinSystolicBP)
	z += weightDiastolic * float64(vitals.DiastolicBP-readings.MinDiastolic) / float64(readings.MaxDiastolic-readings.MinDiastolic)
	z += weightAQI * float64(aqi.AQIValue) / 500.0
	z += weightPM25 * aqi.PM25 / 250.0
	z += weightAge * float64(demographics.Age) / 100.0
	if demographics.Smoking {
		z += weightSmoking
	}
	if demographics.ExistingConditions {
		z += weightConditions
	}

	score := sigmoid(z)

	return Assessment{
		UserID:         vitals.UserID,
		VitalsSampleID: vitals.ID,
		AQISampleID:    aqi.ID,
		HeartRate:      vitals.HeartRate,
		SystolicBP:     vitals.SystolicBP,
		DiastolicBP:    vitals.DiastolicBP,
		AQIValue:       aqi.AQIValue,
		PM25:           aqi.PM25,
		Demographics:   demographics,
		RiskScore:      score,
		RiskLabel:      LabelForScore(score),
	}, nil
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

// DominantVital names the vital sign that contributed most to the score,
// weighted the same way the scorer weighs it. Downstream messaging uses
// this to point at the reading that crossed the threshold.
func (a Assessment) DominantVital() (name string, value int) {
	systolic := weightSystolicBP * float64(a.SystolicBP-readings.MinSystolicBP) / float64(readings.MaxSystolicBP-readings.MinSystolicBP)
	heartRate := weightHeartRate * float64(a.HeartRate-readings.MinHeartRate) / float64(readings.MaxHeartRate-readings.MinHeartRate)
	if systolic >= heartRate {
		return "systolic BP", a.SystolicBP
	}
	return "heart rate", a.HeartRate
}
