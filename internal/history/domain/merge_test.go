package history

import (
	"testing"
	"time"

	"airhealth-cloud/internal/apperr"
	readings "airhealth-cloud/internal/readings/domain"
)

func day(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func aqiSample(id string, at time.Time, aqi int, pm25 float64) readings.AQISample {
	return readings.AQISample{ID: id, City: "Chennai", AQIValue: aqi, PM25: pm25, CapturedAt: at}
}

func vitalsSample(id string, at time.Time, hr, sys, dia int) readings.VitalsSample {
	return readings.VitalsSample{ID: id, UserID: "user-1", HeartRate: hr, SystolicBP: sys, DiastolicBP: dia, CapturedAt: at}
}

func TestMerge_IndependentSeriesAlignOnDates(t *testing.T) {
	aqi := []readings.AQISample{
		aqiSample("a-1", day(2024, 1, 1, 9), 120, 55),
		aqiSample("a-2", day(2024, 1, 3, 9), 160, 80),
	}
	vitals := []readings.VitalsSample{
		vitalsSample("v-1", day(2024, 1, 2, 18), 88, 130, 84),
	}
	window := Window{Start: day(2024, 1, 1, 0), End: day(2024, 1, 3, 0)}

	rows, err := Merge(aqi, vitals, window)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	if rows[0].AQI == nil || rows[0].Vitals != nil {
		t.Fatalf("2024-01-01 should carry AQI only, got %+v", rows[0])
	}
	if rows[1].AQI != nil || rows[1].Vitals == nil {
		t.Fatalf("2024-01-02 should carry vitals only, got %+v", rows[1])
	}
	if rows[2].AQI == nil || rows[2].Vitals != nil {
		t.Fatalf("2024-01-03 should carry AQI only, got %+v", rows[2])
	}
	for i := 1; i < len(rows); i++ {
		if !rows[i-1].Date.Before(rows[i].Date) {
			t.Fatalf("rows not ascending by date")
		}
	}
}

func TestMerge_LatestOfDayWins(t *testing.T) {
	vitals := []readings.VitalsSample{
		vitalsSample("v-morning", day(2024, 1, 2, 8), 70, 115, 75),
		vitalsSample("v-evening", day(2024, 1, 2, 20), 95, 140, 90),
		vitalsSample("v-noon", day(2024, 1, 2, 12), 80, 125, 80),
	}
	window := Window{Start: day(2024, 1, 1, 0), End: day(2024, 1, 3, 0)}

	rows, err := Merge(nil, vitals, window)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Vitals.SampleID != "v-evening" {
		t.Fatalf("expected latest sample of the day, got %s", rows[0].Vitals.SampleID)
	}
}

func TestMerge_EndBoundInclusiveThroughDay(t *testing.T) {
	aqi := []readings.AQISample{
		aqiSample("a-1", day(2024, 1, 3, 23), 150, 70),
	}
	// End bound given as midnight of Jan 3 must still include the
	// 23:00 sample of that day.
	window := Window{Start: day(2024, 1, 1, 0), End: day(2024, 1, 3, 0)}

	rows, err := Merge(aqi, nil, window)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(rows) != 1 || rows[0].AQI == nil {
		t.Fatalf("expected end-of-day sample included, got %d rows", len(rows))
	}
}

func TestMerge_OutsideWindowExcluded(t *testing.T) {
	aqi := []readings.AQISample{
		aqiSample("a-early", day(2023, 12, 31, 9), 90, 30),
		aqiSample("a-in", day(2024, 1, 2, 9), 120, 55),
		aqiSample("a-late", day(2024, 1, 4, 9), 200, 100),
	}
	window := Window{Start: day(2024, 1, 1, 0), End: day(2024, 1, 3, 0)}

	rows, err := Merge(aqi, nil, window)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(rows) != 1 || rows[0].AQI.SampleID != "a-in" {
		t.Fatalf("expected only in-window sample, got %+v", rows)
	}
}

func TestMerge_InvertedWindowRejected(t *testing.T) {
	window := Window{Start: day(2024, 1, 3, 0), End: day(2024, 1, 1, 0)}
	_, err := Merge(nil, nil, window)
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPaginate_FixedPages(t *testing.T) {
	rows := make([]MergedRow, 15)
	for i := range rows {
		rows[i] = MergedRow{Date: day(2024, 1, 1, 0).AddDate(0, 0, i)}
	}

	page1, err := Paginate(rows, 1, 10)
	if err != nil {
		t.Fatalf("paginate: %v", err)
	}
	if len(page1.Rows) != 10 {
		t.Fatalf("expected 10 rows on page 1, got %d", len(page1.Rows))
	}

	page2, err := Paginate(rows, 2, 10)
	if err != nil {
		t.Fatalf("paginate: %v", err)
	}
	if len(page2.Rows) != 5 {
		t.Fatalf("expected 5 rows on page 2, got %d", len(page2.Rows))
	}

	page3, err := Paginate(rows, 3, 10)
	if err != nil {
		t.Fatalf("paginate: %v", err)
	}
	if len(page3.Rows) != 0 {
		t.Fatalf("expected empty page 3, got %d rows", len(page3.Rows))
	}
	if page3.TotalRows != 15 {
		t.Fatalf("expected total 15, got %d", page3.TotalRows)
	}
}

func TestPaginate_InvalidIndexRejected(t *testing.T) {
	if _, err := Paginate(nil, 0, 10); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for page 0, got %v", err)
	}
	if _, err := Paginate(nil, 1, 0); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for size 0, got %v", err)
	}
}

func TestChartProjections_ShareBucketing(t *testing.T) {
	aqi := []readings.AQISample{
		aqiSample("a-1", day(2024, 1, 1, 9), 120, 55),
		aqiSample("a-2", day(2024, 1, 1, 21), 140, 65),
		aqiSample("a-3", day(2024, 1, 3, 9), 160, 80),
	}
	vitals := []readings.VitalsSample{
		vitalsSample("v-1", day(2024, 1, 2, 18), 88, 130, 84),
	}
	window := Window{Start: day(2024, 1, 1, 0), End: day(2024, 1, 3, 0)}

	rows, err := Merge(aqi, vitals, window)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	aqiPoints := AQIChart(rows)
	if len(aqiPoints) != 2 {
		t.Fatalf("expected 2 aqi points, got %d", len(aqiPoints))
	}
	// Same latest-of-day rule as the table view.
	if aqiPoints[0].AQIValue != 140 {
		t.Fatalf("expected latest-of-day aqi 140, got %d", aqiPoints[0].AQIValue)
	}

	vitalsPoints := VitalsChart(rows)
	if len(vitalsPoints) != 1 {
		t.Fatalf("expected 1 vitals point, got %d", len(vitalsPoints))
	}
	if vitalsPoints[0].HeartRate != 88 || vitalsPoints[0].SystolicBP != 130 {
		t.Fatalf("unexpected vitals point %+v", vitalsPoints[0])
	}
}
