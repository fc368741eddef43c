package history

import (
	"sort"
	"time"

	"airhealth-cloud/internal/apperr"
	readings "airhealth-cloud/internal/readings/domain"
)

// DateKey is the calendar-date bucket key both series are merged on.
type DateKey string

const dateKeyLayout = "2006-01-02"

// NewDateKey buckets a timestamp to its UTC calendar date.
func NewDateKey(at time.Time) DateKey {
	return DateKey(at.UTC().Format(dateKeyLayout))
}

// Time returns the UTC midnight for the key.
func (k DateKey) Time() time.Time {
	t, _ := time.Parse(dateKeyLayout, string(k))
	return t
}

// String returns the raw key.
func (k DateKey) String() string { return string(k) }

// AQIFields is the air-quality side of a merged row.
type AQIFields struct {
	SampleID string  `json:"sample_id"`
	AQIValue int     `json:"aqi_value"`
	PM25     float64 `json:"pm25"`
	PM10     float64 `json:"pm10"`
	CO       float64 `json:"co"`
	NO2      float64 `json:"no2"`
	O3       float64 `json:"o3"`
}

// VitalsFields is the vitals side of a merged row.
type VitalsFields struct {
	SampleID    string `json:"sample_id"`
	HeartRate   int    `json:"heart_rate"`
	SystolicBP  int    `json:"systolic_bp"`
	DiastolicBP int    `json:"diastolic_bp"`
}

// MergedRow is one calendar date with that date's readings from either
// series. A side missing from a series is nil, never zero: the UI must be
// able to tell "no reading" from a real zero.
type MergedRow struct {
	Date   time.Time     `json:"date"`
	AQI    *AQIFields    `json:"aqi,omitempty"`
	Vitals *VitalsFields `json:"vitals,omitempty"`
}

// Window is a closed date interval. End is inclusive through the end of
// its calendar day.
type Window struct {
	Start time.Time
	End   time.Time
}

// Validate checks the window orientation.
func (w Window) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return apperr.Validation("history: window bounds required")
	}
	if NewDateKey(w.Start).String() > NewDateKey(w.End).String() {
		return apperr.Validation("history: window start after end")
	}
	return nil
}

// Contains reports whether the date key falls inside the window.
func (w Window) Contains(key DateKey) bool {
	start := NewDateKey(w.Start).String()
	end := NewDateKey(w.End).String()
	return string(key) >= start && string(key) <= end
}

// Merge aligns the two independently-sampled series on calendar dates.
// When a date carries several samples of one series only the latest of
// that day surfaces (a documented policy choice, not an accident: the
// alternative of averaging same-day samples would change displayed
// trends). Rows are ascending by date.
func Merge(aqiSeries []readings.AQISample, vitalsSeries []readings.VitalsSample, window Window) ([]MergedRow, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}

	latestAQI := make(map[DateKey]readings.AQISample)
	for _, sample := range aqiSeries {
		key := NewDateKey(sample.CapturedAt)
		if !window.Contains(key) {
			continue
		}
		if existing, ok := latestAQI[key]; !ok || sample.CapturedAt.After(existing.CapturedAt) {
			latestAQI[key] = sample
		}
	}

	latestVitals := make(map[DateKey]readings.VitalsSample)
	for _, sample := range vitalsSeries {
		key := NewDateKey(sample.CapturedAt)
		if !window.Contains(key) {
			continue
		}
		if existing, ok := latestVitals[key]; !ok || sample.CapturedAt.After(existing.CapturedAt) {
			latestVitals[key] = sample
		}
	}

	keys := make(map[DateKey]struct{}, len(latestAQI)+len(latestVitals))
	for key := range latestAQI {
		keys[key] = struct{}{}
	}
	for key := range latestVitals {
		keys[key] = struct{}{}
	}

	ordered := make([]DateKey, 0, len(keys))
	for key := range keys {
		ordered = append(ordered, key)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	rows := make([]MergedRow, 0, len(ordered))
	for _, key := range ordered {
		row := MergedRow{Date: key.Time()}
		if sample, ok := latestAQI[key]; ok {
			row.AQI = &AQIFields{
				SampleID: sample.ID,
				AQIValue: sample.AQIValue,
				PM25:     sample.PM25,
				PM10:     sample.PM10,
				CO:       sample.CO,
				NO2:      sample.NO2,
				O3:       sample.O3,
			}
		}
		if sample, ok := latestVitals[key]; ok {
			row.Vitals = &VitalsFields{
				SampleID:    sample.ID,
				HeartRate:   sample.HeartRate,
				SystolicBP:  sample.SystolicBP,
				DiastolicBP: sample.DiastolicBP,
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// DefaultPageSize is the history page size the UI browses with.
const DefaultPageSize = 10

// Page is one slice of merged rows. Callers detect end-of-data by
// comparing len(Rows) to PageSize.
type Page struct {
	Rows      []MergedRow `json:"rows"`
	PageIndex int         `json:"page"`
	PageSize  int         `json:"page_size"`
	TotalRows int         `json:"total_rows"`
}

// Paginate slices merged rows into a fixed-size page. Page indexes are
// 1-based; a page past the end yields an empty page, not an error.
func Paginate(rows []MergedRow, pageIndex, pageSize int) (Page, error) {
	if pageIndex < 1 {
		return Page{}, apperr.Validation("history: page index must be >= 1")
	}
	if pageSize < 1 {
		return Page{}, apperr.Validation("history: page size must be >= 1")
	}

	page := Page{
		Rows:      []MergedRow{},
		PageIndex: pageIndex,
		PageSize:  pageSize,
		TotalRows: len(rows),
	}
	start := (pageIndex - 1) * pageSize
	if start >= len(rows) {
		return page, nil
	}
	end := start + pageSize
	if end > len(rows) {
		end = len(rows)
	}
	page.Rows = append(page.Rows, rows[start:end]...)
	return page, nil
}

// AQIChartPoint is the trend-plot narrowing of a merged row's AQI side.
type AQIChartPoint struct {
	Date     time.Time `json:"date"`
	AQIValue int       `json:"aqi_value"`
	PM25     float64   `json:"pm25"`
}

// VitalsChartPoint is the trend-plot narrowing of a merged row's vitals side.
type VitalsChartPoint struct {
	Date       time.Time `json:"date"`
	HeartRate  int       `json:"heart_rate"`
	SystolicBP int       `json:"systolic_bp"`
}

// AQIChart projects merged rows for AQI trend plotting. Rows with no AQI
// reading are omitted; the date bucketing is exactly the table's.
func AQIChart(rows []MergedRow) []AQIChartPoint {
	points := make([]AQIChartPoint, 0, len(rows))
	for _, row := range rows {
		if row.AQI == nil {
			continue
		}
		points = append(points, AQIChartPoint{
			Date:     row.Date,
			AQIValue: row.AQI.AQIValue,
			PM25:     row.AQI.PM25,
		})
	}
	return points
}

// VitalsChart projects merged rows for vitals trend plotting.
func VitalsChart(rows []MergedRow) []VitalsChartPoint {
	points := make([]VitalsChartPoint, 0, len(rows))
	for _, row := range rows {
		if row.Vitals == nil {
			continue
		}
		points = append(points, VitalsChartPoint{
			Date:       row.Date,
			HeartRate:  row.Vitals.HeartRate,
			SystolicBP: row.Vitals.SystolicBP,
		})
	}
	return points
}
