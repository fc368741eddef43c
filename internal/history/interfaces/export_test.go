package interfaces

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	history "airhealth-cloud/internal/history/domain"
)

func sampleRows() []history.MergedRow {
	return []history.MergedRow{
		{
			Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			AQI:  &history.AQIFields{SampleID: "a-1", AQIValue: 120, PM25: 55},
		},
		{
			Date:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			Vitals: &history.VitalsFields{SampleID: "v-1", HeartRate: 88, SystolicBP: 130, DiastolicBP: 84},
		},
	}
}

func TestBuildHistoryCSV(t *testing.T) {
	data, err := BuildHistoryCSV(sampleRows())
	if err != nil {
		t.Fatalf("build csv: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d records", len(records))
	}
	if records[1][1] != "120" || records[1][3] != "" {
		t.Fatalf("aqi-only row rendered wrong: %v", records[1])
	}
	if records[2][1] != "" || records[2][3] != "88" {
		t.Fatalf("vitals-only row rendered wrong: %v", records[2])
	}
}

func TestBuildHistoryXLSX(t *testing.T) {
	data, err := BuildHistoryXLSX("user-1", sampleRows())
	if err != nil {
		t.Fatalf("build xlsx: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty xlsx output")
	}
}

func TestBuildHistoryPDF(t *testing.T) {
	data, err := BuildHistoryPDF("user-1", sampleRows())
	if err != nil {
		t.Fatalf("build pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatal("output is not a pdf")
	}
}
