package interfaces

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	history "airhealth-cloud/internal/history/domain"
)

const exportDateLayout = "2006-01-02"

var exportHeader = []string{"Date", "AQI", "PM2.5", "Heart Rate", "Systolic BP", "Diastolic BP"}

// BuildHistoryCSV renders merged history rows as CSV. Absent readings
// stay empty cells so a missing sample never reads as zero.
func BuildHistoryCSV(rows []history.MergedRow) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := make([]string, len(exportHeader))
		record[0] = row.Date.Format(exportDateLayout)
		if row.AQI != nil {
			record[1] = strconv.Itoa(row.AQI.AQIValue)
			record[2] = fmt.Sprintf("%.1f", row.AQI.PM25)
		}
		if row.Vitals != nil {
			record[3] = strconv.Itoa(row.Vitals.HeartRate)
			record[4] = strconv.Itoa(row.Vitals.SystolicBP)
			record[5] = strconv.Itoa(row.Vitals.DiastolicBP)
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildHistoryXLSX renders merged history rows as a minimal XLSX.
func BuildHistoryXLSX(userID string, rows []history.MergedRow) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "history"
	f.SetSheetName("Sheet1", sheet)

	_ = f.SetCellValue(sheet, "A1", "Health / Air-Quality History")
	_ = f.SetCellValue(sheet, "A2", "User")
	_ = f.SetCellValue(sheet, "B2", userID)

	for i, col := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 4)
		_ = f.SetCellValue(sheet, cell, col)
	}
	for i, row := range rows {
		line := i + 5
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", line), row.Date.Format(exportDateLayout))
		if row.AQI != nil {
			_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", line), row.AQI.AQIValue)
			_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", line), row.AQI.PM25)
		}
		if row.Vitals != nil {
			_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", line), row.Vitals.HeartRate)
			_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", line), row.Vitals.SystolicBP)
			_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", line), row.Vitals.DiastolicBP)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildHistoryPDF renders merged history rows as a minimal PDF table.
func BuildHistoryPDF(userID string, rows []history.MergedRow) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Health / Air-Quality History")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("User: %s", userID))
	pdf.Ln(8)

	widths := []float64{30, 25, 25, 30, 30, 30}
	pdf.SetFont("Arial", "B", 10)
	for i, col := range exportHeader {
		pdf.CellFormat(widths[i], 6, col, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, row := range rows {
		cells := make([]string, len(exportHeader))
		cells[0] = row.Date.Format(exportDateLayout)
		if row.AQI != nil {
			cells[1] = strconv.Itoa(row.AQI.AQIValue)
			cells[2] = fmt.Sprintf("%.1f", row.AQI.PM25)
		}
		if row.Vitals != nil {
			cells[3] = strconv.Itoa(row.Vitals.HeartRate)
			cells[4] = strconv.Itoa(row.Vitals.SystolicBP)
			cells[5] = strconv.Itoa(row.Vitals.DiastolicBP)
		}
		for i, cell := range cells {
			pdf.CellFormat(widths[i], 6, cell, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
