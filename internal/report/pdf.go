package report

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/go-pdf/fpdf"
)

// RenderDevicePDF renders a device report to PDF bytes.
func RenderDevicePDF(rep *DeviceReport) ([]byte, error) {
	pdf := newDoc("Device report")
	writeDevice(pdf, rep)
	return flush(pdf)
}

// RenderGroupPDF renders a group report, one device per section.
func RenderGroupPDF(rep *GroupReport) ([]byte, error) {
	pdf := newDoc(fmt.Sprintf("Group report: %s", rep.GroupName))

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Devices: %d   succeeded: %d   failed: %d   success rate: %.0f%%",
		rep.Summary.Total, rep.Summary.Succeeded, rep.Summary.Failed, rep.Summary.SuccessRate*100),
		"", 1, "L", false, 0, "")
	pdf.Ln(2)

	for _, dr := range rep.Devices {
		writeDevice(pdf, dr)
		pdf.Ln(4)
	}

	if len(rep.Errors) > 0 {
		heading(pdf, "Failed devices")
		for _, e := range rep.Errors {
			pdf.SetFont("Helvetica", "", 9)
			pdf.MultiCell(0, 5, fmt.Sprintf("%s (%s): %s", e.DeviceName, e.DeviceID, e.Message), "", "L", false)
		}
	}

	return flush(pdf)
}

func newDoc(title string) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
	pdf.Ln(2)
	return pdf
}

func heading(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, text, "", 1, "L", false, 0, "")
}

func row(pdf *fpdf.Fpdf, label, value string) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(45, 5, label, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.MultiCell(0, 5, value, "", "L", false)
}

func writeDevice(pdf *fpdf.Fpdf, rep *DeviceReport) {
	d := rep.Device
	heading(pdf, d.Name)
	row(pdf, "Generated at", rep.GeneratedAt)
	row(pdf, "MAC", d.MAC)
	row(pdf, "Type", d.Type)
	if d.Model != "" {
		row(pdf, "Model", d.Model)
	}
	if d.StationType != "" {
		row(pdf, "Firmware", d.StationType)
	}
	if d.Latitude != nil && d.Longitude != nil {
		row(pdf, "Coordinates", fmt.Sprintf("%.5f, %.5f", *d.Latitude, *d.Longitude))
	}

	if len(rep.Readings) > 0 {
		heading(pdf, "Current readings")
		for _, sensor := range sortedKeys(rep.Readings) {
			row(pdf, sensor, fmt.Sprintf("%v", rep.Readings[sensor]))
		}
	}

	if rep.History != nil {
		heading(pdf, "History")
		row(pdf, "Range", fmt.Sprintf("%s (%s - %s)", rep.History.Description, rep.History.StartDate, rep.History.EndDate))
		row(pdf, "Sampling", rep.History.Cycle)
		if !rep.HasHistoricalData {
			row(pdf, "Data", "no historical data available for this range")
		}
	}

	if rep.Weather != nil {
		heading(pdf, "Weather overview")
		if rep.Weather.Location != "" {
			row(pdf, "Location", rep.Weather.Location)
		}
		row(pdf, "Conditions", rep.Weather.Description)
		row(pdf, "Temperature", fmt.Sprintf("%.1f C (feels like %.1f C)", rep.Weather.Temperature, rep.Weather.FeelsLike))
		row(pdf, "Humidity", fmt.Sprintf("%d%%", rep.Weather.Humidity))
		row(pdf, "Wind", fmt.Sprintf("%.1f m/s", rep.Weather.WindSpeed))
	}

	for _, w := range rep.Warnings {
		pdf.SetFont("Helvetica", "I", 8)
		pdf.MultiCell(0, 4, "note: "+w, "", "L", false)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func flush(pdf *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
