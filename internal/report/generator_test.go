package report

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/ecowitt"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/models"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/timerange"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/weather"
)

type scriptedVendor struct {
	mu           sync.Mutex
	info         map[string]any
	infoErr      error
	realtime     map[string]any
	realtimeErr  error
	historyCalls []ecowitt.HistoryParams
	// history responds per call index; when exhausted, the last entry repeats.
	historyData []map[string]any
	historyErr  error
}

func (v *scriptedVendor) Info(ctx context.Context, p ecowitt.InfoParams) (map[string]any, error) {
	return v.info, v.infoErr
}

func (v *scriptedVendor) Realtime(ctx context.Context, p ecowitt.RealtimeParams) (map[string]any, error) {
	return v.realtime, v.realtimeErr
}

func (v *scriptedVendor) History(ctx context.Context, p ecowitt.HistoryParams) (map[string]any, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.historyCalls = append(v.historyCalls, p)
	if v.historyErr != nil {
		return nil, v.historyErr
	}
	idx := len(v.historyCalls) - 1
	if idx >= len(v.historyData) {
		idx = len(v.historyData) - 1
	}
	if idx < 0 {
		return map[string]any{}, nil
	}
	return v.historyData[idx], nil
}

type fixedWeather struct {
	overview *weather.Overview
	err      error
	called   bool
}

func (w *fixedWeather) Fetch(ctx context.Context, lat, lon float64) (*weather.Overview, error) {
	w.called = true
	return w.overview, w.err
}

func testDevice() models.Device {
	return models.Device{
		ID:             "dev-1",
		Name:           "Orchard station",
		MAC:            "AA:BB:CC:DD:EE:FF",
		ApplicationKey: "app",
		APIKey:         "key",
		Type:           models.DeviceOutdoor,
		Status:         "active",
		CreatedAt:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newTestGenerator(v *scriptedVendor, w WeatherSource) *Generator {
	g := NewGenerator(v, w)
	g.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	return g
}

func TestDeviceReportNoHistoricalData(t *testing.T) {
	vendor := &scriptedVendor{
		info:     map[string]any{"model": "WS2910", "latitude": 18.5, "longitude": -69.9},
		realtime: map[string]any{"outdoor": map[string]any{"temperature": map[string]any{"value": "25.0"}}},
		// every attempt, including the sweep, comes back hollow
		historyData: []map[string]any{{}},
	}

	rep, err := newTestGenerator(vendor, nil).Device(context.Background(), testDevice(),
		Options{RangeType: timerange.OneDay})
	if err != nil {
		t.Fatalf("Device: %v", err)
	}

	if rep.HasHistoricalData {
		t.Error("HasHistoricalData = true for hollow responses")
	}
	if rep.History == nil {
		t.Fatal("history section missing; no-data reports still carry the section")
	}
	if len(rep.History.Data) != 0 {
		t.Errorf("expected empty data, got %v", rep.History.Data)
	}
	// 1 original attempt + at most the fixed sweep list
	if n := len(vendor.historyCalls); n != 1+len(sweepCombos) {
		t.Errorf("history attempts = %d, want %d (bounded sweep)", n, 1+len(sweepCombos))
	}
}

func TestDeviceReportSweepAdoptsBestCombo(t *testing.T) {
	rich := map[string]any{
		"outdoor": map[string]any{
			"temperature": map[string]any{"list": map[string]any{"1750000000": "20.1", "1750000300": "20.3"}},
			"humidity":    map[string]any{"list": map[string]any{"1750000000": "60"}},
		},
	}
	poor := map[string]any{
		"indoor": map[string]any{"temperature": map[string]any{"list": map[string]any{"1750000000": "22.0"}}},
	}
	// first call (requested params) empty, then alternating sweep results
	vendor := &scriptedVendor{
		historyData: []map[string]any{{}, poor, rich, {}, poor, {}, poor},
	}

	rep, err := newTestGenerator(vendor, nil).Device(context.Background(), testDevice(),
		Options{RangeType: timerange.OneWeek})
	if err != nil {
		t.Fatalf("Device: %v", err)
	}

	if !rep.HasHistoricalData {
		t.Fatal("sweep found data but HasHistoricalData = false")
	}
	if !rep.History.SweepUsed {
		t.Error("SweepUsed not marked")
	}
	if _, ok := rep.History.Data["outdoor"]; !ok {
		t.Errorf("sweep adopted the wrong combination: %v", rep.History.Data)
	}
}

func TestDeviceReportFirstAttemptSkipsSweep(t *testing.T) {
	data := map[string]any{"outdoor": map[string]any{"temperature": map[string]any{"list": map[string]any{"t": "1"}}}}
	vendor := &scriptedVendor{historyData: []map[string]any{data}}

	rep, err := newTestGenerator(vendor, nil).Device(context.Background(), testDevice(),
		Options{RangeType: timerange.OneHour})
	if err != nil {
		t.Fatalf("Device: %v", err)
	}
	if !rep.HasHistoricalData || rep.History.SweepUsed {
		t.Errorf("direct hit should not sweep: has=%v sweep=%v", rep.HasHistoricalData, rep.History.SweepUsed)
	}
	if len(vendor.historyCalls) != 1 {
		t.Errorf("history attempts = %d, want 1", len(vendor.historyCalls))
	}
}

func TestDeviceReportInvalidRange(t *testing.T) {
	vendor := &scriptedVendor{}
	_, err := newTestGenerator(vendor, nil).Device(context.Background(), testDevice(),
		Options{RangeType: "decade"})
	if err == nil {
		t.Fatal("expected error for unknown range tag")
	}
	if !errors.Is(err, timerange.ErrInvalidRange) {
		t.Errorf("err = %v, want ErrInvalidRange", err)
	}
}

func TestDeviceReportWeatherFailureDegrades(t *testing.T) {
	vendor := &scriptedVendor{
		info:     map[string]any{"latitude": "18.5", "longitude": "-69.9"},
		realtime: map[string]any{},
	}
	ws := &fixedWeather{err: errors.New("forecast api down")}

	rep, err := newTestGenerator(vendor, ws).Device(context.Background(), testDevice(),
		Options{IncludeWeather: true})
	if err != nil {
		t.Fatalf("Device: %v", err)
	}
	if !ws.called {
		t.Fatal("weather source not consulted despite coordinates")
	}
	if rep.Weather != nil {
		t.Error("weather block should be nil on lookup failure")
	}
	if len(rep.Warnings) == 0 {
		t.Error("degraded weather lookup should leave a warning")
	}
}

func TestDeviceReportWeatherSkippedWithoutCoordinates(t *testing.T) {
	vendor := &scriptedVendor{info: map[string]any{"model": "WS2910"}, realtime: map[string]any{}}
	ws := &fixedWeather{overview: &weather.Overview{Description: "clear"}}

	rep, err := newTestGenerator(vendor, ws).Device(context.Background(), testDevice(),
		Options{IncludeWeather: true})
	if err != nil {
		t.Fatalf("Device: %v", err)
	}
	if ws.called {
		t.Error("weather source consulted without coordinates")
	}
	if rep.Weather != nil {
		t.Error("weather block should be nil without coordinates")
	}
}

func TestDeviceReportMergesVendorInfo(t *testing.T) {
	vendor := &scriptedVendor{
		info: map[string]any{
			"model":        "WS2910",
			"stationtype":  "EasyWeatherPro_V5.1.6",
			"date_zone_id": "America/Santo_Domingo",
			"latitude":     18.486,
			"longitude":    -69.931,
		},
		realtime: map[string]any{},
	}

	rep, err := newTestGenerator(vendor, nil).Device(context.Background(), testDevice(), Options{})
	if err != nil {
		t.Fatalf("Device: %v", err)
	}

	d := rep.Device
	if d.Name != "Orchard station" {
		t.Errorf("registry name lost: %q", d.Name)
	}
	if d.Model != "WS2910" || d.StationType != "EasyWeatherPro_V5.1.6" {
		t.Errorf("vendor fields not merged: %+v", d)
	}
	if d.Latitude == nil || *d.Latitude != 18.486 {
		t.Errorf("latitude not merged: %v", d.Latitude)
	}
}

func TestGroupReportSummaryCounts(t *testing.T) {
	vendor := &scriptedVendor{realtime: map[string]any{}, historyData: []map[string]any{}}

	devices := []models.Device{
		testDevice(),
		{ID: "dev-2", Name: "Barn", MAC: "11:22:33:44:55:66", ApplicationKey: "app", APIKey: "key"},
		{ID: "dev-3", Name: "Well", MAC: "22:33:44:55:66:77", ApplicationKey: "app", APIKey: "key"},
	}
	group := models.DeviceGroup{ID: "grp-1", Name: "Farm"}

	rep := newTestGenerator(vendor, nil).Group(context.Background(), group, devices, Options{})
	if rep.Summary.Total != 3 || rep.Summary.Succeeded != 3 || rep.Summary.Failed != 0 {
		t.Errorf("summary = %+v, want 3/3/0", rep.Summary)
	}
	if rep.Summary.SuccessRate != 1.0 {
		t.Errorf("success rate = %v, want 1.0", rep.Summary.SuccessRate)
	}

	bad := newTestGenerator(vendor, nil).Group(context.Background(), group, devices, Options{RangeType: "bogus"})
	if bad.Summary.Failed != 3 || bad.Summary.Succeeded != 0 {
		t.Errorf("summary = %+v, want 0/3 failed", bad.Summary)
	}
	if len(bad.Errors) != 3 {
		t.Errorf("error list = %d entries, want 3", len(bad.Errors))
	}
	if bad.Summary.SuccessRate != 0 {
		t.Errorf("success rate = %v, want 0", bad.Summary.SuccessRate)
	}
}

func TestGroupReportEmpty(t *testing.T) {
	rep := newTestGenerator(&scriptedVendor{}, nil).Group(context.Background(),
		models.DeviceGroup{ID: "grp", Name: "Empty"}, nil, Options{})
	if rep.Summary.Total != 0 || rep.Summary.SuccessRate != 0 {
		t.Errorf("empty group summary = %+v", rep.Summary)
	}
}

func TestCountDataKeys(t *testing.T) {
	cases := []struct {
		data map[string]any
		want int
	}{
		{nil, 0},
		{map[string]any{}, 0},
		{map[string]any{"a": map[string]any{}}, 0},
		{map[string]any{"a": "1"}, 1},
		{map[string]any{"a": map[string]any{"b": "1", "c": "2"}, "d": 3.0}, 3},
	}
	for i, tc := range cases {
		if got := countDataKeys(tc.data); got != tc.want {
			t.Errorf("case %d: countDataKeys = %d, want %d", i, got, tc.want)
		}
	}
}

func TestRenderDevicePDF(t *testing.T) {
	lat, lon := 18.5, -69.9
	rep := &DeviceReport{
		GeneratedAt: "2025-06-15T12:00:00Z",
		Device: Characteristics{
			ID: "dev-1", Name: "Orchard station", MAC: "AA:BB:CC:DD:EE:FF",
			Type: "outdoor", Model: "WS2910", Latitude: &lat, Longitude: &lon,
		},
		Readings: map[string]any{"temperature": "25.0", "humidity": "61"},
		Weather:  &weather.Overview{Description: "scattered clouds", Temperature: 29.5, Humidity: 70},
	}

	data, err := RenderDevicePDF(rep)
	if err != nil {
		t.Fatalf("RenderDevicePDF: %v", err)
	}
	if len(data) == 0 || string(data[:5]) != "%PDF-" {
		t.Errorf("output does not look like a PDF (%d bytes)", len(data))
	}
}
