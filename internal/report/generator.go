// Package report assembles device and group reports: registry + vendor
// characteristics, a live snapshot, an optional historical series, and an
// optional weather overview. Partial failure nulls the affected section
// instead of failing the report.
package report

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/aggregate"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/ecowitt"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/models"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/timerange"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/weather"
)

// WeatherSource resolves coordinates to a forecast overview.
type WeatherSource interface {
	Fetch(ctx context.Context, lat, lon float64) (*weather.Overview, error)
}

// Characteristics merges the internal registry row with the vendor's
// info endpoint. Registry values fill in wherever the vendor field is
// absent.
type Characteristics struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	MAC         string   `json:"mac"`
	Type        string   `json:"type"`
	Status      string   `json:"status"`
	Model       string   `json:"model,omitempty"`
	StationType string   `json:"station_type,omitempty"`
	Timezone    string   `json:"timezone,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	CreatedAt   string   `json:"created_at"`
}

// HistorySection carries the adopted series plus how it was obtained.
type HistorySection struct {
	RangeType   string         `json:"range_type"`
	Description string         `json:"description"`
	StartDate   string         `json:"start_date"`
	EndDate     string         `json:"end_date"`
	Cycle       string         `json:"cycle"`
	Data        map[string]any `json:"data"`
	SweepUsed   bool           `json:"sweep_used"`
}

// DeviceReport is the full document for one device.
type DeviceReport struct {
	GeneratedAt       string           `json:"generated_at"`
	Device            Characteristics  `json:"device"`
	Realtime          map[string]any   `json:"realtime,omitempty"`
	Readings          map[string]any   `json:"readings,omitempty"`
	HasHistoricalData bool             `json:"hasHistoricalData"`
	History           *HistorySection  `json:"history,omitempty"`
	Weather           *weather.Overview `json:"weather,omitempty"`
	Warnings          []string         `json:"warnings,omitempty"`
}

// GroupMemberError records one failed member of a group report.
type GroupMemberError struct {
	DeviceID   string `json:"device_id"`
	DeviceName string `json:"device_name"`
	Message    string `json:"message"`
}

// GroupSummary reports per-member success counts for a group report.
type GroupSummary struct {
	Total       int     `json:"total"`
	Succeeded   int     `json:"succeeded"`
	Failed      int     `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
}

// GroupReport is the full document for a device group.
type GroupReport struct {
	GroupID     string             `json:"group_id"`
	GroupName   string             `json:"group_name"`
	GeneratedAt string             `json:"generated_at"`
	Devices     []*DeviceReport    `json:"devices"`
	Errors      []GroupMemberError `json:"errors,omitempty"`
	Summary     GroupSummary       `json:"summary"`
}

// Options selects what the report includes.
type Options struct {
	RangeType      timerange.RangeType // empty means no history section
	IncludeWeather bool
}

type Generator struct {
	vendor  aggregate.Vendor
	weather WeatherSource
	now     func() time.Time
}

func NewGenerator(vendor aggregate.Vendor, ws WeatherSource) *Generator {
	return &Generator{vendor: vendor, weather: ws, now: time.Now}
}

// Device builds the report for a single device. Only a realtime failure
// is fatal enough to warn about; every optional section degrades to nil.
func (g *Generator) Device(ctx context.Context, device models.Device, opts Options) (*DeviceReport, error) {
	now := g.now().UTC()
	rep := &DeviceReport{
		GeneratedAt: now.Format(time.RFC3339),
		Device:      registryCharacteristics(device),
	}

	info, err := g.vendor.Info(ctx, ecowitt.InfoParams{
		ApplicationKey: device.ApplicationKey,
		APIKey:         device.APIKey,
		MAC:            device.MAC,
	})
	if err != nil {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("device info unavailable: %v", err))
	} else {
		mergeVendorInfo(&rep.Device, info)
	}

	realtime, err := g.vendor.Realtime(ctx, ecowitt.RealtimeParams{
		ApplicationKey: device.ApplicationKey,
		APIKey:         device.APIKey,
		MAC:            device.MAC,
		CallBack:       "all",
	})
	if err != nil {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("realtime snapshot unavailable: %v", err))
	} else {
		rep.Realtime = realtime
		rep.Readings = aggregate.Normalize(realtime)
	}

	if opts.RangeType != "" {
		window, err := timerange.Resolve(opts.RangeType, now)
		if err != nil {
			return nil, err
		}
		rep.History, rep.HasHistoricalData = g.history(ctx, device, opts.RangeType, window)
		if rep.History != nil && !rep.HasHistoricalData {
			rep.Warnings = append(rep.Warnings, "no historical data for the requested range")
		}
	}

	if opts.IncludeWeather && g.weather != nil {
		if lat, lon, ok := coordinates(rep.Device); ok {
			overview, err := g.weather.Fetch(ctx, lat, lon)
			if err != nil {
				rep.Warnings = append(rep.Warnings, fmt.Sprintf("weather overview unavailable: %v", err))
			} else {
				rep.Weather = overview
			}
		} else {
			rep.Warnings = append(rep.Warnings, "weather overview skipped: device reports no coordinates")
		}
	}

	return rep, nil
}

// Group repeats per-device generation over every member. A member
// failure lands in the error list; the remaining devices still run.
func (g *Generator) Group(ctx context.Context, group models.DeviceGroup, devices []models.Device, opts Options) *GroupReport {
	rep := &GroupReport{
		GroupID:     group.ID,
		GroupName:   group.Name,
		GeneratedAt: g.now().UTC().Format(time.RFC3339),
	}

	for _, device := range devices {
		dr, err := g.Device(ctx, device, opts)
		if err != nil {
			rep.Errors = append(rep.Errors, GroupMemberError{
				DeviceID:   device.ID,
				DeviceName: device.Name,
				Message:    err.Error(),
			})
			continue
		}
		rep.Devices = append(rep.Devices, dr)
	}

	rep.Summary = GroupSummary{
		Total:     len(devices),
		Succeeded: len(rep.Devices),
		Failed:    len(rep.Errors),
	}
	if rep.Summary.Total > 0 {
		rep.Summary.SuccessRate = float64(rep.Summary.Succeeded) / float64(rep.Summary.Total)
	}
	return rep
}

func registryCharacteristics(device models.Device) Characteristics {
	return Characteristics{
		ID:        device.ID,
		Name:      device.Name,
		MAC:       device.MAC,
		Type:      string(device.Type),
		Status:    device.Status,
		CreatedAt: device.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// mergeVendorInfo fills the vendor-only fields and overrides overlapping
// ones only when the vendor actually reports them.
func mergeVendorInfo(c *Characteristics, info map[string]any) {
	if v := stringField(info, "name"); v != "" && c.Name == "" {
		c.Name = v
	}
	if v := stringField(info, "model"); v != "" {
		c.Model = v
	}
	if v := stringField(info, "stationtype"); v != "" {
		c.StationType = v
	}
	if v := stringField(info, "date_zone_id"); v != "" {
		c.Timezone = v
	}
	if lat, ok := floatField(info, "latitude"); ok {
		c.Latitude = &lat
	}
	if lon, ok := floatField(info, "longitude"); ok {
		c.Longitude = &lon
	}
}

func coordinates(c Characteristics) (float64, float64, bool) {
	if c.Latitude == nil || c.Longitude == nil {
		return 0, 0, false
	}
	return *c.Latitude, *c.Longitude, true
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// floatField accepts both JSON numbers and the vendor's stringified
// numbers.
func floatField(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
