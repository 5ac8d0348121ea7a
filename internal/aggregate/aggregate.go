// Package aggregate fans vendor calls out across the devices of a group
// and merges the per-device results. One device failing never aborts the
// batch: every requested device gets exactly one result entry, holding
// either a payload or an error marker.
package aggregate

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/ecowitt"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/models"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/timerange"
)

// Vendor is the slice of the EcoWitt client the aggregator needs.
type Vendor interface {
	Realtime(ctx context.Context, p ecowitt.RealtimeParams) (map[string]any, error)
	History(ctx context.Context, p ecowitt.HistoryParams) (map[string]any, error)
	Info(ctx context.Context, p ecowitt.InfoParams) (map[string]any, error)
}

// DeviceResult is one device's slot in an aggregate response. The vendor
// only understands MAC addresses; results are re-keyed by the internal
// device id before they leave this package.
type DeviceResult struct {
	DeviceID   string         `json:"device_id"`
	DeviceName string         `json:"device_name"`
	MAC        string         `json:"mac"`
	Data       map[string]any `json:"data,omitempty"`
	Error      string         `json:"error,omitempty"`
}

type Aggregator struct {
	vendor Vendor
}

func New(vendor Vendor) *Aggregator {
	return &Aggregator{vendor: vendor}
}

// Realtime fetches the current snapshot for every device concurrently.
func (a *Aggregator) Realtime(ctx context.Context, devices []models.Device) map[string]DeviceResult {
	return a.fanOut(ctx, devices, func(ctx context.Context, d models.Device) (map[string]any, error) {
		return a.vendor.Realtime(ctx, ecowitt.RealtimeParams{
			ApplicationKey: d.ApplicationKey,
			APIKey:         d.APIKey,
			MAC:            d.MAC,
			CallBack:       "all",
		})
	})
}

// History fetches the series for every device concurrently, using the
// window's suggested sampling cycle.
func (a *Aggregator) History(ctx context.Context, devices []models.Device, w timerange.Window) map[string]DeviceResult {
	return a.fanOut(ctx, devices, func(ctx context.Context, d models.Device) (map[string]any, error) {
		return a.vendor.History(ctx, ecowitt.HistoryParams{
			ApplicationKey: d.ApplicationKey,
			APIKey:         d.APIKey,
			MAC:            d.MAC,
			StartDate:      w.Start,
			EndDate:        w.End,
			CallBack:       "all",
			CycleType:      string(w.Cycle),
		})
	})
}

// fanOut runs one goroutine per device. Failures are captured in the
// device's own slot instead of being returned, so a slow or broken
// station cannot cancel its siblings. The merge is order-independent:
// results are keyed by device id.
func (a *Aggregator) fanOut(ctx context.Context, devices []models.Device,
	call func(context.Context, models.Device) (map[string]any, error)) map[string]DeviceResult {

	results := make([]DeviceResult, len(devices))

	var g errgroup.Group
	for i, d := range devices {
		i, d := i, d
		g.Go(func() error {
			res := DeviceResult{DeviceID: d.ID, DeviceName: d.Name, MAC: d.MAC}
			data, err := call(ctx, d)
			if err != nil {
				res.Error = err.Error()
			} else {
				res.Data = data
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]DeviceResult, len(results))
	for _, res := range results {
		out[res.DeviceID] = res
	}
	return out
}
