package report

import (
	"context"

	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/ecowitt"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/logs"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/models"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/timerange"
)

// sweepCombo is one alternative parameter combination for the diagnostic
// sweep. The list is fixed: the sweep never grows beyond it and never
// repeats.
type sweepCombo struct {
	callBack string
	cycle    string
	tempUnit int
}

var sweepCombos = []sweepCombo{
	{callBack: "all", cycle: "auto"},
	{callBack: "outdoor", cycle: "5min"},
	{callBack: "outdoor,indoor", cycle: "30min"},
	{callBack: "all", cycle: "4hour", tempUnit: 1},
	{callBack: "indoor", cycle: "auto", tempUnit: 2},
	{callBack: "all", cycle: "1day"},
}

// history runs the caller's requested history query and, when it comes
// back empty, the bounded diagnostic sweep. Whatever combination yields
// the most distinct data keys is adopted. If nothing yields data the
// section is returned with an explicit no-data marker instead of failing.
func (g *Generator) history(ctx context.Context, device models.Device, tag timerange.RangeType, window timerange.Window) (*HistorySection, bool) {
	section := &HistorySection{
		RangeType:   string(tag),
		Description: window.Description,
		StartDate:   window.Start.UTC().Format("2006-01-02 15:04:05"),
		EndDate:     window.End.UTC().Format("2006-01-02 15:04:05"),
		Cycle:       string(window.Cycle),
	}

	base := ecowitt.HistoryParams{
		ApplicationKey: device.ApplicationKey,
		APIKey:         device.APIKey,
		MAC:            device.MAC,
		StartDate:      window.Start,
		EndDate:        window.End,
		CallBack:       "all",
		CycleType:      string(window.Cycle),
	}

	data, err := g.vendor.History(ctx, base)
	if err == nil && countDataKeys(data) > 0 {
		section.Data = data
		return section, true
	}
	if err != nil {
		logs.Logger.WithField("device", device.ID).Warnf("history query failed, starting diagnostic sweep: %v", err)
	}

	best, bestCombo, bestKeys := g.sweep(ctx, base, device.ID)
	if bestKeys == 0 {
		section.Data = map[string]any{}
		return section, false
	}

	section.Data = best
	section.Cycle = bestCombo.cycle
	section.SweepUsed = true
	return section, true
}

// sweep retries the history query under each alternative combination and
// keeps the one with the most distinct data keys. Capped at the fixed
// combo list; never retried beyond that.
func (g *Generator) sweep(ctx context.Context, base ecowitt.HistoryParams, deviceID string) (map[string]any, sweepCombo, int) {
	var (
		best      map[string]any
		bestCombo sweepCombo
		bestKeys  int
	)

	for _, combo := range sweepCombos {
		p := base
		p.CallBack = combo.callBack
		p.CycleType = combo.cycle
		p.TempUnit = combo.tempUnit

		data, err := g.vendor.History(ctx, p)
		if err != nil {
			continue
		}
		if n := countDataKeys(data); n > bestKeys {
			best, bestCombo, bestKeys = data, combo, n
		}
	}

	if bestKeys > 0 {
		logs.Logger.WithField("device", deviceID).
			Infof("diagnostic sweep adopted call_back=%s cycle=%s (%d keys)", bestCombo.callBack, bestCombo.cycle, bestKeys)
	}
	return best, bestCombo, bestKeys
}

// countDataKeys counts leaf values in a nested vendor payload. Empty
// maps count as nothing, so an envelope of hollow sections still reads
// as "no data".
func countDataKeys(data map[string]any) int {
	n := 0
	for _, v := range data {
		if m, ok := v.(map[string]any); ok {
			n += countDataKeys(m)
			continue
		}
		n++
	}
	return n
}
