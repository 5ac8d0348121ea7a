// Package ecowitt wraps the vendor's realtime/history/info endpoints with
// parameter validation. Calls are plain GETs; vendor errors propagate to
// the caller, there is no retry policy here.
package ecowitt

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

const vendorTimeLayout = "2006-01-02 15:04:05"

// envelope is the vendor's response wrapper. code 0 means success.
type envelope struct {
	Code int            `json:"code"`
	Msg  string         `json:"msg"`
	Time string         `json:"time"`
	Data map[string]any `json:"data"`
}

type Client struct {
	http *resty.Client
}

func NewClient(baseURL string) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetHeader("Accept", "application/json")
	return &Client{http: c}
}

// Realtime fetches the current sensor snapshot for one device.
func (c *Client) Realtime(ctx context.Context, p RealtimeParams) (map[string]any, error) {
	if problems := p.Validate(); len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	query := identityQuery(p.ApplicationKey, p.APIKey, p.MAC, p.IMEI)
	if p.CallBack != "" {
		query["call_back"] = p.CallBack
	}
	addUnits(query, p.TempUnit, p.PressureUnit, p.WindUnit, p.RainUnit)

	return c.get(ctx, "/api/v3/device/real_time", query)
}

// History fetches a time-bounded series of past readings.
func (c *Client) History(ctx context.Context, p HistoryParams) (map[string]any, error) {
	if problems := p.Validate(); len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	query := identityQuery(p.ApplicationKey, p.APIKey, p.MAC, p.IMEI)
	query["start_date"] = p.StartDate.UTC().Format(vendorTimeLayout)
	query["end_date"] = p.EndDate.UTC().Format(vendorTimeLayout)
	if p.CallBack != "" {
		query["call_back"] = p.CallBack
	}
	if p.CycleType != "" {
		query["cycle_type"] = p.CycleType
	}
	addUnits(query, p.TempUnit, p.PressureUnit, p.WindUnit, p.RainUnit)

	return c.get(ctx, "/api/v3/device/history", query)
}

// Info fetches device characteristics (model, firmware, coordinates).
func (c *Client) Info(ctx context.Context, p InfoParams) (map[string]any, error) {
	if problems := p.Validate(); len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	query := identityQuery(p.ApplicationKey, p.APIKey, p.MAC, p.IMEI)
	if p.TempUnit != 0 {
		query["temp_unitid"] = strconv.Itoa(p.TempUnit)
	}

	return c.get(ctx, "/api/v3/device/info", query)
}

func (c *Client) get(ctx context.Context, path string, query map[string]string) (map[string]any, error) {
	var env envelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetResult(&env).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("ecowitt %s: %w", path, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("ecowitt %s: http %d", path, resp.StatusCode())
	}
	if env.Code != 0 {
		return nil, fmt.Errorf("ecowitt %s: vendor error %d: %s", path, env.Code, env.Msg)
	}
	return env.Data, nil
}

func identityQuery(appKey, apiKey, mac, imei string) map[string]string {
	query := map[string]string{
		"application_key": appKey,
		"api_key":         apiKey,
	}
	if mac != "" {
		query["mac"] = mac
	}
	if imei != "" {
		query["imei"] = imei
	}
	return query
}

func addUnits(query map[string]string, temp, pressure, wind, rain int) {
	if temp != 0 {
		query["temp_unitid"] = strconv.Itoa(temp)
	}
	if pressure != 0 {
		query["pressure_unitid"] = strconv.Itoa(pressure)
	}
	if wind != 0 {
		query["wind_speed_unitid"] = strconv.Itoa(wind)
	}
	if rain != 0 {
		query["rainfall_unitid"] = strconv.Itoa(rain)
	}
}
