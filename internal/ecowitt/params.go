package ecowitt

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// macPattern is the standard colon/hyphen-delimited hex MAC format the
// vendor accepts.
var macPattern = regexp.MustCompile(`^([0-9A-Fa-f]{2}[:-]){5}[0-9A-Fa-f]{2}$`)

// ValidMAC reports whether s is a well-formed MAC address.
func ValidMAC(s string) bool {
	return macPattern.MatchString(s)
}

// ValidationError carries the full list of parameter problems so the
// caller can report them all at once.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid ecowitt parameters: " + strings.Join(e.Problems, "; ")
}

// RealtimeParams selects a device for a current-snapshot call. Exactly one
// of MAC or IMEI identifies the station.
type RealtimeParams struct {
	ApplicationKey string
	APIKey         string
	MAC            string
	IMEI           string
	CallBack       string // sensor scope, e.g. "all", "outdoor"
	TempUnit       int    // vendor unit ids; 0 means vendor default
	PressureUnit   int
	WindUnit       int
	RainUnit       int
}

// Validate returns every problem found, as human-readable messages. An
// empty slice means the parameters are usable.
func (p RealtimeParams) Validate() []string {
	problems := validateIdentity(p.ApplicationKey, p.APIKey, p.MAC, p.IMEI)
	return problems
}

// HistoryParams selects a device and a time window for a series call.
type HistoryParams struct {
	ApplicationKey string
	APIKey         string
	MAC            string
	IMEI           string
	StartDate      time.Time
	EndDate        time.Time
	CallBack       string
	CycleType      string // 5min | 30min | 4hour | 1day | auto
	TempUnit       int
	PressureUnit   int
	WindUnit       int
	RainUnit       int
}

func (p HistoryParams) Validate() []string {
	problems := validateIdentity(p.ApplicationKey, p.APIKey, p.MAC, p.IMEI)
	if p.StartDate.IsZero() {
		problems = append(problems, "start_date is required and must be a valid timestamp")
	}
	if p.EndDate.IsZero() {
		problems = append(problems, "end_date is required and must be a valid timestamp")
	}
	if !p.StartDate.IsZero() && !p.EndDate.IsZero() && !p.StartDate.Before(p.EndDate) {
		problems = append(problems, "start_date must be strictly before end_date")
	}
	return problems
}

// InfoParams selects a device for the info endpoint.
type InfoParams struct {
	ApplicationKey string
	APIKey         string
	MAC            string
	IMEI           string
	TempUnit       int
}

func (p InfoParams) Validate() []string {
	return validateIdentity(p.ApplicationKey, p.APIKey, p.MAC, p.IMEI)
}

func validateIdentity(appKey, apiKey, mac, imei string) []string {
	var problems []string
	if appKey == "" {
		problems = append(problems, "application_key is required")
	}
	if apiKey == "" {
		problems = append(problems, "api_key is required")
	}
	switch {
	case mac == "" && imei == "":
		problems = append(problems, "either mac or imei must be provided")
	case mac != "" && imei != "":
		problems = append(problems, "mac and imei are mutually exclusive; provide exactly one")
	case mac != "" && !ValidMAC(mac):
		problems = append(problems, fmt.Sprintf("mac %q does not match the expected format FF:FF:FF:FF:FF:FF", mac))
	}
	return problems
}
