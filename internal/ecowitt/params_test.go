package ecowitt

import (
	"strings"
	"testing"
	"time"
)

func TestValidMAC(t *testing.T) {
	valid := []string{
		"FF:FF:FF:FF:FF:FF",
		"00:11:22:33:44:55",
		"aa:bb:cc:dd:ee:ff",
		"A1-B2-C3-D4-E5-F6",
	}
	for _, mac := range valid {
		if !ValidMAC(mac) {
			t.Errorf("ValidMAC(%q) = false, want true", mac)
		}
	}

	invalid := []string{
		"",
		"FF:FF:FF:FF:FF",       // too short
		"FF:FF:FF:FF:FF:FF:FF", // too long
		"GG:FF:FF:FF:FF:FF",    // non-hex
		"FFFF.FFFF.FFFF",       // wrong separators
		"FF:FF:FF:FF:FF:F",
		"FF FF FF FF FF FF",
	}
	for _, mac := range invalid {
		if ValidMAC(mac) {
			t.Errorf("ValidMAC(%q) = true, want false", mac)
		}
	}
}

func TestRealtimeParamsValidate(t *testing.T) {
	base := RealtimeParams{
		ApplicationKey: "app",
		APIKey:         "key",
		MAC:            "AA:BB:CC:DD:EE:FF",
	}
	if problems := base.Validate(); len(problems) != 0 {
		t.Fatalf("valid params reported problems: %v", problems)
	}

	cases := []struct {
		name   string
		mutate func(*RealtimeParams)
		want   string
	}{
		{"missing app key", func(p *RealtimeParams) { p.ApplicationKey = "" }, "application_key"},
		{"missing api key", func(p *RealtimeParams) { p.APIKey = "" }, "api_key"},
		{"no identifier", func(p *RealtimeParams) { p.MAC = "" }, "either mac or imei"},
		{"both identifiers", func(p *RealtimeParams) { p.IMEI = "123456789012345" }, "mutually exclusive"},
		{"bad mac", func(p *RealtimeParams) { p.MAC = "not-a-mac" }, "does not match"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := base
			tc.mutate(&p)
			problems := p.Validate()
			if len(problems) == 0 {
				t.Fatal("expected non-empty problem list")
			}
			found := false
			for _, msg := range problems {
				if strings.Contains(msg, tc.want) {
					found = true
				}
			}
			if !found {
				t.Errorf("problems %v do not mention %q", problems, tc.want)
			}
		})
	}
}

func TestHistoryParamsValidate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	base := HistoryParams{
		ApplicationKey: "app",
		APIKey:         "key",
		MAC:            "AA:BB:CC:DD:EE:FF",
		StartDate:      now.Add(-time.Hour),
		EndDate:        now,
	}
	if problems := base.Validate(); len(problems) != 0 {
		t.Fatalf("valid params reported problems: %v", problems)
	}

	t.Run("start after end", func(t *testing.T) {
		p := base
		p.StartDate, p.EndDate = p.EndDate, p.StartDate
		if problems := p.Validate(); len(problems) == 0 {
			t.Error("expected problem for inverted window")
		}
	})

	t.Run("start equals end", func(t *testing.T) {
		p := base
		p.StartDate = p.EndDate
		if problems := p.Validate(); len(problems) == 0 {
			t.Error("expected problem for zero-width window")
		}
	})

	t.Run("zero timestamps", func(t *testing.T) {
		p := base
		p.StartDate = time.Time{}
		p.EndDate = time.Time{}
		problems := p.Validate()
		if len(problems) < 2 {
			t.Errorf("expected problems for both missing timestamps, got %v", problems)
		}
	})
}

func TestInfoParamsValidate(t *testing.T) {
	p := InfoParams{ApplicationKey: "app", APIKey: "key", IMEI: "123456789012345"}
	if problems := p.Validate(); len(problems) != 0 {
		t.Fatalf("imei-identified params reported problems: %v", problems)
	}

	p.IMEI = ""
	if problems := p.Validate(); len(problems) == 0 {
		t.Error("expected problem when both identifiers missing")
	}
}
