package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseOrderStatusTable(t *testing.T) {
	cases := map[string]OrderStatus{
		"Pending":          StatusOpen,
		"Partially Filled": StatusOpen,
		"New":              StatusOpen,
		"Open":             StatusOpen,
		"Filled":           StatusClosed,
		"Canceled":         StatusCanceled,
		"Failed":           StatusCanceled,
	}
	for raw, want := range cases {
		if got := ParseOrderStatus(raw); got != want {
			t.Fatalf("ParseOrderStatus(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestParseOrderStatusFailOpen(t *testing.T) {
	for _, raw := range []string{"", "filled", "FILLED", "Expired", "Placed"} {
		if got := ParseOrderStatus(raw); got != StatusOpen {
			t.Fatalf("ParseOrderStatus(%q) = %q, want %q", raw, got, StatusOpen)
		}
	}
}

func TestTickerUnsetFieldsOmitted(t *testing.T) {
	ts := time.Date(2022, 6, 12, 18, 9, 5, 0, time.UTC)
	last := decimal.RequireFromString("400000")
	ticker := Ticker{
		Symbol:    "BTCZAR",
		Timestamp: &ts,
		Last:      &last,
	}
	data, err := json.Marshal(ticker)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := out["bid"]; ok {
		t.Fatalf("unset bid should be omitted: %s", data)
	}
	if _, ok := out["open"]; ok {
		t.Fatalf("unset open should be omitted: %s", data)
	}
	if out["last"] != "400000" {
		t.Fatalf("last = %v, want decimal string 400000", out["last"])
	}
}
