package models

// OrderStatus is the canonical order state set.
type OrderStatus string

const (
	StatusOpen     OrderStatus = "open"
	StatusClosed   OrderStatus = "closed"
	StatusCanceled OrderStatus = "canceled"
)

// orderStatuses maps the exchange status vocabulary onto the canonical set.
// Matching is case sensitive and exact.
var orderStatuses = map[string]OrderStatus{
	"Pending":          StatusOpen,
	"Partially Filled": StatusOpen,
	"New":              StatusOpen,
	"Open":             StatusOpen,
	"Filled":           StatusClosed,
	"Canceled":         StatusCanceled,
	"Failed":           StatusCanceled,
}

// ParseOrderStatus resolves an exchange status string. Unrecognized strings
// map to StatusOpen: treating an unknown state as still active keeps such
// orders visible in open-order views instead of silently dropping them.
func ParseOrderStatus(raw string) OrderStatus {
	if status, ok := orderStatuses[raw]; ok {
		return status
	}
	return StatusOpen
}
