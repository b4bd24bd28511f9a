package enums

import "fmt"

// ShipTo identifies the destination class of an order.
type ShipTo string

const (
	ShipToPractice ShipTo = "practice"
	ShipToPatient  ShipTo = "patient"
)

var validShipTo = []ShipTo{
	ShipToPractice,
	ShipToPatient,
}

// String implements fmt.Stringer.
func (s ShipTo) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShipTo.
func (s ShipTo) IsValid() bool {
	for _, candidate := range validShipTo {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShipTo converts raw input into a ShipTo.
func ParseShipTo(value string) (ShipTo, error) {
	for _, candidate := range validShipTo {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ship to %q", value)
}
