package enums

import "fmt"

// ShippingSpeed is the delivery tier selected for a cart line.
type ShippingSpeed string

const (
	ShippingSpeedStandard  ShippingSpeed = "standard"
	ShippingSpeedExpedited ShippingSpeed = "expedited"
	ShippingSpeedOvernight ShippingSpeed = "overnight"
)

var validShippingSpeeds = []ShippingSpeed{
	ShippingSpeedStandard,
	ShippingSpeedExpedited,
	ShippingSpeedOvernight,
}

// String implements fmt.Stringer.
func (s ShippingSpeed) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShippingSpeed.
func (s ShippingSpeed) IsValid() bool {
	for _, candidate := range validShippingSpeeds {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShippingSpeed converts raw input into a ShippingSpeed.
func ParseShippingSpeed(value string) (ShippingSpeed, error) {
	for _, candidate := range validShippingSpeeds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipping speed %q", value)
}
