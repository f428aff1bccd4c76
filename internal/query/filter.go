package query

import (
	"errors"
	"fmt"
)

// ErrInvalidFilter is wrapped by every CompileError.
var ErrInvalidFilter = errors.New("invalid filter")

// CompileError reports a filter that cannot be turned into a query. It is a
// client-input error and is never sent to the store.
type CompileError struct {
	Field  string
	Reason string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("invalid filter %s: %s", e.Field, e.Reason)
}

func (e *CompileError) Unwrap() error { return ErrInvalidFilter }

// Filter is the list_crashes request body. Every field is optional; absent
// fields are not filtered on. Corners are [lon, lat] pairs in any order.
type Filter struct {
	Corner1      []float64 `json:"corner1,omitempty"`
	Corner2      []float64 `json:"corner2,omitempty"`
	VehicleTypes []string  `json:"vehicle_types,omitempty"`
	YearMax      *int      `json:"yearmax,omitempty"`
	YearMin      *int      `json:"yearmin,omitempty"`
	Severity     []int     `json:"severity,omitempty"`
	Nature       []int     `json:"nature,omitempty"`
	Type         []int     `json:"type,omitempty"`
	Sealed       *bool     `json:"sealed,omitempty"`
	Dry          *bool     `json:"dry,omitempty"`
	Weather      []int     `json:"weather,omitempty"`
	Day          *bool     `json:"day,omitempty"`
	PartialDay   *bool     `json:"partialday,omitempty"`
	Lit          *bool     `json:"lit,omitempty"`
}

// BoundingBox is a normalized lon/lat rectangle.
type BoundingBox struct {
	MinLon, MaxLon float64
	MinLat, MaxLat float64
}

// NewBoundingBox normalizes two opposite corners, given in any order.
func NewBoundingBox(c1, c2 [2]float64) BoundingBox {
	return BoundingBox{
		MinLon: min(c1[0], c2[0]),
		MaxLon: max(c1[0], c2[0]),
		MinLat: min(c1[1], c2[1]),
		MaxLat: max(c1[1], c2[1]),
	}
}

// vehicleColumns maps vehicle_types values to involvement count columns.
var vehicleColumns = map[string]string{
	"car":        "InvolvedCar",
	"motorcycle": "InvolvedMotorcycle",
	"truck":      "InvolvedTruck",
	"bus":        "InvolvedBus",
	"bicycle":    "InvolvedBicycle",
	"pedestrian": "InvolvedPedestrian",
	"other":      "InvolvedOther",
}

// boundingBox validates the corners and returns the normalized box, or nil
// when neither corner is set.
func (f Filter) boundingBox() (*BoundingBox, error) {
	if f.Corner1 == nil && f.Corner2 == nil {
		return nil, nil
	}
	if f.Corner1 == nil || f.Corner2 == nil {
		return nil, &CompileError{Field: "corner1/corner2", Reason: "both corners are required"}
	}
	c1, err := corner("corner1", f.Corner1)
	if err != nil {
		return nil, err
	}
	c2, err := corner("corner2", f.Corner2)
	if err != nil {
		return nil, err
	}
	box := NewBoundingBox(c1, c2)
	return &box, nil
}

func corner(field string, v []float64) ([2]float64, error) {
	if len(v) != 2 {
		return [2]float64{}, &CompileError{Field: field, Reason: "must be a [lon, lat] pair"}
	}
	lon, lat := v[0], v[1]
	if lon < -180 || lon > 180 {
		return [2]float64{}, &CompileError{Field: field, Reason: fmt.Sprintf("longitude %g out of range", lon)}
	}
	if lat < -90 || lat > 90 {
		return [2]float64{}, &CompileError{Field: field, Reason: fmt.Sprintf("latitude %g out of range", lat)}
	}
	return [2]float64{lon, lat}, nil
}

func validateIDs(field string, ids []int) error {
	for _, id := range ids {
		if id <= 0 {
			return &CompileError{Field: field, Reason: fmt.Sprintf("id %d is not positive", id)}
		}
	}
	return nil
}
