package transport

import (
	"fmt"
	"time"
)

// Shape tells which make/model representation a wire record carries.
type Shape int

const (
	// ShapeFlat records carry carTypeMake/carTypeModel strings.
	ShapeFlat Shape = iota
	// ShapeNested records carry a carType object.
	ShapeNested
)

// Accepted manufacturedTime layouts, tried in order. Zone-less forms are read as UTC.
var manufacturedTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

func (r WireRecord) shape() Shape {
	if r.CarType != nil {
		return ShapeNested
	}
	return ShapeFlat
}

// Normalize converts a backend response into display records in response
// order. A nil envelope or missing content yields an empty slice.
func Normalize(env *SearchEnvelope) []Vehicle {
	if env == nil || env.Content == nil {
		return []Vehicle{}
	}

	vehicles := make([]Vehicle, 0, len(env.Content))
	for _, rec := range env.Content {
		vehicles = append(vehicles, rec.toVehicle())
	}
	return vehicles
}

// ParseManufacturedDate parses an ISO-8601 date or date-time string.
func ParseManufacturedDate(raw string) (time.Time, error) {
	for _, layout := range manufacturedTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable manufactured time %q", raw)
}

func (r WireRecord) toVehicle() Vehicle {
	v := Vehicle{
		RegistrationNumber: r.RegistrationNumber,
		ManufacturedTime:   ManufacturedDate{Raw: r.ManufacturedTime},
		Price:              r.Price,
		NumberOfKilometers: r.NumberOfKilometers,
		Make:               r.CarTypeMake,
		Model:              r.CarTypeModel,
	}

	if t, err := ParseManufacturedDate(r.ManufacturedTime); err == nil {
		v.ManufacturedTime.Time = t
		v.ManufacturedTime.Valid = true
	}

	// Nested values win per field; an empty nested field falls back to the flat one.
	if r.shape() == ShapeNested {
		if r.CarType.Make != "" {
			v.Make = r.CarType.Make
		}
		if r.CarType.Model != "" {
			v.Model = r.CarType.Model
		}
	}

	return v
}
