package domain

import (
	"fmt"
	"hash/fnv"
	"math"
	"strings"
)

// VehicleProfile describes the truck the quote is computed for.
type VehicleProfile struct {
	WeightTonnes  float64 `json:"weightTonnes" validate:"gt=0,lte=60"`
	AxleCount     int     `json:"axleCount" validate:"gte=2,lte=9"`
	HeightMeters  float64 `json:"heightMeters" validate:"gt=0,lte=5"`
	EmissionClass string  `json:"emissionClass"`
	Hazardous     bool    `json:"hazardous"`
}

// DefaultVehicle is a 20 t, 3-axle, Euro 6 rigid truck.
func DefaultVehicle() VehicleProfile {
	return VehicleProfile{
		WeightTonnes:  20,
		AxleCount:     3,
		HeightMeters:  4,
		EmissionClass: "euro6",
	}
}

// Key is a stable string form of the profile used in cache keys.
func (v VehicleProfile) Key() string {
	return fmt.Sprintf("%.2f|%d|%.2f|%s|%t",
		v.WeightTonnes, v.AxleCount, v.HeightMeters, strings.ToLower(v.EmissionClass), v.Hazardous)
}

func (v VehicleProfile) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(v.Key()))
	return h.Sum64()
}

// CargoDescription is the load summary produced upstream by the load calculator.
type CargoDescription struct {
	WeightTonnes float64 `json:"weightTonnes" validate:"gte=0,lte=44"`
	HeightMeters float64 `json:"heightMeters" validate:"gte=0,lte=5"`
	LengthMeters float64 `json:"lengthMeters" validate:"gte=0"`
	Hazardous    bool    `json:"hazardous"`
}

const tareTonnes = 8

// VehicleForCargo derives the truck class needed for a cargo description.
func VehicleForCargo(c CargoDescription) VehicleProfile {
	v := DefaultVehicle()
	total := c.WeightTonnes + tareTonnes

	switch {
	case total > 30:
		v.WeightTonnes = 40
		v.AxleCount = 5
		v.HeightMeters = 4.5
	case total > 20:
		v.WeightTonnes = 25
		v.AxleCount = 4
	default:
		v.WeightTonnes = 15
		v.AxleCount = 2
		v.HeightMeters = 3.5
	}

	if c.HeightMeters > 3 {
		v.HeightMeters = math.Min(c.HeightMeters+0.5, 4.5)
	}
	v.Hazardous = c.Hazardous
	return v
}
