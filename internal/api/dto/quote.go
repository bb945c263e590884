package dto

import "freight-quote-service/internal/domain"

// QuoteInputsRequest carries either an explicit vehicle or a cargo summary.
// When both are missing the default truck is used.
type QuoteInputsRequest struct {
	Origin      string                   `json:"origin"`
	Destination string                   `json:"destination"`
	PickupDate  string                   `json:"pickupDate"`
	Vehicle     *domain.VehicleProfile   `json:"vehicle,omitempty"`
	Cargo       *domain.CargoDescription `json:"cargo,omitempty"`
}

// VehicleProfile resolves the truck the quote is computed for.
func (r QuoteInputsRequest) VehicleProfile() domain.VehicleProfile {
	switch {
	case r.Vehicle != nil:
		return *r.Vehicle
	case r.Cargo != nil:
		return domain.VehicleForCargo(*r.Cargo)
	default:
		return domain.DefaultVehicle()
	}
}
