package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransitDays(t *testing.T) {
	tests := []struct {
		name  string
		hours float64
		km    float64
		want  int
	}{
		{name: "short hop", hours: 2, km: 150, want: 1},
		{name: "one full day", hours: 9, km: 800, want: 1},
		{name: "just over a day", hours: 9.5, km: 850, want: 2},
		{name: "long haul", hours: 20, km: 1700, want: 4},
		{name: "very long haul", hours: 32, km: 2800, want: 6},
		{name: "clamped", hours: 80, km: 6000, want: 7},
		{name: "zero", hours: 0, km: 0, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TransitDays(tt.hours, tt.km))
		})
	}
}

func TestVignetteDailyEUR(t *testing.T) {
	v, ok := VignetteDailyEUR("AT")
	assert.True(t, ok)
	assert.InDelta(t, 1.21, v, 0.001)

	_, ok = VignetteDailyEUR("ES")
	assert.False(t, ok)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]RestrictionAlert{
		{Severity: SeverityCritical},
		{Severity: SeverityWarning},
		{Severity: SeverityWarning},
		{Severity: SeverityInfo},
	})
	assert.Equal(t, AlertSummary{Critical: 1, Warning: 2, Info: 1}, s)
}

func TestVehicleForCargo(t *testing.T) {
	heavy := VehicleForCargo(CargoDescription{WeightTonnes: 24})
	assert.Equal(t, 40.0, heavy.WeightTonnes)
	assert.Equal(t, 5, heavy.AxleCount)

	medium := VehicleForCargo(CargoDescription{WeightTonnes: 14, HeightMeters: 3.2})
	assert.Equal(t, 25.0, medium.WeightTonnes)
	assert.Equal(t, 4, medium.AxleCount)
	assert.InDelta(t, 3.7, medium.HeightMeters, 1e-9)

	light := VehicleForCargo(CargoDescription{WeightTonnes: 5, Hazardous: true})
	assert.Equal(t, 15.0, light.WeightTonnes)
	assert.Equal(t, 2, light.AxleCount)
	assert.True(t, light.Hazardous)
}
