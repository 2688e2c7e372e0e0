package domain

import (
	"fmt"
	"slices"
)

// CarFeatures describes a car submitted for a rental price estimate.
type CarFeatures struct {
	ModelKey                string `json:"model_key"`
	Mileage                 int    `json:"mileage"`
	EnginePower             int    `json:"engine_power"`
	Fuel                    string `json:"fuel"`
	AutomaticCar            bool   `json:"automatic_car"`
	HasGPS                  bool   `json:"has_gps"`
	HasAirConditioning      bool   `json:"has_air_conditioning"`
	HasSpeedRegulator       bool   `json:"has_speed_regulator"`
	WinterTires             bool   `json:"winter_tires"`
	PrivateParkingAvailable bool   `json:"private_parking_available"`
	HasGetaroundConnect     bool   `json:"has_getaround_connect"`
	CarType                 string `json:"car_type"`
	PaintColor              string `json:"paint_color"`
}

// Accepted categorical values for CarFeatures.
var (
	ModelKeys   = []string{"Audi", "BMW", "Citroën", "Mercedes", "Mitsubishi", "Nissan", "Peugeot", "Renault", "Toyota", "Volkswagen", "Others"}
	FuelTypes   = []string{"diesel", "petrol", "other"}
	CarTypes    = []string{"convertible", "coupe", "estate", "hatchback", "sedan", "subcompact", "suv", "van"}
	PaintColors = []string{"black", "grey", "white", "red", "silver", "blue", "beige", "brown", "green", "orange"}
)

// MinEnginePower is the smallest engine power (hp) accepted for a prediction.
const MinEnginePower = 10

// Validate checks the features against the accepted value sets.
func (f *CarFeatures) Validate() error {
	if !slices.Contains(ModelKeys, f.ModelKey) {
		return fmt.Errorf("%w: unknown model_key %q", ErrInvalidFeatures, f.ModelKey)
	}
	if !slices.Contains(FuelTypes, f.Fuel) {
		return fmt.Errorf("%w: unknown fuel %q", ErrInvalidFeatures, f.Fuel)
	}
	if !slices.Contains(CarTypes, f.CarType) {
		return fmt.Errorf("%w: unknown car_type %q", ErrInvalidFeatures, f.CarType)
	}
	if !slices.Contains(PaintColors, f.PaintColor) {
		return fmt.Errorf("%w: unknown paint_color %q", ErrInvalidFeatures, f.PaintColor)
	}
	if f.Mileage < 0 {
		return fmt.Errorf("%w: mileage must be non-negative", ErrInvalidFeatures)
	}
	if f.EnginePower < MinEnginePower {
		return fmt.Errorf("%w: engine_power must be at least %d", ErrInvalidFeatures, MinEnginePower)
	}
	return nil
}

// PredictionPayload is the wire format expected by the price model.
// Boolean features are encoded as 0/1.
type PredictionPayload struct {
	ModelKey                string `json:"model_key"`
	Mileage                 int    `json:"mileage"`
	EnginePower             int    `json:"engine_power"`
	Fuel                    string `json:"fuel"`
	AutomaticCar            int    `json:"automatic_car"`
	HasGPS                  int    `json:"has_gps"`
	HasAirConditioning      int    `json:"has_air_conditioning"`
	HasSpeedRegulator       int    `json:"has_speed_regulator"`
	WinterTires             int    `json:"winter_tires"`
	PrivateParkingAvailable int    `json:"private_parking_available"`
	HasGetaroundConnect     int    `json:"has_getaround_connect"`
	CarType                 string `json:"car_type"`
	PaintColor              string `json:"paint_color"`
}

// ToPayload converts features to the model wire format.
func (f *CarFeatures) ToPayload() *PredictionPayload {
	return &PredictionPayload{
		ModelKey:                f.ModelKey,
		Mileage:                 f.Mileage,
		EnginePower:             f.EnginePower,
		Fuel:                    f.Fuel,
		AutomaticCar:            flag(f.AutomaticCar),
		HasGPS:                  flag(f.HasGPS),
		HasAirConditioning:      flag(f.HasAirConditioning),
		HasSpeedRegulator:       flag(f.HasSpeedRegulator),
		WinterTires:             flag(f.WinterTires),
		PrivateParkingAvailable: flag(f.PrivateParkingAvailable),
		HasGetaroundConnect:     flag(f.HasGetaroundConnect),
		CarType:                 f.CarType,
		PaintColor:              f.PaintColor,
	}
}

// PricePrediction is the estimated rental price for a car.
type PricePrediction struct {
	PricePerDay float64      `json:"pricePerDay"`
	Currency    string       `json:"currency"`
	Features    *CarFeatures `json:"features,omitempty"`
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}
