package main

import (
	"fmt"

	"github.com/YnaPqt/deploiement-getaround/internal/domain"
	"github.com/YnaPqt/deploiement-getaround/internal/predict"
	"github.com/spf13/cobra"
)

var car domain.CarFeatures

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Estimate the daily rental price of a car",
	Example: `  getaround predict --model Citroën --mileage 140000 --engine-power 100 \
    --fuel diesel --car-type estate --paint-color black --gps --air-conditioning`,
	RunE: runPredict,
}

func init() {
	f := predictCmd.Flags()
	f.StringVar(&car.ModelKey, "model", "Others", "car brand")
	f.IntVar(&car.Mileage, "mileage", 0, "mileage in km")
	f.IntVar(&car.EnginePower, "engine-power", 100, "engine power in hp")
	f.StringVar(&car.Fuel, "fuel", "diesel", "fuel type: diesel, petrol or other")
	f.StringVar(&car.CarType, "car-type", "sedan", "car type")
	f.StringVar(&car.PaintColor, "paint-color", "black", "paint color")
	f.BoolVar(&car.AutomaticCar, "automatic", false, "automatic gearbox")
	f.BoolVar(&car.HasGPS, "gps", false, "has GPS")
	f.BoolVar(&car.HasAirConditioning, "air-conditioning", false, "has air conditioning")
	f.BoolVar(&car.HasSpeedRegulator, "speed-regulator", false, "has speed regulator")
	f.BoolVar(&car.WinterTires, "winter-tires", false, "has winter tires")
	f.BoolVar(&car.PrivateParkingAvailable, "private-parking", false, "private parking available")
	f.BoolVar(&car.HasGetaroundConnect, "connect", false, "has Getaround Connect")
	f.BoolVar(&flags.json, "json", false, "print JSON instead of text")
	rootCmd.AddCommand(predictCmd)
}

func runPredict(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}

	client := predict.NewClient(cfg.Predictor, nil)
	prediction, err := client.Predict(cmd.Context(), &car)
	if err != nil {
		return err
	}

	if flags.json {
		return writeJSON(cmd.OutOrStdout(), prediction)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Estimated rental price: %.2f %s per day\n", prediction.PricePerDay, prediction.Currency)
	return nil
}
