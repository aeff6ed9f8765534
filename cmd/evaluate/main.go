// Command evaluate estimates the market price of a used car from a trained
// price model.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"usedcars-pipeline/config"
	"usedcars-pipeline/models"
	"usedcars-pipeline/services"
	"usedcars-pipeline/storage"
	"usedcars-pipeline/utils"
)

func main() {
	var (
		modelPath    string
		maker        string
		model        string
		registration string
		mileage      float64
		power        float64
		engine       float64
		fuel         string
		body         string
		gearbox      string
		drive        string
		listMakers   bool
		listModels   bool
	)
	flag.StringVar(&modelPath, "model-path", "", "price model JSON (default MODEL_PATH)")
	flag.StringVar(&maker, "maker", "", "car maker, e.g. Fiat")
	flag.StringVar(&model, "model", "", "car model, e.g. Panda")
	flag.StringVar(&registration, "registration", "", "first registration date, YYYY-MM-DD")
	flag.Float64Var(&mileage, "km", 40000, "mileage in km")
	flag.Float64Var(&power, "cv", 100, "power in CV")
	flag.Float64Var(&engine, "cm3", 1500, "engine size in cm3")
	flag.StringVar(&fuel, "fuel", services.FuelGasoline, "fuel type")
	flag.StringVar(&body, "body", services.BodySedan, "body type")
	flag.StringVar(&gearbox, "gearbox", "Manuale", "gearbox type")
	flag.StringVar(&drive, "drive", "Anteriore", "drive train")
	flag.BoolVar(&listMakers, "makers", false, "list the makers with the most offers and exit")
	flag.BoolVar(&listModels, "models", false, "list the models of -maker with the most offers and exit")
	flag.Parse()

	logger := utils.NewLogger()
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load config: %v", err)
		os.Exit(1)
	}

	if listMakers || listModels {
		store := storage.NewFileStore(cfg.DataDir, cfg.DatasetFile, cfg.BatchExt, logger)
		data, err := storage.LoadDataset(store, storage.LoadOptions{
			Columns:     storage.ServingColumns,
			DropMissing: true,
		})
		if err != nil {
			logger.Error("Failed to load dataset: %v", err)
			os.Exit(1)
		}
		insightSvc := services.NewInsightService(logger)
		names := insightSvc.Makers(data.Listings)
		if listModels {
			names = insightSvc.Models(data.Listings, maker)
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return
	}

	if modelPath == "" {
		modelPath = cfg.ModelPath
	}
	predictor, err := services.LoadLinearModel(modelPath)
	if err != nil {
		logger.Error("Failed to load price model: %v", err)
		os.Exit(1)
	}

	regDate, err := time.Parse(models.DateLayout, registration)
	if err != nil {
		logger.Error("Invalid -registration %q: want YYYY-MM-DD", registration)
		os.Exit(2)
	}

	evaluator := services.NewEvaluator(predictor)
	price, err := evaluator.Estimate(models.EvaluationForm{
		Maker:            maker,
		Model:            model,
		RegistrationDate: regDate,
		MileageKm:        mileage,
		PowerCV:          power,
		EngineSizeCm3:    engine,
		Fuel:             fuel,
		Body:             body,
		Gearbox:          gearbox,
		DriveTrain:       drive,
	})
	if err != nil {
		logger.Error("%v", err)
		os.Exit(2)
	}
	fmt.Printf("Estimated value: %d€\n", price)
}
