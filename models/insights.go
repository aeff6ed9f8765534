package models

import "time"

// ModelCount is how many offers exist for one maker/model pair.
type ModelCount struct {
	Maker  string
	Model  string
	Offers int
}

// MakerValue is the sum of asking prices across one maker's offers.
type MakerValue struct {
	Maker    string
	PriceSum float64
}

// YearBodyCount is the number of offers registered in a year for one body type.
type YearBodyCount struct {
	Year   int
	Body   string
	Counts int
}

// YearPrice holds price quantiles for cars registered in one year.
type YearPrice struct {
	Year   int
	Median float64
	Q25    float64
	Q75    float64
}

// InsightReport holds the computed analytics over the accumulated dataset.
type InsightReport struct {
	TotalOffers     int
	MedianPrice     float64
	MedianAgeYears  float64
	TopSelling      []ModelCount
	TopValueMakers  []MakerValue
	CountsByYear    []YearBodyCount
	PricesByYear    []YearPrice
	GeneratedAt     time.Time
	MostExpensive   *Listing
	ListingsByMaker map[string]int
}

// Features is the single-row input the price model consumes.
// Pointer fields are optional and passed to the model as missing when nil.
type Features struct {
	Fuel            string
	Body            string
	MileageKm       float64
	EngineSizeCm3   float64
	Cylinders       *float64
	ConsumptionComb *float64
	Gears           *float64
	WeightKg        *float64
	Doors           *float64
	Seats           *float64
	Gearbox         string
	VehicleType     string
	DriveTrain      string
	Maker           string
	Model           string
	PowerCV         float64
	AgeYears        float64
}

// EvaluationForm is what a user fills in to get a price estimate.
type EvaluationForm struct {
	Maker            string
	Model            string
	RegistrationDate time.Time
	MileageKm        float64
	PowerCV          float64
	EngineSizeCm3    float64
	Fuel             string
	Body             string
	Gearbox          string
	DriveTrain       string
}
