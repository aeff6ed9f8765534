package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"usedcars-pipeline/models"
)

const (
	usedVehicleType = "Usato"
	maxMileageKm    = 1_000_000
	maxPowerCV      = 2000
	maxEngineCm3    = 10_000
	daysPerYear     = 365.0
)

var earliestRegistration = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

var (
	ErrInvalidForm  = errors.New("invalid evaluation form")
	ErrInvalidModel = errors.New("invalid price model")
)

// Predictor turns one feature row into a price.
type Predictor interface {
	Predict(f models.Features) (float64, error)
}

// LinearModel is a linear price model over the canonical feature subset.
// Numeric features missing from a row take their Impute value; unseen
// category levels contribute nothing.
type LinearModel struct {
	Intercept   float64                       `json:"intercept"`
	Numeric     map[string]float64            `json:"numeric"`
	Impute      map[string]float64            `json:"impute"`
	Categorical map[string]map[string]float64 `json:"categorical"`
	// LogTarget means the model was fitted on log(price).
	LogTarget bool `json:"log_target"`
}

// LoadLinearModel reads a model artifact from a JSON file.
func LoadLinearModel(path string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}
	var m LinearModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse model %s: %w", path, err)
	}
	if len(m.Numeric) == 0 && len(m.Categorical) == 0 {
		return nil, fmt.Errorf("%w: %s has no coefficients", ErrInvalidModel, path)
	}
	return &m, nil
}

func (m *LinearModel) Predict(f models.Features) (float64, error) {
	numeric, categorical := featureColumns(f)

	y := m.Intercept
	for name, coef := range m.Numeric {
		v, ok := numeric[name]
		if !ok || v == nil {
			imputed, has := m.Impute[name]
			if !has {
				continue
			}
			v = &imputed
		}
		y += coef * *v
	}
	for name, levels := range m.Categorical {
		y += levels[categorical[name]]
	}

	if m.LogTarget {
		y = math.Exp(y)
	}
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, fmt.Errorf("%w: non-finite prediction", ErrInvalidModel)
	}
	return y, nil
}

func featureColumns(f models.Features) (map[string]*float64, map[string]string) {
	numeric := map[string]*float64{
		models.FieldMileage:         &f.MileageKm,
		models.FieldEngineSize:      &f.EngineSizeCm3,
		models.FieldCylinders:       f.Cylinders,
		models.FieldConsumptionComb: f.ConsumptionComb,
		models.FieldGears:           f.Gears,
		models.FieldWeight:          f.WeightKg,
		models.FieldDoors:           f.Doors,
		models.FieldSeats:           f.Seats,
		models.FieldPowerCV:         &f.PowerCV,
		"age_years":                 &f.AgeYears,
	}
	categorical := map[string]string{
		models.FieldFuel:        f.Fuel,
		models.FieldBody:        f.Body,
		models.FieldGearbox:     f.Gearbox,
		models.FieldVehicleType: f.VehicleType,
		models.FieldDriveTrain:  f.DriveTrain,
		models.FieldMaker:       f.Maker,
		models.FieldModel:       f.Model,
	}
	return numeric, categorical
}

// Evaluator estimates the market price of a car described by an EvaluationForm.
type Evaluator struct {
	model Predictor
	now   func() time.Time
}

func NewEvaluator(model Predictor) *Evaluator {
	return &Evaluator{model: model, now: time.Now}
}

// Features builds the model input for form. Optional technical fields the
// form does not ask for are left missing.
func (e *Evaluator) Features(form models.EvaluationForm) models.Features {
	age := e.now().Sub(form.RegistrationDate).Hours() / 24
	return models.Features{
		Fuel:          form.Fuel,
		Body:          form.Body,
		MileageKm:     form.MileageKm,
		EngineSizeCm3: form.EngineSizeCm3,
		Gearbox:       form.Gearbox,
		VehicleType:   usedVehicleType,
		DriveTrain:    form.DriveTrain,
		Maker:         form.Maker,
		Model:         form.Model,
		PowerCV:       form.PowerCV,
		AgeYears:      math.Floor(age) / daysPerYear,
	}
}

// Estimate validates form and returns the predicted price in whole euros.
func (e *Evaluator) Estimate(form models.EvaluationForm) (int64, error) {
	if err := e.validate(form); err != nil {
		return 0, err
	}
	price, err := e.model.Predict(e.Features(form))
	if err != nil {
		return 0, err
	}
	return int64(math.Round(price)), nil
}

func (e *Evaluator) validate(form models.EvaluationForm) error {
	var problems []string
	if strings.TrimSpace(form.Maker) == "" {
		problems = append(problems, "maker is required")
	}
	if strings.TrimSpace(form.Model) == "" {
		problems = append(problems, "model is required")
	}
	if form.RegistrationDate.Before(earliestRegistration) || form.RegistrationDate.After(e.now()) {
		problems = append(problems, fmt.Sprintf("registration date must be between %s and today",
			earliestRegistration.Format(models.DateLayout)))
	}
	if form.MileageKm < 0 || form.MileageKm > maxMileageKm {
		problems = append(problems, fmt.Sprintf("mileage must be within 0..%d km", maxMileageKm))
	}
	if form.PowerCV < 0 || form.PowerCV > maxPowerCV {
		problems = append(problems, fmt.Sprintf("power must be within 0..%d CV", maxPowerCV))
	}
	if form.EngineSizeCm3 < 0 || form.EngineSizeCm3 > maxEngineCm3 {
		problems = append(problems, fmt.Sprintf("engine size must be within 0..%d cm3", maxEngineCm3))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidForm, strings.Join(problems, "; "))
	}
	return nil
}
