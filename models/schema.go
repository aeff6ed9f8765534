package models

// Kind is the value type a canonical field holds once cleaned.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindBool
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	default:
		return "text"
	}
}

// Field is one column of the canonical schema.
type Field struct {
	Name string
	Kind Kind
}

// KeyColumn names the listing identifier column in every batch and in the dataset.
const KeyColumn = "url"

// Canonical field names referenced by the pipeline.
const (
	FieldDeposit            = "Acconto"
	FieldRegistration       = "Anno"
	FieldFuel               = "Carburante"
	FieldBody               = "Carrozzeria"
	FieldMileage            = "Chilometraggio"
	FieldEngineSize         = "Cilindrata_cm3"
	FieldCylinders          = "Cilindri"
	FieldConsumptionComb    = "Consumo_comb_L100km"
	FieldConsumptionExtra   = "Consumo_extraurb_L100km"
	FieldConsumptionUrb     = "Consumo_urb_L100km"
	FieldEmissions          = "Emissioni_CO2_gKm"
	FieldGears              = "Marce"
	FieldWeight             = "Peso_a_vuoto_kg"
	FieldDoors              = "Porte"
	FieldSeats              = "Posti"
	FieldCarPrice           = "Prezzo_auto"
	FieldCertifiedService   = "Tagliandi_certificati"
	FieldGearbox            = "Tipo_di_cambio"
	FieldVehicleType        = "Tipo_di_veicolo"
	FieldDriveTrain         = "Trazione"
	FieldScrapeDate         = "date"
	FieldWarrantyMonths     = "garanzia_mesi"
	FieldMaker              = "maker"
	FieldModel              = "model"
	FieldPowerCV            = "potenza_cv"
	FieldPowerKW            = "potenza_kw"
	FieldPrice              = "price"
	FieldSingleOwner        = "unico_proprietario"
	SourcePower             = "Potenza"
	SourceConsumption       = "Consumo_di_carburante_L100km"
	SourceOtherEnergySource = "Altre_fonti_energetiche"
)

// CanonicalFields is the persisted column set, in persisted (byte-sorted) order.
var CanonicalFields = []Field{
	{"Acconto", KindNumber},
	{"Anno", KindDate},
	{"Carburante", KindText},
	{"Carrozzeria", KindText},
	{"Chilometraggio", KindNumber},
	{"Cilindrata_cm3", KindNumber},
	{"Cilindri", KindText},
	{"Colore", KindText},
	{"Comfort", KindText},
	{"Consumo_comb_L100km", KindNumber},
	{"Consumo_extraurb_L100km", KindNumber},
	{"Consumo_urb_L100km", KindNumber},
	{"Emissioni_CO2_gKm", KindNumber},
	{"Extra", KindText},
	{"Intrattenimento__Media", KindText},
	{"Marce", KindText},
	{"Peso_a_vuoto_kg", KindNumber},
	{"Porte", KindText},
	{"Posti", KindText},
	{"Prezzo_auto", KindNumber},
	{"Sicurezza", KindText},
	{"Tagliandi_certificati", KindBool},
	{"Tipo_di_cambio", KindText},
	{"Tipo_di_veicolo", KindText},
	{"Trazione", KindText},
	{"city", KindText},
	{"country", KindText},
	{"countryCode", KindText},
	{"date", KindText},
	{"garanzia_mesi", KindNumber},
	{"makeId", KindText},
	{"maker", KindText},
	{"model", KindText},
	{"modelOrModelLineId", KindText},
	{"modelVersionInput", KindText},
	{"potenza_cv", KindNumber},
	{"potenza_kw", KindNumber},
	{"price", KindNumber},
	{"street", KindText},
	{"unico_proprietario", KindBool},
	{"zip", KindText},
}

// SourceColumns are non-canonical raw columns the extraction step reads from.
// They are null-filled when a batch lacks them.
var SourceColumns = []string{SourcePower, SourceConsumption, SourceOtherEnergySource}

var canonicalIndex = func() map[string]int {
	m := make(map[string]int, len(CanonicalFields))
	for i, f := range CanonicalFields {
		m[f.Name] = i
	}
	return m
}()

// CanonicalNames returns the canonical column names in persisted order.
func CanonicalNames() []string {
	names := make([]string, len(CanonicalFields))
	for i, f := range CanonicalFields {
		names[i] = f.Name
	}
	return names
}

// IsCanonical reports whether name belongs to the canonical schema.
func IsCanonical(name string) bool {
	_, ok := canonicalIndex[name]
	return ok
}

// FieldKind returns the kind of a canonical field.
func FieldKind(name string) (Kind, bool) {
	i, ok := canonicalIndex[name]
	if !ok {
		return KindText, false
	}
	return CanonicalFields[i].Kind, true
}

// DatasetHeader is the header row of the accumulated dataset file.
func DatasetHeader() []string {
	return append([]string{KeyColumn}, CanonicalNames()...)
}
