package services

import (
	"errors"
	"io"
	"testing"

	"usedcars-pipeline/models"
	"usedcars-pipeline/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLoggerTo(io.Discard, io.Discard) }

func newTestCleaner() *Cleaner {
	return NewCleaner(newTestLogger(), NewFieldNormalizer("/annunci/", nil))
}

// rawTable builds a raw batch with the given headers; each row starts with its key.
func rawTable(headers []string, rows ...[]string) *models.Table {
	t := models.NewTable(headers)
	for _, r := range rows {
		l := models.NewListing(r[0])
		for i, h := range headers {
			l.Set(h, r[i+1])
		}
		t.Append(l)
	}
	return t
}

func TestNormalizerListingKey(t *testing.T) {
	n := NewFieldNormalizer("/annunci/", nil)

	tests := []struct {
		raw  string
		want string
	}{
		{"/annunci/fiat-panda-3f2a9c", "fiat-panda-3f2a9c"},
		{"/annunci/fiat-panda-3f2a9c/", "fiat-panda-3f2a9c"},
		{"  /annunci/bmw-x1-77  ", "bmw-x1-77"},
		{"already-bare", "already-bare"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := n.ListingKey(tt.raw); got != tt.want {
			t.Errorf("ListingKey(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizerHeader(t *testing.T) {
	n := NewFieldNormalizer("/annunci/", map[string]string{"Prezzo": models.FieldCarPrice})

	tests := []struct {
		raw  string
		want string
	}{
		{"Consumo di\ncarburante", models.SourceConsumption},
		{"Cilindrata", models.FieldEngineSize},
		{"Peso a vuoto", models.FieldWeight},
		{"Emissioni CO₂", models.FieldEmissions},
		{"Usato garantito", models.FieldWarrantyMonths},
		{"Proprietari", models.FieldSingleOwner},
		{"Intrattenimento / Media", "Intrattenimento__Media"},
		{"Tipo di cambio:", "Tipo_di_cambio"},
		{"Prezzo", models.FieldCarPrice},
		{"maker", "maker"},
	}

	for _, tt := range tests {
		if got := n.Header(tt.raw); got != tt.want {
			t.Errorf("Header(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeRightmostDuplicateWins(t *testing.T) {
	n := NewFieldNormalizer("/annunci/", nil)
	raw := rawTable([]string{"Cilindrata", "Cilindrata_cm3"}, []string{"/annunci/a", "1.200 cm³", "1.400 cm³"})

	got := n.Normalize(raw)

	if len(got.Columns) != 1 || got.Columns[0] != models.FieldEngineSize {
		t.Fatalf("columns: got %v", got.Columns)
	}
	if v := got.Listings[0].Text(models.FieldEngineSize); v != "1.400 cm³" {
		t.Errorf("engine size: got %q, want rightmost value", v)
	}
	if raw.Listings[0].Key != "/annunci/a" {
		t.Errorf("raw table was modified: key %q", raw.Listings[0].Key)
	}
}

func TestExtractNumber(t *testing.T) {
	tests := []struct {
		name   string
		rule   extractRule
		raw    string
		want   float64
		wantOK bool
	}{
		{"price", extractRules[2], "€ 12.500", 12500, true},
		{"price without space", extractRules[2], "€9.990,-", 9990, true},
		{"mileage", extractRules[0], "45.000 km", 45000, true},
		{"engine size", extractRules[4], "1.598 cm³", 1598, true},
		{"power kW", extractRules[5], "120 kW (163 CV)", 120, true},
		{"power CV", extractRules[6], "120 kW (163 CV)", 163, true},
		{"weight", extractRules[7], "1.320 kg", 1320, true},
		{"emissions", extractRules[8], "119 g/km (comb.)", 119, true},
		{"warranty", extractRules[9], "12 mesi", 12, true},
		{"warranty bare", extractRules[9], "24", 24, true},
		{"consumption comb", extractRules[10], "5,5 l/100 km (comb.)", 5.5, true},
		{"consumption urb", extractRules[11], "6,1 l/100 km (urb.)", 6.1, true},
		{"consumption extraurb", extractRules[12], "4,2 l/100 km (extraurb.)", 4.2, true},
		{"consumption placeholder", extractRules[10], "0 l/100 km (comb.)", 0, false},
		{"no match", extractRules[0], "n.d.", 0, false},
		{"missing marker", extractRules[2], "NaN", 0, false},
		{"empty", extractRules[2], "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.rule.apply(tt.raw)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("apply(%q) = (%v, %v); want (%v, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseRegistration(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantOK  bool
		wantErr bool
	}{
		{"03/2019", "2019-03-01", true, false},
		{"3/2019", "2019-03-01", true, false},
		{" 11/2008 ", "2008-11-01", true, false},
		{"2019-03-01", "2019-03-01", true, false},
		{"", "", false, false},
		{"NaN", "", false, false},
		{"marzo 2019", "", false, true},
		{"13/2019", "", false, true},
	}

	for _, tt := range tests {
		got, ok, err := ParseRegistration(tt.raw)
		if tt.wantErr {
			if !errors.Is(err, ErrMalformedDate) {
				t.Errorf("ParseRegistration(%q): want ErrMalformedDate, got %v", tt.raw, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRegistration(%q): unexpected error %v", tt.raw, err)
			continue
		}
		if ok != tt.wantOK {
			t.Errorf("ParseRegistration(%q): ok = %v; want %v", tt.raw, ok, tt.wantOK)
		}
		if ok && got.Format(models.DateLayout) != tt.want {
			t.Errorf("ParseRegistration(%q) = %s; want %s", tt.raw, got.Format(models.DateLayout), tt.want)
		}
	}
}

func TestFuelAndBodyCategories(t *testing.T) {
	fuels := map[string]string{
		"Benzina":           FuelGasoline,
		"Diesel":            FuelDiesel,
		"GPL":               FuelLPG,
		"Gas liquido":       FuelLPG,
		"Metano":            FuelMethane,
		"Gas naturale":      FuelMethane,
		"Elettrica":         FuelElectric,
		"Idrogeno":          FuelOther,
		"":                  FuelOther,
		"Super senza piomb": FuelGasoline,
	}
	for raw, want := range fuels {
		if got := FuelCategory(raw); got != want {
			t.Errorf("FuelCategory(%q) = %q; want %q", raw, got, want)
		}
	}

	bodies := map[string]string{
		"SUV/Fuoristrada/Pick-up": BodySUV,
		"Station Wagon":           BodyWagon,
		"City Car":                BodyCityCar,
		"Berlina":                 BodySedan,
		"Cabrio":                  BodyConvertible,
		"Coupé":                   BodyCoupe,
		"Monovolume":              BodyMinivan,
		"Furgoni":                 BodyVan,
		"Altro":                   BodyOther,
		"":                        BodyOther,
	}
	for raw, want := range bodies {
		if got := BodyCategory(raw); got != want {
			t.Errorf("BodyCategory(%q) = %q; want %q", raw, got, want)
		}
	}
}

func TestCategoryMapperFlagsAndOverrides(t *testing.T) {
	tbl := rawTable(
		[]string{models.FieldFuel, models.SourceOtherEnergySource, models.FieldBody,
			models.FieldCertifiedService, models.FieldSingleOwner, models.FieldDriveTrain},
		[]string{"a", "Benzina", "Elettrica/Benzina", "SUV", "Sì", "1", "4x4"},
		[]string{"b", "Diesel", "", "Furgone", "No", "2", "Anteriore"},
		[]string{"c", "", "", "", "", "1,0", ""},
	)

	NewCategoryMapper().Map(tbl)

	want := []map[string]string{
		{models.FieldFuel: FuelHybrid, models.FieldBody: BodySUV, models.FieldCertifiedService: "True",
			models.FieldSingleOwner: "True", models.FieldDriveTrain: "Integrale"},
		{models.FieldFuel: FuelDiesel, models.FieldBody: BodyVan, models.FieldCertifiedService: "False",
			models.FieldSingleOwner: "False", models.FieldDriveTrain: "Anteriore"},
		{models.FieldFuel: FuelOther, models.FieldBody: BodyOther, models.FieldCertifiedService: "False",
			models.FieldSingleOwner: "True", models.FieldDriveTrain: ""},
	}
	for i, l := range tbl.Listings {
		for field, v := range want[i] {
			if got := l.Text(field); got != v {
				t.Errorf("listing %s %s: got %q, want %q", l.Key, field, got, v)
			}
		}
	}
}

func TestCleanerProducesCanonicalSchema(t *testing.T) {
	c := newTestCleaner()
	raw := rawTable(
		[]string{"price", "Anno", "Chilometraggio", "Potenza", "Consumo di\ncarburante", "Carburante", "Descrizione"},
		[]string{"/annunci/fiat-panda-1", "€ 12.500", "03/2019", "45.000 km", "51 kW (69 CV)", "5,5 l/100 km (comb.)", "Benzina", "ottime condizioni"},
		[]string{"/annunci/bmw-x1-2/", "€ 31.900", "", "", "", "", "Diesel", ""},
	)

	got, err := c.Clean(raw)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}

	names := models.CanonicalNames()
	if len(got.Columns) != len(names) {
		t.Fatalf("columns: got %d, want %d", len(got.Columns), len(names))
	}
	for i := range names {
		if got.Columns[i] != names[i] {
			t.Fatalf("column %d: got %q, want %q", i, got.Columns[i], names[i])
		}
	}

	panda := got.Listings[0]
	if panda.Key != "fiat-panda-1" {
		t.Errorf("key: got %q", panda.Key)
	}
	checks := map[string]string{
		models.FieldPrice:           "12500",
		models.FieldRegistration:    "2019-03-01",
		models.FieldMileage:         "45000",
		models.FieldPowerKW:         "51",
		models.FieldPowerCV:         "69",
		models.FieldConsumptionComb: "5.5",
		models.FieldFuel:            FuelGasoline,
	}
	for field, want := range checks {
		if v := panda.Text(field); v != want {
			t.Errorf("%s: got %q, want %q", field, v, want)
		}
	}
	for _, dropped := range []string{"Descrizione", models.SourcePower, models.SourceConsumption} {
		if _, ok := panda.Values[dropped]; ok {
			t.Errorf("non-canonical column %q survived", dropped)
		}
	}

	bmw := got.Listings[1]
	if bmw.Key != "bmw-x1-2" {
		t.Errorf("key: got %q", bmw.Key)
	}
	if _, ok := bmw.Get(models.FieldRegistration); ok {
		t.Errorf("empty registration should stay missing")
	}
}

func TestCleanerDropsEmptyKeys(t *testing.T) {
	c := newTestCleaner()
	raw := rawTable([]string{"price"},
		[]string{"", "€ 100"},
		[]string{"/annunci/", "€ 200"},
		[]string{"/annunci/kept", "€ 300"},
	)

	got, err := c.Clean(raw)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if got.Len() != 1 || got.Listings[0].Key != "kept" {
		t.Errorf("expected only listing 'kept', got %d listings", got.Len())
	}
}

func TestCleanerFailsOnMalformedDate(t *testing.T) {
	c := newTestCleaner()
	raw := rawTable([]string{"Anno"}, []string{"/annunci/a", "ieri"})

	_, err := c.Clean(raw)
	if !errors.Is(err, ErrMalformedDate) {
		t.Fatalf("want ErrMalformedDate, got %v", err)
	}
}

func TestProjectorIsStable(t *testing.T) {
	p := NewSchemaProjector()
	tbl := models.NewTable([]string{"zzz", models.FieldPrice})
	l := models.NewListing("k")
	l.Set("zzz", "x")
	l.Set(models.FieldPrice, "10")
	tbl.Append(l)

	p.Project(tbl)
	p.Reorder(tbl)
	first := append([]string(nil), tbl.Columns...)
	p.Project(tbl)
	p.Reorder(tbl)

	if len(first) != len(models.CanonicalFields) {
		t.Fatalf("columns: got %d", len(first))
	}
	for i := range first {
		if first[i] != tbl.Columns[i] {
			t.Fatalf("projection not idempotent at %d: %q vs %q", i, first[i], tbl.Columns[i])
		}
	}
	if l.Text(models.FieldPrice) != "10" {
		t.Errorf("price lost in projection")
	}
	if _, ok := l.Values["zzz"]; ok {
		t.Errorf("extra column kept")
	}
}
