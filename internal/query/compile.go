package query

import (
	"fmt"
	"strings"
	"time"
)

// MaxLimit caps the number of crashes a single query returns.
const MaxLimit = 1000

// Statement is a compiled, parameterized SQL query.
type Statement struct {
	SQL  string
	Args []any
}

// crashColumns is the projection shared by Compile and Row. The location is
// returned as EWKB so it can be decoded without a PostGIS type codec.
const crashColumns = `ID, SeverityIndex, NearestAADT, SeverityID, NatureID, TypeID,
	RoadwayFeatureID, TrafficControlID, AtmosphericConditionID, CrashDate,
	ST_AsEWKB(Location::geometry) AS Location,
	Street, StreetIntersecting, Suburb, Council, Postcode, SpeedLimit,
	Sealed, Dry, Day, Lit, PartialDaylight, ApproachBearing,
	Description, InvolvedGroupDescription,
	CasualtyFatality, CasualtyHospital, CasualtyMedicallyTreated, CasualtyMinorInjury,
	InvolvedCar, InvolvedMotorcycle, InvolvedTruck, InvolvedBus,
	InvolvedBicycle, InvolvedPedestrian, InvolvedOther`

// Row is one CrashLocations row as selected by a compiled Statement. Field
// order matches crashColumns.
type Row struct {
	ID                       int64
	SeverityIndex            int
	NearestAADT              *int
	SeverityID               int
	NatureID                 int
	TypeID                   int
	RoadwayFeatureID         *int
	TrafficControlID         *int
	AtmosphericConditionID   *int
	CrashDate                time.Time
	Location                 []byte
	Street                   *string
	StreetIntersecting       *string
	Suburb                   *string
	Council                  *string
	Postcode                 *int
	SpeedLimit               *int
	Sealed                   *bool
	Dry                      *bool
	Day                      *bool
	Lit                      *bool
	PartialDaylight          *bool
	ApproachBearing          *string
	Description              *string
	InvolvedGroupDescription *string
	CasualtyFatality         int
	CasualtyHospital         int
	CasualtyMedicallyTreated int
	CasualtyMinorInjury      int
	InvolvedCar              int
	InvolvedMotorcycle       int
	InvolvedTruck            int
	InvolvedBus              int
	InvolvedBicycle          int
	InvolvedPedestrian       int
	InvolvedOther            int
}

// Compile turns a filter into a query returning at most limit crashes,
// highest severity index first. A limit outside 1..MaxLimit is clamped to
// MaxLimit. Invalid filters yield a *CompileError.
func Compile(f Filter, limit int) (Statement, error) {
	if limit <= 0 || limit > MaxLimit {
		limit = MaxLimit
	}

	var b Builder
	if err := addPredicates(&b, f); err != nil {
		return Statement{}, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(crashColumns)
	sb.WriteString("\nFROM CrashLocations")
	where, args := b.Build()
	if where != "" {
		sb.WriteString("\nWHERE ")
		sb.WriteString(where)
	}
	fmt.Fprintf(&sb, "\nORDER BY SeverityIndex DESC, ID\nLIMIT %d", limit)

	return Statement{SQL: sb.String(), Args: args}, nil
}

func addPredicates(b *Builder, f Filter) error {
	box, err := f.boundingBox()
	if err != nil {
		return err
	}
	if box != nil {
		// Matches the GIST index on Location::geometry; edges are inclusive.
		b.Add("ST_Covers(ST_MakeEnvelope(?, ?, ?, ?, 4283), Location::geometry)",
			box.MinLon, box.MinLat, box.MaxLon, box.MaxLat)
	}

	if f.YearMin != nil && f.YearMax != nil && *f.YearMin > *f.YearMax {
		return &CompileError{Field: "yearmin/yearmax", Reason: fmt.Sprintf("yearmin %d is after yearmax %d", *f.YearMin, *f.YearMax)}
	}
	if f.YearMin != nil {
		b.Add("EXTRACT(YEAR FROM CrashDate) >= ?", *f.YearMin)
	}
	if f.YearMax != nil {
		b.Add("EXTRACT(YEAR FROM CrashDate) <= ?", *f.YearMax)
	}

	if err := addVehicleTypes(b, f.VehicleTypes); err != nil {
		return err
	}

	idSets := []struct {
		field, column string
		ids           []int
	}{
		{"severity", "SeverityID", f.Severity},
		{"nature", "NatureID", f.Nature},
		{"type", "TypeID", f.Type},
		{"weather", "AtmosphericConditionID", f.Weather},
	}
	for _, s := range idSets {
		if len(s.ids) == 0 {
			continue
		}
		if err := validateIDs(s.field, s.ids); err != nil {
			return err
		}
		b.Add(s.column+" = ANY(?)", s.ids)
	}

	flags := []struct {
		column string
		value  *bool
	}{
		{"Sealed", f.Sealed},
		{"Dry", f.Dry},
		{"Day", f.Day},
		{"PartialDaylight", f.PartialDay},
		{"Lit", f.Lit},
	}
	for _, fl := range flags {
		if fl.value != nil {
			b.Add(fl.column+" = ?", *fl.value)
		}
	}
	return nil
}

// addVehicleTypes matches crashes involving at least one of the listed types.
func addVehicleTypes(b *Builder, types []string) error {
	if len(types) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(types))
	terms := make([]string, 0, len(types))
	for _, t := range types {
		key := strings.ToLower(strings.TrimSpace(t))
		col, ok := vehicleColumns[key]
		if !ok {
			return &CompileError{Field: "vehicle_types", Reason: fmt.Sprintf("unknown vehicle type %q", t)}
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		terms = append(terms, col+" > 0")
	}
	b.Add("(" + strings.Join(terms, " OR ") + ")")
	return nil
}
