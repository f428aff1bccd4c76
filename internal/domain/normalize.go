package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// noLocationSentinel is the longitude value the source uses for crashes
// without spatial data.
const noLocationSentinel = "0"

// crashDateLayout matches "<year> <MonthName> <hour>", e.g. "2019 March 17".
const crashDateLayout = "2006 January 15"

// Normalizer turns raw CSV rows into scored crash records.
type Normalizer struct {
	lookup *Lookup
}

// NewNormalizer creates a Normalizer that resolves labels through lookup.
func NewNormalizer(lookup *Lookup) *Normalizer {
	return &Normalizer{lookup: lookup}
}

// Normalize validates and converts one raw row. It returns ErrNoLocation for
// rows without spatial data, a *RowFormatError for unparseable dates,
// coordinates or speed limits, and an *UnknownCategoryError for labels missing
// from the reference tables.
func (n *Normalizer) Normalize(row RawRow) (CrashRecord, error) {
	lonRaw := strings.TrimSpace(row[ColLongitude])
	if lonRaw == noLocationSentinel {
		return CrashRecord{}, ErrNoLocation
	}

	lon, err := parseCoordinate(ColLongitude, lonRaw, 180)
	if err != nil {
		return CrashRecord{}, err
	}
	lat, err := parseCoordinate(ColLatitude, strings.TrimSpace(row[ColLatitude]), 90)
	if err != nil {
		return CrashRecord{}, err
	}

	crashDate, err := parseCrashDate(row[ColYear], row[ColMonth], row[ColHour])
	if err != nil {
		return CrashRecord{}, err
	}

	speedLimit, err := parseSpeedLimit(row[ColSpeedLimit])
	if err != nil {
		return CrashRecord{}, err
	}

	rec := CrashRecord{
		ID:                       int64(parseIntOrZero(row[ColRefNumber])),
		CrashDate:                crashDate,
		Longitude:                lon,
		Latitude:                 lat,
		Street:                   strings.TrimSpace(row[ColStreet]),
		StreetIntersecting:       strings.TrimSpace(row[ColStreetIntersecting]),
		Suburb:                   strings.TrimSpace(row[ColSuburb]),
		Council:                  strings.TrimSpace(row[ColCouncil]),
		Postcode:                 parseIntOrZero(row[ColPostcode]),
		SpeedLimit:               speedLimit,
		Sealed:                   strings.HasPrefix(row[ColSurfaceCondition], "Sealed"),
		Dry:                      strings.HasSuffix(row[ColSurfaceCondition], "Dry"),
		Lighting:                 ParseLighting(row[ColLighting]),
		ApproachBearing:          strings.TrimSpace(row[ColApproachDir]),
		Description:              strings.TrimSpace(row[ColDescription]),
		InvolvedGroupDescription: strings.TrimSpace(row[ColGroupDescription]),
		Casualties: Casualties{
			Fatality:         parseCount(row[ColFatality]),
			Hospitalised:     parseCount(row[ColHospitalised]),
			MedicallyTreated: parseCount(row[ColMedicallyTreated]),
			MinorInjury:      parseCount(row[ColMinorInjury]),
		},
		Units: Units{
			Car:        parseCount(row[ColUnitCar]),
			Motorcycle: parseCount(row[ColUnitMotorcycle]),
			Truck:      parseCount(row[ColUnitTruck]),
			Bus:        parseCount(row[ColUnitBus]),
			Bicycle:    parseCount(row[ColUnitBicycle]),
			Pedestrian: parseCount(row[ColUnitPedestrian]),
			Other:      parseCount(row[ColUnitOther]),
		},
	}
	if err := checkStorable(row, rec); err != nil {
		return CrashRecord{}, err
	}
	rec.SeverityIndex = SeverityIndex(rec.Casualties, rec.Units)

	if err := n.resolveCategories(row, &rec); err != nil {
		return CrashRecord{}, err
	}
	return rec, nil
}

func (n *Normalizer) resolveCategories(row RawRow, rec *CrashRecord) error {
	var err error
	if rec.SeverityID, err = n.lookup.Resolve(TableSeverity, row[ColSeverity]); err != nil {
		return err
	}
	if rec.NatureID, err = n.lookup.Resolve(TableNature, row[ColNature]); err != nil {
		return err
	}
	if rec.TypeID, err = n.lookup.Resolve(TableType, row[ColType]); err != nil {
		return err
	}
	if rec.RoadwayFeatureID, err = n.lookup.ResolveOptional(TableRoadwayFeature, row[ColRoadwayFeature]); err != nil {
		return err
	}
	if rec.TrafficControlID, err = n.lookup.ResolveOptional(TableTrafficControl, row[ColTrafficControl]); err != nil {
		return err
	}
	if rec.AtmosphericConditionID, err = n.lookup.ResolveOptional(TableAtmosphericCondition, row[ColAtmospheric]); err != nil {
		return err
	}
	return nil
}

// ParseLighting maps a lighting-condition label to its flags. Unknown labels
// yield all flags false.
func ParseLighting(label string) Lighting {
	switch strings.TrimSpace(label) {
	case "Daylight":
		return Lighting{Day: true, Lit: true}
	case "Darkness - Lighted":
		return Lighting{Lit: true}
	case "Dawn/Dusk":
		return Lighting{PartialDaylight: true}
	default:
		return Lighting{}
	}
}

// parseIntOrZero parses s as an integer, returning 0 on failure.
func parseIntOrZero(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}

// parseCount parses a casualty or unit count. Counts are never negative.
func parseCount(s string) int {
	return max(parseIntOrZero(s), 0)
}

// parseCoordinate parses a decimal degree value bounded by ±limit.
func parseCoordinate(field, s string, limit float64) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &RowFormatError{Field: field, Value: s, Err: err}
	}
	if v < -limit || v > limit {
		return 0, &RowFormatError{Field: field, Value: s, Err: fmt.Errorf("outside ±%g", limit)}
	}
	return v, nil
}

// parseCrashDate combines the separate year, month-name and hour columns.
func parseCrashDate(year, month, hour string) (time.Time, error) {
	value := fmt.Sprintf("%s %s %s", strings.TrimSpace(year), strings.TrimSpace(month), strings.TrimSpace(hour))
	t, err := time.Parse(crashDateLayout, value)
	if err != nil {
		return time.Time{}, &RowFormatError{Field: "crash date", Value: value, Err: err}
	}
	return t, nil
}

// parseSpeedLimit extracts the upper bound from labels such as "60 km/h" or
// "0 - 50 km/h": the second-to-last whitespace token.
func parseSpeedLimit(label string) (int, error) {
	tokens := strings.Fields(label)
	if len(tokens) < 2 {
		return 0, &RowFormatError{Field: ColSpeedLimit, Value: label}
	}
	v, err := strconv.Atoi(tokens[len(tokens)-2])
	if err != nil {
		return 0, &RowFormatError{Field: ColSpeedLimit, Value: label, Err: err}
	}
	return v, nil
}

// Column widths of the crash table.
const (
	maxSmallint = math.MaxInt16
	minInteger  = math.MinInt32
	maxInteger  = math.MaxInt32
)

// checkStorable rejects values that parse but do not fit their column, and
// text the database would refuse as invalid UTF-8.
func checkStorable(row RawRow, rec CrashRecord) error {
	integers := []struct {
		field string
		v     int64
	}{
		{ColRefNumber, rec.ID},
		{ColPostcode, int64(rec.Postcode)},
	}
	for _, c := range integers {
		if c.v < minInteger || c.v > maxInteger {
			return &RowFormatError{Field: c.field, Value: row[c.field], Err: errors.New("outside integer range")}
		}
	}

	smallints := []struct {
		field string
		v     int
	}{
		{ColSpeedLimit, rec.SpeedLimit},
		{ColFatality, rec.Casualties.Fatality},
		{ColHospitalised, rec.Casualties.Hospitalised},
		{ColMedicallyTreated, rec.Casualties.MedicallyTreated},
		{ColMinorInjury, rec.Casualties.MinorInjury},
		{ColUnitCar, rec.Units.Car},
		{ColUnitMotorcycle, rec.Units.Motorcycle},
		{ColUnitTruck, rec.Units.Truck},
		{ColUnitBus, rec.Units.Bus},
		{ColUnitBicycle, rec.Units.Bicycle},
		{ColUnitPedestrian, rec.Units.Pedestrian},
		{ColUnitOther, rec.Units.Other},
	}
	for _, c := range smallints {
		if c.v < 0 || c.v > maxSmallint {
			return &RowFormatError{Field: c.field, Value: row[c.field], Err: fmt.Errorf("outside 0..%d", maxSmallint)}
		}
	}

	texts := []struct {
		field string
		v     string
	}{
		{ColStreet, rec.Street},
		{ColStreetIntersecting, rec.StreetIntersecting},
		{ColSuburb, rec.Suburb},
		{ColCouncil, rec.Council},
		{ColApproachDir, rec.ApproachBearing},
		{ColDescription, rec.Description},
		{ColGroupDescription, rec.InvolvedGroupDescription},
	}
	for _, c := range texts {
		if !utf8.ValidString(c.v) || strings.ContainsRune(c.v, 0) {
			return &RowFormatError{Field: c.field, Value: c.v, Err: errors.New("not valid UTF-8 text")}
		}
	}
	return nil
}
