package postgres

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/couchcryptid/road-crash-etl-service/internal/domain"
	"github.com/couchcryptid/road-crash-etl-service/internal/geography"
	"github.com/couchcryptid/road-crash-etl-service/internal/pipeline"
)

const insertCrash = `
INSERT INTO CrashLocations (
    ID, SeverityIndex, SeverityID, NatureID, TypeID,
    RoadwayFeatureID, TrafficControlID, AtmosphericConditionID,
    CrashDate, Location,
    Street, StreetIntersecting, Suburb, Council, Postcode, SpeedLimit,
    Sealed, Dry, Day, Lit, PartialDaylight,
    ApproachBearing, Description, InvolvedGroupDescription,
    CasualtyFatality, CasualtyHospital, CasualtyMedicallyTreated, CasualtyMinorInjury,
    InvolvedCar, InvolvedMotorcycle, InvolvedTruck, InvolvedBus,
    InvolvedBicycle, InvolvedPedestrian, InvolvedOther
) VALUES (
    $1, $2, $3, $4, $5,
    $6, $7, $8,
    $9, ST_GeogFromText($10),
    $11, $12, $13, $14, $15, $16,
    $17, $18, $19, $20, $21,
    $22, $23, $24,
    $25, $26, $27, $28,
    $29, $30, $31, $32,
    $33, $34, $35
)`

// BeginImport opens the transaction an import writes into.
func (s *Store) BeginImport(ctx context.Context) (pipeline.ImportTx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &importTx{tx: tx}, nil
}

type importTx struct {
	tx pgx.Tx
}

// InsertCrash writes one record inside a savepoint, so a rejected row is
// rolled back on its own and the surrounding transaction stays usable.
func (t *importTx) InsertCrash(ctx context.Context, rec domain.CrashRecord) error {
	args, err := crashArgs(rec)
	if err != nil {
		return err
	}

	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("savepoint: %w", err)
	}

	if _, err := sp.Exec(ctx, insertCrash, args...); err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback savepoint: %w", rbErr)
		}
		return classify(err)
	}
	return sp.Commit(ctx)
}

func (t *importTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *importTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

// crashArgs binds rec to the insert parameters. Integers are narrowed to
// their column types here, so an out-of-range value fails the row instead of
// failing inside the driver's encoder.
func crashArgs(rec domain.CrashRecord) ([]any, error) {
	var c narrower
	args := []any{
		c.integer(domain.ColRefNumber, rec.ID), rec.SeverityIndex,
		c.smallint("severity id", rec.SeverityID), c.smallint("nature id", rec.NatureID), c.smallint("type id", rec.TypeID),
		c.optionalSmallint("roadway feature id", rec.RoadwayFeatureID),
		c.optionalSmallint("traffic control id", rec.TrafficControlID),
		c.optionalSmallint("atmospheric condition id", rec.AtmosphericConditionID),
		rec.CrashDate, geography.EncodeEWKT(geography.NewPoint(rec.Longitude, rec.Latitude)),
		nullString(rec.Street), nullString(rec.StreetIntersecting), nullString(rec.Suburb), nullString(rec.Council),
		c.integer(domain.ColPostcode, int64(rec.Postcode)), c.smallint(domain.ColSpeedLimit, rec.SpeedLimit),
		rec.Sealed, rec.Dry, rec.Lighting.Day, rec.Lighting.Lit, rec.Lighting.PartialDaylight,
		nullString(rec.ApproachBearing), nullString(rec.Description), nullString(rec.InvolvedGroupDescription),
		c.smallint(domain.ColFatality, rec.Casualties.Fatality),
		c.smallint(domain.ColHospitalised, rec.Casualties.Hospitalised),
		c.smallint(domain.ColMedicallyTreated, rec.Casualties.MedicallyTreated),
		c.smallint(domain.ColMinorInjury, rec.Casualties.MinorInjury),
		c.smallint(domain.ColUnitCar, rec.Units.Car),
		c.smallint(domain.ColUnitMotorcycle, rec.Units.Motorcycle),
		c.smallint(domain.ColUnitTruck, rec.Units.Truck),
		c.smallint(domain.ColUnitBus, rec.Units.Bus),
		c.smallint(domain.ColUnitBicycle, rec.Units.Bicycle),
		c.smallint(domain.ColUnitPedestrian, rec.Units.Pedestrian),
		c.smallint(domain.ColUnitOther, rec.Units.Other),
	}
	if c.err != nil {
		return nil, c.err
	}
	return args, nil
}

// narrower converts integers to column widths, keeping the first failure.
type narrower struct {
	err error
}

func (n *narrower) fail(field string, v int64, lo, hi int64) {
	if n.err == nil {
		n.err = &domain.RowFormatError{
			Field: field,
			Value: strconv.FormatInt(v, 10),
			Err:   fmt.Errorf("outside %d..%d", lo, hi),
		}
	}
}

func (n *narrower) smallint(field string, v int) int16 {
	if v < math.MinInt16 || v > math.MaxInt16 {
		n.fail(field, int64(v), math.MinInt16, math.MaxInt16)
		return 0
	}
	return int16(v)
}

func (n *narrower) optionalSmallint(field string, v *int) *int16 {
	if v == nil {
		return nil
	}
	s := n.smallint(field, *v)
	return &s
}

func (n *narrower) integer(field string, v int64) int32 {
	if v < math.MinInt32 || v > math.MaxInt32 {
		n.fail(field, v, math.MinInt32, math.MaxInt32)
		return 0
	}
	return int32(v)
}

// nullString stores blank text columns as NULL.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
