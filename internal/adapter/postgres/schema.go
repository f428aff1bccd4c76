package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/couchcryptid/road-crash-etl-service/internal/domain"
)

const createCrashLocations = `
CREATE TABLE IF NOT EXISTS CrashLocations (
    ID INTEGER PRIMARY KEY,
    SeverityIndex INTEGER NOT NULL,
    NearestAADT INTEGER,
    SeverityID SMALLINT NOT NULL REFERENCES CrashSeverity(ID),
    NatureID SMALLINT NOT NULL REFERENCES CrashNature(ID),
    TypeID SMALLINT NOT NULL REFERENCES CrashType(ID),
    RoadwayFeatureID SMALLINT REFERENCES RoadwayFeature(ID),
    TrafficControlID SMALLINT REFERENCES TrafficControl(ID),
    AtmosphericConditionID SMALLINT REFERENCES AtmosphericCondition(ID),
    CrashDate TIMESTAMP NOT NULL,
    Location GEOGRAPHY(POINT, 4283) NOT NULL,
    Street VARCHAR(255),
    StreetIntersecting VARCHAR(255),
    Suburb VARCHAR(255),
    Council VARCHAR(255),
    Postcode INTEGER,
    SpeedLimit SMALLINT,
    Sealed BOOLEAN,
    Dry BOOLEAN,
    Day BOOLEAN,
    Lit BOOLEAN,
    PartialDaylight BOOLEAN,
    ApproachBearing VARCHAR(1),
    Description TEXT,
    InvolvedGroupDescription TEXT,
    CasualtyFatality SMALLINT NOT NULL,
    CasualtyHospital SMALLINT NOT NULL,
    CasualtyMedicallyTreated SMALLINT NOT NULL,
    CasualtyMinorInjury SMALLINT NOT NULL,
    InvolvedCar SMALLINT NOT NULL,
    InvolvedMotorcycle SMALLINT NOT NULL,
    InvolvedTruck SMALLINT NOT NULL,
    InvolvedBus SMALLINT NOT NULL,
    InvolvedBicycle SMALLINT NOT NULL,
    InvolvedPedestrian SMALLINT NOT NULL,
    InvolvedOther SMALLINT NOT NULL
)`

const createCensusLocations = `
CREATE TABLE IF NOT EXISTS CensusLocations (
    ID INTEGER PRIMARY KEY,
    SiteID INTEGER NOT NULL,
    Year SMALLINT NOT NULL,
    Location GEOGRAPHY(POINT, 4283) NOT NULL,
    AADT INTEGER NOT NULL,
    PcntHV NUMERIC(5, 2)
)`

var createIndexes = []string{
	`CREATE INDEX IF NOT EXISTS crashlocations_location_idx ON CrashLocations USING GIST (Location)`,
	`CREATE INDEX IF NOT EXISTS crashlocations_location_geom_idx ON CrashLocations USING GIST ((Location::geometry))`,
	`CREATE INDEX IF NOT EXISTS crashlocations_severity_idx ON CrashLocations (SeverityIndex DESC, ID)`,
	`CREATE INDEX IF NOT EXISTS censuslocations_location_idx ON CensusLocations USING GIST (Location)`,
}

// EnsureSchema creates the PostGIS extension, the reference tables and the
// crash and census tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{`CREATE EXTENSION IF NOT EXISTS postgis`}
	for _, table := range domain.ReferenceTables {
		stmts = append(stmts, fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (ID SMALLINT PRIMARY KEY, Name VARCHAR(255) NOT NULL UNIQUE)`,
			table.Name))
	}
	stmts = append(stmts, createCrashLocations, createCensusLocations)
	stmts = append(stmts, createIndexes...)

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	s.logger.Info("schema ready")
	return nil
}

// Seed inserts the fixed reference rows. Existing rows are left untouched.
func (s *Store) Seed(ctx context.Context) error {
	batch := &pgx.Batch{}
	for _, table := range domain.ReferenceTables {
		stmt := fmt.Sprintf(`INSERT INTO %s (ID, Name) VALUES ($1, $2) ON CONFLICT DO NOTHING`, table.Name)
		for _, id := range domain.SortedIDs(table.Rows) {
			batch.Queue(stmt, id, table.Rows[id])
		}
	}

	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("seed reference tables: %w", err)
	}
	s.logger.Info("reference tables seeded", "rows", batch.Len())
	return nil
}
