package query

import (
	"time"

	"github.com/couchcryptid/road-crash-etl-service/internal/geography"
)

// Crash is the API representation of a stored crash. Location is a
// [lon, lat] pair, or null with LocationError set when the stored geography
// could not be decoded.
type Crash struct {
	ID                       int64       `json:"id"`
	SeverityIndex            int         `json:"severity_index"`
	NearestAADT              *int        `json:"nearest_aadt"`
	SeverityID               int         `json:"severity_id"`
	NatureID                 int         `json:"nature_id"`
	TypeID                   int         `json:"type_id"`
	RoadwayFeatureID         *int        `json:"roadway_feature_id"`
	TrafficControlID         *int        `json:"traffic_control_id"`
	AtmosphericConditionID   *int        `json:"atmospheric_condition_id"`
	CrashDate                time.Time   `json:"crash_date"`
	Location                 *[2]float64 `json:"location"`
	LocationError            string      `json:"location_error,omitempty"`
	Street                   *string     `json:"street"`
	StreetIntersecting       *string     `json:"street_intersecting"`
	Suburb                   *string     `json:"suburb"`
	Council                  *string     `json:"council"`
	Postcode                 *int        `json:"postcode"`
	SpeedLimit               *int        `json:"speed_limit"`
	Sealed                   *bool       `json:"sealed"`
	Dry                      *bool       `json:"dry"`
	Day                      *bool       `json:"day"`
	Lit                      *bool       `json:"lit"`
	PartialDaylight          *bool       `json:"partial_daylight"`
	ApproachBearing          *string     `json:"approach_bearing"`
	Description              *string     `json:"description"`
	InvolvedGroupDescription *string     `json:"involved_group_description"`
	CasualtyFatality         int         `json:"casualty_fatality"`
	CasualtyHospital         int         `json:"casualty_hospital"`
	CasualtyMedicallyTreated int         `json:"casualty_medically_treated"`
	CasualtyMinorInjury      int         `json:"casualty_minor_injury"`
	InvolvedCar              int         `json:"involved_car"`
	InvolvedMotorcycle       int         `json:"involved_motorcycle"`
	InvolvedTruck            int         `json:"involved_truck"`
	InvolvedBus              int         `json:"involved_bus"`
	InvolvedBicycle          int         `json:"involved_bicycle"`
	InvolvedPedestrian       int         `json:"involved_pedestrian"`
	InvolvedOther            int         `json:"involved_other"`
}

// Project converts stored rows into API crashes, decoding each location.
// A row whose geography is not a point keeps its other fields; its location
// is nulled and flagged. The second result counts such rows.
func Project(rows []Row) ([]Crash, int) {
	out := make([]Crash, 0, len(rows))
	bad := 0
	for i := range rows {
		c := project(&rows[i])
		if c.LocationError != "" {
			bad++
		}
		out = append(out, c)
	}
	return out, bad
}

func project(r *Row) Crash {
	c := Crash{
		ID:                       r.ID,
		SeverityIndex:            r.SeverityIndex,
		NearestAADT:              r.NearestAADT,
		SeverityID:               r.SeverityID,
		NatureID:                 r.NatureID,
		TypeID:                   r.TypeID,
		RoadwayFeatureID:         r.RoadwayFeatureID,
		TrafficControlID:         r.TrafficControlID,
		AtmosphericConditionID:   r.AtmosphericConditionID,
		CrashDate:                r.CrashDate,
		Street:                   r.Street,
		StreetIntersecting:       r.StreetIntersecting,
		Suburb:                   r.Suburb,
		Council:                  r.Council,
		Postcode:                 r.Postcode,
		SpeedLimit:               r.SpeedLimit,
		Sealed:                   r.Sealed,
		Dry:                      r.Dry,
		Day:                      r.Day,
		Lit:                      r.Lit,
		PartialDaylight:          r.PartialDaylight,
		ApproachBearing:          r.ApproachBearing,
		Description:              r.Description,
		InvolvedGroupDescription: r.InvolvedGroupDescription,
		CasualtyFatality:         r.CasualtyFatality,
		CasualtyHospital:         r.CasualtyHospital,
		CasualtyMedicallyTreated: r.CasualtyMedicallyTreated,
		CasualtyMinorInjury:      r.CasualtyMinorInjury,
		InvolvedCar:              r.InvolvedCar,
		InvolvedMotorcycle:       r.InvolvedMotorcycle,
		InvolvedTruck:            r.InvolvedTruck,
		InvolvedBus:              r.InvolvedBus,
		InvolvedBicycle:          r.InvolvedBicycle,
		InvolvedPedestrian:       r.InvolvedPedestrian,
		InvolvedOther:            r.InvolvedOther,
	}

	p, err := geography.DecodeEWKB(r.Location)
	if err != nil {
		c.LocationError = err.Error()
		return c
	}
	c.Location = &[2]float64{p.Lon(), p.Lat()}
	return c
}
