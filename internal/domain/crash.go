package domain

import "time"

// RawRow is one CSV data line keyed by the header column names.
type RawRow map[string]string

// Source CSV column names.
const (
	ColRefNumber          = "Crash_Ref_Number"
	ColSeverity           = "Crash_Severity"
	ColYear               = "Crash_Year"
	ColMonth              = "Crash_Month"
	ColHour               = "Crash_Hour"
	ColNature             = "Crash_Nature"
	ColType               = "Crash_Type"
	ColLongitude          = "Crash_Longitude_GDA94"
	ColLatitude           = "Crash_Latitude_GDA94"
	ColStreet             = "Crash_Street"
	ColStreetIntersecting = "Crash_Street_Intersecting"
	ColSuburb             = "Loc_Suburb"
	ColCouncil            = "Loc_Local_Government_Area"
	ColPostcode           = "Loc_Post_Code"
	ColRoadwayFeature     = "Crash_Roadway_Feature"
	ColTrafficControl     = "Crash_Traffic_Control"
	ColSpeedLimit         = "Crash_Speed_Limit"
	ColSurfaceCondition   = "Crash_Road_Surface_Condition"
	ColAtmospheric        = "Crash_Atmospheric_Condition"
	ColLighting           = "Crash_Lighting_Condition"
	ColApproachDir        = "DCA_Key_Approach_Dir"
	ColDescription        = "Crash_DCA_Description"
	ColGroupDescription   = "Crash_DCA_Group_Description"
	ColFatality           = "Count_Casualty_Fatality"
	ColHospitalised       = "Count_Casualty_Hospitalised"
	ColMedicallyTreated   = "Count_Casualty_MedicallyTreated"
	ColMinorInjury        = "Count_Casualty_MinorInjury"
	ColUnitCar            = "Count_Unit_Car"
	ColUnitMotorcycle     = "Count_Unit_Motorcycle_Moped"
	ColUnitTruck          = "Count_Unit_Truck"
	ColUnitBus            = "Count_Unit_Bus"
	ColUnitBicycle        = "Count_Unit_Bicycle"
	ColUnitPedestrian     = "Count_Unit_Pedestrian"
	ColUnitOther          = "Count_Unit_Other"
)

// Casualties counts people hurt in a crash, by injury severity.
type Casualties struct {
	Fatality         int `json:"fatality"`
	Hospitalised     int `json:"hospitalised"`
	MedicallyTreated int `json:"medically_treated"`
	MinorInjury      int `json:"minor_injury"`
}

// Units counts the vehicles and road users involved in a crash.
type Units struct {
	Car        int `json:"car"`
	Motorcycle int `json:"motorcycle"`
	Truck      int `json:"truck"`
	Bus        int `json:"bus"`
	Bicycle    int `json:"bicycle"`
	Pedestrian int `json:"pedestrian"`
	Other      int `json:"other"`
}

// Total returns the number of units involved.
func (u Units) Total() int {
	return u.Car + u.Motorcycle + u.Truck + u.Bus + u.Bicycle + u.Pedestrian + u.Other
}

// Lighting holds the flags derived from the lighting-condition label.
type Lighting struct {
	Day             bool
	Lit             bool
	PartialDaylight bool
}

// CrashRecord is a normalized, scored crash ready to be stored.
type CrashRecord struct {
	ID            int64
	SeverityIndex int

	SeverityID             int
	NatureID               int
	TypeID                 int
	RoadwayFeatureID       *int
	TrafficControlID       *int
	AtmosphericConditionID *int

	CrashDate time.Time
	Longitude float64
	Latitude  float64

	Street             string
	StreetIntersecting string
	Suburb             string
	Council            string
	Postcode           int
	SpeedLimit         int
	Sealed             bool
	Dry                bool
	Lighting           Lighting

	ApproachBearing          string
	Description              string
	InvolvedGroupDescription string

	Casualties Casualties
	Units      Units
}

// CensusRecord is a traffic-count sample at a census site. Only the storage
// schema exists for it; census ingestion is not implemented.
type CensusRecord struct {
	ID        int64
	SiteID    int64
	Year      int
	Longitude float64
	Latitude  float64
	AADT      int
	PcntHV    float64
}

// ImportSummary describes the outcome of one dataset import.
type ImportSummary struct {
	RunID      string         `json:"run_id"`
	Source     string         `json:"source"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Duration   time.Duration  `json:"duration_ns"`
	Processed  int            `json:"processed"`
	Stored     int            `json:"stored"`
	Failed     int            `json:"failed"`
	Skipped    int            `json:"skipped"`
	Failures   map[string]int `json:"failures"`
}

// CensusDatasetURLs lists the traffic census CSV per census year.
var CensusDatasetURLs = map[int]string{
	2009: "http://www.tmr.qld.gov.au/-/media/aboutus/corpinfo/Open%20data/trafficcensus/trafficcensus2004-2009.csv",
	2010: "http://www.tmr.qld.gov.au/~/media/aboutus/corpinfo/Open%20data/trafficcensus/trafficcensus2010csv.csv",
	2011: "http://www.tmr.qld.gov.au/~/media/aboutus/corpinfo/Open%20data/trafficcensus/trafficcensus2011csv.csv",
	2012: "http://www.tmr.qld.gov.au/~/media/aboutus/corpinfo/Open%20data/trafficcensus/trafficcensus2012.csv",
	2013: "http://www.tmr.qld.gov.au/~/media/aboutus/corpinfo/Open%20data/trafficcensus/traffic_census_2013.csv",
	2014: "http://www.tmr.qld.gov.au/~/media/aboutus/corpinfo/Open%20data/trafficcensus/trafficcensus2014.csv",
	2015: "http://www.tmr.qld.gov.au/-/media/aboutus/corpinfo/Open%20data/trafficcensus/trafficcensus2015.csv",
	2016: "http://www.tmr.qld.gov.au/-/media/aboutus/corpinfo/Open%20data/trafficcensus/trafficcensus2016_csv.csv",
	2017: "http://www.tmr.qld.gov.au/-/media/aboutus/corpinfo/Open%20data/trafficcensus/trafficcensus2017.csv",
	2018: "http://www.tmr.qld.gov.au/-/media/aboutus/corpinfo/Open%20data/trafficcensus/trafficcensus2018.csv",
	2019: "https://www.data.qld.gov.au/dataset/5d74e022-a302-4f40-a594-f1840c92f671/resource/dc82ec39-4513-437c-8d07-ecb08474a065/download/trafficcensus2019.csv",
	2020: "https://www.data.qld.gov.au/dataset/5d74e022-a302-4f40-a594-f1840c92f671/resource/1f52e522-7cb8-451c-b4c2-8467a087e883/download/trafficcensus2020.csv",
}

// CrashLocationsURL is the default road crash locations dataset.
const CrashLocationsURL = "https://www.data.qld.gov.au/dataset/f3e0ca94-2d7b-44ee-abef-d6b06e9b0729/resource/e88943c0-5968-4972-a15f-38e120d72ec0/download/1_crash_locations.csv"
