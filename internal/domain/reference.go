package domain

import (
	"sort"
	"strings"
)

// ReferenceTable names a fixed id/label lookup table in the store.
type ReferenceTable string

const (
	TableSeverity             ReferenceTable = "CrashSeverity"
	TableNature               ReferenceTable = "CrashNature"
	TableType                 ReferenceTable = "CrashType"
	TableRoadwayFeature       ReferenceTable = "RoadwayFeature"
	TableTrafficControl       ReferenceTable = "TrafficControl"
	TableAtmosphericCondition ReferenceTable = "AtmosphericCondition"
)

// ReferenceTables holds the seed rows for every lookup table, id -> label.
// Order matters: it is the creation order used by the store.
var ReferenceTables = []struct {
	Name ReferenceTable
	Rows map[int]string
}{
	{TableSeverity, crashSeverities},
	{TableNature, crashNatures},
	{TableType, crashTypes},
	{TableRoadwayFeature, roadwayFeatures},
	{TableTrafficControl, trafficControls},
	{TableAtmosphericCondition, atmosphericConditions},
}

var crashSeverities = map[int]string{
	1: "Fatal",
	2: "Hospitalisation",
	3: "Medical treatment",
	4: "Minor injury",
	5: "Property damage only",
}

var crashNatures = map[int]string{
	1:  "Angle",
	2:  "Collision - miscellaneous",
	3:  "Fall from vehicle",
	4:  "Head-on",
	5:  "Hit animal",
	6:  "Hit object",
	7:  "Hit parked vehicle",
	8:  "Hit pedestrian",
	9:  "Non-collision - miscellaneous",
	10: "Other",
	11: "Overturned",
	12: "Rear-end",
	13: "Sideswipe",
	14: "Struck by external load",
	15: "Struck by internal load",
}

var crashTypes = map[int]string{
	1: "Hit pedestrian",
	2: "Multi-Vehicle",
	3: "Other",
	4: "Single Vehicle",
}

var roadwayFeatures = map[int]string{
	1:  "No Roadway Feature",
	2:  "Intersection - Cross",
	3:  "Intersection - T-Junction",
	4:  "Intersection - Roundabout",
	5:  "Bridge/Causeway",
	6:  "Median Opening",
	7:  "Intersection - Y-Junction",
	8:  "Intersection - Interchange",
	9:  "Merge Lane",
	10: "Intersection - Multiple Road",
	11: "Bikeway",
	12: "Other",
	13: "Intersection - 5+ way",
	14: "Railway Crossing",
	15: "Forestry/National Park Road",
	16: "Miscellaneous",
}

var trafficControls = map[int]string{
	1:  "No traffic control",
	2:  "Operating traffic lights",
	3:  "Give way sign",
	4:  "Stop sign",
	5:  "Police",
	6:  "Flashing amber lights",
	7:  "Pedestrian crossing sign",
	8:  "Road/Rail worker",
	9:  "School crossing - flags",
	10: "Railway - lights and boom gate",
	11: "Pedestrian operated lights",
	12: "LATM device",
	13: "Miscellaneous",
	14: "Railway crossing sign",
	15: "Supervised school crossing",
	16: "Railway - lights only",
	17: "Other",
}

var atmosphericConditions = map[int]string{
	1: "Clear",
	2: "Raining",
	3: "Fog",
	4: "Smoke/Dust",
}

// SortedIDs returns the ids of a reference table's rows in ascending order.
func SortedIDs(rows map[int]string) []int {
	ids := make([]int, 0, len(rows))
	for id := range rows {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Lookup resolves free-text labels to reference-table ids. It is built once
// and is safe for concurrent reads.
type Lookup struct {
	ids map[ReferenceTable]map[string]int
}

// NewLookup builds a Lookup from the seeded reference tables.
func NewLookup() *Lookup {
	l := &Lookup{ids: make(map[ReferenceTable]map[string]int, len(ReferenceTables))}
	for _, t := range ReferenceTables {
		byLabel := make(map[string]int, len(t.Rows))
		for id, label := range t.Rows {
			byLabel[label] = id
		}
		l.ids[t.Name] = byLabel
	}
	return l
}

// Resolve returns the id for label in table. Surrounding whitespace is
// ignored; matching is otherwise exact, as in the store.
func (l *Lookup) Resolve(table ReferenceTable, label string) (int, error) {
	label = strings.TrimSpace(label)
	id, ok := l.ids[table][label]
	if !ok {
		return 0, &UnknownCategoryError{Table: table, Label: label}
	}
	return id, nil
}

// ResolveOptional is Resolve for nullable columns: a blank label yields nil.
func (l *Lookup) ResolveOptional(table ReferenceTable, label string) (*int, error) {
	if strings.TrimSpace(label) == "" {
		return nil, nil
	}
	id, err := l.Resolve(table, label)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
