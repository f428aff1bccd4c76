// Package geography encodes crash locations for the spatial store and decodes
// stored geography values back into longitude/latitude pairs.
package geography

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/couchcryptid/road-crash-etl-service/internal/domain"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/ewkb"
	"github.com/paulmach/orb/encoding/wkt"
)

// SRID is the GDA94 geographic reference used by the source data.
const SRID = 4283

const sridPrefix = "SRID="

// Point is a longitude/latitude pair, in that order.
type Point = orb.Point

// NewPoint builds a Point from longitude and latitude.
func NewPoint(lon, lat float64) Point {
	return Point{lon, lat}
}

// EncodeEWKT renders p as extended well-known text tagged with SRID,
// e.g. "SRID=4283;POINT(153.0251 -27.4698)".
func EncodeEWKT(p Point) string {
	return sridPrefix + strconv.Itoa(SRID) + ";" + wkt.MarshalString(p)
}

// DecodeEWKT parses extended or plain well-known text into a Point. A SRID
// tag, when present, must match SRID.
func DecodeEWKT(s string) (Point, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(strings.ToUpper(s), sridPrefix) {
		tag, body, ok := strings.Cut(s, ";")
		if !ok {
			return Point{}, &domain.GeometryFormatError{Reason: "missing ';' after SRID tag"}
		}
		srid, err := strconv.Atoi(tag[len(sridPrefix):])
		if err != nil {
			return Point{}, &domain.GeometryFormatError{Reason: "invalid SRID tag", Err: err}
		}
		if err := checkSRID(srid); err != nil {
			return Point{}, err
		}
		s = body
	}

	geom, err := wkt.Unmarshal(s)
	if err != nil {
		return Point{}, &domain.GeometryFormatError{Reason: "invalid well-known text", Err: err}
	}
	return asPoint(geom)
}

// DecodeEWKB parses extended well-known binary, as returned by ST_AsEWKB,
// into a Point.
func DecodeEWKB(b []byte) (Point, error) {
	if len(b) == 0 {
		return Point{}, &domain.GeometryFormatError{Reason: "empty geometry"}
	}
	geom, srid, err := ewkb.Unmarshal(b)
	if err != nil {
		return Point{}, &domain.GeometryFormatError{Reason: "invalid well-known binary", Err: err}
	}
	if err := checkSRID(srid); err != nil {
		return Point{}, err
	}
	return asPoint(geom)
}

// EncodeEWKB renders p as little-endian extended well-known binary.
func EncodeEWKB(p Point) ([]byte, error) {
	return ewkb.Marshal(p, SRID)
}

// checkSRID accepts the expected SRID or none (0).
func checkSRID(srid int) error {
	if srid != 0 && srid != SRID {
		return &domain.GeometryFormatError{Reason: fmt.Sprintf("unexpected SRID %d", srid)}
	}
	return nil
}

func asPoint(geom orb.Geometry) (Point, error) {
	if geom == nil {
		return Point{}, &domain.GeometryFormatError{Reason: "empty geometry"}
	}
	p, ok := geom.(orb.Point)
	if !ok {
		return Point{}, &domain.GeometryFormatError{Reason: "expected point, got " + geom.GeoJSONType()}
	}
	return p, nil
}
