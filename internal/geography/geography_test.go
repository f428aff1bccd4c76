package geography

import (
	"testing"

	"github.com/couchcryptid/road-crash-etl-service/internal/domain"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/ewkb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var brisbane = NewPoint(153.0251, -27.4698)

func TestEncodeEWKT(t *testing.T) {
	assert.Equal(t, "SRID=4283;POINT(153.0251 -27.4698)", EncodeEWKT(brisbane))
}

func TestEWKTRoundTrip(t *testing.T) {
	points := []Point{
		brisbane,
		NewPoint(0, 0),
		NewPoint(-180, 90),
		NewPoint(138.59999999999999, -34.928499),
	}
	for _, p := range points {
		got, err := DecodeEWKT(EncodeEWKT(p))
		require.NoError(t, err)
		assert.InDelta(t, p.Lon(), got.Lon(), 1e-12)
		assert.InDelta(t, p.Lat(), got.Lat(), 1e-12)
	}
}

func TestEWKBRoundTrip(t *testing.T) {
	b, err := EncodeEWKB(brisbane)
	require.NoError(t, err)

	got, err := DecodeEWKB(b)
	require.NoError(t, err)
	assert.Equal(t, brisbane, got)
}

func TestDecodeEWKT(t *testing.T) {
	t.Run("plain WKT", func(t *testing.T) {
		p, err := DecodeEWKT("POINT(153.0251 -27.4698)")
		require.NoError(t, err)
		assert.Equal(t, brisbane, p)
	})

	t.Run("wrong SRID", func(t *testing.T) {
		_, err := DecodeEWKT("SRID=4326;POINT(153.0251 -27.4698)")
		var geomErr *domain.GeometryFormatError
		require.ErrorAs(t, err, &geomErr)
	})

	t.Run("not a point", func(t *testing.T) {
		_, err := DecodeEWKT("SRID=4283;LINESTRING(0 0,1 1)")
		var geomErr *domain.GeometryFormatError
		require.ErrorAs(t, err, &geomErr)
		assert.Contains(t, geomErr.Reason, "LineString")
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := DecodeEWKT("SRID=4283;nonsense")
		var geomErr *domain.GeometryFormatError
		require.ErrorAs(t, err, &geomErr)
	})

	t.Run("bad SRID tag", func(t *testing.T) {
		_, err := DecodeEWKT("SRID=abc;POINT(1 2)")
		var geomErr *domain.GeometryFormatError
		require.ErrorAs(t, err, &geomErr)
	})
}

func TestDecodeEWKB(t *testing.T) {
	t.Run("polygon is rejected", func(t *testing.T) {
		poly := orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}
		b, err := ewkb.Marshal(poly, SRID)
		require.NoError(t, err)

		_, err = DecodeEWKB(b)
		var geomErr *domain.GeometryFormatError
		require.ErrorAs(t, err, &geomErr)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := DecodeEWKB(nil)
		var geomErr *domain.GeometryFormatError
		require.ErrorAs(t, err, &geomErr)
	})

	t.Run("truncated", func(t *testing.T) {
		b, err := EncodeEWKB(brisbane)
		require.NoError(t, err)
		_, err = DecodeEWKB(b[:len(b)-3])
		var geomErr *domain.GeometryFormatError
		require.ErrorAs(t, err, &geomErr)
	})

	t.Run("no SRID", func(t *testing.T) {
		b, err := ewkb.Marshal(brisbane, 0)
		require.NoError(t, err)
		p, err := DecodeEWKB(b)
		require.NoError(t, err)
		assert.Equal(t, brisbane, p)
	})
}
