// Package geo holds the planar coordinate math used by the dispatch
// simulation and the map view.
package geo

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/s2"
)

// earthRadiusMeters is the mean Earth radius used for display distances.
const earthRadiusMeters = 6371008.8

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// MapPosition is a point projected into a 0-100% display space.
type MapPosition struct {
	Top  float64 `json:"top"`
	Left float64 `json:"left"`
}

// Bounds is the lat/lng rectangle mapped onto the display.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLng float64 `json:"max_lng"`
}

// WorldBounds covers the whole lat/lng range.
var WorldBounds = Bounds{MinLat: -90, MaxLat: 90, MinLng: -180, MaxLng: 180}

// Lng is x, lat is y.
func (p Point) vec() r2.Point {
	return r2.Point{X: p.Longitude, Y: p.Latitude}
}

func fromVec(v r2.Point) Point {
	return Point{Latitude: v.Y, Longitude: v.X}
}

// IsFinite reports whether both coordinates are finite numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.Latitude) && !math.IsInf(p.Latitude, 0) &&
		!math.IsNaN(p.Longitude) && !math.IsInf(p.Longitude, 0)
}

// Distance returns the straight-line distance between a and b treated as
// planar coordinates. No great-circle correction is applied.
func Distance(a, b Point) float64 {
	return b.vec().Sub(a.vec()).Norm()
}

// Bearing returns the planar heading from a to b in degrees, 0 pointing
// north and growing clockwise, in the range [0, 360).
func Bearing(a, b Point) float64 {
	d := b.vec().Sub(a.vec())
	deg := math.Atan2(d.X, d.Y) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}

// Approach moves fraction of the remaining vector from `from` toward `to`.
func Approach(from, to Point, fraction float64) Point {
	delta := to.vec().Sub(from.vec())
	return fromVec(from.vec().Add(delta.Mul(fraction)))
}

// HaversineMeters returns the great-circle distance between a and b.
// Only used for display; the simulation runs on planar distances.
func HaversineMeters(a, b Point) float64 {
	la := s2.LatLngFromDegrees(a.Latitude, a.Longitude)
	lb := s2.LatLngFromDegrees(b.Latitude, b.Longitude)
	return la.Distance(lb).Radians() * earthRadiusMeters
}

// Project linearly maps p into the display space of b. Points outside b are
// not clamped; callers filter them with Contains.
func Project(p Point, b Bounds) MapPosition {
	return MapPosition{
		Top:  100 - (p.Latitude-b.MinLat)/(b.MaxLat-b.MinLat)*100,
		Left: (p.Longitude - b.MinLng) / (b.MaxLng - b.MinLng) * 100,
	}
}

// Contains reports whether p lies inside b, edges included.
func (b Bounds) Contains(p Point) bool {
	return p.Latitude >= b.MinLat && p.Latitude <= b.MaxLat &&
		p.Longitude >= b.MinLng && p.Longitude <= b.MaxLng
}
