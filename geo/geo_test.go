package geo

import (
	"math"
	"testing"
)

const tolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

func TestDistance(t *testing.T) {
	testCases := []struct {
		name string
		a, b Point
		e    float64
	}{
		{"same point", Point{1, 1}, Point{1, 1}, 0},
		{"unit diagonal", Point{0, 0}, Point{1, 1}, math.Sqrt2},
		{"3-4-5", Point{0, 0}, Point{3, 4}, 5},
		{"negative coords", Point{-1, -2}, Point{2, 2}, 5},
	}

	for _, tc := range testCases {
		if got := Distance(tc.a, tc.b); !almostEqual(got, tc.e) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.e, got)
		}
		if got := Distance(tc.b, tc.a); !almostEqual(got, tc.e) {
			t.Errorf("%s reversed: expected %v, got %v", tc.name, tc.e, got)
		}
	}
}

func TestBearing(t *testing.T) {
	testCases := []struct {
		name string
		a, b Point
		e    float64
	}{
		{"north", Point{0, 0}, Point{1, 0}, 0},
		{"east", Point{0, 0}, Point{0, 1}, 90},
		{"south", Point{0, 0}, Point{-1, 0}, 180},
		{"west", Point{0, 0}, Point{0, -1}, 270},
		{"north east", Point{0, 0}, Point{1, 1}, 45},
		{"same point", Point{5, 5}, Point{5, 5}, 0},
	}

	for _, tc := range testCases {
		if got := Bearing(tc.a, tc.b); !almostEqual(got, tc.e) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.e, got)
		}
	}
}

func TestApproach(t *testing.T) {
	from := Point{0, 0}
	to := Point{1, 1}

	got := Approach(from, to, 0.1)
	if !almostEqual(got.Latitude, 0.1) || !almostEqual(got.Longitude, 0.1) {
		t.Errorf("expected (0.1, 0.1), got %v", got)
	}

	remaining := Distance(got, to)
	if !almostEqual(remaining, 0.9*math.Sqrt2) {
		t.Errorf("expected remaining %v, got %v", 0.9*math.Sqrt2, remaining)
	}

	if got := Approach(from, to, 1); !almostEqual(got.Latitude, 1) || !almostEqual(got.Longitude, 1) {
		t.Errorf("full approach: expected (1, 1), got %v", got)
	}
}

func TestProject(t *testing.T) {
	testCases := []struct {
		name   string
		p      Point
		bounds Bounds
		e      MapPosition
	}{
		{"world center", Point{0, 0}, WorldBounds, MapPosition{Top: 50, Left: 50}},
		{"world top left", Point{90, -180}, WorldBounds, MapPosition{Top: 0, Left: 0}},
		{"world bottom right", Point{-90, 180}, WorldBounds, MapPosition{Top: 100, Left: 100}},
		{
			name:   "city box",
			p:      Point{12.5, 77.5},
			bounds: Bounds{MinLat: 12, MaxLat: 13, MinLng: 77, MaxLng: 78},
			e:      MapPosition{Top: 50, Left: 50},
		},
		{
			name:   "outside is not clamped",
			p:      Point{14, 76},
			bounds: Bounds{MinLat: 12, MaxLat: 13, MinLng: 77, MaxLng: 78},
			e:      MapPosition{Top: -100, Left: -100},
		},
	}

	for _, tc := range testCases {
		got := Project(tc.p, tc.bounds)
		if !almostEqual(got.Top, tc.e.Top) || !almostEqual(got.Left, tc.e.Left) {
			t.Errorf("%s: expected %+v, got %+v", tc.name, tc.e, got)
		}
	}
}

func TestBoundsContains(t *testing.T) {
	b := Bounds{MinLat: 12, MaxLat: 13, MinLng: 77, MaxLng: 78}
	if !b.Contains(Point{12, 77}) {
		t.Errorf("expected the corner to be contained")
	}
	if b.Contains(Point{14, 77.5}) {
		t.Errorf("expected a point north of the box to be outside")
	}
}

func TestIsFinite(t *testing.T) {
	if !(Point{1, 2}).IsFinite() {
		t.Errorf("expected finite point")
	}
	if (Point{math.NaN(), 0}).IsFinite() {
		t.Errorf("expected NaN latitude to be rejected")
	}
	if (Point{0, math.Inf(1)}).IsFinite() {
		t.Errorf("expected infinite longitude to be rejected")
	}
}

func TestHaversineMeters(t *testing.T) {
	// One degree of latitude is roughly 111.2 km.
	got := HaversineMeters(Point{0, 0}, Point{1, 0})
	if got < 111000 || got > 111400 {
		t.Errorf("expected ~111195m, got %v", got)
	}
	if got := HaversineMeters(Point{3, 4}, Point{3, 4}); got != 0 {
		t.Errorf("expected 0 for the same point, got %v", got)
	}
}
