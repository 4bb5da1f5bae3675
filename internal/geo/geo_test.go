package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDistanceMeters(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Point
		expected float64
		delta    float64
	}{
		{"same point", Point{55.75, 37.61}, Point{55.75, 37.61}, 0, 0.001},
		{"one degree latitude", Point{0, 0}, Point{1, 0}, 111195, 50},
		{"one degree longitude at equator", Point{0, 0}, Point{0, 1}, 111195, 50},
		{"short hop", Point{55.7500, 37.6100}, Point{55.7501, 37.6100}, 11.1, 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, DistanceMeters(tt.a, tt.b), tt.delta)
		})
	}
}

func TestPointValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       Point
		wantErr bool
	}{
		{"valid", Point{55.75, 37.61}, false},
		{"north pole", Point{90, 0}, false},
		{"lat too high", Point{90.1, 0}, true},
		{"lat too low", Point{-91, 0}, true},
		{"lon too high", Point{0, 180.5}, true},
		{"lon too low", Point{0, -181}, true},
		{"nan lat", Point{math.NaN(), 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidLocation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestOffsetPointRoundTrip verifies that offsetting a point by d meters
// lands at distance d from the center, within the error of the
// equirectangular approximation at game scale.
func TestOffsetPointRoundTrip(t *testing.T) {
	center := Point{55.7558, 37.6173}

	for _, d := range []float64{5, 25, 50, 100} {
		for _, bearing := range []float64{0, math.Pi / 3, math.Pi, 3 * math.Pi / 2} {
			p := OffsetPoint(center, bearing, d)
			require.NoError(t, p.Validate())
			assert.InDelta(t, d, DistanceMeters(center, p), d*0.01+0.1)
		}
	}
}

// Distance is symmetric and non-negative for any pair of valid points.
func TestDistanceSymmetryProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := Point{
			Lat: rapid.Float64Range(-89, 89).Draw(t, "lat_a"),
			Lon: rapid.Float64Range(-179, 179).Draw(t, "lon_a"),
		}
		b := Point{
			Lat: rapid.Float64Range(-89, 89).Draw(t, "lat_b"),
			Lon: rapid.Float64Range(-179, 179).Draw(t, "lon_b"),
		}

		ab := DistanceMeters(a, b)
		ba := DistanceMeters(b, a)

		if ab < 0 {
			t.Fatalf("distance must be non-negative, got %f", ab)
		}
		if math.Abs(ab-ba) > 1e-6 {
			t.Fatalf("distance must be symmetric: a->b=%f b->a=%f", ab, ba)
		}
	})
}

// Walking further along the same bearing never decreases the distance
// from the center (monotonicity at game scale).
func TestDistanceMonotonicityProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		center := Point{
			Lat: rapid.Float64Range(-60, 60).Draw(t, "lat"),
			Lon: rapid.Float64Range(-179, 179).Draw(t, "lon"),
		}
		bearing := rapid.Float64Range(0, 2*math.Pi).Draw(t, "bearing")
		d1 := rapid.Float64Range(1, 99).Draw(t, "d1")
		d2 := rapid.Float64Range(d1+1, 200).Draw(t, "d2")

		near := DistanceMeters(center, OffsetPoint(center, bearing, d1))
		far := DistanceMeters(center, OffsetPoint(center, bearing, d2))

		if far <= near {
			t.Fatalf("distance should grow along a bearing: d1=%f->%f d2=%f->%f",
				d1, near, d2, far)
		}
	})
}
