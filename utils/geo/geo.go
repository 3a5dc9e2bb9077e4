package geo

import "math"

const (
	// EarthRadiusMiles is the radius used by the Haversine formula.
	EarthRadiusMiles = 3959

	KmPerMile     = 1.60934
	MetersPerMile = 1609.34
)

// Distance returns the great-circle distance in miles between two
// [lng, lat] points in degrees.
func Distance(a, b []float64) float64 {
	if len(a) != 2 || len(b) != 2 {
		return 0
	}
	lng1, lat1 := a[0], a[1]
	lng2, lat2 := b[0], b[1]

	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lng2 - lng1) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusMiles * c
}

func MilesToKm(mi float64) float64 { return mi * KmPerMile }

func MilesToMeters(mi float64) float64 { return mi * MetersPerMile }

func MetersToMiles(m float64) float64 { return m / MetersPerMile }

// Round1 rounds to one decimal place for display.
func Round1(v float64) float64 { return math.Round(v*10) / 10 }
