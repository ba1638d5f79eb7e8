// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

package recommend

import (
	"math"
	"time"
)

const (
	// engagementHalfLife is the last-active decay half-life.
	engagementHalfLife = 7 * 24 * time.Hour

	// geographyScaleKM controls how fast the geography factor decays
	// with distance. At the scale distance the factor is 1/e.
	geographyScaleKM = 50.0

	earthRadiusKM = 6371.0
)

// engagementScore maps a candidate's last-active timestamp to [0, 1]
// with exponential decay. A user active right now scores 1; a user whose
// last activity is unknown contributes 0.
func engagementScore(lastActive, now time.Time) float64 {
	if lastActive.IsZero() || lastActive.After(now) {
		if lastActive.After(now) {
			return 1.0
		}
		return 0.0
	}
	age := now.Sub(lastActive)
	return math.Exp2(-float64(age) / float64(engagementHalfLife))
}

// geographyScore maps the haversine distance between two profiles to
// [0, 1] with exponential decay. Missing coordinates on either side
// contribute 0, not an error.
func geographyScore(a, b *GeoPoint) float64 {
	if a == nil || b == nil {
		return 0.0
	}
	return math.Exp(-haversineKM(a, b) / geographyScaleKM)
}

// haversineKM computes great-circle distance in kilometers.
func haversineKM(a, b *GeoPoint) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKM * math.Asin(math.Min(1, math.Sqrt(h)))
}

// clamp01 bounds a score to [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
