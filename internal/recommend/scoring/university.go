// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

package scoring

import (
	"math"
	"strings"

	"github.com/campusmatch/friendrec/internal/recommend"
)

// University scores institutional affinity between two profiles as a
// weighted combination of term scores:
//
//	score = w_university * same_university +
//	        w_department * same_department +
//	        w_gradyear   * year_proximity +
//	        w_major      * same_major
//
// The same-university term dominates so that a same-university pair
// always scores strictly higher than an otherwise-identical
// different-university pair.
type University struct {
	universityWeight float64
	departmentWeight float64
	gradYearWeight   float64
	majorWeight      float64
	maxYearGap       int
}

// UniversityConfig contains term weights for the university scorer.
// Zero values fall back to defaults.
type UniversityConfig struct {
	UniversityWeight float64
	DepartmentWeight float64
	GradYearWeight   float64
	MajorWeight      float64

	// MaxYearGap is the graduation-year distance at which the year
	// proximity term reaches zero.
	MaxYearGap int
}

// NewUniversity creates a university scorer.
func NewUniversity(cfg UniversityConfig) *University {
	if cfg.UniversityWeight == 0 {
		cfg.UniversityWeight = 0.60
	}
	if cfg.DepartmentWeight == 0 {
		cfg.DepartmentWeight = 0.15
	}
	if cfg.GradYearWeight == 0 {
		cfg.GradYearWeight = 0.15
	}
	if cfg.MajorWeight == 0 {
		cfg.MajorWeight = 0.10
	}
	if cfg.MaxYearGap == 0 {
		cfg.MaxYearGap = 4
	}

	// Normalize so the score stays in [0, 1]
	total := cfg.UniversityWeight + cfg.DepartmentWeight + cfg.GradYearWeight + cfg.MajorWeight
	return &University{
		universityWeight: cfg.UniversityWeight / total,
		departmentWeight: cfg.DepartmentWeight / total,
		gradYearWeight:   cfg.GradYearWeight / total,
		majorWeight:      cfg.MajorWeight / total,
		maxYearGap:       cfg.MaxYearGap,
	}
}

// Score returns institutional affinity in [0, 1].
func (u *University) Score(requester, candidate *recommend.Profile) float64 {
	if requester == nil || candidate == nil {
		return 0
	}

	score := 0.0
	if sameField(requester.University, candidate.University) {
		score += u.universityWeight
	}
	if sameField(requester.Department, candidate.Department) {
		score += u.departmentWeight
	}
	score += u.gradYearWeight * u.yearProximity(requester.GraduationYear, candidate.GraduationYear)
	if sameField(requester.Major, candidate.Major) {
		score += u.majorWeight
	}

	return score
}

// yearProximity maps graduation-year distance to [0, 1], linear falloff
// reaching zero at maxYearGap. Unknown years contribute nothing.
func (u *University) yearProximity(a, b int) float64 {
	if a == 0 || b == 0 {
		return 0
	}
	gap := math.Abs(float64(a - b))
	if gap >= float64(u.maxYearGap) {
		return 0
	}
	return 1 - gap/float64(u.maxYearGap)
}

// sameField compares two profile fields, ignoring case. Empty fields
// never match.
func sameField(a, b string) bool {
	return a != "" && b != "" && strings.EqualFold(a, b)
}

// Ensure University implements the interface.
var _ recommend.UniversityScorer = (*University)(nil)
