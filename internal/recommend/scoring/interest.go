// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

package scoring

import (
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/campusmatch/friendrec/internal/recommend"
)

// Interest scores similarity between two interest profiles as a bounded
// weighted combination of four sub-scores:
//
//   - declared: weighted Jaccard over declared interests, using
//     per-interest importance weights
//   - category: Jaccard over category sets
//   - behavioral: cosine similarity over interaction-count vectors
//   - temporal: Jaccard over recent and trending interest sets
//
// Sub-scores with no available signal on either side are excluded and
// the remaining weights renormalized, so sparse profiles still score on
// what they do declare.
type Interest struct {
	declaredWeight   float64
	categoryWeight   float64
	behavioralWeight float64
	temporalWeight   float64
}

// InterestConfig contains sub-score combination weights. Zero values
// fall back to defaults.
type InterestConfig struct {
	DeclaredWeight   float64
	CategoryWeight   float64
	BehavioralWeight float64
	TemporalWeight   float64
}

// NewInterest creates an interest similarity scorer.
func NewInterest(cfg InterestConfig) *Interest {
	if cfg.DeclaredWeight == 0 {
		cfg.DeclaredWeight = 0.40
	}
	if cfg.CategoryWeight == 0 {
		cfg.CategoryWeight = 0.25
	}
	if cfg.BehavioralWeight == 0 {
		cfg.BehavioralWeight = 0.20
	}
	if cfg.TemporalWeight == 0 {
		cfg.TemporalWeight = 0.15
	}
	return &Interest{
		declaredWeight:   cfg.DeclaredWeight,
		categoryWeight:   cfg.CategoryWeight,
		behavioralWeight: cfg.BehavioralWeight,
		temporalWeight:   cfg.TemporalWeight,
	}
}

// BuildProfile assembles an InterestProfile from a profile snapshot and
// optional behavioral aggregates.
func (s *Interest) BuildProfile(p *recommend.Profile, agg *recommend.BehavioralAggregates) *recommend.InterestProfile {
	if p == nil {
		return &recommend.InterestProfile{}
	}

	ip := &recommend.InterestProfile{
		UserID:     p.ID,
		Declared:   p.Interests,
		Categories: make(map[string][]string),
	}
	for _, wi := range p.Interests {
		if wi.Category != "" {
			ip.Categories[wi.Category] = append(ip.Categories[wi.Category], wi.Name)
		}
	}

	if agg != nil {
		ip.Behavior = agg.Counts
		ip.Recent = agg.Recent
		ip.Trending = agg.Trending
		ip.Seasonal = agg.Seasonal
		ip.Historical = agg.Historical
	}
	return ip
}

// CalculateSimilarity compares two interest profiles. SharedInterests is
// exactly the set intersection of the two declared-interest string
// lists, sorted for determinism.
func (s *Interest) CalculateSimilarity(a, b *recommend.InterestProfile) recommend.InterestSimilarity {
	if a == nil || b == nil {
		return recommend.InterestSimilarity{SharedInterests: []string{}}
	}

	shared := sharedDeclared(a.Declared, b.Declared)
	declared, declaredOK := weightedJaccard(a.Declared, b.Declared)
	category, categoryOK := setJaccard(categorySet(a), categorySet(b))
	behavioral, behavioralOK := behavioralCosine(a.Behavior, b.Behavior)
	temporal, temporalOK := setJaccard(temporalSet(a), temporalSet(b))

	type sub struct {
		weight    float64
		score     float64
		available bool
	}
	subs := []sub{
		{s.declaredWeight, declared, declaredOK},
		{s.categoryWeight, category, categoryOK},
		{s.behavioralWeight, behavioral, behavioralOK},
		{s.temporalWeight, temporal, temporalOK},
	}

	var weightSum, scoreSum float64
	for _, sc := range subs {
		if !sc.available {
			continue
		}
		weightSum += sc.weight
		scoreSum += sc.weight * sc.score
	}

	score := 0.0
	if weightSum > 0 {
		score = scoreSum / weightSum
	}

	return recommend.InterestSimilarity{
		Score:                score,
		SharedInterests:      shared,
		CategorySimilarity:   category,
		SemanticSimilarity:   0, // embedding source not wired; trained externally
		BehavioralSimilarity: behavioral,
		TemporalSimilarity:   temporal,
	}
}

// sharedDeclared returns the exact intersection of declared-interest
// strings.
func sharedDeclared(a, b []recommend.WeightedInterest) []string {
	set := make(map[string]struct{}, len(a))
	for _, wi := range a {
		set[wi.Name] = struct{}{}
	}

	shared := make([]string, 0)
	seen := make(map[string]struct{})
	for _, wi := range b {
		if _, ok := set[wi.Name]; !ok {
			continue
		}
		if _, dup := seen[wi.Name]; dup {
			continue
		}
		seen[wi.Name] = struct{}{}
		shared = append(shared, wi.Name)
	}
	sort.Strings(shared)
	return shared
}

// weightedJaccard computes sum(min(wA, wB)) / sum(max(wA, wB)) over the
// union of declared interests. The second return reports whether either
// side declared anything.
func weightedJaccard(a, b []recommend.WeightedInterest) (float64, bool) {
	if len(a) == 0 && len(b) == 0 {
		return 0, false
	}

	wa := make(map[string]float64, len(a))
	for _, wi := range a {
		wa[wi.Name] = interestWeight(wi)
	}
	wb := make(map[string]float64, len(b))
	for _, wi := range b {
		wb[wi.Name] = interestWeight(wi)
	}

	var minSum, maxSum float64
	for name, w := range wa {
		other := wb[name]
		minSum += minF(w, other)
		maxSum += maxF(w, other)
	}
	for name, w := range wb {
		if _, ok := wa[name]; !ok {
			maxSum += w
		}
	}

	if maxSum == 0 {
		return 0, true
	}
	return minSum / maxSum, true
}

// interestWeight treats an unset weight as full importance.
func interestWeight(wi recommend.WeightedInterest) float64 {
	if wi.Weight <= 0 {
		return 1.0
	}
	if wi.Weight > 1 {
		return 1.0
	}
	return wi.Weight
}

// behavioralCosine computes cosine similarity over aligned interaction
// count vectors. Each interest contributes four dimensions (posts,
// likes, shares, searches).
func behavioralCosine(a, b map[string]recommend.BehaviorCounts) (float64, bool) {
	if len(a) == 0 || len(b) == 0 {
		return 0, false
	}

	names := make([]string, 0, len(a)+len(b))
	seen := make(map[string]struct{}, len(a)+len(b))
	for name := range a {
		seen[name] = struct{}{}
		names = append(names, name)
	}
	for name := range b {
		if _, ok := seen[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	va := make([]float64, 0, len(names)*4)
	vb := make([]float64, 0, len(names)*4)
	for _, name := range names {
		va = appendCounts(va, a[name])
		vb = appendCounts(vb, b[name])
	}

	na := floats.Norm(va, 2)
	nb := floats.Norm(vb, 2)
	if na == 0 || nb == 0 {
		return 0, false
	}

	cos := floats.Dot(va, vb) / (na * nb)
	if cos < 0 {
		cos = 0
	}
	return cos, true
}

func appendCounts(v []float64, c recommend.BehaviorCounts) []float64 {
	return append(v,
		float64(c.Posts),
		float64(c.Likes),
		float64(c.Shares),
		float64(c.Searches),
	)
}

// categorySet collects the category names of a profile.
func categorySet(p *recommend.InterestProfile) map[string]struct{} {
	set := make(map[string]struct{}, len(p.Categories))
	for cat := range p.Categories {
		set[cat] = struct{}{}
	}
	return set
}

// temporalSet collects the recent and trending interests of a profile.
func temporalSet(p *recommend.InterestProfile) map[string]struct{} {
	set := make(map[string]struct{}, len(p.Recent)+len(p.Trending))
	for _, name := range p.Recent {
		set[name] = struct{}{}
	}
	for _, name := range p.Trending {
		set[name] = struct{}{}
	}
	return set
}

// setJaccard computes intersection over union for two sets. The second
// return reports whether both sides had any members.
func setJaccard(a, b map[string]struct{}) (float64, bool) {
	if len(a) == 0 && len(b) == 0 {
		return 0, false
	}

	intersection := 0
	for k := range a {
		if _, ok := b[k]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0, false
	}
	return float64(intersection) / float64(union), true
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// Ensure Interest implements the interface.
var _ recommend.InterestScorer = (*Interest)(nil)
