// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

package recommend

import (
	"context"
	"time"
)

// AlgorithmVersion identifies the scoring algorithm revision reported in
// every response. Bump when scoring semantics change in a way that should
// invalidate downstream caches or A/B comparisons.
const AlgorithmVersion = "2.13.0"

// PrivacyLevel is the visibility tier a request is evaluated under.
type PrivacyLevel string

const (
	// PrivacyPublic considers every candidate in the pool.
	PrivacyPublic PrivacyLevel = "public"
	// PrivacyUniversity restricts candidates to the requester's university.
	PrivacyUniversity PrivacyLevel = "university"
	// PrivacyFriends restricts candidates to users reachable through at
	// least one mutual connection. A requester with no mutual-friend paths
	// sees an empty result set; that is intended restrictive behavior.
	PrivacyFriends PrivacyLevel = "friends"
)

// Valid reports whether the privacy level is one of the known tiers.
func (p PrivacyLevel) Valid() bool {
	switch p {
	case PrivacyPublic, PrivacyUniversity, PrivacyFriends:
		return true
	default:
		return false
	}
}

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// WeightedInterest is a declared interest with an importance weight.
type WeightedInterest struct {
	// Name is the declared interest string (e.g., "rock climbing").
	Name string `json:"name"`

	// Category groups related interests (e.g., "sports").
	Category string `json:"category,omitempty"`

	// Weight is the per-interest importance in [0, 1].
	Weight float64 `json:"weight"`
}

// Profile is an immutable snapshot of a user for the duration of one
// recommendation computation. Both the requester and every candidate use
// this shape; candidates are identified by ID.
type Profile struct {
	ID             string             `json:"id"`
	Username       string             `json:"username"`
	University     string             `json:"university"`
	Department     string             `json:"department,omitempty"`
	Major          string             `json:"major,omitempty"`
	GraduationYear int                `json:"graduation_year,omitempty"`
	Location       *GeoPoint          `json:"location,omitempty"`
	Interests      []WeightedInterest `json:"interests,omitempty"`
	Privacy        PrivacyLevel       `json:"privacy"`
	LastActiveAt   time.Time          `json:"last_active_at"`
}

// BehaviorCounts holds per-interest interaction counts.
type BehaviorCounts struct {
	Posts    int `json:"posts"`
	Likes    int `json:"likes"`
	Shares   int `json:"shares"`
	Searches int `json:"searches"`
}

// BehavioralAggregates holds a user's behavioral signal summary supplied
// by the repository: interaction counts per interest plus recency buckets.
type BehavioralAggregates struct {
	Counts     map[string]BehaviorCounts `json:"counts,omitempty"`
	Recent     []string                  `json:"recent,omitempty"`
	Trending   []string                  `json:"trending,omitempty"`
	Seasonal   []string                  `json:"seasonal,omitempty"`
	Historical []string                  `json:"historical,omitempty"`
}

// InterestProfile is the per-user structure the interest similarity
// scorer operates on. It is built from a Profile's declared interests
// plus behavioral aggregates from the repository.
type InterestProfile struct {
	UserID string

	// Declared interests with importance weights.
	Declared []WeightedInterest

	// Categories maps category name to the interests grouped under it.
	Categories map[string][]string

	// Behavior maps interest name to interaction counts.
	Behavior map[string]BehaviorCounts

	// Recency buckets.
	Recent     []string
	Trending   []string
	Seasonal   []string
	Historical []string
}

// MutualConnectionResult is produced fresh per (requester, candidate)
// pair and never persisted by the engine.
type MutualConnectionResult struct {
	// Score is the saturating mutual-connection affinity in [0, 1].
	Score float64 `json:"score"`

	// Count is the raw number of shared connections.
	Count int `json:"count"`

	// ConnectionIDs lists the shared connection identifiers.
	ConnectionIDs []string `json:"connection_ids,omitempty"`

	// Analysis carries free-form diagnostic metadata.
	Analysis map[string]string `json:"analysis,omitempty"`
}

// InterestSimilarity is the full output of the interest similarity scorer.
type InterestSimilarity struct {
	// Score is the bounded combination of the sub-scores, in [0, 1].
	Score float64 `json:"score"`

	// SharedInterests is exactly the set intersection of the two
	// declared-interest string lists.
	SharedInterests []string `json:"shared_interests"`

	CategorySimilarity   float64 `json:"category_similarity"`
	SemanticSimilarity   float64 `json:"semantic_similarity"`
	BehavioralSimilarity float64 `json:"behavioral_similarity"`
	TemporalSimilarity   float64 `json:"temporal_similarity"`
}

// ScoreComponents holds the per-candidate factor scores, each normalized
// to [0, 1].
type ScoreComponents struct {
	University        float64 `json:"university"`
	MutualConnections float64 `json:"mutual_connections"`
	Interests         float64 `json:"interests"`
	Engagement        float64 `json:"engagement"`
	Geography         float64 `json:"geography"`
}

// ScoredCandidate pairs a candidate profile with its factor scores and
// weighted composite. It is the unit the sorter and reranker operate on.
type ScoredCandidate struct {
	Profile    Profile         `json:"profile"`
	Components ScoreComponents `json:"components"`

	// Composite is the weighted sum of the factor scores under the
	// weights snapshot active for the request. It is a weighted sum,
	// not a probability.
	Composite float64 `json:"composite"`

	// MutualCount is carried for privacy filtering and reason text.
	MutualCount int `json:"-"`

	// SharedInterests is carried for reason text.
	SharedInterests []string `json:"-"`
}

// Recommendation is one entry of the final ordered result.
type Recommendation struct {
	UserID          string          `json:"user_id"`
	CompositeScore  float64         `json:"composite_score"`
	ScoreComponents ScoreComponents `json:"score_components"`
	Reason          string          `json:"reason"`
}

// Request is a recommendation request.
type Request struct {
	// UserID is the requesting user.
	UserID string `json:"user_id"`

	// Limit is the maximum number of recommendations to return.
	// Defaults to Config.DefaultLimit when zero.
	Limit int `json:"limit,omitempty"`

	// DiversityFactor in [0, 1] trades composite-score purity for
	// grouping variety. Only honored when DiversitySet is true;
	// otherwise Config.DefaultDiversity applies.
	DiversityFactor float64 `json:"diversity_factor,omitempty"`
	DiversitySet    bool    `json:"-"`

	// Privacy is the visibility tier the request is evaluated under.
	Privacy PrivacyLevel `json:"privacy_level"`

	// RequestID is a unique identifier for tracing.
	RequestID string `json:"request_id,omitempty"`
}

// Response is a complete recommendation result.
type Response struct {
	Recommendations []Recommendation `json:"recommendations"`

	// AlgorithmVersion is the scoring algorithm revision.
	AlgorithmVersion string `json:"algorithm_version"`

	// ProcessingTimeMS is the wall-clock computation time.
	ProcessingTimeMS int64 `json:"processing_time_ms"`

	// CacheHit indicates the response was served from cache.
	CacheHit bool `json:"cache_hit"`

	// TotalCandidates is the number of candidates considered after
	// exclusion and privacy filtering.
	TotalCandidates int `json:"total_candidates"`

	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata carries diagnostic information about a response.
type ResponseMetadata struct {
	RequestID string `json:"request_id"`
	UserID    string `json:"user_id"`

	// Factors is the weights snapshot the composite was computed under.
	Factors map[string]float64 `json:"factors"`

	// WeightsVersion is the version of that snapshot.
	WeightsVersion int64 `json:"weights_version"`

	// Diversity is the distinct-grouping-key count divided by result size.
	Diversity float64 `json:"diversity"`

	// DiversityFactor is the factor the reranker ran with.
	DiversityFactor float64 `json:"diversity_factor"`

	Timestamp time.Time `json:"timestamp"`
}

// CandidateRepository supplies the engine's inputs. Implementations live
// outside this package (database adapters, test fakes).
type CandidateRepository interface {
	// GetUserProfile returns the profile for a user, or nil when the
	// user has no profile.
	GetUserProfile(ctx context.Context, userID string) (*Profile, error)

	// GetCandidates returns the candidate pool for a user, already
	// deduplicated by ID. The pool excludes nobody; exclusion filtering
	// is the engine's job.
	GetCandidates(ctx context.Context, userID string, limit int) ([]Profile, error)

	// GetBlockedUsers returns user IDs blocked in either direction.
	GetBlockedUsers(ctx context.Context, userID string) ([]string, error)

	// GetExistingConnections returns the user's accepted connections.
	GetExistingConnections(ctx context.Context, userID string) ([]string, error)

	// GetBehavioralAggregates returns behavioral signal summaries for a
	// batch of users. Missing users are simply absent from the map.
	GetBehavioralAggregates(ctx context.Context, userIDs []string) (map[string]BehavioralAggregates, error)
}

// CacheStatus is the tri-state outcome of a cache lookup. Unavailable is
// deliberately collapsed into the miss path by the engine.
type CacheStatus int

const (
	// CacheHit means a fresh entry was found.
	CacheHit CacheStatus = iota
	// CacheMiss means no entry (or an expired one) was found.
	CacheMiss
	// CacheUnavailable means the cache backend errored. Treated as miss.
	CacheUnavailable
)

// String returns a human-readable status name.
func (s CacheStatus) String() string {
	switch s {
	case CacheHit:
		return "hit"
	case CacheMiss:
		return "miss"
	case CacheUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// ResultCache stores complete recommendation responses keyed by request
// hash. Implementations must be safe for concurrent use and must report
// backend failures as CacheUnavailable rather than returning errors from
// Get; Set errors are best-effort and absorbed by the engine.
type ResultCache interface {
	// Get returns the cached response for a key, if any.
	Get(ctx context.Context, key string) (*Response, CacheStatus)

	// Set stores a response under a key with the given TTL.
	Set(ctx context.Context, key string, resp *Response, ttl time.Duration) error

	// InvalidateUser removes every cached response belonging to a user.
	InvalidateUser(ctx context.Context, userID string) error
}

// UniversityScorer scores institutional affinity between two profiles.
type UniversityScorer interface {
	// Score returns a value in [0, 1]. Same-university pairs must score
	// strictly higher than otherwise-identical different-university pairs.
	Score(requester, candidate *Profile) float64
}

// MutualConnectionScorer scores shared-connection graph overlap.
type MutualConnectionScorer interface {
	// Score is monotonic non-decreasing in mutual-connection count and
	// saturates toward 1; zero mutuals yield score 0. An empty
	// connection graph is not an error.
	Score(ctx context.Context, requesterID, candidateID string) (*MutualConnectionResult, error)
}

// InterestScorer scores declared-interest and behavioral similarity.
type InterestScorer interface {
	// BuildProfile assembles an InterestProfile from a profile snapshot
	// and optional behavioral aggregates.
	BuildProfile(p *Profile, agg *BehavioralAggregates) *InterestProfile

	// CalculateSimilarity compares two interest profiles.
	CalculateSimilarity(a, b *InterestProfile) InterestSimilarity
}

// Reranker reorders a score-sorted candidate list for a secondary
// objective. It must be deterministic and must never drop a candidate.
type Reranker interface {
	// Name returns the reranker identifier.
	Name() string

	// Rerank reorders the items using the given diversity factor.
	Rerank(items []ScoredCandidate, factor float64) []ScoredCandidate
}
