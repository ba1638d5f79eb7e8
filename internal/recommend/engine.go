// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

package recommend

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/campusmatch/friendrec/internal/metrics"
)

// Config contains operational parameters for the engine.
type Config struct {
	// DefaultLimit is the result limit applied when a request omits one.
	DefaultLimit int `json:"default_limit"`

	// MaxLimit caps the result limit.
	MaxLimit int `json:"max_limit"`

	// CandidatePoolSize is how many candidates to fetch from the
	// repository before filtering.
	CandidatePoolSize int `json:"candidate_pool_size"`

	// MaxConcurrentScoring bounds in-flight candidate evaluations so
	// large pools don't overwhelm downstream graph lookups.
	MaxConcurrentScoring int `json:"max_concurrent_scoring"`

	// DefaultDiversity is the diversity factor applied when a request
	// omits one.
	DefaultDiversity float64 `json:"default_diversity"`

	// RequestTimeout is the overall deadline for one computation.
	RequestTimeout time.Duration `json:"request_timeout"`

	// CacheEnabled toggles result caching.
	CacheEnabled bool `json:"cache_enabled"`

	// CacheTTL is how long cached responses stay fresh.
	CacheTTL time.Duration `json:"cache_ttl"`

	// Weights is the initial factor weights snapshot.
	Weights Weights `json:"weights"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		DefaultLimit:         10,
		MaxLimit:             100,
		CandidatePoolSize:    500,
		MaxConcurrentScoring: 16,
		DefaultDiversity:     0.3,
		RequestTimeout:       10 * time.Second,
		CacheEnabled:         true,
		CacheTTL:             5 * time.Minute,
		Weights:              DefaultWeights(),
	}
}

// Validate checks config invariants.
func (c *Config) Validate() error {
	if c.DefaultLimit <= 0 {
		return fmt.Errorf("default_limit must be positive, got %d", c.DefaultLimit)
	}
	if c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("max_limit must be >= default_limit, got %d < %d", c.MaxLimit, c.DefaultLimit)
	}
	if c.CandidatePoolSize <= 0 {
		return fmt.Errorf("candidate_pool_size must be positive, got %d", c.CandidatePoolSize)
	}
	if c.MaxConcurrentScoring <= 0 {
		return fmt.Errorf("max_concurrent_scoring must be positive, got %d", c.MaxConcurrentScoring)
	}
	if c.DefaultDiversity < 0 || c.DefaultDiversity > 1 {
		return fmt.Errorf("default_diversity must be in [0, 1], got %f", c.DefaultDiversity)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	return c.Weights.Validate()
}

// Scorers bundles the three injected factor scorers.
type Scorers struct {
	University UniversityScorer
	Mutual     MutualConnectionScorer
	Interest   InterestScorer
}

// Engine is the scoring orchestrator. It is safe for concurrent use.
type Engine struct {
	config  *Config
	logger  zerolog.Logger
	repo    CandidateRepository
	cache   ResultCache
	weights *weightsHolder
	scorers Scorers
	rerank  Reranker

	// flight collapses concurrent computations for the same cache key.
	flight singleflight.Group

	requestCount atomic.Int64
	cacheHits    atomic.Int64
	cacheMisses  atomic.Int64
	errorCount   atomic.Int64

	// now is replaceable for deterministic tests.
	now func() time.Time
}

// NewEngine creates a scoring orchestrator.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, repo CandidateRepository, cache ResultCache, scorers Scorers, rerank Reranker, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if repo == nil {
		return nil, fmt.Errorf("candidate repository is required")
	}
	if scorers.University == nil || scorers.Mutual == nil || scorers.Interest == nil {
		return nil, fmt.Errorf("all three scorers are required")
	}

	return &Engine{
		config:  cfg,
		logger:  logger.With().Str("component", "recommend").Logger(),
		repo:    repo,
		cache:   cache,
		weights: newWeightsHolder(cfg.Weights),
		scorers: scorers,
		rerank:  rerank,
		now:     time.Now,
	}, nil
}

// GenerateRecommendations produces a ranked, privacy-filtered,
// diversified recommendation list for the requesting user.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) GenerateRecommendations(ctx context.Context, req Request) (*Response, error) {
	start := e.now()
	e.requestCount.Add(1)

	req = e.prepareRequest(req)
	if err := validateRequest(req); err != nil {
		e.errorCount.Add(1)
		return nil, err
	}

	snap := e.weights.Load()
	key := cacheKey(req, snap.Version)
	logger := e.logger.With().
		Str("request_id", req.RequestID).
		Str("user_id", req.UserID).
		Str("privacy", string(req.Privacy)).
		Logger()

	if resp := e.tryCache(ctx, key, start, logger); resp != nil {
		return resp, nil
	}

	// Collapse concurrent computations for the same key. The computation
	// runs on a detached context so a canceled first caller doesn't fail
	// the waiters; the engine's own request timeout still applies.
	v, err, shared := e.flight.Do(key, func() (interface{}, error) {
		computeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.config.RequestTimeout)
		defer cancel()
		return e.compute(computeCtx, req, snap, key, logger)
	})
	if err != nil {
		e.errorCount.Add(1)
		return nil, err
	}

	resp := copyResponse(v.(*Response))
	resp.ProcessingTimeMS = e.now().Sub(start).Milliseconds()
	if shared {
		logger.Debug().Msg("joined in-flight computation")
	}
	return resp, nil
}

// prepareRequest applies defaults and generates a request ID if needed.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) prepareRequest(req Request) Request {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.Limit == 0 {
		req.Limit = e.config.DefaultLimit
	}
	if req.Limit > e.config.MaxLimit {
		req.Limit = e.config.MaxLimit
	}
	if !req.DiversitySet {
		req.DiversityFactor = e.config.DefaultDiversity
	}
	return req
}

// validateRequest rejects malformed requests before any I/O.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func validateRequest(req Request) error {
	if req.UserID == "" {
		return &ValidationError{Field: "user_id", Reason: "is required"}
	}
	if req.Limit <= 0 {
		return &ValidationError{Field: "limit", Reason: "must be positive"}
	}
	if !req.Privacy.Valid() {
		return &ValidationError{Field: "privacy_level", Reason: "must be one of public, university, friends"}
	}
	if req.DiversityFactor < 0 || req.DiversityFactor > 1 {
		return &ValidationError{Field: "diversity_factor", Reason: "must be in [0, 1]"}
	}
	return nil
}

// tryCache attempts a cache read. Backend failures degrade to a miss.
func (e *Engine) tryCache(ctx context.Context, key string, start time.Time, logger zerolog.Logger) *Response {
	if e.cache == nil || !e.config.CacheEnabled {
		return nil
	}

	resp, status := e.cache.Get(ctx, key)
	metrics.CacheLookups.WithLabelValues(status.String()).Inc()
	switch status {
	case CacheHit:
		e.cacheHits.Add(1)
		out := copyResponse(resp)
		out.CacheHit = true
		out.ProcessingTimeMS = e.now().Sub(start).Milliseconds()
		logger.Debug().Msg("cache hit")
		return out
	case CacheUnavailable:
		e.cacheMisses.Add(1)
		logger.Warn().Str("key", key).Msg("cache unavailable, computing")
		return nil
	default:
		e.cacheMisses.Add(1)
		return nil
	}
}

// inputs holds the jointly fetched per-request inputs.
type inputs struct {
	profile     *Profile
	candidates  []Profile
	blocked     map[string]struct{}
	connections map[string]struct{}
}

// compute runs the full scoring pipeline for one cache key.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) compute(ctx context.Context, req Request, snap *weightsSnapshot, key string, logger zerolog.Logger) (*Response, error) {
	start := e.now()

	in, err := e.fetchInputs(ctx, req)
	if err != nil {
		return nil, err
	}

	eligible := e.filterCandidates(in, req.Privacy)
	scored := e.scoreCandidates(ctx, in, eligible, snap, logger)

	if req.Privacy == PrivacyFriends {
		scored = keepWithMutuals(scored)
	}
	total := len(scored)

	sortCandidates(scored)
	if e.rerank != nil {
		scored = e.rerank.Rerank(scored, req.DiversityFactor)
	}
	if len(scored) > req.Limit {
		scored = scored[:req.Limit]
	}

	resp := e.buildResponse(req, snap, scored, total, start)
	e.storeCache(ctx, key, resp, logger)

	logger.Debug().
		Int("pool", len(in.candidates)).
		Int("eligible", len(eligible)).
		Int("returned", len(resp.Recommendations)).
		Int64("latency_ms", resp.ProcessingTimeMS).
		Msg("recommendation complete")

	return resp, nil
}

// fetchInputs loads requester profile, candidate pool, and exclusion
// sets concurrently, joining before scoring proceeds. The first fatal
// error cancels the remaining fetches.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) fetchInputs(ctx context.Context, req Request) (*inputs, error) {
	in := &inputs{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := e.repo.GetUserProfile(gctx, req.UserID)
		if err != nil {
			return upstream("get_user_profile", err)
		}
		if p == nil {
			return ErrProfileNotFound
		}
		in.profile = p
		return nil
	})
	g.Go(func() error {
		c, err := e.repo.GetCandidates(gctx, req.UserID, e.config.CandidatePoolSize)
		if err != nil {
			return upstream("get_candidates", err)
		}
		in.candidates = c
		return nil
	})
	g.Go(func() error {
		b, err := e.repo.GetBlockedUsers(gctx, req.UserID)
		if err != nil {
			return upstream("get_blocked_users", err)
		}
		in.blocked = toSet(b)
		return nil
	})
	g.Go(func() error {
		c, err := e.repo.GetExistingConnections(gctx, req.UserID)
		if err != nil {
			return upstream("get_existing_connections", err)
		}
		in.connections = toSet(c)
		return nil
	})

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil && err != ErrProfileNotFound {
			return nil, upstream("fetch_inputs", ctx.Err())
		}
		return nil, err
	}
	return in, nil
}

// filterCandidates removes the requester, blocked users, existing
// connections, duplicates, and candidates failing the privacy predicate.
func (e *Engine) filterCandidates(in *inputs, privacy PrivacyLevel) []Profile {
	seen := make(map[string]struct{}, len(in.candidates))
	eligible := make([]Profile, 0, len(in.candidates))

	for _, cand := range in.candidates {
		if cand.ID == "" || cand.ID == in.profile.ID {
			continue
		}
		if _, dup := seen[cand.ID]; dup {
			continue
		}
		seen[cand.ID] = struct{}{}

		if _, ok := in.blocked[cand.ID]; ok {
			continue
		}
		if _, ok := in.connections[cand.ID]; ok {
			continue
		}
		if privacy == PrivacyUniversity && !strings.EqualFold(cand.University, in.profile.University) {
			continue
		}
		eligible = append(eligible, cand)
	}
	return eligible
}

// scoreCandidates evaluates every eligible candidate on a bounded worker
// pool. A factor with no available signal contributes 0, never an error.
func (e *Engine) scoreCandidates(ctx context.Context, in *inputs, eligible []Profile, snap *weightsSnapshot, logger zerolog.Logger) []ScoredCandidate {
	if len(eligible) == 0 {
		return nil
	}

	aggs := e.fetchAggregates(ctx, in.profile.ID, eligible, logger)
	requesterInterests := e.scorers.Interest.BuildProfile(in.profile, aggFor(aggs, in.profile.ID))
	now := e.now()

	results := make([]ScoredCandidate, len(eligible))
	sem := make(chan struct{}, e.config.MaxConcurrentScoring)
	var wg sync.WaitGroup

	for i := range eligible {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = e.scoreOne(ctx, in.profile, &eligible[idx], requesterInterests, aggs, snap, now, logger)
		}(i)
	}
	wg.Wait()

	return results
}

// fetchAggregates loads behavioral aggregates for the requester and all
// eligible candidates in one batch. Failure degrades to declared-interest
// scoring only.
func (e *Engine) fetchAggregates(ctx context.Context, requesterID string, eligible []Profile, logger zerolog.Logger) map[string]BehavioralAggregates {
	ids := make([]string, 0, len(eligible)+1)
	ids = append(ids, requesterID)
	for i := range eligible {
		ids = append(ids, eligible[i].ID)
	}

	aggs, err := e.repo.GetBehavioralAggregates(ctx, ids)
	if err != nil {
		logger.Warn().Err(err).Msg("behavioral aggregates unavailable, scoring declared interests only")
		return nil
	}
	return aggs
}

// scoreOne assembles the full score record for a single candidate.
func (e *Engine) scoreOne(ctx context.Context, requester, cand *Profile, requesterInterests *InterestProfile, aggs map[string]BehavioralAggregates, snap *weightsSnapshot, now time.Time, logger zerolog.Logger) ScoredCandidate {
	mutual := e.mutualResult(ctx, requester.ID, cand.ID, logger)
	candInterests := e.scorers.Interest.BuildProfile(cand, aggFor(aggs, cand.ID))
	sim := e.scorers.Interest.CalculateSimilarity(requesterInterests, candInterests)

	comps := ScoreComponents{
		University:        clamp01(e.scorers.University.Score(requester, cand)),
		MutualConnections: clamp01(mutual.Score),
		Interests:         clamp01(sim.Score),
		Engagement:        engagementScore(cand.LastActiveAt, now),
		Geography:         geographyScore(requester.Location, cand.Location),
	}

	return ScoredCandidate{
		Profile:         *cand,
		Components:      comps,
		Composite:       snap.Weights.Composite(comps),
		MutualCount:     mutual.Count,
		SharedInterests: sim.SharedInterests,
	}
}

// mutualResult runs the mutual-connection scorer, degrading to a zero
// result on failure.
func (e *Engine) mutualResult(ctx context.Context, requesterID, candidateID string, logger zerolog.Logger) *MutualConnectionResult {
	res, err := e.scorers.Mutual.Score(ctx, requesterID, candidateID)
	if err != nil || res == nil {
		if err != nil {
			logger.Warn().Err(err).Str("candidate_id", candidateID).Msg("mutual connection scoring failed")
		}
		return &MutualConnectionResult{}
	}
	return res
}

// keepWithMutuals drops candidates with no mutual-connection path.
func keepWithMutuals(items []ScoredCandidate) []ScoredCandidate {
	kept := items[:0]
	for i := range items {
		if items[i].MutualCount > 0 {
			kept = append(kept, items[i])
		}
	}
	return kept
}

// sortCandidates orders by composite score descending with candidate ID
// as the deterministic tiebreaker.
func sortCandidates(items []ScoredCandidate) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Composite != items[j].Composite {
			return items[i].Composite > items[j].Composite
		}
		return items[i].Profile.ID < items[j].Profile.ID
	})
}

// buildResponse assembles the final response and its metadata.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) buildResponse(req Request, snap *weightsSnapshot, scored []ScoredCandidate, total int, start time.Time) *Response {
	recs := make([]Recommendation, 0, len(scored))
	for i := range scored {
		recs = append(recs, Recommendation{
			UserID:          scored[i].Profile.ID,
			CompositeScore:  scored[i].Composite,
			ScoreComponents: scored[i].Components,
			Reason:          buildReason(&scored[i], snap.Weights),
		})
	}

	return &Response{
		Recommendations:  recs,
		AlgorithmVersion: AlgorithmVersion,
		ProcessingTimeMS: e.now().Sub(start).Milliseconds(),
		CacheHit:         false,
		TotalCandidates:  total,
		Metadata: ResponseMetadata{
			RequestID:       req.RequestID,
			UserID:          req.UserID,
			Factors:         snap.Weights.ToMap(),
			WeightsVersion:  snap.Version,
			Diversity:       diversityMetric(scored),
			DiversityFactor: req.DiversityFactor,
			Timestamp:       e.now(),
		},
	}
}

// storeCache writes the response best-effort. Failures are logged, never
// propagated.
func (e *Engine) storeCache(ctx context.Context, key string, resp *Response, logger zerolog.Logger) {
	if e.cache == nil || !e.config.CacheEnabled {
		return
	}
	if err := e.cache.Set(ctx, key, resp, e.config.CacheTTL); err != nil {
		metrics.CacheWriteErrors.Inc()
		logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// buildReason produces human-readable reason metadata from the dominant
// weighted factor.
func buildReason(sc *ScoredCandidate, w Weights) string {
	type factor struct {
		weighted float64
		text     string
	}

	factors := []factor{
		{w.University * sc.Components.University, universityReason(sc)},
		{w.MutualConnections * sc.Components.MutualConnections, mutualReason(sc)},
		{w.Interests * sc.Components.Interests, interestReason(sc)},
		{w.Engagement * sc.Components.Engagement, "recently active"},
		{w.Geography * sc.Components.Geography, "lives nearby"},
	}

	best := factors[0]
	for _, f := range factors[1:] {
		if f.weighted > best.weighted {
			best = f
		}
	}
	if best.weighted <= 0 {
		return "suggested for you"
	}
	return best.text
}

func universityReason(sc *ScoredCandidate) string {
	if sc.Profile.Department != "" {
		return fmt.Sprintf("studies %s at %s", sc.Profile.Department, sc.Profile.University)
	}
	return fmt.Sprintf("also at %s", sc.Profile.University)
}

func mutualReason(sc *ScoredCandidate) string {
	if sc.MutualCount == 1 {
		return "1 mutual connection"
	}
	return fmt.Sprintf("%d mutual connections", sc.MutualCount)
}

func interestReason(sc *ScoredCandidate) string {
	if len(sc.SharedInterests) == 0 {
		return "similar interests"
	}
	n := len(sc.SharedInterests)
	if n > 3 {
		n = 3
	}
	return "shared interests: " + strings.Join(sc.SharedInterests[:n], ", ")
}

// diversityMetric computes distinct grouping keys divided by result size.
func diversityMetric(items []ScoredCandidate) float64 {
	if len(items) == 0 {
		return 0
	}
	groups := make(map[string]struct{}, len(items))
	for i := range items {
		groups[GroupKey(&items[i].Profile)] = struct{}{}
	}
	return float64(len(groups)) / float64(len(items))
}

// GroupKey returns the grouping attribute used for diversity: department
// when present, university otherwise.
func GroupKey(p *Profile) string {
	if p.Department != "" {
		return strings.ToLower(p.Department)
	}
	if p.University != "" {
		return strings.ToLower(p.University)
	}
	return "unknown"
}

// Configuration returns the current weights snapshot and its version.
func (e *Engine) Configuration() (Weights, int64) {
	snap := e.weights.Load()
	return snap.Weights, snap.Version
}

// Settings returns a copy of the engine's operational parameters.
func (e *Engine) Settings() Config {
	return *e.config
}

// UpdateWeights atomically applies a partial weights update, replacing
// only the supplied keys. Requests in flight see either the old or the
// new snapshot in full.
func (e *Engine) UpdateWeights(p *WeightsPatch) (Weights, int64, error) {
	if p == nil {
		return Weights{}, 0, &ValidationError{Field: "weights", Reason: "is required"}
	}
	w, v, err := e.weights.Update(p)
	if err != nil {
		return Weights{}, 0, &ValidationError{Field: "weights", Reason: err.Error()}
	}
	e.logger.Info().Int64("version", v).Msg("weights updated")
	return w, v, nil
}

// Stats reports engine counters.
func (e *Engine) Stats() (requests, hits, misses, errors int64) {
	return e.requestCount.Load(), e.cacheHits.Load(), e.cacheMisses.Load(), e.errorCount.Load()
}

// cacheKey derives the cache key from the requester ID, normalized
// request fields, and the weights version.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func cacheKey(req Request, weightsVersion int64) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%d|%.4f|%s|%d", req.UserID, req.Limit, req.DiversityFactor, req.Privacy, weightsVersion)
	return fmt.Sprintf("rec:%s:%016x", req.UserID, h.Sum64())
}

// copyResponse returns a copy safe to hand to a caller; the slice header
// is duplicated so callers cannot mutate shared cache state.
func copyResponse(resp *Response) *Response {
	out := *resp
	out.Recommendations = make([]Recommendation, len(resp.Recommendations))
	copy(out.Recommendations, resp.Recommendations)
	return &out
}

// aggFor returns a pointer into a fresh copy of the user's aggregates,
// or nil when the batch had no entry for them.
func aggFor(aggs map[string]BehavioralAggregates, id string) *BehavioralAggregates {
	if a, ok := aggs[id]; ok {
		return &a
	}
	return nil
}

// toSet converts an ID slice to a membership set.
func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
