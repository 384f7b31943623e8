package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"match-crawler/internal/riot"
	"match-crawler/internal/storage"
)

const (
	DefaultTarget           = 1000
	DefaultMatchesPerPlayer = riot.MaxMatchListCount
	DefaultFlushThreshold   = 500 // participant rows

	// Bloom filter sizing
	expectedPlayers = 1000000
	expectedMatches = 500000
)

// Outcome says why expansion stopped.
type Outcome string

const (
	OutcomeTargetReached     Outcome = "target_reached"
	OutcomeFrontierExhausted Outcome = "frontier_exhausted"
)

// Archiver receives every accepted raw match.
type Archiver interface {
	WriteMatch(match interface{}) error
}

// Options configures one crawl.
type Options struct {
	Target           int // accepted matches to collect; 0 writes headers only
	MatchesPerPlayer int // match list page size, clamped to 1..100
	Queue            int // riot.QueueRankedSolo, riot.QueueRankedFlex or riot.QueueAll
	FlushThreshold   int // participant rows buffered before a flush

	// Operator-supplied seeds take precedence over ladder seeding.
	SeedPUUIDs []string
	SeedRefs   []PlayerRef

	// Matches already persisted by an earlier run; never fetched or counted again.
	KnownMatchIDs []string

	Seeds SeedConfig
	Rand  *rand.Rand
}

// Result summarizes a finished (or aborted) crawl.
type Result struct {
	State           State
	Outcome         Outcome
	Accepted        int
	Target          int
	ParticipantRows int
	Flushes         int
	PlayersExpanded int
	Elapsed         time.Duration
}

// Spider runs a breadth-first snowball walk from seed players through their
// match histories. It is single-threaded; all pacing happens in the Caller.
type Spider struct {
	api     RiotAPI
	caller  *Caller
	sink    storage.Sink
	archive Archiver
	opts    Options
	logger  *slog.Logger

	seeds    *SeedAcquirer
	resolver *Resolver
	sm       stateMachine

	frontier       *frontier
	visitedPlayers *visitedSet
	visitedMatches *visitedSet
	pending        storage.Batch

	accepted        int
	rowsWritten     int
	flushes         int
	playersExpanded int
	outcome         Outcome
	startTime       time.Time
}

// NewSpider creates a spider writing accepted matches to sink.
func NewSpider(api RiotAPI, caller *Caller, sink storage.Sink, opts Options, logger *slog.Logger) *Spider {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MatchesPerPlayer <= 0 || opts.MatchesPerPlayer > riot.MaxMatchListCount {
		opts.MatchesPerPlayer = DefaultMatchesPerPlayer
	}
	if opts.FlushThreshold <= 0 {
		opts.FlushThreshold = DefaultFlushThreshold
	}
	if opts.Target < 0 {
		opts.Target = 0
	}

	s := &Spider{
		api:            api,
		caller:         caller,
		sink:           sink,
		opts:           opts,
		logger:         logger.With("component", "spider"),
		seeds:          NewSeedAcquirer(api, caller, opts.Seeds, opts.Rand, logger),
		resolver:       NewResolver(api, caller, logger),
		frontier:       newFrontier(1000),
		visitedPlayers: newVisitedSet(expectedPlayers),
		visitedMatches: newVisitedSet(expectedMatches),
	}
	for _, id := range opts.KnownMatchIDs {
		s.visitedMatches.Add(id)
	}
	return s
}

// SetArchive enables raw match archiving.
func (s *Spider) SetArchive(a Archiver) { s.archive = a }

// OnTransition registers a callback for state changes.
func (s *Spider) OnTransition(cb TransitionCallback) { s.sm.OnTransition(cb) }

// State returns the current state.
func (s *Spider) State() State { return s.sm.Current() }

// Run seeds the frontier and expands it until the target is reached or the
// frontier runs dry, then flushes what is left. Running out of players is a
// normal outcome reported in Result. Fatal errors return at once without a
// final flush; cancellation flushes the buffer and returns ctx.Err().
func (s *Spider) Run(ctx context.Context) (*Result, error) {
	s.startTime = s.caller.Clock().Now()

	if err := s.sm.TransitionTo(StateSeeding); err != nil {
		return s.result(), err
	}
	if err := s.seed(ctx); err != nil {
		return s.result(), err
	}

	if err := s.sm.TransitionTo(StateExpanding); err != nil {
		return s.result(), err
	}
	outcome, expandErr := s.expand(ctx)
	if expandErr != nil && errors.Is(expandErr, ErrFatal) {
		s.logger.Error("crawl aborted", "error", expandErr, "accepted", s.accepted)
		return s.result(), expandErr
	}
	s.outcome = outcome

	if err := s.sm.TransitionTo(StateDraining); err != nil {
		return s.result(), err
	}
	flushCtx := ctx
	if ctx.Err() != nil {
		flushCtx = context.WithoutCancel(ctx)
	}
	if err := s.flush(flushCtx); err != nil {
		return s.result(), err
	}

	if err := s.sm.TransitionTo(StateDone); err != nil {
		return s.result(), err
	}
	s.printSummary()

	if expandErr != nil {
		return s.result(), expandErr
	}
	if s.outcome == OutcomeFrontierExhausted {
		s.logger.Warn(fmt.Sprintf("frontier exhausted: collected %d of %d matches", s.accepted, s.opts.Target))
	}
	return s.result(), nil
}

// seed fills the frontier. Operator PUUIDs take precedence over operator
// summoner and Riot IDs, which take precedence over the ladder. Ending up
// with no usable player is fatal.
func (s *Spider) seed(ctx context.Context) error {
	if s.opts.Target == 0 {
		s.logger.Info("target is 0, skipping seeding")
		return nil
	}

	var puuids []string
	switch {
	case len(s.opts.SeedPUUIDs) > 0:
		if len(s.opts.SeedRefs) > 0 {
			s.logger.Warn("PUUID seeds given, ignoring summoner and Riot ID seeds", "ignored", len(s.opts.SeedRefs))
		}
		puuids = s.opts.SeedPUUIDs
		s.logger.Info("using operator-supplied PUUIDs", "players", len(puuids))
	case len(s.opts.SeedRefs) > 0:
		resolved, err := s.resolver.Resolve(ctx, s.opts.SeedRefs)
		if err != nil {
			return fmt.Errorf("resolve seed players: %w", err)
		}
		puuids = resolved
		s.logger.Info("resolved operator-supplied seeds", "players", len(puuids), "requested", len(s.opts.SeedRefs))
	default:
		refs, err := s.seeds.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("acquire seeds: %w", err)
		}
		resolved, err := s.resolver.Resolve(ctx, refs)
		if err != nil {
			return fmt.Errorf("resolve seed players: %w", err)
		}
		puuids = resolved
	}

	for _, p := range puuids {
		s.enqueue(p)
	}
	if s.frontier.Len() == 0 {
		return fmt.Errorf("resolve seed players: %w", ErrSeedExhaustion)
	}
	s.logger.Info("frontier seeded", "players", s.frontier.Len())
	return nil
}

func (s *Spider) enqueue(puuid string) {
	if puuid == "" {
		return
	}
	if s.visitedPlayers.Add(puuid) {
		s.frontier.push(puuid)
	}
}

func (s *Spider) expand(ctx context.Context) (Outcome, error) {
	for s.accepted < s.opts.Target {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		puuid, ok := s.frontier.pop()
		if !ok {
			return OutcomeFrontierExhausted, nil
		}

		if err := s.expandPlayer(ctx, puuid); err != nil {
			return "", err
		}
		s.playersExpanded++

		if len(s.pending.Participants) >= s.opts.FlushThreshold {
			if err := s.flush(ctx); err != nil {
				return "", err
			}
		}
	}
	return OutcomeTargetReached, nil
}

func (s *Spider) expandPlayer(ctx context.Context, puuid string) error {
	matchIDs, err := Call(ctx, s.caller, "match-ids", func(ctx context.Context) ([]string, error) {
		return s.api.MatchIDsByPUUID(ctx, puuid, s.opts.MatchesPerPlayer, s.opts.Queue)
	})
	if err != nil {
		if isTerminal(ctx, err) {
			return err
		}
		s.logger.Debug("skipping player, match list failed", "player", shortID(puuid), "error", err)
		return nil
	}

	s.logger.Info("expanding player",
		"player", shortID(puuid),
		"matches", len(matchIDs),
		"accepted", s.accepted,
		"target", s.opts.Target,
		"frontier", s.frontier.Len(),
		"elapsed", formatDuration(s.caller.Clock().Now().Sub(s.startTime)))

	for _, matchID := range matchIDs {
		if s.accepted >= s.opts.Target {
			break
		}
		if s.visitedMatches.Has(matchID) {
			continue
		}

		match, err := Call(ctx, s.caller, "match", func(ctx context.Context) (*riot.MatchResponse, error) {
			return s.api.Match(ctx, matchID)
		})
		if err != nil {
			if isTerminal(ctx, err) {
				return err
			}
			s.logger.Debug("skipping match, fetch failed", "match", matchID, "error", err)
			continue
		}
		s.accept(matchID, match)
	}
	return nil
}

// accept records a match if it has at least one role-mapped participant and
// enqueues those participants' unseen players.
func (s *Spider) accept(matchID string, match *riot.MatchResponse) {
	if match == nil || len(match.Info.Participants) == 0 {
		s.logger.Debug("skipping match without participants", "match", matchID)
		return
	}
	rows := ParticipantRows(matchID, match)
	if len(rows) == 0 {
		s.logger.Debug("skipping non-standard match", "match", matchID)
		return
	}

	s.visitedMatches.Add(matchID)
	s.accepted++
	s.pending.Participants = append(s.pending.Participants, rows...)
	s.pending.Matches = append(s.pending.Matches, storage.MatchRow{
		MatchID:      matchID,
		WinnerTeamID: WinnerTeamID(match.Info.Teams),
	})

	if s.archive != nil {
		if err := s.archive.WriteMatch(match); err != nil {
			s.logger.Warn("failed to archive match", "match", matchID, "error", err)
		}
	}

	for _, r := range rows {
		s.enqueue(r.PUUID)
	}
}

// flush hands the pending batch to the sink. A sink failure is fatal: rows
// already marked visited would otherwise be lost silently.
func (s *Spider) flush(ctx context.Context) error {
	if s.pending.Empty() {
		return nil
	}
	rows := len(s.pending.Participants)
	if err := s.sink.Flush(ctx, s.pending); err != nil {
		return fmt.Errorf("%w: flush %d rows: %w", ErrFatal, rows, err)
	}
	s.rowsWritten += rows
	s.flushes++
	s.pending = storage.Batch{}
	s.logger.Info("flushed batch", "rows", rows, "total_rows", s.rowsWritten, "accepted", s.accepted)
	return nil
}

func (s *Spider) result() *Result {
	return &Result{
		State:           s.sm.Current(),
		Outcome:         s.outcome,
		Accepted:        s.accepted,
		Target:          s.opts.Target,
		ParticipantRows: s.rowsWritten,
		Flushes:         s.flushes,
		PlayersExpanded: s.playersExpanded,
		Elapsed:         s.caller.Clock().Now().Sub(s.startTime),
	}
}

func (s *Spider) printSummary() {
	elapsed := s.caller.Clock().Now().Sub(s.startTime)
	s.logger.Info("crawl complete",
		"outcome", string(s.outcome),
		"accepted", s.accepted,
		"target", s.opts.Target,
		"participant_rows", s.rowsWritten,
		"flushes", s.flushes,
		"players_expanded", s.playersExpanded,
		"players_seen", s.visitedPlayers.Len(),
		"elapsed", formatDuration(elapsed))

	if s.accepted > 0 && elapsed > 0 {
		s.logger.Info("throughput",
			"avg_per_match", formatDuration(elapsed/time.Duration(s.accepted)),
			"matches_per_min", fmt.Sprintf("%.1f", float64(s.accepted)/elapsed.Minutes()))
	}

	stats := s.caller.Stats()
	ops := make([]string, 0, len(stats))
	for op := range stats {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	for _, op := range ops {
		st := stats[op]
		s.logger.Info("api calls", "op", op, "calls", st.Calls, "rate_limited", st.RateLimited, "failures", st.Failures)
	}
}

func shortID(id string) string {
	return id[:min(16, len(id))]
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	} else if d < time.Hour {
		mins := int(d.Minutes())
		secs := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%02ds", mins, secs)
	}
	hours := int(d.Hours())
	mins := int(d.Minutes()) % 60
	secs := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%02dm%02ds", hours, mins, secs)
}
