package waiver

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/riskibarqy/fantasy-waivers/internal/domain/roster"
)

// PassInput is everything a processing pass reads.
type PassInput struct {
	PassID   string
	LeagueID string
	Cutoff   time.Time
	Settings Settings
	Snapshot roster.Snapshot
	Claims   []Claim
}

// PassOutcome carries the report and the roster state after every settlement.
type PassOutcome struct {
	Report   SettlementReport
	Snapshot roster.Snapshot
}

// Engine resolves and settles the pending claims of one league.
type Engine struct {
	settler Settler
	now     func() time.Time
}

func NewEngine(settler Settler) *Engine {
	return &Engine{settler: settler, now: time.Now}
}

// WithClock overrides the time stamped on reports and settlements.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	if now != nil {
		e.now = now
	}
	return e
}

type pass struct {
	in       PassInput
	state    roster.Snapshot
	held     map[string][]string
	report   SettlementReport
	settler  Settler
	chaining bool
}

// Run executes one pass. Integrity faults are detected before anything is
// settled and abort the pass with ErrIntegrityFault.
func (e *Engine) Run(ctx context.Context, in PassInput) (PassOutcome, error) {
	if err := in.Settings.Validate(); err != nil {
		return PassOutcome{}, err
	}

	claims := slices.Clone(in.Claims)
	SortClaims(claims)
	if err := checkIntegrity(in, claims); err != nil {
		return PassOutcome{}, err
	}

	p := &pass{
		in:       in,
		state:    in.Snapshot.Clone(),
		held:     make(map[string][]string),
		settler:  e.settler,
		chaining: in.Settings.AllowSamePassChaining,
		report: SettlementReport{
			PassID:      in.PassID,
			LeagueID:    in.LeagueID,
			Mode:        in.Settings.Mode,
			Cutoff:      in.Cutoff.UTC(),
			ProcessedAt: e.now().UTC(),
		},
	}

	var drops, adds []Claim
	for _, c := range claims {
		if c.Kind == KindDrop {
			drops = append(drops, c)
			continue
		}
		adds = append(adds, c)
	}

	for _, c := range drops {
		if err := p.settleDrop(ctx, c); err != nil {
			return PassOutcome{}, err
		}
	}

	eligible, err := p.screen(ctx, adds)
	if err != nil {
		return PassOutcome{}, err
	}
	_, groups := GroupByPlayer(eligible)
	for _, g := range groups {
		if err := p.settleGroup(ctx, g); err != nil {
			return PassOutcome{}, err
		}
	}

	p.finish()
	return PassOutcome{Report: p.report, Snapshot: p.state}, nil
}

func checkIntegrity(in PassInput, claims []Claim) error {
	snap := in.Snapshot
	if snap.LeagueID != in.LeagueID {
		return fmt.Errorf("%w: snapshot league=%s pass league=%s", ErrIntegrityFault, snap.LeagueID, in.LeagueID)
	}

	ranks := make(map[int]string, len(snap.Teams))
	owners := make(map[string]string)
	for _, teamID := range snap.TeamIDs() {
		team := snap.Teams[teamID]
		if team.SpentFaab < 0 || team.RemainingFaab() < 0 {
			return fmt.Errorf("%w: team=%s total=%d spent=%d", ErrIntegrityFault, teamID, team.TotalFaab, team.SpentFaab)
		}
		if other, dup := ranks[team.WaiverPriority]; dup {
			return fmt.Errorf("%w: teams %s and %s share priority %d", ErrIntegrityFault, other, teamID, team.WaiverPriority)
		}
		ranks[team.WaiverPriority] = teamID
		for _, playerID := range team.PlayerIDs {
			if other, dup := owners[playerID]; dup {
				return fmt.Errorf("%w: player=%s rostered by %s and %s", ErrIntegrityFault, playerID, other, teamID)
			}
			owners[playerID] = teamID
		}
	}

	ids := make(map[string]struct{}, len(claims))
	targets := make(map[string]string)
	for _, c := range claims {
		// Settled claims are never touched again, whatever their team became.
		if c.Status != StatusPending {
			continue
		}
		if _, dup := ids[c.ID]; dup {
			return fmt.Errorf("%w: claim=%s appears twice", ErrIntegrityFault, c.ID)
		}
		ids[c.ID] = struct{}{}
		if c.LeagueID != in.LeagueID {
			return fmt.Errorf("%w: claim=%s belongs to league=%s", ErrIntegrityFault, c.ID, c.LeagueID)
		}
		if _, ok := snap.Teams[c.TeamID]; !ok {
			return fmt.Errorf("%w: claim=%s references unknown team=%s", ErrIntegrityFault, c.ID, c.TeamID)
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("%w: claim=%s: %v", ErrIntegrityFault, c.ID, err)
		}
		if c.Kind == KindDrop {
			continue
		}
		key := c.TeamID + "\x00" + c.AddPlayerID
		if other, dup := targets[key]; dup {
			return fmt.Errorf("%w: claims %s and %s duplicate team=%s player=%s", ErrIntegrityFault, other, c.ID, c.TeamID, c.AddPlayerID)
		}
		targets[key] = c.ID
	}

	return nil
}

// screen validates add claims against the state left by drop-only claims and
// records the rejections; rejected claims never enter a group.
func (p *pass) screen(ctx context.Context, claims []Claim) ([]Claim, error) {
	var (
		eligible []Claim
		rejected []ClaimResult
	)
	for _, c := range claims {
		result, ok, err := p.check(c)
		if err != nil {
			return nil, err
		}
		if result != nil {
			rejected = append(rejected, *result)
			continue
		}
		if ok {
			eligible = append(eligible, c)
		}
	}
	if err := p.record(ctx, rejected); err != nil {
		return nil, err
	}
	return eligible, nil
}

// check returns a rejection result, or ok=true when the claim may compete.
// Non-pending claims yield neither.
func (p *pass) check(c Claim) (*ClaimResult, bool, error) {
	held := p.held
	if p.chaining {
		held = nil
	}
	err := validate(c, p.state, p.in.Settings, held)
	switch {
	case err == nil:
		return nil, true, nil
	case errors.Is(err, ErrClaimNotPending):
		return nil, false, nil
	}
	if reason, ok := RejectionReason(err); ok {
		return &ClaimResult{ClaimID: c.ID, TeamID: c.TeamID, Outcome: OutcomeRejected, Reason: reason}, false, nil
	}
	return nil, false, fmt.Errorf("%w: claim=%s: %v", ErrIntegrityFault, c.ID, err)
}

func (p *pass) settleDrop(ctx context.Context, c Claim) error {
	result, ok, err := p.check(c)
	if err != nil {
		return err
	}
	if result != nil {
		return p.record(ctx, []ClaimResult{*result})
	}
	if !ok {
		return nil
	}

	change := roster.Change{Mutations: []roster.Mutation{{TeamID: c.TeamID, DropPlayerID: c.DropPlayerID}}}
	results := []ClaimResult{{ClaimID: c.ID, TeamID: c.TeamID, Outcome: OutcomeSuccessful}}
	applied, err := p.apply(ctx, change, results)
	if err != nil || !applied {
		return err
	}
	p.held[c.TeamID] = append(p.held[c.TeamID], c.DropPlayerID)
	return nil
}

func (p *pass) settleGroup(ctx context.Context, g Group) error {
	var (
		contenders []Claim
		rejected   []ClaimResult
	)
	for _, c := range g.Claims {
		result, ok, err := p.check(c)
		if err != nil {
			return err
		}
		if result != nil {
			rejected = append(rejected, *result)
			continue
		}
		if ok {
			contenders = append(contenders, c)
		}
	}
	if err := p.record(ctx, rejected); err != nil {
		return err
	}
	if len(contenders) == 0 {
		return nil
	}

	res, err := Resolve(Group{PlayerID: g.PlayerID, Claims: contenders}, p.in.Settings.Mode, p.state)
	if err != nil {
		return err
	}

	winner := res.Winner
	mutation := roster.Mutation{
		TeamID:       winner.TeamID,
		AddPlayerID:  winner.AddPlayerID,
		DropPlayerID: winner.DropPlayerID,
	}
	change := roster.Change{}
	winnerResult := ClaimResult{ClaimID: winner.ID, TeamID: winner.TeamID, Outcome: OutcomeSuccessful}
	if p.in.Settings.Mode == ModeFAAB {
		mutation.SpendFaab = winner.BidAmount
		bid := winner.BidAmount
		winnerResult.FinalBidAmount = &bid
	} else {
		change.Priorities = p.state.MoveToBack(winner.TeamID)
	}
	change.Mutations = []roster.Mutation{mutation}

	results := make([]ClaimResult, 0, len(contenders))
	results = append(results, winnerResult)
	for _, c := range res.Losers {
		results = append(results, ClaimResult{ClaimID: c.ID, TeamID: c.TeamID, Outcome: OutcomeFailed, Reason: res.LoserReason})
	}

	_, err = p.apply(ctx, change, results)
	return err
}

// apply settles a change together with its results. When the change cannot be
// applied every claim in the unit fails with a settlement conflict instead.
func (p *pass) apply(ctx context.Context, change roster.Change, results []ClaimResult) (bool, error) {
	next, err := p.state.Apply(change)
	if err == nil {
		err = p.settler.Settle(ctx, p.settlement(change, results))
	}
	if err == nil {
		p.state = next
		p.report.Results = append(p.report.Results, results...)
		for _, m := range change.Mutations {
			p.report.RosterDeltas = append(p.report.RosterDeltas, RosterDelta{
				TeamID:  m.TeamID,
				Added:   m.AddPlayerID,
				Dropped: m.DropPlayerID,
			})
		}
		return true, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}

	failed := make([]ClaimResult, 0, len(results))
	for _, r := range results {
		failed = append(failed, ClaimResult{ClaimID: r.ClaimID, TeamID: r.TeamID, Outcome: OutcomeFailed, Reason: ReasonSettlementConflict})
	}
	return false, p.record(ctx, failed)
}

// record persists results that carry no roster change.
func (p *pass) record(ctx context.Context, results []ClaimResult) error {
	if len(results) == 0 {
		return nil
	}
	if err := p.settler.Settle(ctx, p.settlement(roster.Change{}, results)); err != nil {
		return fmt.Errorf("record %d claim results: %w", len(results), err)
	}
	p.report.Results = append(p.report.Results, results...)
	return nil
}

func (p *pass) settlement(change roster.Change, results []ClaimResult) Settlement {
	return Settlement{
		LeagueID:    p.in.LeagueID,
		PassID:      p.in.PassID,
		ProcessedAt: p.report.ProcessedAt,
		Change:      change,
		Results:     slices.Clone(results),
	}
}

func (p *pass) finish() {
	for _, teamID := range p.state.TeamIDs() {
		before := p.in.Snapshot.Teams[teamID].SpentFaab
		after := p.state.Teams[teamID].SpentFaab
		if after == before {
			continue
		}
		p.report.BudgetDeltas = append(p.report.BudgetDeltas, BudgetDelta{
			TeamID:    teamID,
			SpentFaab: after,
			Delta:     after - before,
		})
	}
	sort.SliceStable(p.report.BudgetDeltas, func(i, j int) bool {
		return p.report.BudgetDeltas[i].TeamID < p.report.BudgetDeltas[j].TeamID
	})
	if p.in.Settings.Mode == ModePriority {
		p.report.PriorityOrder = p.state.PriorityOrder()
	}
}
