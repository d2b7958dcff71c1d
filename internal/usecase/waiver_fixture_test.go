package usecase

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/fantasy-waivers/internal/domain/league"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/player"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/roster"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/waiver"
	"github.com/riskibarqy/fantasy-waivers/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/fantasy-waivers/internal/platform/lock"
	"github.com/riskibarqy/fantasy-waivers/internal/platform/logging"
)

const testLeagueID = "idn-liga-1-2025"

// Wednesday 03:00 UTC.
var testCutoff = time.Date(2026, 10, 21, 3, 0, 0, 0, time.UTC)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type sequenceIDGenerator struct {
	mu     sync.Mutex
	prefix string
	next   int
}

func (g *sequenceIDGenerator) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("%s-%03d", g.prefix, g.next), nil
}

type waiverFixture struct {
	clock      *testClock
	league     league.League
	rosters    *memory.RosterStore
	claims     *memory.ClaimLedger
	passes     *memory.PassRepository
	claimSvc   *WaiverClaimService
	processSvc *WaiverProcessingService
}

func testTeams() []roster.TeamState {
	return []roster.TeamState{
		{TeamID: "ft-1", LeagueID: testLeagueID, Name: "Garuda XI", OwnerUserID: "user-1", PlayerIDs: []string{"r-1"}, TotalFaab: 100, WaiverPriority: 1},
		{TeamID: "ft-2", LeagueID: testLeagueID, Name: "Maung FC", OwnerUserID: "user-2", PlayerIDs: []string{"r-2"}, TotalFaab: 100, WaiverPriority: 2},
		{TeamID: "ft-3", LeagueID: testLeagueID, Name: "Bajul Ijo", OwnerUserID: "user-3", PlayerIDs: []string{"r-3"}, TotalFaab: 100, WaiverPriority: 3},
	}
}

func testPlayers() []player.Player {
	out := make([]player.Player, 0, 6)
	for _, id := range []string{"r-1", "r-2", "r-3", "fa-1", "fa-2", "fa-3"} {
		out = append(out, player.Player{ID: id, LeagueID: testLeagueID, Name: id, Position: player.PositionMidfielder})
	}
	return out
}

func newWaiverFixture(t *testing.T, mode waiver.Mode, teams []roster.TeamState) *waiverFixture {
	t.Helper()

	settings := waiver.Settings{Mode: mode, RosterCap: 4}
	if mode == waiver.ModeFAAB {
		settings.MinBid = 1
	}
	schedule, err := league.ParseSchedule("wed@03:00", "UTC")
	if err != nil {
		t.Fatalf("parse schedule: %v", err)
	}
	lg := league.League{
		ID:         testLeagueID,
		Name:       "Liga 1 Indonesia",
		Season:     "2025/2026",
		FaabBudget: 100,
		Waiver:     settings,
		Schedule:   schedule,
	}

	clock := &testClock{t: testCutoff.Add(-17 * time.Hour)}
	leagues := memory.NewLeagueRepository([]league.League{lg})
	rosters := memory.NewRosterStore(testPlayers(), teams)
	claims := memory.NewClaimLedger(nil)
	passes := memory.NewPassRepository()

	claimSvc := NewWaiverClaimService(leagues, rosters, claims, &sequenceIDGenerator{prefix: "claim"}, logging.NewNop())
	claimSvc.now = clock.now
	processSvc := NewWaiverProcessingService(
		leagues,
		rosters,
		claims,
		passes,
		memory.NewSettlementWriter(rosters, claims),
		lock.NewKeyed(),
		&sequenceIDGenerator{prefix: "pass"},
		WaiverProcessingConfig{Workers: 2},
		logging.NewNop(),
	)
	processSvc.now = clock.now

	return &waiverFixture{
		clock:      clock,
		league:     lg,
		rosters:    rosters,
		claims:     claims,
		passes:     passes,
		claimSvc:   claimSvc,
		processSvc: processSvc,
	}
}

func (f *waiverFixture) submit(t *testing.T, user, teamID, add, drop string, bid int64) waiver.Claim {
	t.Helper()

	c, err := f.claimSvc.Submit(t.Context(), SubmitClaimInput{
		LeagueID:     testLeagueID,
		TeamID:       teamID,
		UserID:       user,
		AddPlayerID:  add,
		DropPlayerID: drop,
		BidAmount:    bid,
	})
	if err != nil {
		t.Fatalf("submit claim team=%s add=%s: %v", teamID, add, err)
	}
	return c
}

func (f *waiverFixture) claimStatus(t *testing.T, claimID string) waiver.Claim {
	t.Helper()

	c, ok, err := f.claims.GetByID(t.Context(), testLeagueID, claimID)
	if err != nil || !ok {
		t.Fatalf("get claim %s: ok=%v err=%v", claimID, ok, err)
	}
	return c
}

func (f *waiverFixture) team(t *testing.T, teamID string) roster.TeamState {
	t.Helper()

	snap, err := f.rosters.LoadSnapshot(t.Context(), testLeagueID)
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	return snap.Teams[teamID]
}
