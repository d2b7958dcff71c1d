package postgres

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/roster"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/waiver"
)

var settledAt = time.Date(2026, 10, 21, 3, 0, 5, 0, time.UTC)

func TestBuildSpendQuery_GuardsTotalBudget(t *testing.T) {
	query, args, err := buildSpendQuery("lg", roster.Mutation{TeamID: "ft-2", AddPlayerID: "fa-1", SpendFaab: 7}, settledAt)
	if err != nil {
		t.Fatalf("build spend query: %v", err)
	}

	want := "UPDATE fantasy_teams SET spent_faab = spent_faab + $1, updated_at = $2 " +
		"WHERE league_public_id = $3 AND public_id = $4 AND spent_faab + $5 <= total_faab"
	if query != want {
		t.Fatalf("unexpected query:\n got: %s\nwant: %s", query, want)
	}
	wantArgs := []any{int64(7), settledAt, "lg", "ft-2", int64(7)}
	if !reflect.DeepEqual(args, wantArgs) {
		t.Fatalf("unexpected args: %#v", args)
	}
}

func TestBuildDropQuery_OnlyTouchesLiveEntryOfTeam(t *testing.T) {
	query, args, err := buildDropQuery("lg", roster.Mutation{TeamID: "ft-1", DropPlayerID: "r-1"}, settledAt)
	if err != nil {
		t.Fatalf("build drop query: %v", err)
	}

	want := "UPDATE roster_entries SET deleted_at = $1 " +
		"WHERE league_public_id = $2 AND team_public_id = $3 AND player_public_id = $4 AND deleted_at IS NULL"
	if query != want {
		t.Fatalf("unexpected query:\n got: %s\nwant: %s", query, want)
	}
	wantArgs := []any{settledAt, "lg", "ft-1", "r-1"}
	if !reflect.DeepEqual(args, wantArgs) {
		t.Fatalf("unexpected args: %#v", args)
	}
}

func TestBuildSettleClaimQuery_RequiresPendingClaimOfPass(t *testing.T) {
	query, args, err := buildSettleClaimQuery("lg", "pass-1", waiver.ClaimResult{
		ClaimID: "c-2",
		TeamID:  "ft-1",
		Outcome: waiver.OutcomeFailed,
		Reason:  waiver.ReasonOutbid,
	}, settledAt)
	if err != nil {
		t.Fatalf("build settle claim query: %v", err)
	}

	want := "UPDATE waiver_claims SET status = $1, failure_reason = $2, processed_at = $3, updated_at = $4 " +
		"WHERE league_public_id = $5 AND public_id = $6 AND status = $7 AND processing_pass_id = $8"
	if query != want {
		t.Fatalf("unexpected query:\n got: %s\nwant: %s", query, want)
	}
	if len(args) != 8 {
		t.Fatalf("unexpected arg count: %d", len(args))
	}
	if args[0] != "failed" || args[6] != "pending" || args[7] != "pass-1" {
		t.Fatalf("unexpected args: %#v", args)
	}
	if reason, ok := args[1].(*string); !ok || reason == nil || *reason != "outbid" {
		t.Fatalf("unexpected failure reason arg: %#v", args[1])
	}
}

func TestBuildSettleClaimQuery_SuccessHasNoReason(t *testing.T) {
	_, args, err := buildSettleClaimQuery("lg", "pass-1", waiver.ClaimResult{ClaimID: "c-1", Outcome: waiver.OutcomeSuccessful}, settledAt)
	if err != nil {
		t.Fatalf("build settle claim query: %v", err)
	}
	if args[0] != "successful" {
		t.Fatalf("unexpected status arg: %v", args[0])
	}
	if reason, _ := args[1].(*string); reason != nil {
		t.Fatalf("expected NULL failure reason, got %q", *reason)
	}
}

func TestBuildPriorityQuery(t *testing.T) {
	query, args, err := buildPriorityQuery("lg", "ft-3", 2)
	if err != nil {
		t.Fatalf("build priority query: %v", err)
	}

	want := "UPDATE fantasy_teams SET waiver_priority = $1, updated_at = NOW() WHERE league_public_id = $2 AND public_id = $3"
	if query != want {
		t.Fatalf("unexpected query:\n got: %s\nwant: %s", query, want)
	}
	if !reflect.DeepEqual(args, []any{2, "lg", "ft-3"}) {
		t.Fatalf("unexpected args: %#v", args)
	}
}

func TestCommitError(t *testing.T) {
	if err := commitError(nil, "pass-1"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}

	err := commitError(&pq.Error{Code: "23505", Constraint: "fantasy_teams_league_priority_key"}, "pass-1")
	if !errors.Is(err, roster.ErrConflict) {
		t.Fatalf("expected roster conflict for deferred unique violation, got %v", err)
	}

	cause := errors.New("connection reset")
	err = commitError(cause, "pass-1")
	if errors.Is(err, roster.ErrConflict) || !errors.Is(err, cause) {
		t.Fatalf("expected wrapped commit error, got %v", err)
	}
}
