package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/fantasy-waivers/internal/usecase"
	"go.opentelemetry.io/otel/attribute"
)

func (h *Handler) SubmitClaim(w http.ResponseWriter, r *http.Request) {
	leagueID := r.PathValue("leagueID")
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitClaim", leagueAttr(leagueID))
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req submitClaimRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	claim, err := h.claimService.Submit(ctx, usecase.SubmitClaimInput{
		LeagueID:     leagueID,
		TeamID:       req.TeamID,
		UserID:       principal.UserID,
		AddPlayerID:  req.AddPlayerID,
		DropPlayerID: req.DropPlayerID,
		BidAmount:    req.BidAmount,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "submit waiver claim failed", "league_id", leagueID, "team_id", req.TeamID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, claimToDTO(claim))
}

func (h *Handler) ListClaims(w http.ResponseWriter, r *http.Request) {
	leagueID := r.PathValue("leagueID")
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListClaims", leagueAttr(leagueID))
	defer span.End()

	query := r.URL.Query()
	claims, err := h.claimService.List(ctx, usecase.ListClaimsInput{
		LeagueID: leagueID,
		TeamID:   strings.TrimSpace(query.Get("team_id")),
		Status:   strings.TrimSpace(query.Get("status")),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "list waiver claims failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, claimsToDTO(claims))
}

func (h *Handler) CancelClaim(w http.ResponseWriter, r *http.Request) {
	leagueID := r.PathValue("leagueID")
	claimID := r.PathValue("claimID")
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CancelClaim",
		leagueAttr(leagueID),
		attribute.String("waiver.claim_id", claimID),
	)
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	claim, err := h.claimService.Cancel(ctx, usecase.CancelClaimInput{
		LeagueID: leagueID,
		ClaimID:  claimID,
		UserID:   principal.UserID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "cancel waiver claim failed", "league_id", leagueID, "claim_id", claimID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, claimToDTO(claim))
}

func (h *Handler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	leagueID := r.PathValue("leagueID")
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListBudgets", leagueAttr(leagueID))
	defer span.End()

	budgets, err := h.claimService.ListBudgets(ctx, leagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "list waiver budgets failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, budgets)
}

func (h *Handler) GetPass(w http.ResponseWriter, r *http.Request) {
	leagueID := r.PathValue("leagueID")
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPass", leagueAttr(leagueID))
	defer span.End()

	cutoff, err := parseCutoff(r.PathValue("cutoff"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	record, err := h.processingService.GetPass(ctx, leagueID, cutoff)
	if err != nil {
		h.logger.WarnContext(ctx, "get waiver pass failed", "league_id", leagueID, "cutoff", cutoff, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, passToDTO(record))
}

// parseCutoff accepts RFC3339 or unix seconds.
func parseCutoff(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if unix, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: cutoff must be RFC3339 or unix seconds, got %q", usecase.ErrInvalidInput, raw)
}
