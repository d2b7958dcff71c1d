package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/riskibarqy/fantasy-waivers/internal/usecase"
)

// RunProcessWaiversJob is the QStash callback for a queued pass. Without a
// league it settles every league whose cutoff has passed.
func (h *Handler) RunProcessWaiversJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunProcessWaiversJob")
	defer span.End()

	if h.processingService == nil || h.scheduleService == nil {
		writeError(ctx, w, fmt.Errorf("%w: waiver processing is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	var req processWaiversJobRequest
	if err := decodeInternalJobRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if req.LeagueID == "" {
		result, err := h.processingService.ProcessDue(ctx)
		if err != nil {
			h.logger.WarnContext(ctx, "run due waiver passes failed", "error", err)
			writeError(ctx, w, err)
			return
		}
		writeSuccess(ctx, w, http.StatusOK, result)
		return
	}

	cutoff, err := parseCutoff(req.Cutoff)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.scheduleService.RunProcessJob(ctx, usecase.ProcessJobInput{
		LeagueID:   req.LeagueID,
		Cutoff:     cutoff,
		DispatchID: req.DispatchID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "run process waivers job failed",
			"league_id", req.LeagueID,
			"cutoff", req.Cutoff,
			"dispatch_id", req.DispatchID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, passResultToDTO(result))
}

func (h *Handler) RunScheduleWaiversJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunScheduleWaiversJob")
	defer span.End()

	if h.scheduleService == nil {
		writeError(ctx, w, fmt.Errorf("%w: waiver scheduling is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	var req scheduleWaiversJobRequest
	if err := decodeInternalJobRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.scheduleService.Schedule(ctx, req.LeagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "run schedule waivers job failed", "league_id", req.LeagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

// decodeInternalJobRequest treats an empty body as the zero request.
func decodeInternalJobRequest(r *http.Request, out any) error {
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}
