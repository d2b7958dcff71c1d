package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerAuthorizedWaiverRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/leagues/{leagueID}/waivers/claims", RequireAuth(verifier, http.HandlerFunc(handler.SubmitClaim)))
	mux.Handle("GET /v1/leagues/{leagueID}/waivers/claims", RequireAuth(verifier, http.HandlerFunc(handler.ListClaims)))
	mux.Handle("DELETE /v1/leagues/{leagueID}/waivers/claims/{claimID}", RequireAuth(verifier, http.HandlerFunc(handler.CancelClaim)))
	mux.Handle("GET /v1/leagues/{leagueID}/waivers/budgets", RequireAuth(verifier, http.HandlerFunc(handler.ListBudgets)))
	// Pass report for a cutoff; RFC3339 or unix seconds.
	mux.Handle("GET /v1/leagues/{leagueID}/waivers/passes/{cutoff}", RequireAuth(verifier, http.HandlerFunc(handler.GetPass)))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/process-waivers", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunProcessWaiversJob)))
	mux.Handle("POST /v1/internal/jobs/schedule-waivers", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunScheduleWaiversJob)))
}
