package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"deal-parity/internal/domain"
	"deal-parity/internal/ingestion"
	"deal-parity/internal/observability"
)

type createDealRequest struct {
	ID        string       `json:"id"`
	Currency  string       `json:"currency"`
	Accrual   *accrualJSON `json:"accrual"`
	CreatedBy string       `json:"created_by"`
}

func (s *Server) handleCreateDeal(w http.ResponseWriter, r *http.Request) {
	var req createDealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "malformed JSON body", "resend valid JSON")
		return
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if money.GetCurrency(currency) == nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest,
			"unknown currency code "+req.Currency, "use an ISO 4217 currency code")
		return
	}

	accrual, ok := parseAccrual(req.Accrual)
	if !ok {
		writeError(w, http.StatusBadRequest, CodeBadRequest,
			"accrual requires positive revenue_cents and a YYYY-MM-DD period",
			"supply revenue_cents, period_start and period_end or omit accrual")
		return
	}

	deal := &domain.Deal{
		ID:        req.ID,
		Currency:  currency,
		Accrual:   accrual,
		CreatedBy: req.CreatedBy,
		CreatedAt: s.clock().UnixMilli(),
	}
	if deal.ID == "" {
		deal.ID = uuid.NewString()
	}

	if err := s.deals.Insert(r.Context(), deal); err != nil {
		writeDomainError(w, err)
		return
	}
	s.logger.Printf("deal created id=%s currency=%s", deal.ID, deal.Currency)
	writeJSON(w, http.StatusCreated, dealToJSON(deal))
}

// parseAccrual validates the optional accrual block. nil means absent; a
// present block must be fully specified.
func parseAccrual(a *accrualJSON) (domain.AccrualReference, bool) {
	if a == nil {
		return domain.AccrualReference{}, true
	}
	if a.RevenueCents <= 0 {
		return domain.AccrualReference{}, false
	}
	if _, err := domain.ParseDay(a.PeriodStart); err != nil {
		return domain.AccrualReference{}, false
	}
	if _, err := domain.ParseDay(a.PeriodEnd); err != nil {
		return domain.AccrualReference{}, false
	}
	if a.PeriodEnd < a.PeriodStart {
		return domain.AccrualReference{}, false
	}
	return domain.AccrualReference{
		RevenueCents: a.RevenueCents,
		PeriodStart:  a.PeriodStart,
		PeriodEnd:    a.PeriodEnd,
		Manual:       a.Manual,
	}, true
}

func (s *Server) handleUpdateAccrual(w http.ResponseWriter, r *http.Request) {
	dealID := chi.URLParam(r, "dealID")

	var req accrualJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "malformed JSON body", "resend valid JSON")
		return
	}
	accrual, ok := parseAccrual(&req)
	if !ok {
		writeError(w, http.StatusBadRequest, CodeBadRequest,
			"accrual requires positive revenue_cents and a YYYY-MM-DD period",
			"supply revenue_cents, period_start and period_end")
		return
	}

	if err := s.deals.UpdateAccrual(r.Context(), dealID, accrual); err != nil {
		writeDomainError(w, err)
		return
	}
	deal, err := s.deals.GetByID(r.Context(), dealID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dealToJSON(deal))
}

func (s *Server) handleGetDeal(w http.ResponseWriter, r *http.Request) {
	dealID := chi.URLParam(r, "dealID")

	deal, err := s.deals.GetByID(r.Context(), dealID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	runs, err := s.runs.ListByDeal(r.Context(), dealID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	snapshots, err := s.snapshots.ListByDeal(r.Context(), dealID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	runOut := make([]runJSON, 0, len(runs))
	for _, run := range runs {
		runOut = append(runOut, runToJSON(run))
	}
	snapOut := make([]snapshotJSON, 0, len(snapshots))
	for _, snap := range snapshots {
		snapOut = append(snapOut, snapshotToJSON(snap, false))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"deal":          dealToJSON(deal),
		"analysis_runs": runOut,
		"snapshots":     snapOut,
	})
}

type ingestRequest struct {
	DocumentID string          `json:"document_id"`
	Rows       []ingestion.Row `json:"rows"`
}

type ingestResponse struct {
	DocumentID string   `json:"document_id"`
	Inserted   int      `json:"inserted"`
	Skipped    int      `json:"skipped"`
	Analysis   *runJSON `json:"analysis,omitempty"`
}

func (s *Server) handleIngestTransactions(w http.ResponseWriter, r *http.Request) {
	dealID := chi.URLParam(r, "dealID")

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "malformed JSON body", "resend valid JSON")
		return
	}
	if req.DocumentID == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "document_id is required",
			"supply a stable document identifier")
		return
	}
	if len(req.Rows) == 0 {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "rows must not be empty",
			"supply at least one parsed row")
		return
	}

	res, err := s.ingest.Ingest(r.Context(), dealID, req.DocumentID, req.Rows)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := ingestResponse{
		DocumentID: res.DocumentID,
		Inserted:   res.Inserted,
		Skipped:    res.Skipped,
	}
	// A full-duplicate resubmission leaves the ledger unchanged; the
	// current draft is already correct and is not recomputed.
	if res.Inserted > 0 {
		runOut, err := s.pipeline.Recompute(r.Context(), dealID, domain.RunTriggerParseComplete)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		rj := runToJSON(runOut.Run)
		out.Analysis = &rj
	}
	writeJSON(w, http.StatusOK, out)
}

type createOverrideRequest struct {
	EntityID  string `json:"entity_id"`
	NewRole   string `json:"new_role"`
	Reason    string `json:"reason"`
	CreatedBy string `json:"created_by"`
}

func (s *Server) handleCreateOverride(w http.ResponseWriter, r *http.Request) {
	dealID := chi.URLParam(r, "dealID")

	var req createOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "malformed JSON body", "resend valid JSON")
		return
	}
	if req.EntityID == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "entity_id is required",
			"supply the entity_id from the current analysis")
		return
	}
	newRole := domain.Role(strings.ToLower(strings.TrimSpace(req.NewRole)))
	if !newRole.IsValid() || newRole == domain.RoleTransfer {
		writeError(w, http.StatusBadRequest, CodeBadRequest,
			"new_role must be one of the assignable roles",
			"use revenue_operational, revenue_non_operational, payroll, supplier or other")
		return
	}

	if _, err := s.deals.GetByID(r.Context(), dealID); err != nil {
		writeDomainError(w, err)
		return
	}

	oldRole, found, err := s.effectiveRole(r, dealID, req.EntityID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, CodeNotFound,
			"entity "+req.EntityID+" not present in the current analysis",
			"check the entity_id against GET .../analysis")
		return
	}

	ov := &domain.Override{
		ID:        uuid.NewString(),
		DealID:    dealID,
		EntityID:  req.EntityID,
		Field:     "role",
		OldRole:   oldRole,
		NewRole:   newRole,
		WeightBP:  domain.DeriveOverrideWeightBP(oldRole, newRole),
		Reason:    req.Reason,
		CreatedBy: req.CreatedBy,
		CreatedAt: s.clock().UnixMilli(),
	}
	if err := s.overrides.Insert(r.Context(), ov); err != nil {
		writeDomainError(w, err)
		return
	}
	observability.RecordOverride(weightLabel(ov.WeightBP))

	runOut, err := s.pipeline.Recompute(r.Context(), dealID, domain.RunTriggerOverrideAdded)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// Seq is assigned by the store; reload the ledger tail for the
	// response.
	stored := ov
	if ledger, err := s.overrides.ListByDeal(r.Context(), dealID); err == nil {
		for _, entry := range ledger {
			if entry.ID == ov.ID {
				stored = entry
				break
			}
		}
	}

	rj := runToJSON(runOut.Run)
	writeJSON(w, http.StatusCreated, map[string]any{
		"override": overrideToJSON(stored),
		"analysis": rj,
	})
}

// effectiveRole resolves the entity's role as the caller sees it: the
// latest override wins, otherwise the current draft's assignment.
func (s *Server) effectiveRole(r *http.Request, dealID, entityID string) (domain.Role, bool, error) {
	ledger, err := s.overrides.ListByDeal(r.Context(), dealID)
	if err != nil {
		return "", false, err
	}
	if latest, ok := domain.EffectiveOverrides(ledger)[entityID]; ok {
		return latest.NewRole, true, nil
	}

	records, err := s.txnMap.ListByDeal(r.Context(), dealID)
	if err != nil {
		return "", false, err
	}
	for _, rec := range records {
		if rec.EntityID == entityID {
			return rec.Role, true, nil
		}
	}
	return "", false, nil
}

func weightLabel(weightBP int64) string {
	switch weightBP {
	case domain.OverrideWeightMajorBP:
		return "major"
	case domain.OverrideWeightMinorBP:
		return "minor"
	default:
		return "revert"
	}
}

func (s *Server) handleListOverrides(w http.ResponseWriter, r *http.Request) {
	dealID := chi.URLParam(r, "dealID")

	if _, err := s.deals.GetByID(r.Context(), dealID); err != nil {
		writeDomainError(w, err)
		return
	}
	ledger, err := s.overrides.ListByDeal(r.Context(), dealID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]overrideJSON, 0, len(ledger))
	for _, ov := range ledger {
		out = append(out, overrideToJSON(ov))
	}
	writeJSON(w, http.StatusOK, map[string]any{"overrides": out})
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	dealID := chi.URLParam(r, "dealID")

	if _, err := s.deals.GetByID(r.Context(), dealID); err != nil {
		writeDomainError(w, err)
		return
	}
	run, err := s.runs.Latest(r.Context(), dealID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runToJSON(run))
}

type exportRequest struct {
	CreatedBy string `json:"created_by"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	dealID := chi.URLParam(r, "dealID")

	var req exportRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "malformed JSON body", "resend valid JSON")
			return
		}
	}

	res, err := s.exporter.Export(r.Context(), dealID, req.CreatedBy)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	run, err := s.runs.Latest(r.Context(), dealID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	status := http.StatusCreated
	if res.Deduplicated {
		status = http.StatusOK
	}
	writeJSON(w, status, map[string]any{
		"analysis_run": runToJSON(run),
		"snapshot":     snapshotToJSON(res.Snapshot, false),
		"deduplicated": res.Deduplicated,
	})
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	dealID := chi.URLParam(r, "dealID")

	if _, err := s.deals.GetByID(r.Context(), dealID); err != nil {
		writeDomainError(w, err)
		return
	}
	snapshots, err := s.snapshots.ListByDeal(r.Context(), dealID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]snapshotJSON, 0, len(snapshots))
	for _, snap := range snapshots {
		out = append(out, snapshotToJSON(snap, false))
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": out})
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshots.GetByID(r.Context(), chi.URLParam(r, "snapshotID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotToJSON(snap, true))
}

func (s *Server) handleVerifyDeal(w http.ResponseWriter, r *http.Request) {
	dealID := chi.URLParam(r, "dealID")

	if _, err := s.deals.GetByID(r.Context(), dealID); err != nil {
		writeDomainError(w, err)
		return
	}
	report, err := s.verifier.VerifyDeal(r.Context(), dealID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
