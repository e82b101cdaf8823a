package httpapi

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"foodforward-data/internal/projection"
	"foodforward-data/internal/repository"
	"foodforward-data/internal/service"
)

// ProjectionHandler 账本与物流只读投影 Handler
// 每次请求从捐赠全集全量重投影，不做增量维护
type ProjectionHandler struct {
	donations *service.DonationService
	resolve   projection.Resolver
	logger    *zap.Logger
}

func NewProjectionHandler(donations *service.DonationService, resolve projection.Resolver, logger *zap.Logger) *ProjectionHandler {
	return &ProjectionHandler{donations: donations, resolve: resolve, logger: logger}
}

// Ledger 账本交易列表
func (h *ProjectionHandler) Ledger(w http.ResponseWriter, r *http.Request, _ service.Actor) {
	list, err := h.donations.ListDonations(r.Context(), repository.DonationFilter{})
	if err != nil {
		h.logger.Error("Ledger projection failed", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(projection.ProjectLedger(list, time.Now())))
}

// LedgerStats 账本聚合统计
func (h *ProjectionHandler) LedgerStats(w http.ResponseWriter, r *http.Request, _ service.Actor) {
	list, err := h.donations.ListDonations(r.Context(), repository.DonationFilter{})
	if err != nil {
		h.logger.Error("Ledger stats failed", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(projection.ComputeLedgerStats(list, time.Now())))
}

// Operations 物流操作列表（含聚合统计）
func (h *ProjectionHandler) Operations(w http.ResponseWriter, r *http.Request, _ service.Actor) {
	list, err := h.donations.ListDonations(r.Context(), repository.DonationFilter{})
	if err != nil {
		h.logger.Error("Logistics projection failed", zap.Error(err))
		writeError(w, err)
		return
	}
	ops := projection.ProjectOperations(r.Context(), list, time.Now(), h.resolve)
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"operations": ops,
		"stats":      projection.ComputeLogisticsStats(ops),
	}))
}
