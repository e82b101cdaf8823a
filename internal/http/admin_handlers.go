package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"foodforward-data/internal/domain"
	"foodforward-data/internal/projection"
	"foodforward-data/internal/repository"
	"foodforward-data/internal/service"
)

// AdminHandler 管理端 Handler（所有操作要求 admin 角色）
type AdminHandler struct {
	donations *service.DonationService
	users     repository.UsersRepository
	logger    *zap.Logger
}

func NewAdminHandler(donations *service.DonationService, users repository.UsersRepository, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{donations: donations, users: users, logger: logger}
}

func (h *AdminHandler) requireAdmin(w http.ResponseWriter, actor service.Actor) bool {
	if actor.Role != domain.RoleAdmin {
		writeJSON(w, http.StatusForbidden, Fail("admin role required"))
		return false
	}
	return true
}

// ListUsers 用户列表（支持 role/status 过滤）
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request, actor service.Actor) {
	if !h.requireAdmin(w, actor) {
		return
	}
	q := r.URL.Query()
	list, err := h.users.ListUsers(r.Context(), q.Get("role"), q.Get("status"))
	if err != nil {
		h.logger.Error("ListUsers failed", zap.Error(err))
		writeError(w, err)
		return
	}

	// 不回传口令摘要
	out := make([]map[string]any, 0, len(list))
	for i := range list {
		u := &list[i]
		out = append(out, map[string]any{
			"userId":       u.UserID,
			"email":        u.Email,
			"name":         u.Name,
			"role":         u.Role,
			"phone":        u.Phone,
			"organization": u.Organization,
			"location":     u.Location,
			"rating":       u.Rating,
			"status":       u.Status,
			"createdAt":    u.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

// BulkUserStatus 批量改用户状态（active/suspended），单事务原子执行
func (h *AdminHandler) BulkUserStatus(w http.ResponseWriter, r *http.Request, actor service.Actor) {
	if !h.requireAdmin(w, actor) {
		return
	}
	var body struct {
		UserIDs []string `json:"userIds"`
		Status  string   `json:"status"`
	}
	if err := readBodyJSON(r, 1<<20, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	if body.Status != "active" && body.Status != "suspended" {
		writeJSON(w, http.StatusBadRequest, Fail("status must be active or suspended"))
		return
	}
	if err := h.users.BulkUpdateUserStatus(r.Context(), body.UserIDs, body.Status); err != nil {
		h.logger.Error("BulkUpdateUserStatus failed", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"updated": len(body.UserIDs)}))
}

// BulkDonationStatus 批量改捐赠状态，单事务原子执行（全部成功或全部回滚）
func (h *AdminHandler) BulkDonationStatus(w http.ResponseWriter, r *http.Request, actor service.Actor) {
	var body struct {
		DonationIDs []string `json:"donationIds"`
		Status      string   `json:"status"`
	}
	if err := readBodyJSON(r, 1<<20, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	if err := h.donations.BulkUpdateStatus(r.Context(), actor, body.DonationIDs, body.Status); err != nil {
		h.logger.Error("BulkUpdateStatus failed", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"updated": len(body.DonationIDs)}))
}

// BulkDonationDelete 批量删除捐赠，单事务原子执行
func (h *AdminHandler) BulkDonationDelete(w http.ResponseWriter, r *http.Request, actor service.Actor) {
	var body struct {
		DonationIDs []string `json:"donationIds"`
	}
	if err := readBodyJSON(r, 1<<20, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	if err := h.donations.BulkDelete(r.Context(), actor, body.DonationIDs); err != nil {
		h.logger.Error("BulkDelete failed", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"deleted": len(body.DonationIDs)}))
}

// ExportLedger 账本导出（format=csv|xlsx，文件名带当天日期）
func (h *AdminHandler) ExportLedger(w http.ResponseWriter, r *http.Request, actor service.Actor) {
	if !h.requireAdmin(w, actor) {
		return
	}

	list, err := h.donations.ListDonations(r.Context(), repository.DonationFilter{})
	if err != nil {
		h.logger.Error("Ledger export query failed", zap.Error(err))
		writeError(w, err)
		return
	}
	txs := projection.ProjectLedger(list, time.Now())
	date := time.Now().Format("2006-01-02")

	switch r.URL.Query().Get("format") {
	case "csv":
		data, err := GenerateLedgerCSV(txs)
		if err != nil {
			h.logger.Error("Ledger CSV export failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, Fail("export failed"))
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="donation-ledger-%s.csv"`, date))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	default:
		data, err := GenerateLedgerExcel(txs)
		if err != nil {
			h.logger.Error("Ledger Excel export failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, Fail("export failed"))
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="donation-ledger-%s.xlsx"`, date))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
