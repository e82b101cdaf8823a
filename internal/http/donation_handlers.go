package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"foodforward-data/internal/repository"
	"foodforward-data/internal/service"
)

// DonationHandler 捐赠生命周期 Handler
type DonationHandler struct {
	donations     *service.DonationService
	notifications repository.NotificationsRepository
	logger        *zap.Logger
}

func NewDonationHandler(donations *service.DonationService, notifications repository.NotificationsRepository, logger *zap.Logger) *DonationHandler {
	return &DonationHandler{
		donations:     donations,
		notifications: notifications,
		logger:        logger,
	}
}

// List 捐赠列表（状态经读取时过期投影）
func (h *DonationHandler) List(w http.ResponseWriter, r *http.Request, _ service.Actor) {
	q := r.URL.Query()
	filter := repository.DonationFilter{
		Status:      q.Get("status"),
		Category:    q.Get("category"),
		DonorID:     q.Get("donor_id"),
		RecipientID: q.Get("recipient_id"),
		VolunteerID: q.Get("volunteer_id"),
		Limit:       parseInt(q.Get("limit"), 0),
	}

	list, err := h.donations.ListDonations(r.Context(), filter)
	if err != nil {
		h.logger.Error("ListDonations failed", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(list))
}

// Create 发布捐赠（安全检查单不合规会被拒绝）
func (h *DonationHandler) Create(w http.ResponseWriter, r *http.Request, actor service.Actor) {
	var input service.CreateDonationInput
	if err := readBodyJSON(r, 1<<20, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}

	d, err := h.donations.CreateDonation(r.Context(), actor, input)
	if err != nil {
		h.logger.Error("CreateDonation failed", zap.String("actor", actor.UserID), zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(d))
}

// Get 查询单个捐赠
func (h *DonationHandler) Get(w http.ResponseWriter, r *http.Request, donationID string) {
	d, err := h.donations.GetDonation(r.Context(), donationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(d))
}

// Delete 删除捐赠（仅限捐赠方本人，外部图片尽力清理）
func (h *DonationHandler) Delete(w http.ResponseWriter, r *http.Request, actor service.Actor, donationID string) {
	if err := h.donations.DeleteDonation(r.Context(), actor, donationID); err != nil {
		h.logger.Error("DeleteDonation failed",
			zap.String("donation_id", donationID), zap.String("actor", actor.UserID), zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"deleted": true}))
}

// Claim 认领（body.quick=true 为一键认领，信息取自发起人档案）
func (h *DonationHandler) Claim(w http.ResponseWriter, r *http.Request, actor service.Actor, donationID string) {
	var body struct {
		Quick bool `json:"quick"`
		service.ClaimInput
	}
	if err := readBodyJSON(r, 1<<20, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}

	var (
		d     any
		claim any
		err   error
	)
	if body.Quick {
		d, claim, err = h.donations.QuickClaim(r.Context(), actor, donationID)
	} else {
		d, claim, err = h.donations.ClaimDonation(r.Context(), actor, donationID, body.ClaimInput)
	}
	if err != nil {
		h.logger.Error("ClaimDonation failed",
			zap.String("donation_id", donationID), zap.String("actor", actor.UserID), zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"donation": d, "claim": claim}))
}

// Assign 志愿者自领配送任务
func (h *DonationHandler) Assign(w http.ResponseWriter, r *http.Request, actor service.Actor, donationID string) {
	d, err := h.donations.AssignVolunteer(r.Context(), actor, donationID)
	if err != nil {
		h.logger.Error("AssignVolunteer failed",
			zap.String("donation_id", donationID), zap.String("actor", actor.UserID), zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(d))
}

// Complete 完成捐赠
func (h *DonationHandler) Complete(w http.ResponseWriter, r *http.Request, actor service.Actor, donationID string) {
	var input service.CompleteInput
	if err := readBodyJSON(r, 1<<20, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}

	d, err := h.donations.CompleteDonation(r.Context(), actor, donationID, input)
	if err != nil {
		h.logger.Error("CompleteDonation failed",
			zap.String("donation_id", donationID), zap.String("actor", actor.UserID), zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(d))
}

// ListClaims 认领记录列表（无 donation_id 参数时按发起人角色返回）
func (h *DonationHandler) ListClaims(w http.ResponseWriter, r *http.Request, actor service.Actor) {
	claims, err := h.donations.ListClaims(r.Context(), actor, r.URL.Query().Get("donation_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(claims))
}

// ListNotifications 当前用户的站内通知
func (h *DonationHandler) ListNotifications(w http.ResponseWriter, r *http.Request, actor service.Actor) {
	list, err := h.notifications.ListNotificationsByUser(r.Context(), actor.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(list))
}
