package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"foodforward-data/internal/service"
)

// AuthHandler 认证 Handler
type AuthHandler struct {
	auth   *service.AuthService
	logger *zap.Logger
}

func NewAuthHandler(auth *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// Register 用户注册
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if err := readBodyJSON(r, 1<<20, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}

	u, err := h.auth.Register(r.Context(), input)
	if err != nil {
		h.logger.Error("Register failed", zap.Error(err))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"userId": u.UserID,
		"email":  u.Email,
		"name":   u.Name,
		"role":   u.Role,
	}))
}

// Login 用户登录，颁发不透明令牌
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if err := readBodyJSON(r, 1<<20, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}

	token, u, err := h.auth.Login(r.Context(), input)
	if err != nil {
		h.logger.Error("Login failed", zap.Error(err))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"accessToken":  token,
		"userId":       u.UserID,
		"email":        u.Email,
		"name":         u.Name,
		"role":         u.Role,
		"organization": u.Organization,
	}))
}

// Logout 注销令牌
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeJSON(w, http.StatusBadRequest, Fail("missing token"))
		return
	}
	if err := h.auth.Logout(r.Context(), token); err != nil {
		h.logger.Error("Logout failed", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"loggedOut": true}))
}

// resolveActor 解析发起人：优先 Bearer 令牌，退化到 X-User-Id（开发/内网通道）
func (h *AuthHandler) resolveActor(r *http.Request) (service.Actor, error) {
	if token := bearerToken(r); token != "" {
		return h.auth.ResolveToken(r.Context(), token)
	}
	if userID := r.Header.Get("X-User-Id"); userID != "" {
		return h.auth.ResolveUser(r.Context(), userID)
	}
	return service.Actor{}, service.ErrInvalidToken
}

// RequireActor 包装需要登录身份的 handler
func (h *AuthHandler) RequireActor(next func(w http.ResponseWriter, r *http.Request, actor service.Actor)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := h.resolveActor(r)
		if err != nil {
			writeError(w, err)
			return
		}
		next(w, r, actor)
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
