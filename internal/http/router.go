package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"foodforward-data/internal/service"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterAuthRoutes 认证路由
func (r *Router) RegisterAuthRoutes(h *AuthHandler) {
	r.Handle("/auth/api/v1/register", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Register(w, req)
	})
	r.Handle("/auth/api/v1/login", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Login(w, req)
	})
	r.Handle("/auth/api/v1/logout", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Logout(w, req)
	})
}

// RegisterDonationRoutes 捐赠生命周期路由
func (r *Router) RegisterDonationRoutes(auth *AuthHandler, h *DonationHandler) {
	r.Handle("/data/api/v1/donations", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			auth.RequireActor(h.List)(w, req)
		case http.MethodPost:
			auth.RequireActor(h.Create)(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	// donations/{id} 与 donations/{id}/{action}
	r.Handle("/data/api/v1/donations/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/data/api/v1/donations/")
		parts := strings.Split(rest, "/")

		switch {
		case len(parts) == 1 && parts[0] != "":
			id := parts[0]
			switch req.Method {
			case http.MethodGet:
				h.Get(w, req, id)
			case http.MethodDelete:
				auth.RequireActor(func(w http.ResponseWriter, req *http.Request, actor service.Actor) {
					h.Delete(w, req, actor, id)
				})(w, req)
			default:
				w.WriteHeader(http.StatusMethodNotAllowed)
			}

		case len(parts) == 2 && parts[0] != "":
			if req.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			id := parts[0]
			var action func(http.ResponseWriter, *http.Request, service.Actor, string)
			switch parts[1] {
			case "claims":
				action = h.Claim
			case "assign":
				action = h.Assign
			case "complete":
				action = h.Complete
			default:
				w.WriteHeader(http.StatusNotFound)
				return
			}
			auth.RequireActor(func(w http.ResponseWriter, req *http.Request, actor service.Actor) {
				action(w, req, actor, id)
			})(w, req)

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	r.Handle("/data/api/v1/claims", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		auth.RequireActor(h.ListClaims)(w, req)
	})

	r.Handle("/data/api/v1/notifications", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		auth.RequireActor(h.ListNotifications)(w, req)
	})
}

// RegisterProjectionRoutes 账本与物流只读投影路由
func (r *Router) RegisterProjectionRoutes(auth *AuthHandler, h *ProjectionHandler) {
	r.Handle("/data/api/v1/ledger", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		auth.RequireActor(h.Ledger)(w, req)
	})
	r.Handle("/data/api/v1/ledger/stats", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		auth.RequireActor(h.LedgerStats)(w, req)
	})
	r.Handle("/data/api/v1/logistics/operations", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		auth.RequireActor(h.Operations)(w, req)
	})
}

// RegisterFeedRoutes SSE 变更订阅路由
func (r *Router) RegisterFeedRoutes(h *FeedHandler) {
	r.Handle("/data/api/v1/feed", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Stream(w, req)
	})
}

// RegisterMediaRoutes 图片上传/删除路由
func (r *Router) RegisterMediaRoutes(auth *AuthHandler, h *MediaHandler) {
	r.Handle("/media/api/v1/images", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		auth.RequireActor(h.Upload)(w, req)
	})
	r.Handle("/media/api/v1/images/", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		publicID, ok := pathID(req, "/media/api/v1/images/")
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		auth.RequireActor(func(w http.ResponseWriter, req *http.Request, actor service.Actor) {
			h.Delete(w, req, actor, publicID)
		})(w, req)
	})
}

// RegisterAdminRoutes 管理端路由
func (r *Router) RegisterAdminRoutes(auth *AuthHandler, h *AdminHandler) {
	r.Handle("/admin/api/v1/users", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		auth.RequireActor(h.ListUsers)(w, req)
	})
	r.Handle("/admin/api/v1/users/bulk-status", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		auth.RequireActor(h.BulkUserStatus)(w, req)
	})
	r.Handle("/admin/api/v1/donations/bulk-status", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		auth.RequireActor(h.BulkDonationStatus)(w, req)
	})
	r.Handle("/admin/api/v1/donations/bulk-delete", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		auth.RequireActor(h.BulkDonationDelete)(w, req)
	})
	r.Handle("/admin/api/v1/export/ledger", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		auth.RequireActor(h.ExportLedger)(w, req)
	})
}

// RegisterHealthRoutes 健康检查
func (r *Router) RegisterHealthRoutes() {
	r.Handle("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
