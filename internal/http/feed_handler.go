package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"foodforward-data/internal/events"
)

// FeedHandler SSE 变更订阅
// 仪表盘收到任何事件后整体重查，事件只是失效信号，不携带完整状态
type FeedHandler struct {
	publisher *events.Publisher
	logger    *zap.Logger
}

func NewFeedHandler(publisher *events.Publisher, logger *zap.Logger) *FeedHandler {
	return &FeedHandler{publisher: publisher, logger: logger}
}

// Stream 以 Server-Sent Events 方式转发 Redis Stream 中的捐赠变更事件
func (h *FeedHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		writeJSON(w, http.StatusServiceUnavailable, Fail("event feed not available"))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, Fail("streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	lastID := r.URL.Query().Get("last_id")
	ctx := r.Context()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		batch, nextID, err := h.publisher.ReadAfter(ctx, lastID, 25*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			h.logger.Warn("Feed read failed", zap.Error(err))
			// 心跳注释行维持连接，避免客户端误判断流
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
			continue
		}
		lastID = nextID

		if len(batch) == 0 {
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
			continue
		}

		for _, event := range batch {
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload)
		}
		flusher.Flush()
	}
}
