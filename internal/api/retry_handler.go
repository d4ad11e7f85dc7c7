package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reorx/linkmind/internal/model"
)

const retryBatchLimit = 100

// RetryAll handles POST /api/retry: re-spawns process-link for every one of
// the caller's links currently in the error state, in the background, and
// returns immediately with the affected link ids (spec.md section 6).
func (h *Handlers) RetryAll(c *gin.Context) {
	userID := userIDFromContext(c)

	failed, err := h.store.ListFailed(userID, retryBatchLimit)
	if err != nil {
		slog.Error("list failed links failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list failed links"})
		return
	}

	ids := make([]int64, 0, len(failed))
	ctx := context.WithoutCancel(c.Request.Context())
	for _, link := range failed {
		ids = append(ids, link.ID)
		go func(l model.Link) {
			if _, err := h.pipeline.SpawnProcessLinkForRetry(ctx, l.UserID, l.ID, l.URL); err != nil {
				slog.Error("background retry spawn failed", "link_id", l.ID, "error", err)
			}
		}(link)
	}

	c.JSON(http.StatusOK, retryAllResponse{Message: "retry queued", IDs: ids})
}

// RetryOne handles POST /api/retry/:id.
func (h *Handlers) RetryOne(c *gin.Context) {
	userID := userIDFromContext(c)
	linkID, ok := parseLinkID(c)
	if !ok {
		return
	}

	link, err := h.store.GetLink(linkID)
	if err != nil {
		slog.Error("get link failed", "link_id", linkID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load link"})
		return
	}
	if link == nil || link.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "link not found"})
		return
	}

	taskID, err := h.pipeline.SpawnProcessLinkForRetry(c.Request.Context(), userID, linkID, link.URL)
	if err != nil {
		slog.Error("retry spawn failed", "link_id", linkID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to queue retry"})
		return
	}

	c.JSON(http.StatusOK, retryOneResponse{TaskID: taskID, LinkID: linkID, Status: model.TaskStateQueued})
}
