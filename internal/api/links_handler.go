package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/reorx/linkmind/internal/model"
)

// SubmitLink handles POST /api/links (spec.md section 6): admits a URL for
// processing and immediately returns the spawned task id.
func (h *Handlers) SubmitLink(c *gin.Context) {
	var req submitLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	userID := userIDFromContext(c)
	taskID, err := h.pipeline.SpawnProcessLink(c.Request.Context(), userID, req.URL)
	if err != nil {
		slog.Error("submit link failed", "user_id", userID, "url", req.URL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to queue link"})
		return
	}

	c.JSON(http.StatusOK, submitLinkResponse{TaskID: taskID, URL: req.URL, Status: model.TaskStateQueued})
}

// ListLinks handles GET /api/links.
func (h *Handlers) ListLinks(c *gin.Context) {
	userID := userIDFromContext(c)
	limit := getQueryLimit(c, 50, 200)

	links, err := h.store.ListPaginated(userID, limit, getQueryOffset(c))
	if err != nil {
		slog.Error("list links failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list links"})
		return
	}

	summaries := make([]linkSummary, len(links))
	for i, l := range links {
		summaries[i] = toLinkSummary(l)
	}
	c.JSON(http.StatusOK, summaries)
}

// GetLink handles GET /api/links/:id.
func (h *Handlers) GetLink(c *gin.Context) {
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

	relations, err := h.store.GetRelations(linkID)
	if err != nil {
		slog.Error("get relations failed", "link_id", linkID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load related links"})
		return
	}

	related := make([]relatedLinkView, 0, len(relations))
	for _, r := range relations {
		other, err := h.store.GetLink(r.LinkID)
		if err != nil || other == nil {
			continue
		}
		related = append(related, relatedLinkView{LinkID: other.ID, Title: other.Title, URL: other.URL, Score: r.Score})
	}

	c.JSON(http.StatusOK, linkDetail{
		ID: link.ID, URL: link.URL, Title: link.Title, Description: link.Description,
		Image: link.Image, SiteName: link.SiteName, Type: link.Type,
		Summary: link.Summary, Insight: link.Insight, Tags: link.Tags, Images: link.Images,
		Status: link.Status, Error: link.Error,
		CreatedAt: link.CreatedAt, UpdatedAt: link.UpdatedAt,
		Related: related,
	})
}

// DeleteLink handles DELETE /api/links/:id: it scrubs the link from every
// other link's relation cache before removing the row, per spec.md section
// 4.1's ordering requirement.
func (h *Handlers) DeleteLink(c *gin.Context) {
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

	updated, err := h.store.RemoveLinkFromRelations(linkID)
	if err != nil {
		slog.Error("remove link relations failed", "link_id", linkID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete link"})
		return
	}
	if err := h.store.DeleteLink(linkID); err != nil {
		slog.Error("delete link failed", "link_id", linkID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete link"})
		return
	}

	c.JSON(http.StatusOK, deleteLinkResponse{
		Message: "link deleted", LinkID: link.ID, URL: link.URL, RelatedLinksUpdated: updated,
	})
}

func parseLinkID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid link id"})
		return 0, false
	}
	return id, true
}

// getQueryLimit mirrors the teacher's clamp-with-default helper for the
// ?limit query parameter.
func getQueryLimit(c *gin.Context, def, max int) int {
	v := c.Query("limit")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

func getQueryOffset(c *gin.Context) int {
	v := c.Query("offset")
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
