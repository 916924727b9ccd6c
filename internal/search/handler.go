package search

import (
	"context"
	"net/http"
	"unicode/utf8"

	"github.com/reosaurous172214/NovelNest-Backend/internal/logger"
	"github.com/reosaurous172214/NovelNest-Backend/internal/metrics"

	"github.com/gin-gonic/gin"
)

// RebuildFunc repopulates the trie from the source of truth.
type RebuildFunc func(ctx context.Context) error

type Handler struct {
	trie    *Trie
	rebuild RebuildFunc
}

func NewHandler(trie *Trie, rebuild RebuildFunc) *Handler {
	return &Handler{trie: trie, rebuild: rebuild}
}

// Suggest godoc
// @Summary      Live title suggestions
// @Description  Returns up to 10 novels whose title starts with the query.
// @Tags         search
// @Produce      json
// @Param        q query string true "Title prefix (min 2 characters)"
// @Success      200 {array} Record
// @Router       /search/suggest [get]
func (h *Handler) Suggest(c *gin.Context) {
	q := c.Query("q")

	// Very short queries are not worth a trie walk.
	if utf8.RuneCountInString(q) < 2 {
		c.JSON(http.StatusOK, []Record{})
		return
	}

	metrics.RecordSearchSuggestion()
	c.JSON(http.StatusOK, h.trie.Suggest(q))
}

// Reindex godoc
// @Summary      Rebuild the search index
// @Description  Clears the trie and reloads every novel title from the database.
// @Tags         search
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} gin.H
// @Failure      500 {object} gin.H
// @Router       /admin/search/reindex [post]
func (h *Handler) Reindex(c *gin.Context) {
	if err := h.rebuild(c.Request.Context()); err != nil {
		logger.Errorf("Search reindex failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reindexing failed"})
		return
	}

	metrics.SearchIndexSize.Set(float64(h.trie.Len()))
	c.JSON(http.StatusOK, gin.H{"message": "search index rebuilt successfully"})
}
