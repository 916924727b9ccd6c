package novel

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/reosaurous172214/NovelNest-Backend/internal/auth"
	"github.com/reosaurous172214/NovelNest-Backend/internal/metrics"
	"github.com/reosaurous172214/NovelNest-Backend/internal/search"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Handler struct {
	repo Repository
	trie *search.Trie
}

func NewHandler(db *sqlx.DB, trie *search.Trie) *Handler {
	return &Handler{
		repo: NewRepository(db),
		trie: trie,
	}
}

type CreateNovelRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=200"`
	Description string `json:"description" binding:"max=5000"`
	CoverImage  string `json:"cover_image"`
	Price       int64  `json:"price" binding:"gte=0"`
}

type RenameNovelRequest struct {
	Title string `json:"title" binding:"required,min=1,max=200"`
}

type CreateChapterRequest struct {
	Number int    `json:"number" binding:"required,gte=1"`
	Title  string `json:"title" binding:"required,min=1,max=200"`
	Price  int64  `json:"price" binding:"gte=0"`
}

// Create godoc
// @Summary      Create a novel
// @Description  Creates a novel owned by the calling author and indexes its title.
// @Tags         novels
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateNovelRequest true "Novel data"
// @Success      201 {object} Novel
// @Failure      400 {object} gin.H
// @Failure      401 {object} gin.H
// @Failure      500 {object} gin.H
// @Router       /novels [post]
func (h *Handler) Create(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req CreateNovelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	n, err := h.repo.Create(c.Request.Context(), req.Title, req.Description, req.CoverImage, userID, req.Price)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create novel"})
		return
	}

	h.trie.Insert(n.Title, search.Record{ID: n.ID, Title: n.Title, Cover: n.CoverImage})
	metrics.SearchIndexSize.Set(float64(h.trie.Len()))

	c.JSON(http.StatusCreated, n)
}

// Rename godoc
// @Summary      Rename a novel
// @Description  Updates the title and indexes the new one. The old title stays
// @Description  in the index until the next full rebuild.
// @Tags         novels
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        novelID path int true "Novel ID"
// @Param        request body RenameNovelRequest true "New title"
// @Success      200 {object} Novel
// @Failure      400 {object} gin.H
// @Failure      403 {object} gin.H
// @Failure      404 {object} gin.H
// @Router       /novels/{novelID} [patch]
func (h *Handler) Rename(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	novelID, err := strconv.Atoi(c.Param("novelID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid novel id"})
		return
	}

	var req RenameNovelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	existing, err := h.repo.GetByID(c.Request.Context(), novelID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "novel not found"})
		return
	}
	if existing.AuthorID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "can only rename own novels"})
		return
	}

	n, err := h.repo.Rename(c.Request.Context(), novelID, req.Title)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rename novel"})
		return
	}

	h.trie.Insert(n.Title, search.Record{ID: n.ID, Title: n.Title, Cover: n.CoverImage})

	c.JSON(http.StatusOK, n)
}

// CreateChapter godoc
// @Summary      Add a chapter
// @Tags         novels
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        novelID path int true "Novel ID"
// @Param        request body CreateChapterRequest true "Chapter data"
// @Success      201 {object} Chapter
// @Failure      400 {object} gin.H
// @Failure      403 {object} gin.H
// @Failure      404 {object} gin.H
// @Router       /novels/{novelID}/chapters [post]
func (h *Handler) CreateChapter(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	novelID, err := strconv.Atoi(c.Param("novelID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid novel id"})
		return
	}

	var req CreateChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	existing, err := h.repo.GetByID(c.Request.Context(), novelID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "novel not found"})
		return
	}
	if existing.AuthorID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "can only add chapters to own novels"})
		return
	}

	ch, err := h.repo.CreateChapter(c.Request.Context(), novelID, req.Number, req.Title, req.Price)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create chapter"})
		return
	}

	c.JSON(http.StatusCreated, ch)
}

// TrackView godoc
// @Summary      Count a novel view
// @Description  Bumps the view counter that feeds the most-viewed ranking.
// @Tags         novels
// @Produce      json
// @Param        novelID path int true "Novel ID"
// @Success      200 {object} gin.H
// @Failure      404 {object} gin.H
// @Router       /novels/{novelID}/view [post]
func (h *Handler) TrackView(c *gin.Context) {
	novelID, err := strconv.Atoi(c.Param("novelID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid novel id"})
		return
	}

	if err := h.repo.IncrementViews(c.Request.Context(), novelID); err != nil {
		if errors.Is(err, ErrNovelNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "novel not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to track view"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "view recorded"})
}
