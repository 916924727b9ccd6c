package purchase

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/reosaurous172214/NovelNest-Backend/internal/auth"
	"github.com/reosaurous172214/NovelNest-Backend/internal/email"
	"github.com/reosaurous172214/NovelNest-Backend/internal/novel"
	"github.com/reosaurous172214/NovelNest-Backend/internal/user"
	"github.com/reosaurous172214/NovelNest-Backend/internal/wallet"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Handler struct {
	service Service
}

func NewHandler(db *sqlx.DB, emailService *email.Service) *Handler {
	return &Handler{
		service: NewService(
			db,
			wallet.NewRepository(db),
			novel.NewRepository(db),
			user.NewRepository(db),
			emailService,
		),
	}
}

// UnlockNovel godoc
// @Summary      Unlock a full novel
// @Description  Debits the wallet, grants the entitlement and routes the
// @Description  author's revenue share.
// @Tags         purchases
// @Produce      json
// @Security     BearerAuth
// @Param        novelID path int true "Novel ID"
// @Success      200 {object} Result
// @Failure      402 {object} gin.H
// @Failure      404 {object} gin.H
// @Failure      409 {object} gin.H
// @Router       /novels/{novelID}/unlock [post]
func (h *Handler) UnlockNovel(c *gin.Context) {
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

	result, err := h.service.UnlockNovel(c.Request.Context(), userID, novelID)
	h.respond(c, result, err)
}

// UnlockChapter godoc
// @Summary      Unlock a chapter
// @Tags         purchases
// @Produce      json
// @Security     BearerAuth
// @Param        chapterID path int true "Chapter ID"
// @Success      200 {object} Result
// @Failure      402 {object} gin.H
// @Failure      404 {object} gin.H
// @Failure      409 {object} gin.H
// @Router       /chapters/{chapterID}/unlock [post]
func (h *Handler) UnlockChapter(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	chapterID, err := strconv.Atoi(c.Param("chapterID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chapter id"})
		return
	}

	result, err := h.service.UnlockChapter(c.Request.Context(), userID, chapterID)
	h.respond(c, result, err)
}

func (h *Handler) respond(c *gin.Context, result *Result, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, result)
	case errors.Is(err, wallet.ErrInsufficientFunds):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "insufficient wallet balance"})
	case errors.Is(err, ErrAlreadyOwned):
		c.JSON(http.StatusConflict, gin.H{"error": "content already unlocked"})
	case errors.Is(err, ErrTargetNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "content not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unlock content"})
	}
}
