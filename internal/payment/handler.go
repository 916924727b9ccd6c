package payment

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/reosaurous172214/NovelNest-Backend/internal/api"
	"github.com/reosaurous172214/NovelNest-Backend/internal/auth"
	"github.com/reosaurous172214/NovelNest-Backend/internal/email"
	"github.com/reosaurous172214/NovelNest-Backend/internal/logger"
	"github.com/reosaurous172214/NovelNest-Backend/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

const signatureHeader = "X-Webhook-Signature"

type Handler struct {
	service       Service
	userRepo      user.Repository
	emailService  *email.Service
	webhookSecret string
	clientURL     string
}

func NewHandler(db *sqlx.DB, emailService *email.Service, webhookSecret, clientURL string) *Handler {
	return &Handler{
		service:       NewService(db),
		userRepo:      user.NewRepository(db),
		emailService:  emailService,
		webhookSecret: webhookSecret,
		clientURL:     clientURL,
	}
}

// webhookEnvelope is the provider's delivery format. Only completed
// checkout sessions reach the settlement coordinator.
type webhookEnvelope struct {
	ID                string `json:"id" validate:"required"`
	Type              string `json:"type" validate:"required"`
	ClientReferenceID string `json:"client_reference_id" validate:"required"`
	Metadata          struct {
		Kind       string `json:"kind"`
		CoinAmount int64  `json:"coin_amount"`
		PlanID     string `json:"plan_id"`
	} `json:"metadata"`
}

type CheckoutRequest struct {
	Kind       string `json:"kind" binding:"required,oneof=currency_topup subscription_upgrade"`
	CoinAmount int64  `json:"coin_amount"`
	PlanID     string `json:"plan_id"`
}

type CheckoutResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// Webhook godoc
// @Summary      Payment provider webhook
// @Description  Verifies the event signature and settles it exactly once.
// @Description  Duplicate deliveries are acknowledged with 200 so the
// @Description  provider stops retrying.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Success      200 {object} gin.H
// @Failure      400 {object} gin.H
// @Router       /payments/webhook [post]
func (h *Handler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	if !h.verifySignature(body, c.GetHeader(signatureHeader)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed event"})
		return
	}

	if errs := api.ValidateStruct(envelope); len(errs) > 0 {
		api.RespondWithValidationErrors(c, errs)
		return
	}

	if envelope.Type != "checkout.session.completed" {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	userID, err := strconv.Atoi(envelope.ClientReferenceID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client reference"})
		return
	}

	event := SettlementEvent{
		SessionID:  envelope.ID,
		UserID:     userID,
		Kind:       EventKind(envelope.Metadata.Kind),
		CoinAmount: envelope.Metadata.CoinAmount,
		PlanID:     envelope.Metadata.PlanID,
	}

	err = h.service.Settle(c.Request.Context(), event)
	switch {
	case err == nil:
		if event.Kind == KindCurrencyTopup {
			h.queueTopUpReceipt(c, event)
		}
		c.JSON(http.StatusOK, gin.H{"received": true})
	case errors.Is(err, ErrDuplicateSettlement):
		c.JSON(http.StatusOK, gin.H{"received": true})
	case errors.Is(err, ErrUnknownPlan), errors.Is(err, ErrInvalidEvent):
		logger.Errorf("Rejected settlement event %s: %v", event.SessionID, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		// Nothing was committed, so the provider's redelivery is safe.
		logger.Errorf("Settlement failed for event %s: %v", event.SessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "settlement failed"})
	}
}

// CreateCheckout godoc
// @Summary      Start a provider checkout session
// @Description  Issues the session reference the hosted checkout page uses.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CheckoutRequest true "Purchase details"
// @Success      200 {object} CheckoutResponse
// @Failure      400 {object} gin.H
// @Failure      401 {object} gin.H
// @Router       /payments/checkout [post]
func (h *Handler) CreateCheckout(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch EventKind(req.Kind) {
	case KindCurrencyTopup:
		if req.CoinAmount <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "coin_amount must be positive"})
			return
		}
	case KindSubscriptionUpgrade:
		if _, found := findPlan(req.PlanID); !found {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown subscription plan"})
			return
		}
	}

	sessionID, err := newSessionID()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	logger.Infof("Checkout session %s created for user %d (%s)", sessionID, userID, req.Kind)

	c.JSON(http.StatusOK, CheckoutResponse{
		SessionID: sessionID,
		URL:       fmt.Sprintf("%s/payment/checkout?session_id=%s", h.clientURL, sessionID),
	})
}

// ListPlans godoc
// @Summary      Available subscription plans
// @Tags         payments
// @Produce      json
// @Success      200 {array} Plan
// @Router       /payments/plans [get]
func (h *Handler) ListPlans(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Plans())
}

func (h *Handler) queueTopUpReceipt(c *gin.Context, event SettlementEvent) {
	if h.emailService == nil {
		return
	}

	buyer, err := h.userRepo.FindByID(c.Request.Context(), event.UserID)
	if err != nil {
		logger.Errorf("Top-up receipt skipped, user %d not found: %v", event.UserID, err)
		return
	}

	if err := h.emailService.SendTopUpReceipt(c.Request.Context(), buyer.Email, buyer.Username, event.CoinAmount); err != nil {
		logger.Errorf("Failed to queue top-up receipt for user %d: %v", event.UserID, err)
	}
}

func (h *Handler) verifySignature(body []byte, signature string) bool {
	if h.webhookSecret == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

func newSessionID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "sess_" + hex.EncodeToString(buf), nil
}
