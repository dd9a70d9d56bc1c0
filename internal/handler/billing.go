package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/clarity-api/internal/middleware"
	"github.com/yourusername/clarity-api/internal/model"
	"github.com/yourusername/clarity-api/internal/service"
)

type BillingHandler struct {
	stripeService *service.StripeService
}

func NewBillingHandler(stripeService *service.StripeService) *BillingHandler {
	return &BillingHandler{stripeService: stripeService}
}

// CreateCheckout handles POST /api/create-checkout-session
// Accepts {tier} and returns {ok, url} for Stripe Checkout redirect
func (h *BillingHandler) CreateCheckout(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == nil {
		respondError(c, http.StatusUnauthorized, model.ErrCodeValidation, "Sign in before buying a pass.")
		return
	}

	var req struct {
		Tier string `json:"tier" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFieldError(c, http.StatusBadRequest, "Pick a pass tier.", map[string]string{"tier": "required"})
		return
	}

	if !model.ValidTier(req.Tier) {
		respondFieldError(c, http.StatusBadRequest, "Pick a pass tier.", map[string]string{"tier": "must be 'day' or 'week'"})
		return
	}

	url, err := h.stripeService.CreateCheckoutSession(c.Request.Context(), *userID, req.Tier)
	if err != nil {
		log.Error().Err(err).Str("tier", req.Tier).Msg("Failed to create checkout session")
		respondError(c, http.StatusInternalServerError, model.ErrCodeInternal, "Couldn't start checkout. Try again.")
		return
	}

	c.JSON(http.StatusOK, model.Envelope{
		OK:   true,
		Data: mustJSON(gin.H{"url": url}),
	})
}

// HandleWebhook handles POST /api/stripe/webhook
// Unauthenticated — uses Stripe signature verification instead
func (h *BillingHandler) HandleWebhook(c *gin.Context) {
	event, err := h.stripeService.VerifyWebhook(c.Request.Body, c.GetHeader("Stripe-Signature"))
	if err != nil {
		log.Warn().Err(err).Msg("Invalid webhook signature")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
		return
	}

	if err := h.stripeService.HandleWebhookEvent(c.Request.Context(), event); err != nil {
		log.Error().Err(err).Str("type", string(event.Type)).Msg("Failed to process webhook event")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
