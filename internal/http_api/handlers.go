package http_api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/merxpay/merx/internal/merx"
	"github.com/merxpay/merx/internal/models"
	"github.com/merxpay/merx/pkg/validation"
)

// QuoteRequest represents the JSON body for requesting a price quote
type QuoteRequest struct {
	Wallet    string `json:"wallet" binding:"required"`
	ProductID string `json:"product_id" binding:"required"`
	CouponID  string `json:"coupon_id"`
}

// CheckoutRequest represents the JSON body for converting a quote into a payment
type CheckoutRequest struct {
	QuoteID   string `json:"quote_id" binding:"required"`
	Wallet    string `json:"wallet" binding:"required"`
	ProductID string `json:"product_id" binding:"required"`
	TxHash    string `json:"tx_hash" binding:"required"`
	Amount    string `json:"amount"` // optional claimed amount, base units
}

// ConfirmRequest represents the JSON body for reporting the final transaction status
type ConfirmRequest struct {
	Status string `json:"status" binding:"required,oneof=SUCCESS FAILED"`
}

func (s *HTTPServer) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// quote is the handler for the /api/v1/quote endpoint.
func (s *HTTPServer) quote(c *gin.Context) {
	var req QuoteRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Debug("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body: " + err.Error(),
		})
		return
	}

	if err := validation.ValidateAddress(req.Wallet); err != nil {
		s.logger.Debug("Invalid wallet address", "error", err, "address", req.Wallet)
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid wallet address: " + err.Error(),
		})
		return
	}

	quote, err := s.core.RequestQuote(c.Request.Context(), req.Wallet, req.ProductID, req.CouponID)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"quote":   quote,
	})
}

// checkout is the handler for the /api/v1/checkout endpoint.
func (s *HTTPServer) checkout(c *gin.Context) {
	var req CheckoutRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Debug("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body: " + err.Error(),
		})
		return
	}

	payment, err := s.core.Checkout(c.Request.Context(), merx.CheckoutRequest{
		QuoteID:       req.QuoteID,
		Wallet:        req.Wallet,
		ProductID:     req.ProductID,
		TxHash:        req.TxHash,
		ClaimedAmount: req.Amount,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"payment": payment,
	})
}

// confirmPayment is the handler for the /api/v1/payments/:id/confirm endpoint.
// The caller is the external flow that watches the purchase transaction.
func (s *HTTPServer) confirmPayment(c *gin.Context) {
	var req ConfirmRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Debug("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body: " + err.Error(),
		})
		return
	}

	payment, err := s.core.ConfirmPayment(c.Request.Context(), c.Param("id"), models.PaymentStatus(req.Status))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"payment": payment,
	})
}

// getPayment is the handler for the /api/v1/payments/:id endpoint.
func (s *HTTPServer) getPayment(c *gin.Context) {
	payment, err := s.core.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"payment": payment,
	})
}

// listPayments is the handler for the /api/v1/payments endpoint.
func (s *HTTPServer) listPayments(c *gin.Context) {
	wallet := c.Query("wallet")
	if err := validation.ValidateAddress(wallet); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid wallet address: " + err.Error(),
		})
		return
	}

	payments, err := s.core.GetPaymentsByWallet(c.Request.Context(), validation.NormalizeAddress(wallet))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"payments": payments,
	})
}

// triggerRetrySweep is the handler for the /api/v1/admin/retry-sweep
// endpoint. It forces an out-of-cycle reward retry sweep.
func (s *HTTPServer) triggerRetrySweep(c *gin.Context) {
	if err := s.core.SweepFailedRewards(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Retry sweep completed",
	})
}

// fail translates core errors to HTTP responses along the fault taxonomy:
// validation faults are the caller's to fix, infrastructure faults are
// retryable, everything else is a server error.
func (s *HTTPServer) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrQuoteNotFound),
		errors.Is(err, models.ErrProductNotFound),
		errors.Is(err, models.ErrPaymentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, models.ErrQuoteExpired):
		c.JSON(http.StatusGone, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, models.ErrCouponUsed):
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": err.Error()})
	case models.IsValidationFault(err):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, models.ErrChainUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": err.Error()})
	default:
		s.logger.Error("Request failed ", "path ", c.FullPath(), "error ", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
	}
}
