package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/neha-5456/kaagjee/internal/http/validation"
	"github.com/neha-5456/kaagjee/internal/modules/payments"
	"github.com/neha-5456/kaagjee/internal/shared/apperr"
)

type PaymentsHandler struct {
	Settlement *payments.Service
}

func NewPaymentsHandler(svc *payments.Service) *PaymentsHandler {
	return &PaymentsHandler{Settlement: svc}
}

type verifyInput struct {
	GatewayOrderID   string `json:"gateway_order_id" binding:"required,max=100"`
	GatewayPaymentID string `json:"gateway_payment_id" binding:"required,max=100"`
	Signature        string `json:"signature" binding:"required,max=200"`
}

// Verify settles one payment attempt. Safe to call repeatedly with the same
// arguments: the first success wins, later calls report the settled state.
func (h *PaymentsHandler) Verify(c *gin.Context) {
	var in verifyInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, apperr.InvalidErr("Check the highlighted fields.", validation.FromBindError(err, &in)))
		return
	}

	res, err := h.Settlement.VerifyPayment(c.Request.Context(), payments.VerifyInput{
		GatewayOrderID:   in.GatewayOrderID,
		GatewayPaymentID: in.GatewayPaymentID,
		Signature:        in.Signature,
	})
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"order":            orderJSON(res.Order),
		"already_verified": res.AlreadyVerified,
	})
}

// PayPending opens a gateway order for the unpaid remainder.
func (h *PaymentsHandler) PayPending(c *gin.Context) {
	u, ok := mustUser(c)
	if !ok {
		return
	}

	res, err := h.Settlement.PayPending(c.Request.Context(), u.ID, c.Param("code"))
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"order":   orderJSON(res.Order),
		"payment": res.Payment,
	})
}
