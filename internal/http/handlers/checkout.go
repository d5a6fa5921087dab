package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/neha-5456/kaagjee/internal/http/validation"
	"github.com/neha-5456/kaagjee/internal/modules/payments"
	"github.com/neha-5456/kaagjee/internal/shared/apperr"
)

type CheckoutHandler struct {
	Settlement *payments.Service
}

func NewCheckoutHandler(svc *payments.Service) *CheckoutHandler {
	return &CheckoutHandler{Settlement: svc}
}

type checkoutInput struct {
	PaymentType string   `json:"payment_type" binding:"required,oneof=full half"`
	ItemIDs     []string `json:"items" binding:"omitempty,dive,uuid"`

	CustomerName  string `json:"customer_name" binding:"required,min=2,max=200"`
	CustomerEmail string `json:"customer_email" binding:"omitempty,email,max=255"`
	CustomerPhone string `json:"customer_phone" binding:"required,min=10,max=20"`
	CustomerNotes string `json:"customer_notes" binding:"omitempty,max=2000"`
}

func (h *CheckoutHandler) Post(c *gin.Context) {
	u, ok := mustUser(c)
	if !ok {
		return
	}

	var in checkoutInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, apperr.InvalidErr("Check the highlighted fields.", validation.FromBindError(err, &in)))
		return
	}

	res, err := h.Settlement.Checkout(c.Request.Context(), payments.CheckoutInput{
		UserID:        u.ID,
		ItemIDs:       in.ItemIDs,
		PaymentMode:   in.PaymentType,
		CustomerName:  in.CustomerName,
		CustomerEmail: in.CustomerEmail,
		CustomerPhone: in.CustomerPhone,
		CustomerNotes: in.CustomerNotes,
	})
	if err != nil {
		fail(c, err)
		return
	}

	items := make([]gin.H, len(res.Items))
	for i, it := range res.Items {
		items[i] = orderItemJSON(it)
	}

	respond(c, http.StatusCreated, gin.H{
		"order":   orderJSON(res.Order),
		"items":   items,
		"payment": res.Payment,
	})
}
