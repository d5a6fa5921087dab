package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/neha-5456/kaagjee/internal/http/middleware"
	"github.com/neha-5456/kaagjee/internal/modules/cart"
	"github.com/neha-5456/kaagjee/internal/modules/orders"
	"github.com/neha-5456/kaagjee/internal/modules/payments"
	"github.com/neha-5456/kaagjee/internal/modules/pricing"
	"github.com/neha-5456/kaagjee/internal/modules/users"
	"github.com/neha-5456/kaagjee/internal/shared/apperr"
)

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// fail maps module sentinel errors onto the apperr taxonomy and hands the
// result to the error-handler middleware.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, cart.ErrDuplicateSubmission):
		err = apperr.ConflictErr("This submission is already in your cart.")
	case errors.Is(err, cart.ErrItemNotFound):
		err = apperr.NotFoundErr("Cart item not found.")
	case errors.Is(err, pricing.ErrInvalidMode):
		err = apperr.InvalidErr("Invalid payment type.", nil)
	case errors.Is(err, pricing.ErrZeroAmount):
		err = apperr.InvalidErr("Invalid amount.", nil)
	case errors.Is(err, pricing.ErrHalfNotAllowed):
		err = apperr.InvalidErr("This service does not allow 50% advance payment.", nil)
	case errors.Is(err, orders.ErrCartEmpty):
		err = apperr.InvalidErr("Your cart is empty.", nil)
	case errors.Is(err, orders.ErrProductUnavailable):
		err = apperr.ConflictErr("A service in your cart is no longer available.")
	case errors.Is(err, orders.ErrOrderNotFound):
		err = apperr.NotFoundErr("Order not found.")
	case errors.Is(err, orders.ErrOverpayment):
		err = apperr.ConflictErr("Payment exceeds the order total.")
	case errors.Is(err, orders.ErrInvalidTransition):
		err = apperr.ConflictErr("Order cannot move to that status.")
	case errors.Is(err, payments.ErrGatewayUnavailable):
		err = apperr.UnavailableErr("Payment gateway is unavailable. Please retry.", err)
	case errors.Is(err, payments.ErrUnknownAttempt):
		err = apperr.NotFoundErr("Payment not found.")
	case errors.Is(err, payments.ErrSignatureMismatch):
		err = apperr.InvalidErr("Payment verification failed.", nil)
	case errors.Is(err, payments.ErrNothingPending):
		err = apperr.ConflictErr("Nothing pending on this order.")
	case errors.Is(err, payments.ErrNotOwner):
		err = apperr.ForbiddenErr("This order belongs to another account.")
	case errors.Is(err, payments.ErrOrderNotPayable):
		err = apperr.ConflictErr("This order can no longer be paid.")
	case errors.Is(err, payments.ErrCartChanged):
		err = apperr.ConflictErr("Your cart changed during checkout. Please try again.")
	case errors.Is(err, users.ErrBadCredentials):
		err = apperr.UnauthorizedErr("Invalid phone or password.")
	case errors.Is(err, gorm.ErrRecordNotFound):
		err = apperr.NotFoundErr("Not found.")
	default:
		if _, ok := apperr.As(err); !ok {
			err = apperr.Wrap(err)
		}
	}
	middleware.Fail(c, err)
}

func mustUser(c *gin.Context) (users.User, bool) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		// RequireAuth should have caught this; belt for direct handler tests
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	}
	return u, ok
}

func orderJSON(o orders.Order) gin.H {
	return gin.H{
		"code":           o.Code,
		"status":         o.Status,
		"payment_mode":   o.PaymentMode,
		"total_amount":   o.TotalAmount,
		"amount_paid":    o.AmountPaid,
		"amount_pending": o.AmountPending(),
		"currency":       o.Currency,
		"customer_name":  o.CustomerName,
		"paid_at":        o.PaidAt,
		"created_at":     o.CreatedAt,
	}
}

func orderItemJSON(it orders.OrderItem) gin.H {
	return gin.H{
		"id":             it.ID,
		"product_title":  it.ProductTitle,
		"product_slug":   it.ProductSlug,
		"unit_price":     it.UnitPrice,
		"advance_amount": it.AdvanceAmount,
		"payment_option": it.PaymentOption,
		"state":          it.State,
		"city":           it.City,
	}
}
