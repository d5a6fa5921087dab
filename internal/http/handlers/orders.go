package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/neha-5456/kaagjee/internal/modules/orders"
	"github.com/neha-5456/kaagjee/internal/modules/payments"
)

type OrdersHandler struct {
	Repo       *orders.Repo
	Settlement *payments.Service
}

func NewOrdersHandler(repo *orders.Repo, svc *payments.Service) *OrdersHandler {
	return &OrdersHandler{Repo: repo, Settlement: svc}
}

func (h *OrdersHandler) MyOrders(c *gin.Context) {
	u, ok := mustUser(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.Query("page"))
	res, err := h.Repo.ListByUser(c.Request.Context(), orders.ListByUserParams{
		UserID: u.ID,
		Page:   page,
		Status: c.Query("status"),
	})
	if err != nil {
		fail(c, err)
		return
	}

	out := make([]gin.H, len(res.Items))
	for i, it := range res.Items {
		row := orderJSON(it.Order)
		row["items_count"] = it.Count
		out[i] = row
	}
	respond(c, http.StatusOK, gin.H{"orders": out, "total": res.Total})
}

func (h *OrdersHandler) PendingPayments(c *gin.Context) {
	u, ok := mustUser(c)
	if !ok {
		return
	}

	rows, err := h.Repo.PendingPayments(c.Request.Context(), u.ID)
	if err != nil {
		fail(c, err)
		return
	}

	out := make([]gin.H, len(rows))
	for i, o := range rows {
		out[i] = orderJSON(o)
	}
	respond(c, http.StatusOK, gin.H{"orders": out})
}

func (h *OrdersHandler) Detail(c *gin.Context) {
	u, ok := mustUser(c)
	if !ok {
		return
	}

	o, items, err := h.Repo.GetByCodeWithItems(c.Request.Context(), c.Param("code"))
	if err != nil {
		fail(c, err)
		return
	}
	if o.UserID != u.ID {
		fail(c, payments.ErrNotOwner)
		return
	}

	itemOut := make([]gin.H, len(items))
	for i, it := range items {
		itemOut[i] = orderItemJSON(it)
	}

	attempts, err := h.Settlement.AttemptsForOrder(c.Request.Context(), o.ID)
	if err != nil {
		fail(c, err)
		return
	}
	attemptOut := make([]gin.H, len(attempts))
	for i, a := range attempts {
		attemptOut[i] = gin.H{
			"type":             a.Type,
			"gateway_order_id": a.GatewayOrderID,
			"amount":           a.Amount,
			"status":           a.Status,
			"created_at":       a.CreatedAt,
			"verified_at":      a.VerifiedAt,
		}
	}

	out := orderJSON(o)
	out["customer_email"] = o.CustomerEmail
	out["customer_phone"] = o.CustomerPhone
	out["customer_notes"] = o.CustomerNotes
	respond(c, http.StatusOK, gin.H{
		"order":    out,
		"items":    itemOut,
		"payments": attemptOut,
	})
}
