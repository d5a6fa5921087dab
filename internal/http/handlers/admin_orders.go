package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/neha-5456/kaagjee/internal/http/validation"
	"github.com/neha-5456/kaagjee/internal/modules/orders"
	"github.com/neha-5456/kaagjee/internal/shared/apperr"
)

type AdminOrdersHandler struct {
	Repo  *orders.Repo
	Admin *orders.AdminService
}

func NewAdminOrdersHandler(repo *orders.Repo, admin *orders.AdminService) *AdminOrdersHandler {
	return &AdminOrdersHandler{Repo: repo, Admin: admin}
}

func (h *AdminOrdersHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("page_size"))

	rows, total, err := h.Repo.ListAll(c.Request.Context(), c.Query("status"), page, size)
	if err != nil {
		fail(c, err)
		return
	}

	out := make([]gin.H, len(rows))
	for i, o := range rows {
		row := orderJSON(o)
		row["customer_email"] = o.CustomerEmail
		out[i] = row
	}
	respond(c, http.StatusOK, gin.H{"orders": out, "total": total})
}

type updateStatusInput struct {
	Action string `json:"action" binding:"required,oneof=process complete cancel"`
	Note   string `json:"note" binding:"omitempty,max=255"`
}

func (h *AdminOrdersHandler) UpdateStatus(c *gin.Context) {
	u, ok := mustUser(c)
	if !ok {
		return
	}

	var in updateStatusInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, apperr.InvalidErr("Check the highlighted fields.", validation.FromBindError(err, &in)))
		return
	}

	o, err := h.Admin.Transition(c.Request.Context(), orders.TransitionInput{
		OrderCode:   c.Param("code"),
		ActorUserID: u.ID,
		Action:      in.Action,
		Note:        in.Note,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"order": orderJSON(o)})
}
