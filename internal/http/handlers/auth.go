package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/neha-5456/kaagjee/internal/http/validation"
	"github.com/neha-5456/kaagjee/internal/modules/users"
	"github.com/neha-5456/kaagjee/internal/shared/apperr"
)

type AuthHandler struct {
	Users *users.Service
}

func NewAuthHandler(us *users.Service) *AuthHandler { return &AuthHandler{Users: us} }

type loginInput struct {
	Phone    string `json:"phone" binding:"required,min=10,max=20"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var in loginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, apperr.InvalidErr("Check the highlighted fields.", validation.FromBindError(err, &in)))
		return
	}

	res, err := h.Users.Login(c.Request.Context(), in.Phone, in.Password)
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"token": res.Token,
		"user": gin.H{
			"id":        res.User.ID,
			"phone":     res.User.Phone,
			"email":     res.User.Email,
			"full_name": res.User.FullName,
			"role":      res.User.Role,
		},
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	auth := c.GetHeader("Authorization")
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) == 2 {
		_ = h.Users.Logout(c.Request.Context(), strings.TrimSpace(parts[1]))
	}
	respond(c, http.StatusOK, gin.H{"logged_out": true})
}
