package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/neha-5456/kaagjee/internal/modules/catalog"
)

type ProductsHandler struct {
	Catalog *catalog.Repo
}

func NewProductsHandler(repo *catalog.Repo) *ProductsHandler {
	return &ProductsHandler{Catalog: repo}
}

func (h *ProductsHandler) List(c *gin.Context) {
	products, err := h.Catalog.ListActive(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	out := make([]gin.H, len(products))
	for i, p := range products {
		out[i] = productJSON(p, false)
	}
	respond(c, http.StatusOK, out)
}

func (h *ProductsHandler) GetBySlug(c *gin.Context) {
	p, err := h.Catalog.GetActiveBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, productJSON(p, true))
}

func productJSON(p catalog.Product, withSchema bool) gin.H {
	out := gin.H{
		"id":                 p.ID,
		"title":              p.Title,
		"slug":               p.Slug,
		"short_description":  p.ShortDescription,
		"full_price":         p.FullPrice,
		"allow_half_payment": p.AllowHalfPayment,
	}
	if p.AllowHalfPayment {
		half := p.HalfPrice
		if half <= 0 || half >= p.FullPrice {
			half = (p.FullPrice + 1) / 2
		}
		out["half_price"] = half
	}
	if withSchema {
		var schema json.RawMessage = json.RawMessage(p.FormSchema)
		if len(schema) == 0 {
			schema = json.RawMessage("[]")
		}
		out["form_title"] = p.FormTitle
		out["form_schema"] = schema
	}
	return out
}
