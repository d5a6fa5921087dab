package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/neha-5456/kaagjee/internal/http/validation"
	"github.com/neha-5456/kaagjee/internal/modules/cart"
	"github.com/neha-5456/kaagjee/internal/shared/apperr"
	"github.com/neha-5456/kaagjee/internal/storage"
)

type CartHandler struct {
	Cart    *cart.Service
	Storage storage.Storage
}

func NewCartHandler(cs *cart.Service, st storage.Storage) *CartHandler {
	return &CartHandler{Cart: cs, Storage: st}
}

type submitFormInput struct {
	ProductID     string            `json:"product_id" binding:"required,uuid"`
	PaymentOption string            `json:"payment_option" binding:"omitempty,oneof=full half"`
	FormData      map[string]string `json:"form_data" binding:"required"`
	State         string            `json:"state" binding:"omitempty,max=100"`
	City          string            `json:"city" binding:"omitempty,max=100"`
}

// SubmitForm adds a validated form submission to the user's cart.
func (h *CartHandler) SubmitForm(c *gin.Context) {
	u, ok := mustUser(c)
	if !ok {
		return
	}

	var in submitFormInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, apperr.InvalidErr("Check the highlighted fields.", validation.FromBindError(err, &in)))
		return
	}

	res, err := h.Cart.Add(c.Request.Context(), u.ID, cart.AddInput{
		ProductID:     in.ProductID,
		PaymentOption: in.PaymentOption,
		FormData:      in.FormData,
		State:         in.State,
		City:          in.City,
	})
	if err != nil {
		if res.FieldErrors != nil {
			fail(c, apperr.InvalidErr("Check the highlighted fields.", res.FieldErrors))
			return
		}
		fail(c, err)
		return
	}

	respond(c, http.StatusCreated, gin.H{"item_id": res.Item.ID})
}

// SubmitFormFiles is the multipart variant: file parts named after the
// schema's file fields are stored and their URLs injected into form_data
// before validation.
func (h *CartHandler) SubmitFormFiles(c *gin.Context) {
	u, ok := mustUser(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		fail(c, apperr.InvalidErr("Invalid multipart form.", nil))
		return
	}

	productID := c.PostForm("product_id")
	if productID == "" {
		fail(c, apperr.InvalidErr("Check the highlighted fields.", map[string]string{"product_id": "This field is required."}))
		return
	}

	formData := map[string]string{}
	if raw := c.PostForm("form_data"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &formData); err != nil {
			fail(c, apperr.InvalidErr("Check the highlighted fields.", map[string]string{"form_data": "Must be a JSON object of field values."}))
			return
		}
	}

	var files []string
	for field, headers := range form.File {
		if len(headers) == 0 {
			continue
		}
		fh := headers[0]

		f, err := fh.Open()
		if err != nil {
			fail(c, apperr.Wrap(err))
			return
		}
		put, err := h.Storage.Put(c.Request.Context(), f, storage.PutInput{
			UserID:      u.ID,
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
		})
		f.Close()
		if err != nil {
			fail(c, apperr.Wrap(err))
			return
		}

		formData[field] = put.URL
		files = append(files, put.URL)
	}

	res, err := h.Cart.Add(c.Request.Context(), u.ID, cart.AddInput{
		ProductID:     productID,
		PaymentOption: c.PostForm("payment_option"),
		FormData:      formData,
		Files:         files,
		State:         c.PostForm("state"),
		City:          c.PostForm("city"),
	})
	if err != nil {
		if res.FieldErrors != nil {
			fail(c, apperr.InvalidErr("Check the highlighted fields.", res.FieldErrors))
			return
		}
		fail(c, err)
		return
	}

	respond(c, http.StatusCreated, gin.H{"item_id": res.Item.ID, "files": files})
}

func (h *CartHandler) Get(c *gin.Context) {
	u, ok := mustUser(c)
	if !ok {
		return
	}

	lines, err := h.Cart.List(c.Request.Context(), u.ID)
	if err != nil {
		fail(c, err)
		return
	}

	out := make([]gin.H, len(lines))
	for i, ln := range lines {
		out[i] = gin.H{
			"item_id":        ln.Item.ID,
			"product_id":     ln.Item.ProductID,
			"product_title":  ln.Product.Title,
			"product_slug":   ln.Product.Slug,
			"full_price":     ln.Product.FullPrice,
			"payment_option": ln.Item.PaymentOption,
			"state":          ln.Item.State,
			"city":           ln.Item.City,
			"created_at":     ln.Item.CreatedAt,
		}
	}
	respond(c, http.StatusOK, gin.H{"items": out, "count": len(out)})
}

func (h *CartHandler) Count(c *gin.Context) {
	u, ok := mustUser(c)
	if !ok {
		return
	}

	n, err := h.Cart.Count(c.Request.Context(), u.ID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"count": n})
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	u, ok := mustUser(c)
	if !ok {
		return
	}

	if err := h.Cart.Remove(c.Request.Context(), u.ID, c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"removed": true})
}

func (h *CartHandler) Clear(c *gin.Context) {
	u, ok := mustUser(c)
	if !ok {
		return
	}

	if err := h.Cart.Clear(c.Request.Context(), u.ID); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"cleared": true})
}
