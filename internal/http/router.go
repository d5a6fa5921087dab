package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/neha-5456/kaagjee/internal/http/handlers"
	"github.com/neha-5456/kaagjee/internal/http/middleware"
	"github.com/neha-5456/kaagjee/internal/mailer"
	"github.com/neha-5456/kaagjee/internal/modules/cart"
	"github.com/neha-5456/kaagjee/internal/modules/catalog"
	"github.com/neha-5456/kaagjee/internal/modules/orders"
	"github.com/neha-5456/kaagjee/internal/modules/payments"
	"github.com/neha-5456/kaagjee/internal/modules/users"
	"github.com/neha-5456/kaagjee/internal/storage"
)

// Options carries the optional pieces of the wiring. Everything nil gets a
// safe default (dev gateway, mock mailer, local storage).
type Options struct {
	Provider Provider
	Mailer   mailer.Service
	MailFrom string
	Storage  storage.Storage
}

// Provider aliases the payments gateway interface so callers wiring the
// router don't need to import the payments package for it.
type Provider = payments.Provider

func NewRouter(logger *slog.Logger, db *gorm.DB, opts Options) *gin.Engine {
	if opts.Provider == nil {
		opts.Provider = payments.NewDevGateway("")
	}
	if opts.Mailer == nil {
		opts.Mailer = &mailer.Mock{}
	}
	if opts.Storage == nil {
		opts.Storage = storage.NewLocal("./storage/uploads", "/uploads")
	}

	userSvc := users.NewService(db)
	catalogRepo := catalog.NewRepo(db)
	cartSvc := cart.NewService(db)
	orderRepo := orders.NewRepo(db)
	adminSvc := orders.NewAdminService(db)

	settlement := payments.NewService(db, opts.Provider)
	settlement.SetLogger(logger)
	settlement.SetMailer(opts.Mailer, opts.MailFrom)

	auth := handlers.NewAuthHandler(userSvc)
	products := handlers.NewProductsHandler(catalogRepo)
	cartH := handlers.NewCartHandler(cartSvc, opts.Storage)
	checkout := handlers.NewCheckoutHandler(settlement)
	paymentsH := handlers.NewPaymentsHandler(settlement)
	ordersH := handlers.NewOrdersHandler(orderRepo, settlement)
	adminOrders := handlers.NewAdminOrdersHandler(orderRepo, adminSvc)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.ErrorHandler(logger))
	r.Use(middleware.Session(userSvc))

	api := r.Group("/api")

	// public
	api.POST("/auth/login", auth.Login)
	api.GET("/products", products.List)
	api.GET("/products/:slug", products.GetBySlug)

	// authenticated
	authed := api.Group("")
	authed.Use(middleware.RequireAuth())
	{
		authed.POST("/auth/logout", auth.Logout)

		authed.POST("/submit-form", cartH.SubmitForm)
		authed.POST("/submit-form-files", cartH.SubmitFormFiles)
		authed.GET("/cart", cartH.Get)
		authed.GET("/cart/count", cartH.Count)
		authed.DELETE("/cart/item/:id", cartH.RemoveItem)
		authed.DELETE("/cart/clear", cartH.Clear)

		authed.POST("/checkout", checkout.Post)
		authed.POST("/verify-payment", paymentsH.Verify)

		authed.GET("/my-orders", ordersH.MyOrders)
		authed.GET("/pending-payments", ordersH.PendingPayments)
		authed.GET("/orders/:code", ordersH.Detail)
		authed.POST("/orders/:code/pay-pending", paymentsH.PayPending)
	}

	// admin
	admin := api.Group("/admin")
	admin.Use(middleware.RequireAuth(), middleware.RequireAdmin())
	{
		admin.GET("/orders", adminOrders.List)
		admin.POST("/orders/:code/status", adminOrders.UpdateStatus)
	}

	return r
}
