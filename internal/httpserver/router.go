package httpserver

import (
	"context"
	"errors"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
	cartsvc "storefront/internal/service/cart"
)

type cartService interface {
	Get(ctx context.Context, token string) (*domain.Cart, error)
	Add(ctx context.Context, token string, in cartsvc.AddInput) (*domain.LineItem, error)
	Change(ctx context.Context, token string, in cartsvc.ChangeInput) (*domain.Cart, error)
	UpdateNote(ctx context.Context, token, note string) (*domain.Cart, error)
}

type productService interface {
	GetByHandle(ctx context.Context, handle string) (*domain.Product, error)
}

// Deps are the services behind the storefront routes.
type Deps struct {
	CartSvc        cartService
	ProductSvc     productService
	CookieName     string
	AllowedOrigins []string
	Logger         *zap.Logger
}

// buildRouter wires routes for the API.
func buildRouter(db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if deps.CartSvc == nil || deps.ProductSvc == nil {
		return nil, errors.New("httpserver: cart and product services are required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.CookieName == "" {
		deps.CookieName = "cart"
	}

	router := gin.New()
	router.Use(logging.Middleware(deps.Logger), gin.Recovery())
	if len(deps.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Requested-With", logging.RequestIDHeader},
			ExposeHeaders:    []string{logging.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	h := &handlers{cart: deps.CartSvc, products: deps.ProductSvc, logger: deps.Logger}

	carts := router.Group("/", cartTokenMiddleware(deps.CookieName))
	carts.GET("/cart.js", h.getCart)
	carts.GET("/cart", h.getCart)
	carts.POST("/cart/add.js", h.addToCart)
	carts.POST("/cart/change.js", h.changeCart)
	carts.GET("/cart/change", h.changeAndRedirect)
	carts.POST("/cart/update.js", h.updateCart)

	router.GET("/products/:file", h.getProduct)

	return router, nil
}
