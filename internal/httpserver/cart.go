package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/domain"
	cartsvc "storefront/internal/service/cart"
)

const (
	cartTokenKey   = "cart_token"
	cartCookieTTL  = 14 * 24 * 60 * 60
	cartRedirectTo = "/cart"
)

type handlers struct {
	cart     cartService
	products productService
	logger   *zap.Logger
}

// cartTokenMiddleware resolves the cart token from the cookie, issuing a new
// one when absent.
func cartTokenMiddleware(cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			token = uuid.NewString()
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cookieName, token, cartCookieTTL, "/", "", false, true)
		c.Set(cartTokenKey, token)
		c.Next()
	}
}

func cartToken(c *gin.Context) string {
	return c.GetString(cartTokenKey)
}

// lineID accepts a JSON string or number.
type lineID string

func (id *lineID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = lineID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number")
	}
	*id = lineID(n.String())
	return nil
}

type addRequest struct {
	ID         lineID            `json:"id" binding:"required"`
	Quantity   *int              `json:"quantity" binding:"omitempty,min=1"`
	Properties map[string]string `json:"properties"`
}

type changeRequest struct {
	Line       int               `json:"line" binding:"omitempty,min=1"`
	ID         lineID            `json:"id"`
	Quantity   *int              `json:"quantity" binding:"omitempty,min=0"`
	Properties map[string]string `json:"properties"`
}

type updateRequest struct {
	Note *string `json:"note"`
}

func (h *handlers) getCart(c *gin.Context) {
	cart, err := h.cart.Get(c.Request.Context(), cartToken(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *handlers) addToCart(c *gin.Context) {
	var req addRequest
	if isJSON(c) {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.writeError(c, badRequest(err))
			return
		}
	} else {
		var err error
		if req, err = addFromForm(c); err != nil {
			h.writeError(c, badRequest(err))
			return
		}
	}
	variantID, err := domain.ParseID(string(req.ID))
	if err != nil {
		h.writeError(c, badRequest(fmt.Errorf("invalid id %q", req.ID)))
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	line, err := h.cart.Add(c.Request.Context(), cartToken(c), cartsvc.AddInput{
		VariantID:  variantID,
		Quantity:   qty,
		Properties: req.Properties,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, line)
}

func (h *handlers) changeCart(c *gin.Context) {
	var req changeRequest
	if isJSON(c) {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.writeError(c, badRequest(err))
			return
		}
	} else {
		var err error
		if req, err = changeFromForm(c); err != nil {
			h.writeError(c, badRequest(err))
			return
		}
	}
	cart, err := h.cart.Change(c.Request.Context(), cartToken(c), cartsvc.ChangeInput{
		Line:       req.Line,
		ID:         string(req.ID),
		Quantity:   req.Quantity,
		Properties: req.Properties,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// changeAndRedirect serves the script-free removal link.
func (h *handlers) changeAndRedirect(c *gin.Context) {
	line, err := strconv.Atoi(c.Query("line"))
	if err != nil || line < 1 {
		h.writeError(c, badRequest(fmt.Errorf("invalid line %q", c.Query("line"))))
		return
	}
	qty, err := strconv.Atoi(c.Query("quantity"))
	if err != nil || qty < 0 {
		h.writeError(c, badRequest(domain.ErrInvalidQuantity))
		return
	}
	if _, err := h.cart.Change(c.Request.Context(), cartToken(c), cartsvc.ChangeInput{Line: line, Quantity: &qty}); err != nil {
		h.writeError(c, err)
		return
	}
	c.Redirect(http.StatusFound, cartRedirectTo)
}

func (h *handlers) updateCart(c *gin.Context) {
	var req updateRequest
	if isJSON(c) {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.writeError(c, badRequest(err))
			return
		}
	} else if note, ok := c.GetPostForm("note"); ok {
		req.Note = &note
	}
	ctx := c.Request.Context()
	if req.Note == nil {
		cart, err := h.cart.Get(ctx, cartToken(c))
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
		return
	}
	cart, err := h.cart.UpdateNote(ctx, cartToken(c), *req.Note)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *handlers) getProduct(c *gin.Context) {
	handle, ok := strings.CutSuffix(c.Param("file"), ".js")
	if !ok || handle == "" {
		c.JSON(http.StatusNotFound, errorBody{Status: http.StatusNotFound, Message: "Not Found", Description: "Not Found"})
		return
	}
	product, err := h.products.GetByHandle(c.Request.Context(), handle)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func isJSON(c *gin.Context) bool {
	return c.ContentType() == binding.MIMEJSON
}

func addFromForm(c *gin.Context) (addRequest, error) {
	var req addRequest
	id := c.PostForm("id")
	if id == "" {
		return req, errors.New("id is required")
	}
	req.ID = lineID(id)
	if raw := c.PostForm("quantity"); raw != "" {
		qty, err := strconv.Atoi(raw)
		if err != nil || qty < 1 {
			return req, domain.ErrInvalidQuantity
		}
		req.Quantity = &qty
	}
	req.Properties = c.PostFormMap("properties")
	return req, nil
}

func changeFromForm(c *gin.Context) (changeRequest, error) {
	var req changeRequest
	if raw := c.PostForm("line"); raw != "" {
		line, err := strconv.Atoi(raw)
		if err != nil || line < 1 {
			return req, fmt.Errorf("invalid line %q", raw)
		}
		req.Line = line
	}
	req.ID = lineID(c.PostForm("id"))
	if raw := c.PostForm("quantity"); raw != "" {
		qty, err := strconv.Atoi(raw)
		if err != nil || qty < 0 {
			return req, domain.ErrInvalidQuantity
		}
		req.Quantity = &qty
	}
	if props := c.PostFormMap("properties"); len(props) > 0 {
		req.Properties = props
	}
	return req, nil
}
