package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	appcart "github.com/storefront-labs/checkout/internal/application/cart"
	appcatalog "github.com/storefront-labs/checkout/internal/application/catalog"
	apppayment "github.com/storefront-labs/checkout/internal/application/payment"
	domcatalog "github.com/storefront-labs/checkout/internal/domain/catalog"
	domorder "github.com/storefront-labs/checkout/internal/domain/order"
)

type Handler struct {
	cartService    *appcart.Service
	paymentService *apppayment.Service
	catalogService *appcatalog.Service
	exposeRawCode  bool
}

func NewHandler(
	cartSvc *appcart.Service,
	paymentSvc *apppayment.Service,
	catalogSvc *appcatalog.Service,
	exposeRawCode bool,
) *Handler {
	return &Handler{
		cartService:    cartSvc,
		paymentService: paymentSvc,
		catalogService: catalogSvc,
		exposeRawCode:  exposeRawCode,
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/cart", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			h.handleCreateOrder(w, r)
		case http.MethodGet:
			h.handleListOrders(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", errors.New("method not allowed"))
		}
	})
	mux.HandleFunc("/checkout/pay", h.method(http.MethodPost, h.handleInitiatePayment))
	mux.HandleFunc("/checkout/verify", h.method(http.MethodPost, h.handleConfirmPayment))
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.handleListProducts(w, r)
		case http.MethodPost:
			h.handleCreateProduct(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", errors.New("method not allowed"))
		}
	})
	mux.HandleFunc("/products/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			h.handleUpdateProduct(w, r)
		case http.MethodDelete:
			h.handleDeleteProduct(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", errors.New("method not allowed"))
		}
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", errors.New("method not allowed"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return WithIdentity(mux)
}

type lineItemPayload struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type createOrderRequest struct {
	Items []lineItemPayload `json:"items"`
}

type createOrderResponse struct {
	OrderID     string `json:"order_id"`
	AmountCents int64  `json:"amount_cents"`
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", err)
		return
	}

	items := make([]domorder.LineItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domorder.LineItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	result, err := h.cartService.CreateOrder(r.Context(), owner, items)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createOrderResponse{
		OrderID:     result.ID,
		AmountCents: result.AmountCents,
	})
}

type orderPayload struct {
	ID          string            `json:"id"`
	Items       []lineItemPayload `json:"items"`
	AmountCents int64             `json:"amount_cents"`
	Paid        bool              `json:"paid"`
	CreatedAt   time.Time         `json:"created_at"`
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	orders, err := h.cartService.ListOrders(r.Context(), owner)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]orderPayload, 0, len(orders))
	for _, o := range orders {
		items := make([]lineItemPayload, 0, len(o.Items))
		for _, it := range o.Items {
			items = append(items, lineItemPayload{ProductID: it.ProductID, Quantity: it.Quantity})
		}
		out = append(out, orderPayload{
			ID:          o.ID,
			Items:       items,
			AmountCents: o.AmountCents,
			Paid:        o.Paid,
			CreatedAt:   o.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, out)
}

type initiatePaymentRequest struct {
	OrderID string `json:"order_id"`
}

type initiatePaymentResponse struct {
	Message   string `json:"message"`
	OTPMasked string `json:"otp_masked"`
	// DemoOTP is only populated in development deployments.
	DemoOTP string `json:"demo_otp,omitempty"`
}

func (h *Handler) handleInitiatePayment(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	var req initiatePaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", err)
		return
	}
	if req.OrderID == "" {
		writeError(w, http.StatusBadRequest, "validation", errors.New("order_id is required"))
		return
	}

	result, err := h.paymentService.IssueChallenge(r.Context(), req.OrderID, owner)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := initiatePaymentResponse{
		Message:   "OTP sent",
		OTPMasked: result.CodeMasked,
	}
	if h.exposeRawCode {
		resp.DemoOTP = result.RawCode
	}
	writeJSON(w, http.StatusOK, resp)
}

type confirmPaymentRequest struct {
	OrderID string `json:"order_id"`
	OTP     string `json:"otp"`
}

func (h *Handler) handleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	var req confirmPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", err)
		return
	}
	if req.OrderID == "" || req.OTP == "" {
		writeError(w, http.StatusBadRequest, "validation", errors.New("order_id and otp are required"))
		return
	}

	if err := h.paymentService.ConfirmPayment(r.Context(), req.OrderID, owner, req.OTP); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Payment successful"})
}

type productPayload struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"created_at"`
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalogService.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]productPayload, 0, len(products))
	for _, p := range products {
		out = append(out, toProductPayload(p))
	}
	writeJSON(w, http.StatusOK, out)
}

type createProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
	Stock       int    `json:"stock"`
}

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	var req createProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", err)
		return
	}

	product, err := h.catalogService.Create(r.Context(), appcatalog.CreateProductInput{
		ActorID:     actor,
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Stock:       req.Stock,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProductPayload(product))
}

type updateProductRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	PriceCents  *int64  `json:"price_cents"`
	Stock       *int    `json:"stock"`
}

func (h *Handler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	productID := strings.TrimPrefix(r.URL.Path, "/products/")
	if productID == "" || strings.Contains(productID, "/") {
		writeError(w, http.StatusBadRequest, "validation", errors.New("product id is required"))
		return
	}

	var req updateProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", err)
		return
	}

	product, err := h.catalogService.Update(r.Context(), actor, productID, domcatalog.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Stock:       req.Stock,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProductPayload(product))
}

func (h *Handler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	productID := strings.TrimPrefix(r.URL.Path, "/products/")
	if productID == "" || strings.Contains(productID, "/") {
		writeError(w, http.StatusBadRequest, "validation", errors.New("product id is required"))
		return
	}

	if err := h.catalogService.Delete(r.Context(), actor, productID); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Product deleted"})
}

func toProductPayload(p *domcatalog.Product) productPayload {
	return productPayload{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		PriceCents:  p.PriceCents,
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
	}
}

func (h *Handler) requireIdentity(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner := ownerFromContext(r.Context())
	if owner == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", errors.New("authentication required"))
		return "", false
	}
	return owner, true
}

func (h *Handler) method(method string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", errors.New("method not allowed"))
			return
		}
		handler(w, r)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}
