package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/tejasmadane2310/billing-ledger/internal/core/domain"
	"github.com/tejasmadane2310/billing-ledger/internal/core/service"
)

// HTTPHandler is an external caller of the billing engine: it drives the cart
// state machine per request and owns no billing invariants itself.
type HTTPHandler struct {
	billing *service.BillingService
	catalog *service.CatalogService
	logger  *zap.Logger
}

func NewHTTPHandler(billing *service.BillingService, catalog *service.CatalogService, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{billing: billing, catalog: catalog, logger: logger}
}

// Register wires all routes onto the mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.HealthCheck)
	mux.HandleFunc("/api/checkout", h.Checkout)
	mux.HandleFunc("/api/customers", h.Customers)
	mux.HandleFunc("/api/customers/find", h.FindCustomer)
	mux.HandleFunc("/api/products", h.Products)
	mux.HandleFunc("/api/stock", h.SetStock)
	mux.HandleFunc("/api/bills", h.RecentBills)
	mux.HandleFunc("/api/bills/detail", h.BillDetail)
}

type CheckoutItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type CheckoutRequest struct {
	Phone string         `json:"phone,omitempty"`
	Items []CheckoutItem `json:"items"`
}

type CheckoutResponse struct {
	BillID   string       `json:"bill_id"`
	Subtotal domain.Money `json:"subtotal"`
	Tax      domain.Money `json:"tax"`
	Discount domain.Money `json:"discount"`
	Final    domain.Money `json:"final"`
	Items    int          `json:"items"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Available *int   `json:"available,omitempty"`
}

// Checkout runs a whole cart through the billing state machine: build, add
// each line, finalize, commit. Any rejected line fails the request.
func (h *HTTPHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	cart, err := h.billing.NewCart(r.Context(), req.Phone)
	if err != nil {
		h.writeError(w, err)
		return
	}

	for _, item := range req.Items {
		if err := cart.AddLine(r.Context(), item.ProductID, item.Quantity); err != nil {
			h.writeError(w, err)
			return
		}
	}

	if _, err := cart.Finalize(); err != nil {
		h.writeError(w, err)
		return
	}

	invoice, err := cart.Commit(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, CheckoutResponse{
		BillID:   invoice.Bill.ID,
		Subtotal: invoice.Bill.Subtotal,
		Tax:      invoice.Bill.Tax,
		Discount: invoice.Bill.Discount,
		Final:    invoice.Bill.Final,
		Items:    len(invoice.Items),
	})
}

type AddCustomerRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

func (h *HTTPHandler) Customers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req AddCustomerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
			return
		}
		customer, err := h.catalog.AddCustomer(r.Context(), req.Name, req.Phone, req.Email)
		if err != nil {
			h.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, customer)
	case http.MethodGet:
		customers, err := h.catalog.ListCustomers(r.Context())
		if err != nil {
			h.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, customers)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *HTTPHandler) FindCustomer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	customer, err := h.catalog.FindCustomerByPhone(r.Context(), r.URL.Query().Get("phone"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if customer == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "customer not found"})
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

type AddProductRequest struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	SKU   string `json:"sku,omitempty"`
	Stock int    `json:"stock"`
}

func (h *HTTPHandler) Products(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req AddProductRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
			return
		}
		product, err := h.catalog.AddProduct(r.Context(), req.Name, req.Price, req.SKU, req.Stock)
		if err != nil {
			h.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, product)
	case http.MethodGet:
		products, err := h.catalog.ListProducts(r.Context())
		if err != nil {
			h.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, products)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type SetStockRequest struct {
	ProductID string `json:"product_id"`
	Stock     int    `json:"stock"`
}

func (h *HTTPHandler) SetStock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SetStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if err := h.catalog.SetStock(r.Context(), req.ProductID, req.Stock); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) RecentBills(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	bills, err := h.billing.RecentBills(r.Context(), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bills)
}

func (h *HTTPHandler) BillDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	invoice, err := h.billing.GetInvoice(r.Context(), r.URL.Query().Get("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invoice)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	var (
		validationErr *domain.ValidationError
		stockErr      *domain.InsufficientStockError
	)

	switch {
	case errors.As(err, &stockErr):
		available := stockErr.Available
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: stockErr.Error(), Available: &available})
	case errors.As(err, &validationErr), errors.Is(err, domain.ErrEmptyCart), errors.Is(err, domain.ErrCartClosed):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrCustomerNotFound),
		errors.Is(err, domain.ErrBillNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	default:
		h.logger.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
