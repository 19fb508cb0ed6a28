package catalog

import (
	"net/http"

	"storefront-api/internal/transport"

	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	GetAllProducts() ([]ProductResponse, error)
	GetProduct(id string) (*ProductResponse, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Service.GetAllProducts()
	if err != nil {
		h.Logger.Error("ListProducts: failed to get products", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "failed to get products")
		return
	}

	if products == nil {
		products = []ProductResponse{}
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"products": products,
	})
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, "product id is required")
		return
	}

	product, err := h.Service.GetProduct(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, product)
}
