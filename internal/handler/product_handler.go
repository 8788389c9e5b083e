package handler

import (
	"errors"
	"net/http"
	"strings"

	"marketplace/internal/model"
	"marketplace/internal/service"

	"github.com/rs/zerolog"
)

// ProductHandler handles catalog HTTP requests.
type ProductHandler struct {
	service        service.ProductService
	maxUploadBytes int64
	logger         zerolog.Logger
}

// NewProductHandler creates a new product handler. Image uploads larger than
// maxUploadBytes are rejected.
func NewProductHandler(service service.ProductService, maxUploadBytes int64, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With().Str("handler", "product").Logger(),
	}
}

func productFilter(r *http.Request) (model.ProductFilter, error) {
	var (
		filter model.ProductFilter
		err    error
	)
	if filter.Limit, filter.Offset, err = page(r); err != nil {
		return filter, err
	}
	if filter.CategoryID, err = queryID(r, "categoryId"); err != nil {
		return filter, err
	}
	if filter.VendorID, err = queryID(r, "vendorId"); err != nil {
		return filter, err
	}
	filter.Query = strings.TrimSpace(r.URL.Query().Get("q"))
	filter.Status = r.URL.Query().Get("status")
	return filter, nil
}

// ListPublic handles GET /api/public/products requests with pagination.
func (h *ProductHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	filter, err := productFilter(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	products, err := h.service.ListPublic(r.Context(), filter)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeSuccess(w, http.StatusOK, products)
}

// GetPublic handles GET /api/public/products/{id} requests.
func (h *ProductHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	product, err := h.service.GetPublic(r.Context(), id)
	if err != nil {
		h.writeProductError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, product)
}

// ListCategories handles GET /api/public/categories requests.
func (h *ProductHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeSuccess(w, http.StatusOK, categories)
}

// ListOwn handles GET /api/vendor/products requests.
func (h *ProductHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	vendorID, _, err := vendorIdentity(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	filter, err := productFilter(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	products, err := h.service.ListByVendor(r.Context(), vendorID, filter)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeSuccess(w, http.StatusOK, products)
}

// Create handles POST /api/vendor/products requests.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	vendorID, _, err := vendorIdentity(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req model.ProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	product, err := h.service.Create(r.Context(), vendorID, &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeSuccess(w, http.StatusCreated, product)
}

// Update handles PUT /api/vendor/products/{id} requests.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	vendorID, _, err := vendorIdentity(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req model.ProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	product, err := h.service.Update(r.Context(), vendorID, id, &req)
	if err != nil {
		h.writeProductError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, product)
}

// UploadImage handles POST /api/vendor/products/{id}/images multipart requests.
func (h *ProductHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	vendorID, _, err := vendorIdentity(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorStatus(w, r, http.StatusRequestEntityTooLarge, model.ErrCodeValidation, "Image exceeds the upload size limit", h.logger)
			return
		}
		writeError(w, r, model.NewValidationError("a multipart form with an image field is required"), h.logger)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, r, model.NewValidationError("image file is required"), h.logger)
		return
	}
	defer file.Close()

	image, err := h.service.UploadImage(r.Context(), vendorID, id, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		h.writeProductError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, image)
}

// writeProductError reports a product addressed by the route as 404. In a
// cart the same error is a 400.
func (h *ProductHandler) writeProductError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, model.ErrProductNotFound) {
		writeErrorStatus(w, r, http.StatusNotFound, model.ErrCodeProductNotFound, err.Error(), h.logger)
		return
	}
	writeError(w, r, err, h.logger)
}
