package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/adeolu/marketplace/internal/apperror"
	"github.com/adeolu/marketplace/internal/auth"
	"github.com/adeolu/marketplace/internal/model"
	"github.com/adeolu/marketplace/internal/repository"
	"github.com/adeolu/marketplace/internal/service"
)

// maxMultipartMemory caps the in-memory part of multipart parsing; larger
// uploads spill to temp files.
const maxMultipartMemory = 4 << 20

// ItemHandler serves the listing CRUD endpoints.
type ItemHandler struct {
	items  *service.ItemService
	logger *slog.Logger
}

func NewItemHandler(items *service.ItemService, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{items: items, logger: logger}
}

// HandleList returns all listings, newest first.
//
// GET /api/items?location=...&name=... — both query parameters are optional
// case-insensitive substring filters. Public, no auth.
func (h *ItemHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter := repository.ItemFilter{
		Location: r.URL.Query().Get("location"),
		Name:     r.URL.Query().Get("name"),
	}

	items, err := h.items.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}

	writeJSON(w, http.StatusOK, items)
}

// HandleGetByID returns a single listing.
//
// GET /api/items/{id}. Public, no auth.
func (h *ItemHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	item, err := h.items.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// HandleCreate creates a listing from a multipart form.
//
// POST /api/items with fields name, description, price, location,
// contact_info and a mandatory "image" file part. Responds 201 with the
// created item; the caller becomes the owner.
func (h *ItemHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	// A missing image part falls through to the service, which rejects it
	// with a field-level validation error.
	fields, image, filename, err := parseItemForm(r)
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		writeError(w, err)
		return
	}

	item, err := h.items.Create(r.Context(), fields, image, filename, caller)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, item)
}

// HandleUpdate replaces a listing's fields, and its image when a new file
// part is supplied.
//
// PUT /api/items/{id}, same multipart form as create except the image part
// is optional. Owner or superuser only.
func (h *ItemHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	id, err := itemID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	fields, image, filename, err := parseItemForm(r)
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		writeError(w, err)
		return
	}

	item, err := h.items.Update(r.Context(), id, fields, image, filename, caller)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// HandleDelete removes a listing and its image.
//
// DELETE /api/items/{id}. Owner or superuser only; responds 204.
func (h *ItemHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	id, err := itemID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.items.Delete(r.Context(), id, caller); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// itemID extracts and parses the {id} path parameter.
func itemID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed("id", "item id must be a positive integer")
	}
	return id, nil
}

// parseItemForm reads the listing fields and the image part out of a
// multipart request. A missing image part returns http.ErrMissingFile
// wrapped with the parsed fields intact, so update handlers can treat it as
// "keep the current image".
func parseItemForm(r *http.Request) (service.ItemFields, []byte, string, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return service.ItemFields{}, nil, "", apperror.ValidationFailed("body", "invalid multipart form")
	}

	fields := service.ItemFields{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Location:    r.FormValue("location"),
		ContactInfo: r.FormValue("contact_info"),
	}

	// All field values are required on create and update alike; a PUT without
	// a price must not silently zero the item's price.
	rawPrice := r.FormValue("price")
	if rawPrice == "" {
		return service.ItemFields{}, nil, "", apperror.ValidationFailed("price", "price is required")
	}
	price, err := strconv.ParseFloat(rawPrice, 64)
	if err != nil {
		return service.ItemFields{}, nil, "", apperror.ValidationFailed("price", "price must be a number")
	}
	fields.Price = price

	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return fields, nil, "", http.ErrMissingFile
		}
		return service.ItemFields{}, nil, "", apperror.ValidationFailed("image", "invalid image upload")
	}
	defer file.Close()

	if header.Size > service.MaxImageBytes {
		return service.ItemFields{}, nil, "", apperror.ValidationFailed("image", "image is too large")
	}

	image, err := io.ReadAll(io.LimitReader(file, service.MaxImageBytes+1))
	if err != nil {
		return service.ItemFields{}, nil, "", apperror.ValidationFailed("image", "could not read image upload")
	}
	if len(image) > service.MaxImageBytes {
		return service.ItemFields{}, nil, "", apperror.ValidationFailed("image", "image is too large")
	}

	return fields, image, header.Filename, nil
}
