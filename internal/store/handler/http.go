package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	itemdomain "storefront-api/internal/item/domain"
	itemrepo "storefront-api/internal/item/repository"
	"storefront-api/internal/server/respond"
	"storefront-api/internal/store/domain"
	"storefront-api/internal/store/repository"
	tagdomain "storefront-api/internal/tag/domain"
	tagrepo "storefront-api/internal/tag/repository"
)

// Handler exposes store CRUD over HTTP. Store views embed the store's items
// and tags, so the handler reads from all three repositories.
type Handler struct {
	stores repository.Repository
	items  itemrepo.Repository
	tags   tagrepo.Repository
}

func NewHandler(stores repository.Repository, items itemrepo.Repository, tags tagrepo.Repository) *Handler {
	return &Handler{stores: stores, items: items, tags: tags}
}

type createStoreRequest struct {
	Name string `json:"name" binding:"required"`
}

// StoreView is the store representation returned to clients, with the store's
// items and tags inlined. The nested shapes carry no back-reference to the
// store to keep the payload acyclic.
type StoreView struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Items []PlainItemView `json:"items"`
	Tags  []PlainTagView  `json:"tags"`
}

// PlainItemView is an item without its store reference, for nesting inside a
// store view.
type PlainItemView struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// PlainTagView is a tag without its store reference, for nesting inside a
// store view.
type PlainTagView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// List returns every store with its items and tags.
func (h *Handler) List(c *gin.Context) {
	ctx := c.Request.Context()
	stores, err := h.stores.List(ctx)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "could not list stores")
		return
	}
	views := make([]StoreView, 0, len(stores))
	for _, s := range stores {
		view, err := h.storeView(c, s)
		if err != nil {
			return
		}
		views = append(views, *view)
	}
	c.JSON(http.StatusOK, views)
}

// Get returns one store with its items and tags, or 404.
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid store id")
		return
	}
	s, err := h.stores.GetByID(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "could not fetch store")
		return
	}
	if s == nil {
		respond.Error(c, http.StatusNotFound, "not_found", "Store not found")
		return
	}
	view, err := h.storeView(c, s)
	if err != nil {
		return
	}
	c.JSON(http.StatusOK, view)
}

// Create adds a store. Store names are globally unique.
func (h *Handler) Create(c *gin.Context) {
	var req createStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}
	s := &domain.Store{Name: req.Name}
	if err := s.Validate(); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := h.stores.Create(c.Request.Context(), s); err != nil {
		if errors.Is(err, repository.ErrDuplicateName) {
			respond.Error(c, http.StatusBadRequest, "duplicate_store", "A store with that name already exists.")
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "could not create store")
		return
	}
	c.JSON(http.StatusCreated, StoreView{
		ID:    s.ID,
		Name:  s.Name,
		Items: []PlainItemView{},
		Tags:  []PlainTagView{},
	})
}

// Delete removes a store and, by cascade, its items and tags. Requires a
// fresh token.
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid store id")
		return
	}
	s, err := h.stores.GetByID(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "could not fetch store")
		return
	}
	if s == nil {
		respond.Error(c, http.StatusNotFound, "not_found", "Store not found")
		return
	}
	if err := h.stores.Delete(c.Request.Context(), id); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "could not delete store")
		return
	}
	respond.Message(c, http.StatusOK, "Store deleted")
}

// storeView assembles the full view for a store. On repository failure it
// writes the error response itself and returns a non-nil error.
func (h *Handler) storeView(c *gin.Context, s *domain.Store) (*StoreView, error) {
	ctx := c.Request.Context()
	items, err := h.items.ListByStore(ctx, s.ID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "could not list store items")
		return nil, err
	}
	tags, err := h.tags.ListByStore(ctx, s.ID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "could not list store tags")
		return nil, err
	}
	return &StoreView{
		ID:    s.ID,
		Name:  s.Name,
		Items: plainItems(items),
		Tags:  plainTags(tags),
	}, nil
}

func plainItems(items []*itemdomain.Item) []PlainItemView {
	out := make([]PlainItemView, 0, len(items))
	for _, i := range items {
		out = append(out, PlainItemView{ID: i.ID, Name: i.Name, Price: i.Price})
	}
	return out
}

func plainTags(tags []*tagdomain.Tag) []PlainTagView {
	out := make([]PlainTagView, 0, len(tags))
	for _, t := range tags {
		out = append(out, PlainTagView{ID: t.ID, Name: t.Name})
	}
	return out
}
