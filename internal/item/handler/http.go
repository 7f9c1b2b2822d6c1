package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront-api/internal/item/domain"
	"storefront-api/internal/item/repository"
	"storefront-api/internal/server/respond"
	storerepo "storefront-api/internal/store/repository"
	tagdomain "storefront-api/internal/tag/domain"
	tagrepo "storefront-api/internal/tag/repository"
)

// Handler exposes item CRUD over HTTP. Item views embed the owning store and
// the item's tags.
type Handler struct {
	items  repository.Repository
	stores storerepo.Repository
	tags   tagrepo.Repository
}

func NewHandler(items repository.Repository, stores storerepo.Repository, tags tagrepo.Repository) *Handler {
	return &Handler{items: items, stores: stores, tags: tags}
}

type createItemRequest struct {
	Name    string   `json:"name" binding:"required"`
	Price   *float64 `json:"price" binding:"required"`
	StoreID int64    `json:"store_id" binding:"required"`
}

type updateItemRequest struct {
	Name  string   `json:"name" binding:"required"`
	Price *float64 `json:"price" binding:"required"`
}

// ItemView is the item representation returned to clients, with the owning
// store and the item's tags inlined.
type ItemView struct {
	ID    int64          `json:"id"`
	Name  string         `json:"name"`
	Price float64        `json:"price"`
	Store PlainStoreView `json:"store"`
	Tags  []PlainTagView `json:"tags"`
}

// PlainStoreView is a store without its items and tags, for nesting inside an
// item view.
type PlainStoreView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PlainTagView is a tag without its store reference, for nesting inside an
// item view.
type PlainTagView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// List returns every item with its store and tags.
func (h *Handler) List(c *gin.Context) {
	items, err := h.items.List(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "could not list items")
		return
	}
	views := make([]ItemView, 0, len(items))
	for _, i := range items {
		view, err := h.itemView(c, i)
		if err != nil {
			return
		}
		views = append(views, *view)
	}
	c.JSON(http.StatusOK, views)
}

// Get returns one item with its store and tags, or 404.
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid item id")
		return
	}
	i, err := h.items.GetByID(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "could not fetch item")
		return
	}
	if i == nil {
		respond.Error(c, http.StatusNotFound, "not_found", "Item not found")
		return
	}
	view, err := h.itemView(c, i)
	if err != nil {
		return
	}
	c.JSON(http.StatusOK, view)
}

// Create adds an item to a store.
func (h *Handler) Create(c *gin.Context) {
	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "name, price, and store_id are required")
		return
	}
	i := &domain.Item{Name: req.Name, Price: *req.Price, StoreID: req.StoreID}
	if err := i.Validate(); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := h.items.Create(c.Request.Context(), i); err != nil {
		if errors.Is(err, repository.ErrStoreMissing) {
			respond.Error(c, http.StatusNotFound, "not_found", "Store not found")
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "could not create item")
		return
	}
	view, err := h.itemView(c, i)
	if err != nil {
		return
	}
	c.JSON(http.StatusCreated, view)
}

// Update rewrites an existing item's name and price. The item must already
// exist; items cannot move between stores. Requires a fresh token.
func (h *Handler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid item id")
		return
	}
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "name and price are required")
		return
	}
	i, err := h.items.GetByID(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "could not fetch item")
		return
	}
	if i == nil {
		respond.Error(c, http.StatusNotFound, "not_found", "Item not found")
		return
	}
	i.Name = req.Name
	i.Price = *req.Price
	if err := h.items.Update(c.Request.Context(), i); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "could not update item")
		return
	}
	view, err := h.itemView(c, i)
	if err != nil {
		return
	}
	c.JSON(http.StatusOK, view)
}

// Delete removes an item. Requires a fresh token.
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid item id")
		return
	}
	i, err := h.items.GetByID(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "could not fetch item")
		return
	}
	if i == nil {
		respond.Error(c, http.StatusNotFound, "not_found", "Item not found")
		return
	}
	if err := h.items.Delete(c.Request.Context(), id); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "could not delete item")
		return
	}
	respond.Message(c, http.StatusOK, "Item deleted.")
}

// itemView assembles the full view for an item. On repository failure it
// writes the error response itself and returns a non-nil error.
func (h *Handler) itemView(c *gin.Context, i *domain.Item) (*ItemView, error) {
	ctx := c.Request.Context()
	s, err := h.stores.GetByID(ctx, i.StoreID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "could not fetch item store")
		return nil, err
	}
	tags, err := h.tags.ListByItem(ctx, i.ID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "could not list item tags")
		return nil, err
	}
	view := &ItemView{
		ID:    i.ID,
		Name:  i.Name,
		Price: i.Price,
		Tags:  plainTags(tags),
	}
	if s != nil {
		view.Store = PlainStoreView{ID: s.ID, Name: s.Name}
	}
	return view, nil
}

func plainTags(tags []*tagdomain.Tag) []PlainTagView {
	out := make([]PlainTagView, 0, len(tags))
	for _, t := range tags {
		out = append(out, PlainTagView{ID: t.ID, Name: t.Name})
	}
	return out
}
