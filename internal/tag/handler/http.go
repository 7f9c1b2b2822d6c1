package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	itemdomain "storefront-api/internal/item/domain"
	itemrepo "storefront-api/internal/item/repository"
	"storefront-api/internal/server/respond"
	storerepo "storefront-api/internal/store/repository"
	"storefront-api/internal/tag/domain"
	"storefront-api/internal/tag/repository"
)

// Handler exposes tag CRUD and item-tag linking over HTTP.
type Handler struct {
	tags   repository.Repository
	items  itemrepo.Repository
	stores storerepo.Repository
}

func NewHandler(tags repository.Repository, items itemrepo.Repository, stores storerepo.Repository) *Handler {
	return &Handler{tags: tags, items: items, stores: stores}
}

type createTagRequest struct {
	Name string `json:"name" binding:"required"`
}

// TagView is the tag representation returned to clients, with the owning
// store inlined.
type TagView struct {
	ID    int64          `json:"id"`
	Name  string         `json:"name"`
	Store PlainStoreView `json:"store"`
}

// PlainTagView is a tag without its store reference, for nesting in lists.
type PlainTagView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PlainStoreView is a store without its items and tags.
type PlainStoreView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PlainItemView is an item without its store reference.
type PlainItemView struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// tagAndItemResponse acknowledges an unlink, echoing both sides of the
// removed association.
type tagAndItemResponse struct {
	Message string        `json:"message"`
	Item    PlainItemView `json:"item"`
	Tag     PlainTagView  `json:"tag"`
}

// ListByStore returns the tags of a store.
func (h *Handler) ListByStore(c *gin.Context) {
	storeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid store id")
		return
	}
	s, err := h.stores.GetByID(c.Request.Context(), storeID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "could not fetch store")
		return
	}
	if s == nil {
		respond.Error(c, http.StatusNotFound, "not_found", "Store not found")
		return
	}
	tags, err := h.tags.ListByStore(c.Request.Context(), storeID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "could not list tags")
		return
	}
	views := make([]PlainTagView, 0, len(tags))
	for _, t := range tags {
		views = append(views, PlainTagView{ID: t.ID, Name: t.Name})
	}
	c.JSON(http.StatusOK, views)
}

// CreateInStore adds a tag to a store. Tag names are unique within a store.
func (h *Handler) CreateInStore(c *gin.Context) {
	storeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid store id")
		return
	}
	var req createTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}
	t := &domain.Tag{Name: req.Name, StoreID: storeID}
	if err := t.Validate(); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := h.tags.Create(c.Request.Context(), t); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateName):
			respond.Error(c, http.StatusBadRequest, "duplicate_tag", "A tag with that name already exists in that store.")
		case errors.Is(err, repository.ErrStoreMissing):
			respond.Error(c, http.StatusNotFound, "not_found", "Store not found")
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "could not create tag")
		}
		return
	}
	view, err := h.tagView(c, t)
	if err != nil {
		return
	}
	c.JSON(http.StatusCreated, view)
}

// Get returns one tag with its store, or 404.
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid tag id")
		return
	}
	t, err := h.tags.GetByID(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "could not fetch tag")
		return
	}
	if t == nil {
		respond.Error(c, http.StatusNotFound, "not_found", "Tag not found")
		return
	}
	view, err := h.tagView(c, t)
	if err != nil {
		return
	}
	c.JSON(http.StatusOK, view)
}

// Delete removes a tag that is not linked to any items.
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid tag id")
		return
	}
	t, err := h.tags.GetByID(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "could not fetch tag")
		return
	}
	if t == nil {
		respond.Error(c, http.StatusNotFound, "not_found", "Tag not found")
		return
	}
	if err := h.tags.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrTagInUse) {
			respond.Error(c, http.StatusBadRequest, "tag_in_use",
				"Could not delete tag. Make sure tag is not associated with any items, then try again.")
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "could not delete tag")
		return
	}
	respond.Message(c, http.StatusAccepted, "Tag deleted.")
}

// LinkItem associates an item with a tag. Both must belong to the same store.
func (h *Handler) LinkItem(c *gin.Context) {
	item, tag, ok := h.loadPair(c)
	if !ok {
		return
	}
	if item.StoreID != tag.StoreID {
		respond.Error(c, http.StatusBadRequest, "store_mismatch",
			"Make sure item and tag belong to the same store before linking.")
		return
	}
	if err := h.tags.LinkItem(c.Request.Context(), item.ID, tag.ID); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "could not link item and tag")
		return
	}
	view, err := h.tagView(c, tag)
	if err != nil {
		return
	}
	c.JSON(http.StatusCreated, view)
}

// UnlinkItem removes the association between an item and a tag.
func (h *Handler) UnlinkItem(c *gin.Context) {
	item, tag, ok := h.loadPair(c)
	if !ok {
		return
	}
	if err := h.tags.UnlinkItem(c.Request.Context(), item.ID, tag.ID); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "could not unlink item and tag")
		return
	}
	c.JSON(http.StatusOK, tagAndItemResponse{
		Message: "Item removed from tag",
		Item:    PlainItemView{ID: item.ID, Name: item.Name, Price: item.Price},
		Tag:     PlainTagView{ID: tag.ID, Name: tag.Name},
	})
}

// loadPair resolves the item and tag route params, writing the error response
// on failure.
func (h *Handler) loadPair(c *gin.Context) (item *itemdomain.Item, tag *domain.Tag, ok bool) {
	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid item id")
		return nil, nil, false
	}
	tagID, err := strconv.ParseInt(c.Param("tag_id"), 10, 64)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid tag id")
		return nil, nil, false
	}
	i, err := h.items.GetByID(c.Request.Context(), itemID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "could not fetch item")
		return nil, nil, false
	}
	if i == nil {
		respond.Error(c, http.StatusNotFound, "not_found", "Item not found")
		return nil, nil, false
	}
	t, err := h.tags.GetByID(c.Request.Context(), tagID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "could not fetch tag")
		return nil, nil, false
	}
	if t == nil {
		respond.Error(c, http.StatusNotFound, "not_found", "Tag not found")
		return nil, nil, false
	}
	return i, t, true
}

// tagView assembles the full view for a tag. On repository failure it writes
// the error response itself and returns a non-nil error.
func (h *Handler) tagView(c *gin.Context, t *domain.Tag) (*TagView, error) {
	s, err := h.stores.GetByID(c.Request.Context(), t.StoreID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "could not fetch tag store")
		return nil, err
	}
	view := &TagView{ID: t.ID, Name: t.Name}
	if s != nil {
		view.Store = PlainStoreView{ID: s.ID, Name: s.Name}
	}
	return view, nil
}
