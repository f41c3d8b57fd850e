package internal

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"community-admin/meta"
)

// Sanitizer is implemented by resources that hold secrets they must not render
type Sanitizer interface {
	Sanitize()
}

// Router handles generic CRUD routing for a resource keyed by a string id
type Router[T any] struct {
	dao *DAO[T]
}

// NewRouter creates a new router for the given resource
func NewRouter[T any](db *gorm.DB) *Router[T] {
	return &Router[T]{
		dao: NewDAO[T](db),
	}
}

// Register registers all CRUD routes for the resource under path
func (r *Router[T]) Register(routes gin.IRouter, path string) {
	group := routes.Group(path)
	{
		group.POST("", r.Create)
		group.GET("", r.List)
		group.GET("/:id", r.Get)
		group.PUT("/:id", r.Update)
		group.DELETE("/:id", r.Delete)
	}
}

// Create handles POST requests to create a new resource
func (r *Router[T]) Create(c *gin.Context) {
	var resource T
	if err := c.ShouldBindJSON(&resource); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := validate(&resource); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := r.dao.Create(c.Request.Context(), &resource); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, sanitize(&resource))
}

// List handles GET requests to list resources
func (r *Router[T]) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

	items, _, err := r.dao.List(c.Request.Context(), Query{
		Page:  page,
		Size:  pageSize,
		Order: []string{"created_at ASC"},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Return empty list instead of null
	if items == nil {
		items = make([]T, 0)
	}
	for i := range items {
		sanitize(&items[i])
	}

	c.JSON(http.StatusOK, items)
}

// Get handles GET requests to retrieve a resource by ID
func (r *Router[T]) Get(c *gin.Context) {
	resource, err := r.dao.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, sanitize(resource))
}

// Update handles PUT requests. The body is applied over the stored resource and
// the whole row is written back, so false and zero values are persisted.
func (r *Router[T]) Update(c *gin.Context) {
	id := c.Param("id")

	resource, err := r.dao.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	versioned, isVersioned := any(resource).(versionedResource)
	var storedVersion int
	if isVersioned {
		storedVersion = versioned.GetResourceVersion()
	}

	if err := c.ShouldBindJSON(resource); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// The update hook bumps the version from the stored value, not the client's copy.
	if isVersioned {
		versioned.SetResourceVersion(storedVersion)
	}
	if identified, ok := any(resource).(interface{ GetID() string }); ok && identified.GetID() != id {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id does not match path"})
		return
	}
	if err := validate(resource); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := r.dao.Save(c.Request.Context(), resource); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, sanitize(resource))
}

// Delete handles DELETE requests to delete a resource
func (r *Router[T]) Delete(c *gin.Context) {
	if err := r.dao.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

type versionedResource interface {
	GetResourceVersion() int
	SetResourceVersion(version int)
}

func validate[T any](resource *T) error {
	if v, ok := any(resource).(meta.ResourceValidator); ok {
		return v.Validate()
	}
	return nil
}

func sanitize[T any](resource *T) *T {
	if s, ok := any(resource).(Sanitizer); ok {
		s.Sanitize()
	}
	return resource
}
