package internal

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"community-admin/internal/logger"
)

// PublicObjectPrefix is the path stored objects are served under
const PublicObjectPrefix = "/storage/v1/object/public"

// StorageHandler serves stored objects publicly
type StorageHandler struct {
	objects ObjectStore
	logger  logger.Logger
}

// NewStorageHandler creates a handler over the given object store
func NewStorageHandler(objects ObjectStore, log logger.Logger) *StorageHandler {
	return &StorageHandler{objects: objects, logger: log}
}

// Register registers the public object route
func (h *StorageHandler) Register(routes gin.IRoutes) {
	routes.GET(PublicObjectPrefix+"/:bucket/*path", h.Get)
}

// Get handles GET requests for one stored object
func (h *StorageHandler) Get(c *gin.Context) {
	bucket := c.Param("bucket")
	path := strings.TrimPrefix(c.Param("path"), "/")
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "object path is required"})
		return
	}

	object, err := h.objects.Download(c.Request.Context(), bucket, path)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Error reading stored object", "bucket", bucket, "path", path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if object.CacheControl != "" {
		c.Header("Cache-Control", "max-age="+object.CacheControl)
	}
	c.Data(http.StatusOK, object.ContentType, object.Data)
}
