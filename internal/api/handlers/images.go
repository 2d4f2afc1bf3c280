package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Shreyas165/Find-My-Teacher/internal/directory"
	"github.com/Shreyas165/Find-My-Teacher/internal/models"
)

// Image ids are never reused, so responses can be cached for a year.
const imageCacheControl = "public, max-age=31557600, immutable"

// A name can point at a different photo after an update or re-create, so caches must revalidate.
const nameCacheControl = "no-cache"

type ImageHandler struct {
	dir *directory.Service
}

func NewImageHandler(dir *directory.Service) *ImageHandler {
	return &ImageHandler{dir: dir}
}

func (h *ImageHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	etag := `"` + id.String() + `"`
	if c.GetHeader("If-None-Match") == etag {
		c.Header("ETag", etag)
		c.Status(http.StatusNotModified)
		return
	}

	img, data, err := h.dir.Image(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to serve image.")
		return
	}
	writeImage(c, img, data, imageCacheControl)
}

// ByName serves the current photo of the oldest entry named name. The ETag is the image id, so a
// replaced photo yields a new ETag and a stale If-None-Match gets the new bytes.
func (h *ImageHandler) ByName(c *gin.Context) {
	img, data, err := h.dir.ImageByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, err, "Failed to serve image.")
		return
	}
	etag := `"` + img.ID.String() + `"`
	if c.GetHeader("If-None-Match") == etag {
		c.Header("Cache-Control", nameCacheControl)
		c.Header("ETag", etag)
		c.Status(http.StatusNotModified)
		return
	}
	writeImage(c, img, data, nameCacheControl)
}

func writeImage(c *gin.Context, img *models.Image, data []byte, cacheControl string) {
	c.Header("Cache-Control", cacheControl)
	c.Header("ETag", `"`+img.ID.String()+`"`)
	c.Header("Content-Length", strconv.Itoa(len(data)))
	c.Data(http.StatusOK, img.MimeType, data)
}
