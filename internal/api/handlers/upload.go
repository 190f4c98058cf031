package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Kvazar-213452/Voxta-mobile/internal/models"
	"github.com/Kvazar-213452/Voxta-mobile/shared/logger"
	"github.com/Kvazar-213452/Voxta-mobile/shared/wire"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Directories below the data dir, also the URL prefixes they are served at.
const (
	AvatarsDir = "avatars"
	FilesDir   = "file"
)

// UploadQueries is the subset of ledger queries used by the upload handler.
type UploadQueries interface {
	CreateUpload(ctx context.Context, arg models.CreateUploadParams) error
	GetUpload(ctx context.Context, id string) (models.Upload, error)
	ListUploads(ctx context.Context, kind string, limit int) ([]models.Upload, error)
}

// List limits for GET /uploads.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

type UploadHandler struct {
	dataDir  string
	maxBytes int64
	queries  UploadQueries
	now      func() time.Time
	newID    func() string
}

// NewUploadHandler stores blobs under dataDir and records them through
// queries. Request bodies larger than maxBytes are rejected; maxBytes <= 0
// disables the limit.
func NewUploadHandler(dataDir string, maxBytes int64, queries UploadQueries) *UploadHandler {
	return &UploadHandler{
		dataDir:  dataDir,
		maxBytes: maxBytes,
		queries:  queries,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
}

// Register mounts the upload routes on r.
func (h *UploadHandler) Register(r gin.IRouter) {
	r.POST("/upload_avatar_base64", h.UploadAvatar)
	r.POST("/upload_file_base64", h.UploadFile)
	r.GET("/uploads", h.ListUploads)
	r.GET("/uploads/:id", h.GetUpload)
}

// avatarExtension maps the data URL header of an avatar to a file extension.
func avatarExtension(header string) (ext, contentType string, ok bool) {
	switch {
	case strings.Contains(header, "jpeg"), strings.Contains(header, "jpg"):
		return ".jpg", "image/jpeg", true
	case strings.Contains(header, "png"):
		return ".png", "image/png", true
	case strings.Contains(header, "gif"):
		return ".gif", "image/gif", true
	default:
		return "", "", false
	}
}

// UploadAvatar handles POST /upload_avatar_base64
func (h *UploadHandler) UploadAvatar(c *gin.Context) {
	var req wire.UploadAvatarRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if req.Avatar == "" {
		c.String(http.StatusBadRequest, "No avatar data provided")
		return
	}

	parts := strings.Split(req.Avatar, ",")
	if len(parts) != 2 {
		c.String(http.StatusBadRequest, "Invalid base64 format")
		return
	}

	ext, contentType, ok := avatarExtension(parts[0])
	if !ok {
		logger.Debugf("Unsupported avatar type: %q", parts[0])
		c.String(http.StatusBadRequest, "Unsupported image type")
		return
	}

	data, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		c.String(http.StatusBadRequest, "Failed to decode base64: "+err.Error())
		return
	}

	h.store(c, models.KindAvatar, AvatarsDir, "", ext, contentType, data)
}

// UploadFile handles POST /upload_file_base64
func (h *UploadHandler) UploadFile(c *gin.Context) {
	var req wire.UploadFileRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if req.File == "" {
		c.String(http.StatusBadRequest, "No file data provided")
		return
	}
	if req.Name == "" {
		c.String(http.StatusBadRequest, "No file name provided")
		return
	}

	ext := ""
	if dot := strings.LastIndex(req.Name, "."); dot != -1 {
		ext = req.Name[dot:]
	}
	// The extension ends up in a path; anything that could leave the
	// directory is dropped.
	if strings.ContainsAny(ext, `/\`) {
		ext = ""
	}

	payload := req.File
	if parts := strings.Split(req.File, ","); len(parts) == 2 {
		payload = parts[1]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		c.String(http.StatusBadRequest, "Failed to decode base64: "+err.Error())
		return
	}

	h.store(c, models.KindFile, FilesDir, req.Name, ext, mime.TypeByExtension(ext), data)
}

// GetUpload handles GET /uploads/:id
func (h *UploadHandler) GetUpload(c *gin.Context) {
	u, err := h.queries.GetUpload(c.Request.Context(), c.Param("id"))
	if errors.Is(err, models.ErrNotFound) {
		c.String(http.StatusNotFound, "Upload not found")
		return
	}
	if err != nil {
		logger.Errorf("Failed to read upload %s: %v", c.Param("id"), err)
		c.String(http.StatusInternalServerError, "Failed to read upload")
		return
	}

	c.JSON(http.StatusOK, toRecord(u))
}

// ListUploads handles GET /uploads?kind=&limit=
func (h *UploadHandler) ListUploads(c *gin.Context) {
	kind := c.Query("kind")
	if kind != "" && kind != models.KindAvatar && kind != models.KindFile {
		c.String(http.StatusBadRequest, "Unknown upload kind")
		return
	}

	limit := DefaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.String(http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = min(n, MaxListLimit)
	}

	uploads, err := h.queries.ListUploads(c.Request.Context(), kind, limit)
	if err != nil {
		logger.Errorf("Failed to list uploads: %v", err)
		c.String(http.StatusInternalServerError, "Failed to list uploads")
		return
	}

	records := make([]wire.UploadRecord, 0, len(uploads))
	for _, u := range uploads {
		records = append(records, toRecord(u))
	}
	c.JSON(http.StatusOK, records)
}

func toRecord(u models.Upload) wire.UploadRecord {
	return wire.UploadRecord{
		ID:           u.ID,
		Kind:         u.Kind,
		OriginalName: u.OriginalName,
		StoredName:   u.StoredName,
		ContentType:  u.ContentType,
		Size:         u.Size,
		CreatedAt:    u.CreatedAt.UnixMilli(),
	}
}

func (h *UploadHandler) bindJSON(c *gin.Context, out any) bool {
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	}
	if err := c.ShouldBindJSON(out); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.String(http.StatusRequestEntityTooLarge, fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		c.String(http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return false
	}
	return true
}

// store writes data to <dataDir>/<subdir>/<id><ext>, records it in the ledger
// and replies with the retrieval URL.
func (h *UploadHandler) store(c *gin.Context, kind, subdir, originalName, ext, contentType string, data []byte) {
	dir := filepath.Join(h.dataDir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Errorf("Failed to create %s: %v", dir, err)
		c.String(http.StatusInternalServerError, "Failed to create "+subdir+" directory")
		return
	}

	id := h.newID()
	storedName := id + ext
	path := filepath.Join(dir, storedName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		logger.Errorf("Failed to write %s: %v", path, err)
		c.String(http.StatusInternalServerError, "Failed to save "+kind)
		return
	}

	if err := h.queries.CreateUpload(c.Request.Context(), models.CreateUploadParams{
		ID:           id,
		Kind:         kind,
		OriginalName: originalName,
		StoredName:   storedName,
		ContentType:  contentType,
		Size:         int64(len(data)),
		CreatedAt:    h.now(),
	}); err != nil {
		logger.Errorf("Failed to record upload %s: %v", id, err)
		_ = os.Remove(path)
		c.String(http.StatusInternalServerError, "Failed to save "+kind)
		return
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	url := fmt.Sprintf("%s://%s/%s/%s", scheme, c.Request.Host, subdir, storedName)
	logger.Infof("Stored %s %s (%d bytes)", kind, storedName, len(data))

	c.JSON(http.StatusOK, wire.UploadResponse{URL: url})
}
