package api

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/opsboard/billing-dashboard/internal/httpserver/httputil"
	imagesvc "github.com/opsboard/billing-dashboard/internal/images"
)

func (h *handler) registerImageRoutes(group fiber.Router) {
	group.Get("/images", h.listImages)
	group.Post("/images", h.uploadImage)
	group.Get("/images/:imageID", h.getImage)
	group.Get("/images/:imageID/content", h.downloadImage)
	group.Delete("/images/:imageID", h.deleteImage)
}

func (h *handler) listImages(c *fiber.Ctx) error {
	if h.images == nil {
		return httputil.WriteError(c, fiber.StatusNotImplemented, "image service unavailable")
	}
	limit := parsePositiveQueryInt(c, "limit", 50, 200)
	var afterID *uuid.UUID
	if cursor := strings.TrimSpace(c.Query("after")); cursor != "" {
		parsed, err := uuid.Parse(cursor)
		if err != nil {
			return httputil.WriteError(c, fiber.StatusBadRequest, "invalid after cursor")
		}
		afterID = &parsed
	}

	result, err := h.images.List(c.Context(), imagesvc.ListOptions{
		Limit:   int32(limit),
		AfterID: afterID,
	})
	if err != nil {
		if errors.Is(err, imagesvc.ErrNotFound) {
			return httputil.WriteError(c, fiber.StatusBadRequest, "invalid after cursor")
		}
		return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
	}

	payload := fiber.Map{
		"images":   result.Images,
		"has_more": result.HasMore,
	}
	if result.HasMore && result.LastID != nil {
		payload["next_cursor"] = result.LastID.String()
	}
	return c.JSON(payload)
}

func (h *handler) uploadImage(c *fiber.Ctx) error {
	if h.images == nil {
		return httputil.WriteError(c, fiber.StatusNotImplemented, "image service unavailable")
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "multipart field 'file' is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "unable to read upload")
	}
	defer file.Close()

	var contentType *string
	if ct := strings.TrimSpace(fileHeader.Header.Get("Content-Type")); ct != "" {
		contentType = &ct
	}

	record, err := h.images.Upload(c.Context(), imagesvc.UploadParams{
		Filename:    fileHeader.Filename,
		ContentType: contentType,
		ContentLen:  fileHeader.Size,
		Reader:      file,
	})
	if err != nil {
		if errors.Is(err, imagesvc.ErrTooLarge) {
			return httputil.WriteError(c, fiber.StatusRequestEntityTooLarge, err.Error())
		}
		return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(record)
}

func (h *handler) getImage(c *fiber.Ctx) error {
	if h.images == nil {
		return httputil.WriteError(c, fiber.StatusNotImplemented, "image service unavailable")
	}
	id, err := uuid.Parse(strings.TrimSpace(c.Params("imageID")))
	if err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid image id")
	}
	record, err := h.images.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, imagesvc.ErrNotFound) {
			return httputil.WriteError(c, fiber.StatusNotFound, "image not found")
		}
		return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(record)
}

func (h *handler) downloadImage(c *fiber.Ctx) error {
	if h.images == nil {
		return httputil.WriteError(c, fiber.StatusNotImplemented, "image service unavailable")
	}
	id, err := uuid.Parse(strings.TrimSpace(c.Params("imageID")))
	if err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid image id")
	}
	reader, record, err := h.images.Open(c.Context(), id)
	if err != nil {
		if errors.Is(err, imagesvc.ErrNotFound) {
			return httputil.WriteError(c, fiber.StatusNotFound, "image not found")
		}
		return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
	}

	contentType := "application/octet-stream"
	if record.ContentType != nil && *record.ContentType != "" {
		contentType = *record.ContentType
	}
	c.Set(fiber.HeaderContentType, contentType)
	// Non-previewable formats are delivered as downloads; the viewer shows
	// an icon instead of an inline render for those.
	disposition := "inline"
	if !record.Previewable {
		disposition = "attachment"
	}
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("%s; filename=%q", disposition, record.Filename))
	return c.SendStream(reader)
}

func (h *handler) deleteImage(c *fiber.Ctx) error {
	if h.images == nil {
		return httputil.WriteError(c, fiber.StatusNotImplemented, "image service unavailable")
	}
	id, err := uuid.Parse(strings.TrimSpace(c.Params("imageID")))
	if err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid image id")
	}
	if err := h.images.Delete(c.Context(), id); err != nil {
		if errors.Is(err, imagesvc.ErrNotFound) {
			return httputil.WriteError(c, fiber.StatusNotFound, "image not found")
		}
		return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func parsePositiveQueryInt(c *fiber.Ctx, name string, fallback, max int) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}
