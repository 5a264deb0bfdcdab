package handlers

import (
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/ternarybob/arbor"

	"alfredoptarigan/resume-ingestor/internal/models"
	"alfredoptarigan/resume-ingestor/internal/services"
)

const pdfContentType = "application/pdf"

type UploadHandler struct {
	pipeline    services.IngestionPipeline
	maxFileSize int64
	logger      arbor.ILogger
}

func NewUploadHandler(
	pipeline services.IngestionPipeline,
	maxFileSize int64,
	logger arbor.ILogger,
) *UploadHandler {
	return &UploadHandler{
		pipeline:    pipeline,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// HandleUpload ingests one resume sent as multipart field "file".
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil || file == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file uploaded",
		})
	}

	if ct := file.Header.Get(fiber.HeaderContentType); ct != pdfContentType {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Only PDF files are allowed",
		})
	}

	if file.Size > h.maxFileSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("File too large. Max size: %d bytes", h.maxFileSize),
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to read uploaded file",
		})
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to read uploaded file",
		})
	}

	result, err := h.pipeline.Submit(c.UserContext(), services.Document{
		Bytes:     data,
		MediaType: pdfContentType,
		Filename:  file.Filename,
	})
	if err != nil {
		h.logger.Error().Str("file", file.Filename).Err(err).Msg("Upload failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process resume",
		})
	}

	message := "File uploaded and parsed successfully"
	if !result.Uploaded {
		message = "File already exists"
	}

	return c.Status(fiber.StatusOK).JSON(models.UploadResponse{
		Message:     message,
		Uploaded:    result.Uploaded,
		FileName:    result.RawKey,
		Bucket:      result.Bucket,
		TxtFileName: result.ParsedKey,
	})
}
