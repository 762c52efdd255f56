package api

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/service"
)

// multipartOverhead is allowed on top of the file size limit for the
// multipart framing and headers.
const multipartOverhead = 1 << 20

// AttachmentHandler serves the single-attachment endpoints of a task.
type AttachmentHandler struct {
	attachments service.AttachmentService
	maxBytes    int64
	logger      *slog.Logger
}

// NewAttachmentHandler creates an AttachmentHandler accepting uploads up to maxBytes.
func NewAttachmentHandler(attachments service.AttachmentService, maxBytes int64, logger *slog.Logger) *AttachmentHandler {
	return &AttachmentHandler{
		attachments: attachments,
		maxBytes:    maxBytes,
		logger:      logger.With(slog.String("component", "attachment_handler")),
	}
}

// Upload handles POST /api/tasks/{id}/attachment with a multipart "file" field.
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	user, taskID, ok := handleUserAndPathID(w, r, log)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			HandleAPIError(w, r, service.ErrFileTooLarge, "")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "A file must be uploaded in the \"file\" field", err)
		return
	}
	defer file.Close()

	att, err := h.attachments.Upload(r.Context(), user, taskID, service.Upload{
		Filename: header.Filename,
		Content:  file,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to upload file")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, AttachmentUploadResponse{
		AttachmentResponse: *attachmentToResponse(att),
		Message:            "File uploaded successfully",
	})
}

// Download handles GET /api/tasks/{id}/attachment.
func (h *AttachmentHandler) Download(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	user, taskID, ok := handleUserAndPathID(w, r, log)
	if !ok {
		return
	}

	att, content, err := h.attachments.Open(r.Context(), user, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to read attachment")
		return
	}
	defer content.Close()

	w.Header().Set("Content-Type", att.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": att.OriginalFilename,
	}))
	http.ServeContent(w, r, att.OriginalFilename, att.UploadedAt, content)
}

// Delete handles DELETE /api/tasks/{id}/attachment.
func (h *AttachmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	user, taskID, ok := handleUserAndPathID(w, r, log)
	if !ok {
		return
	}

	if err := h.attachments.Delete(r.Context(), user, taskID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete attachment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
