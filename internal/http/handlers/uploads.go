package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/storage"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/store"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/utils"
	"github.com/clashroyalito29-netizen/MenuRestaurante/pkg/response"

	"go.uber.org/zap"
)

type fileReadErrorKind string

const (
	fileReadErrMissing     fileReadErrorKind = "missing"
	fileReadErrReadFailed  fileReadErrorKind = "read_failed"
	fileReadErrTooLarge    fileReadErrorKind = "too_large"
	fileReadErrInvalidType fileReadErrorKind = "invalid_type"
)

type fileReadError struct {
	Kind    fileReadErrorKind
	Message string
	Err     error
}

func readFileBytes(r *http.Request, field string, validateType bool, maxBytes int64) ([]byte, string, *fileReadError) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", &fileReadError{Kind: fileReadErrMissing, Message: "File is required", Err: err}
	}
	defer file.Close()

	if maxBytes <= 0 {
		maxBytes = 5 * 1024 * 1024
	}
	maxSizeMB := maxBytes / (1024 * 1024)
	if maxSizeMB <= 0 {
		maxSizeMB = 1
	}
	data, readErr := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if readErr != nil {
		return nil, "", &fileReadError{Kind: fileReadErrReadFailed, Message: "Failed to read file", Err: readErr}
	}
	if int64(len(data)) > maxBytes {
		return nil, "", &fileReadError{Kind: fileReadErrTooLarge, Message: fmt.Sprintf("File size must be less than %dMB.", maxSizeMB)}
	}

	ct := strings.TrimSpace(header.Header.Get("Content-Type"))
	if ct == "" || ct == "application/octet-stream" {
		ct = utils.DetectContentType(data)
	}
	ctLower := strings.ToLower(ct)
	if validateType && !utils.ValidateImageContentType(ctLower) {
		return nil, ctLower, &fileReadError{Kind: fileReadErrInvalidType, Message: "Invalid file type. Please upload an image file."}
	}
	return data, ctLower, nil
}

// AdminUploadMenuImage stores a full-size and a thumbnail JPEG for the item
// and points the item at the new full-size URL. The previous image is removed
// best effort.
func (h *Handler) AdminUploadMenuImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID, err := readPathInt64(r, "itemId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid menu item id")
		return
	}
	if h.Images == nil || h.MenuItems == nil {
		response.Error(w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Image storage is not configured")
		return
	}

	data, _, ferr := readFileBytes(r, "file", true, h.Config.MaxFileSizeBytes)
	if ferr != nil {
		switch ferr.Kind {
		case fileReadErrMissing:
			response.Error(w, http.StatusBadRequest, "FILE_REQUIRED", "File is required")
		case fileReadErrTooLarge, fileReadErrInvalidType:
			response.Error(w, http.StatusBadRequest, "INVALID_FILE", ferr.Message)
		default:
			response.Error(w, http.StatusInternalServerError, "UPLOAD_FAILED", "Failed to upload image")
		}
		return
	}

	item, err := h.MenuItems.GetMenuItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, store.ErrMenuItemNotFound) {
			response.Error(w, http.StatusNotFound, "MENU_ITEM_NOT_FOUND", "Menu item not found")
			return
		}
		h.writeError(w, r, err)
		return
	}

	img, err := utils.EncodeMenuImage(data)
	if err != nil {
		h.logger().Warn("menu image encode failed", zap.Int64("itemId", itemID), zap.Error(err))
		response.Error(w, http.StatusBadRequest, "INVALID_FILE", "Could not read the image. Please upload a JPEG, PNG, WebP or HEIC file.")
		return
	}
	warnings := make([]string, 0)
	if img.Width < 800 {
		warnings = append(warnings, fmt.Sprintf(
			"Image is quite small (%dpx wide). For best quality upload an image at least 800px wide.",
			img.Width,
		))
	}

	urls, err := h.Images.PutMenuImage(ctx, itemID, img.Full, img.Thumbnail, h.now())
	if err != nil {
		h.logger().Error("menu image upload failed", zap.Int64("itemId", itemID), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "UPLOAD_FAILED", "Failed to upload image")
		return
	}

	if err := h.MenuItems.UpdateMenuItemImage(ctx, itemID, urls.Full); err != nil {
		_ = h.Images.DeleteMenuImage(ctx, urls.Full)
		h.writeError(w, r, err)
		return
	}

	if item.ImageURL != nil && *item.ImageURL != "" && *item.ImageURL != urls.Full {
		if err := h.Images.DeleteMenuImage(ctx, *item.ImageURL); err != nil && !errors.Is(err, storage.ErrUnmanagedURL) {
			warnings = append(warnings, "Previous image could not be removed")
			h.logger().Warn("previous menu image delete failed", zap.String("url", *item.ImageURL), zap.Error(err))
		}
	}

	response.Success(w, MenuImageResponse{
		ItemID:       itemID,
		ImageURL:     urls.Full,
		ThumbnailURL: urls.Thumbnail,
		Width:        img.Width,
		Height:       img.Height,
		Warnings:     warnings,
	})
}
