package handlers

import (
	"net/http"
)

// maxUploadSize caps multipart parsing at 10MB.
const maxUploadSize = 10 << 20

// UploadFile accepts a multipart file and stores it in Cloudinary.
// The destination folder can be overridden with ?folder=.
func UploadFile(w http.ResponseWriter, r *http.Request) {
	if cloudinaryService == nil {
		writeError(w, http.StatusServiceUnavailable, "File uploads are not configured")
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse form")
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	folder := r.URL.Query().Get("folder")
	if folder == "" {
		folder = "nexify"
	}

	url, err := cloudinaryService.UploadFileFromHeader(r.Context(), fileHeader, folder)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Message: "File uploaded successfully",
		Data:    map[string]string{"url": url},
	})
}
