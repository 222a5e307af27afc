package receipt

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/zombor/receipt-processor/internal/points"
)

const (
	msgInvalidReceipt = "The receipt is invalid. Please verify input."
	msgNotFound       = "No receipt found for that ID."
	msgInternal       = "Internal server error"
)

// writeJSON encodes v as the response body
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeMessage writes a {"message": ...} error body
func writeMessage(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"message": message})
}

// writeLookupError maps a lookup failure to 404 or 500
func writeLookupError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, ErrNotFound) {
		writeMessage(w, http.StatusNotFound, msgNotFound)
		return
	}
	slog.Error("Error getting receipt", "id", id, "error", err)
	writeMessage(w, http.StatusInternalServerError, msgInternal)
}

// handleProcessReceipt scores a JSON receipt and returns its ID
func (s *Server) handleProcessReceipt(w http.ResponseWriter, r *http.Request) {
	var receipt points.Receipt
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&receipt); err != nil {
		slog.Warn("Error decoding receipt", "error", err)
		writeMessage(w, http.StatusBadRequest, msgInvalidReceipt)
		return
	}

	record, err := s.service.ProcessReceipt(r.Context(), receipt)
	if err != nil {
		if IsInvalid(err) {
			slog.Warn("Rejected receipt", "error", err)
			writeMessage(w, http.StatusBadRequest, msgInvalidReceipt)
			return
		}
		slog.Error("Error processing receipt", "error", err)
		writeMessage(w, http.StatusInternalServerError, msgInternal)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"id": record.ID})
}

// handleGetPoints returns the points awarded to a receipt
func (s *Server) handleGetPoints(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	pts, err := s.service.GetPoints(r.Context(), id)
	if err != nil {
		writeLookupError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"points": pts})
}

// handleGetReceipt returns a scored receipt with its per-rule breakdown
func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	record, err := s.service.GetReceipt(r.Context(), id)
	if err != nil {
		writeLookupError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// handleListReceipts returns all scored receipts
func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.ListReceipts(r.Context())
	if err != nil {
		slog.Error("Error listing receipts", "error", err)
		writeMessage(w, http.StatusInternalServerError, msgInternal)
		return
	}
	if records == nil {
		records = []*Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

// contentTypeFor guesses an upload's type from its extension
func contentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}

// handleScanReceipt scores an uploaded receipt image and returns its ID
func (s *Server) handleScanReceipt(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxUploadBody); err != nil {
		slog.Warn("Error parsing multipart form", "error", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeMessage(w, http.StatusRequestEntityTooLarge, "File is too large. Maximum size is 20MB.")
			return
		}
		writeMessage(w, http.StatusBadRequest, "Error parsing form")
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Warn("Error getting file from form", "error", err)
		writeMessage(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeMessage(w, http.StatusInternalServerError, "Error reading file. Please try again.")
		return
	}

	contentType := strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = contentTypeFor(header.Filename)
	}

	record, err := s.service.ScanReceipt(r.Context(), header.Filename, data, contentType)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"id": record.ID})
	case errors.Is(err, ErrScannerUnavailable):
		writeMessage(w, http.StatusServiceUnavailable, "Receipt scanning is not enabled.")
	case IsInvalid(err):
		slog.Warn("Rejected scanned receipt", "filename", header.Filename, "error", err)
		writeMessage(w, http.StatusBadRequest, msgInvalidReceipt)
	default:
		slog.Error("Error scanning receipt", "filename", header.Filename, "error", err)
		writeMessage(w, http.StatusBadGateway, "The receipt could not be read.")
	}
}

// handleGetReceiptImage returns the image a scanned receipt was read from
func (s *Server) handleGetReceiptImage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	data, contentType, err := s.service.GetReceiptImage(r.Context(), id)
	if err != nil {
		writeLookupError(w, id, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	if _, err := w.Write(data); err != nil {
		slog.Error("Error writing receipt image", "id", id, "error", err)
	}
}

// handleHealth reports that the server is up
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
