package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/zombor/receipt-extract/internal/pipeline"
	"github.com/zombor/receipt-extract/internal/receipt"
	"github.com/zombor/receipt-extract/internal/scanning"
)

// maxRequestSize leaves room for multipart framing and base64 overhead
// around a maximum-size image.
const maxRequestSize = receipt.MaxImageSize*4/3 + 1<<20

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, apikey, x-client-info")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeError writes a JSON error body with CORS headers set
func writeError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	writeJSON(w, code, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

type imageRequest struct {
	ImageData string `json:"imageData"`
}

type extractResponse struct {
	Invoice       receipt.ParsedInvoice `json:"invoice"`
	Tier          pipeline.Tier         `json:"tier"`
	RateLimited   bool                  `json:"rateLimited"`
	QuotaExceeded bool                  `json:"quotaExceeded"`
	Message       string                `json:"message,omitempty"`
}

// errRequest is a rejected upload with the status to answer with
type errRequest struct {
	msg  string
	code int
}

func (e *errRequest) Error() string { return e.msg }

// handleHealth reports liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleExtract validates the uploaded image and runs the pipeline. The
// pipeline itself never fails, so any well-formed upload answers 200.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)

	img, err := s.readImage(r)
	if err != nil {
		var reqErr *errRequest
		if errors.As(err, &reqErr) {
			s.logger.Warn("Rejecting upload", "error", err)
			writeError(w, reqErr.msg, reqErr.code)
			return
		}
		s.logger.Error("Error reading upload", "error", err)
		writeError(w, "Error reading image. Please try again.", http.StatusBadRequest)
		return
	}

	result := s.extractor.Extract(r.Context(), img)

	resp := extractResponse{
		Invoice:       result.Invoice,
		Tier:          result.Tier,
		RateLimited:   result.RateLimited,
		QuotaExceeded: result.QuotaExceeded,
	}
	switch {
	case !result.Invoice.HasFields():
		resp.Message = "No data could be extracted from this image"
	case result.RateLimited || result.QuotaExceeded:
		resp.Message = "Cloud extraction unavailable, used on-device recognition"
	}
	writeJSON(w, http.StatusOK, resp)
}

// readImage accepts a multipart "file" field, a JSON {"imageData"} body or a
// raw image body, and checks media type and size.
func (s *Server) readImage(r *http.Request) (receipt.Image, error) {
	contentType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var img receipt.Image
	switch {
	case contentType == "multipart/form-data":
		f, header, err := r.FormFile("file")
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) {
				return img, &errRequest{"No file was selected. Please choose a file to upload.", http.StatusBadRequest}
			}
			return img, tooLarge(err)
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return img, tooLarge(err)
		}
		img = receipt.Image{Data: data, MediaType: header.Header.Get("Content-Type")}
		if img.MediaType == "" || img.MediaType == "application/octet-stream" {
			img.MediaType = mediaTypeFromName(header.Filename)
		}

	case contentType == "application/json":
		var req imageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return img, tooLarge(err)
		}
		if req.ImageData == "" {
			return img, &errRequest{"No image data provided", http.StatusBadRequest}
		}
		parsed, err := receipt.ParseDataURI(req.ImageData)
		if err != nil {
			return img, &errRequest{err.Error(), http.StatusBadRequest}
		}
		img = parsed

	default:
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return img, tooLarge(err)
		}
		img = receipt.Image{Data: data, MediaType: contentType}
	}

	if len(img.Data) == 0 {
		return img, &errRequest{"Image is empty", http.StatusBadRequest}
	}
	if len(img.Data) > receipt.MaxImageSize {
		return img, &errRequest{"File is too large. Maximum size is 10MB.", http.StatusRequestEntityTooLarge}
	}
	if img.MediaType == "" {
		img.MediaType = http.DetectContentType(img.Data)
	}
	img.MediaType = receipt.NormalizeMediaType(img.MediaType)
	if !receipt.IsSupportedMediaType(img.MediaType) {
		return img, &errRequest{"Unsupported image type: " + img.MediaType, http.StatusUnsupportedMediaType}
	}
	return img, nil
}

// tooLarge turns a body limit failure into a 413, passing other errors on
func tooLarge(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return &errRequest{"File is too large. Maximum size is 10MB.", http.StatusRequestEntityTooLarge}
	}
	return err
}

func mediaTypeFromName(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return receipt.MediaTypeJPEG
	case ".png":
		return receipt.MediaTypePNG
	case ".webp":
		return receipt.MediaTypeWebP
	case ".heic":
		return receipt.MediaTypeHEIC
	case ".heif":
		return receipt.MediaTypeHEIF
	case ".pdf":
		return receipt.MediaTypePDF
	default:
		return ""
	}
}

// handleReceiptExtract serves the remote inference contract: a data URI in,
// ParsedInvoice JSON out, with 429/402 signalling backend limits.
func (s *Server) handleReceiptExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)

	var req imageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ImageData == "" {
		writeError(w, "No image data provided", http.StatusBadRequest)
		return
	}

	img, err := receipt.ParseDataURI(req.ImageData)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if s.backend == nil {
		s.logger.Error("Receipt extraction requested without a backend")
		writeError(w, "Inference backend not configured", http.StatusInternalServerError)
		return
	}

	invoice, err := s.backend.ScanReceipt(r.Context(), img)
	if err != nil {
		code := scanning.StatusCode(err)
		s.logger.Warn("Backend extraction failed", "status", code, "error", err)
		switch code {
		case http.StatusTooManyRequests:
			writeError(w, "Rate limit exceeded. Please try again later.", code)
		case http.StatusPaymentRequired:
			writeError(w, "Inference quota exceeded.", code)
		default:
			writeError(w, "Failed to extract receipt data", code)
		}
		return
	}

	writeJSON(w, http.StatusOK, invoice)
}
