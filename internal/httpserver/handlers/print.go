package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/printshare/internal/domain"
	"github.com/MrSnakeDoc/printshare/internal/httpserver/deps"
	"github.com/MrSnakeDoc/printshare/internal/httpserver/respond"
	"github.com/MrSnakeDoc/printshare/internal/logger"
)

// multipartMemory is how much of a multipart body is kept in memory before
// spilling to temp files.
const multipartMemory = 8 << 20

type printJSON struct {
	PrinterName string  `json:"printer_name"`
	DataBase64  *string `json:"data_base64"`
	Text        *string `json:"text"`
	FileName    string  `json:"file_name"`
}

// Print accepts multipart/form-data (file, printer_name, optional text) or
// JSON {printer_name, data_base64 | text}.
func Print(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodePrintRequest(r)
		if err != nil {
			logPrintFailure(d, r, req.PrinterName, err)
			respond.Error(w, err)
			return
		}

		res, err := d.Service.PrintJob(r.Context(), req)
		if err != nil {
			logPrintFailure(d, r, req.PrinterName, err)
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, res)
	}
}

// logPrintFailure records who asked and for which printer; the token itself
// is never logged.
func logPrintFailure(d deps.Deps, r *http.Request, printer string, err error) {
	d.Logger.Warn("print request failed",
		logger.String("kind", string(domain.KindOf(err))),
		logger.String("printer", printer),
		logger.String("origin", r.RemoteAddr),
		logger.Bool("token_present", r.Header.Get("Authorization") != ""),
		logger.String("request_id", middleware.GetReqID(r.Context())),
		logger.Error(err),
	)
}

func decodePrintRequest(r *http.Request) (domain.PrintJobRequest, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return domain.PrintJobRequest{}, domain.Errorf(domain.KindMalformedPayload, "missing or invalid Content-Type")
	}

	switch mediaType {
	case "multipart/form-data":
		return decodeMultipart(r)
	case "application/json":
		return decodeJSON(r)
	default:
		return domain.PrintJobRequest{}, domain.Errorf(domain.KindMalformedPayload, "unsupported Content-Type %q", mediaType)
	}
}

func decodeMultipart(r *http.Request) (domain.PrintJobRequest, error) {
	var req domain.PrintJobRequest
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return req, bodyError(err, "invalid multipart body")
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	req.PrinterName = strings.TrimSpace(r.FormValue("printer_name"))
	if texts, ok := r.MultipartForm.Value["text"]; ok && len(texts) > 0 {
		req.WithText(texts[0])
	}

	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return req, nil
	case err != nil:
		return req, bodyError(err, "invalid file part")
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return req, bodyError(err, "read file part")
	}
	req.WithData(data)
	req.FileName = header.Filename
	return req, nil
}

func decodeJSON(r *http.Request) (domain.PrintJobRequest, error) {
	var (
		body printJSON
		req  domain.PrintJobRequest
	)
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return req, bodyError(err, "invalid JSON body")
	}

	req.PrinterName = strings.TrimSpace(body.PrinterName)
	req.FileName = body.FileName
	if body.Text != nil {
		req.WithText(*body.Text)
	}
	if body.DataBase64 != nil {
		data, err := domain.DecodeBase64(*body.DataBase64)
		if err != nil {
			return req, err
		}
		req.WithData(data)
	}
	return req, nil
}

// bodyError keeps oversize failures recognizable as *http.MaxBytesError so
// they are answered with 413; everything else is a malformed payload.
func bodyError(err error, msg string) error {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return domain.Wrap(domain.KindMalformedPayload, tooBig, "request body too large")
	}
	if strings.Contains(err.Error(), "request body too large") {
		return domain.Wrap(domain.KindMalformedPayload, &http.MaxBytesError{}, "request body too large")
	}
	return domain.Wrap(domain.KindMalformedPayload, err, msg)
}
