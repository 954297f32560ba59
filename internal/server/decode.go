package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"contratos/internal/workflow"
	"contratos/pkg/types"

	"github.com/go-playground/form/v4"
)

const dateLayout = "2006-01-02"

var decoder = form.NewDecoder()

func isJSON(r *http.Request) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mediaType == "application/json"
}

// decodeRequest fills dst from a JSON body or from url-encoded and multipart
// form fields. Multipart files stay on r.MultipartForm for formFile.
func (s *Service) decodeRequest(w http.ResponseWriter, r *http.Request, dst any) error {
	if isJSON(r) {
		body := http.MaxBytesReader(w, r.Body, 1<<20)
		if err := json.NewDecoder(body).Decode(dst); err != nil {
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
		return nil
	}

	if err := s.parseForm(w, r); err != nil {
		return err
	}

	if err := decoder.Decode(dst, r.Form); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func (s *Service) parseForm(w http.ResponseWriter, r *http.Request) error {
	limit := s.config.MaxUploadBytes
	if limit <= 0 {
		limit = 10 << 20
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, limit+(1<<20))
		if err := r.ParseMultipartForm(limit); err != nil {
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
		return nil
	}

	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// formFile returns the uploaded file of field, or nil when the request has
// none. The caller closes the returned func.
func formFile(r *http.Request, field string) (*workflow.Upload, func(), error) {
	if r.MultipartForm == nil {
		return nil, func() {}, nil
	}

	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, fmt.Errorf("%w: %v", errBadRequest, err)
	}

	up := &workflow.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}
	return up, func() { _ = file.Close() }, nil
}

// parseDate reads a YYYY-MM-DD value. An empty value yields nil.
func parseDate(verr *types.ValidationError, field, value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	t, err := time.Parse(dateLayout, value)
	if err != nil {
		verr.Add(field, "usa el formato AAAA-MM-DD")
		return nil
	}
	return &t
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func listQuery(r *http.Request) workflow.ListQuery {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))
	if pageSize > 100 {
		pageSize = 100
	}

	return workflow.ListQuery{
		Search:   strings.TrimSpace(q.Get("search")),
		Page:     page,
		PageSize: pageSize,
	}
}
