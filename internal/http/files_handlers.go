package httpx

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/driftbox/driftbox/internal/domain"
	"github.com/driftbox/driftbox/internal/service/files"
)

type uploadRequest struct {
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	ParentID json.RawMessage `json:"parentId"`
	IsPublic bool            `json:"isPublic"`
	Data     string          `json:"data"`
}

// parentIDField tolerates both string and numeric parentId values; clients of
// the original API send the root sentinel as the number 0.
func parentIDField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return strings.TrimSpace(string(raw))
}

// handleFiles dispatches the collection endpoint: upload on POST, paginated
// listing on GET. Auth is enforced by the wrapping middleware.
func (r *Router) handleFiles(w http.ResponseWriter, req *http.Request) {
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	switch req.Method {
	case http.MethodPost:
		r.handleUpload(w, req, info)
	case http.MethodGet:
		r.handleList(w, req, info)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleUpload(w http.ResponseWriter, req *http.Request, info authInfo) {
	var body uploadRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	file, err := r.files.Upload(req.Context(), info.UserID, files.UploadInput{
		Name:       body.Name,
		Type:       body.Type,
		ParentID:   parentIDField(body.ParentID),
		IsPublic:   body.IsPublic,
		DataBase64: body.Data,
	})
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, file)
}

func (r *Router) handleList(w http.ResponseWriter, req *http.Request, info authInfo) {
	query := req.URL.Query()
	page := 0
	if raw := query.Get("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			page = parsed
		}
	}
	list, err := r.files.List(req.Context(), info.UserID, query.Get("parentId"), page)
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	if list == nil {
		list = []domain.File{}
	}
	writeJSON(w, http.StatusOK, list)
}

// handleFileSubroutes dispatches /files/{id}, /files/{id}/publish,
// /files/{id}/unpublish and /files/{id}/data. The data endpoint is the only
// one reachable without a session, for public files.
func (r *Router) handleFileSubroutes(w http.ResponseWriter, req *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(req.URL.Path, "/files/"), "/")
	parts := strings.Split(rest, "/")
	if rest == "" || len(parts) > 2 {
		r.notFound(w)
		return
	}
	id := parts[0]

	if len(parts) == 2 && parts[1] == "data" {
		if req.Method != http.MethodGet {
			r.methodNotAllowed(w)
			return
		}
		r.handleFileData(w, req, id)
		return
	}

	ctx, info, ok := r.ensureAuth(w, req)
	if !ok {
		return
	}
	if setter, ok := w.(contextSetter); ok {
		setter.SetContext(ctx)
	}
	req = req.WithContext(ctx)

	switch {
	case len(parts) == 1:
		if req.Method != http.MethodGet {
			r.methodNotAllowed(w)
			return
		}
		file, err := r.files.Get(req.Context(), info.UserID, id)
		if err != nil {
			r.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, file)
	case parts[1] == "publish" || parts[1] == "unpublish":
		if req.Method != http.MethodPut {
			r.methodNotAllowed(w)
			return
		}
		file, err := r.files.SetPublic(req.Context(), info.UserID, id, parts[1] == "publish")
		if err != nil {
			r.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, file)
	default:
		r.notFound(w)
	}
}

func (r *Router) handleFileData(w http.ResponseWriter, req *http.Request, id string) {
	width := 0
	if raw := req.URL.Query().Get("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || !domain.ValidThumbnailWidth(parsed) {
			r.notFound(w)
			return
		}
		width = parsed
	}
	rc, file, err := r.files.Content(req.Context(), r.callerID(req), id, width)
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(file.Name))
	if contentType == "" {
		contentType = "text/plain; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		r.logger.Warn("content stream interrupted", "file_id", file.ID, "error", err)
	}
}
