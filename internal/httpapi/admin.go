package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/cms"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/repo"
	"go.uber.org/zap"
)

func (s *Server) adminCollection(w http.ResponseWriter, r *http.Request) (repo.Collection, bool) {
	col, err := s.content.Collection(chi.URLParam(r, "collection"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return col, true
}

// AdminList returns every record of a collection, active or not.
func (s *Server) AdminList(w http.ResponseWriter, r *http.Request) {
	col, ok := s.adminCollection(w, r)
	if !ok {
		return
	}
	items, n, err := col.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items, Total: n, Matched: n})
}

func (s *Server) AdminCreate(w http.ResponseWriter, r *http.Request) {
	col, ok := s.adminCollection(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, notice, err := col.Create(r.Context(), body)
	if err != nil {
		s.writeMutationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mutation{Data: rec, Notice: notice})
}

func (s *Server) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	col, ok := s.adminCollection(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, notice, err := col.Update(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		s.writeMutationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mutation{Data: rec, Notice: notice})
}

func (s *Server) AdminDelete(w http.ResponseWriter, r *http.Request) {
	col, ok := s.adminCollection(w, r)
	if !ok {
		return
	}
	notice, err := col.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeMutationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mutation{Notice: notice})
}

// writeMutationError is writeError plus the notice an editor shows.
func (s *Server) writeMutationError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.writeError(w, r, err)
		return
	}
	resp := struct {
		errorResponse
		Notice cms.Notice `json:"notice"`
	}{
		errorResponse: errorResponse{Error: err.Error()},
		Notice:        cms.NoticeFor(err),
	}
	var verr *cms.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	writeJSON(w, status, resp)
}

// Upload stores one image from the multipart field "file" under the
// optional form field "folder".
func (s *Server) Upload(w http.ResponseWriter, r *http.Request) {
	if s.uploader == nil {
		writeMessage(w, http.StatusServiceUnavailable, "upload not configured (missing S3)")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		writeMessage(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	url, err := s.uploader.Upload(r.Context(), r.FormValue("folder"), header.Filename, file, header.Header.Get("Content-Type"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("Asset uploaded", zap.String("url", url), zap.String("user_id", userID(r)))
	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}

func (s *Server) DeleteUpload(w http.ResponseWriter, r *http.Request) {
	if s.uploader == nil {
		writeMessage(w, http.StatusServiceUnavailable, "upload not configured (missing S3)")
		return
	}
	url := r.URL.Query().Get("url")
	if url == "" {
		writeMessage(w, http.StatusBadRequest, "url is required")
		return
	}
	if err := s.uploader.Delete(r.Context(), url); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) SaveTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	tmpl, notice, err := s.content.SaveTemplate(r.Context(), req.Name, req.Description)
	if err != nil {
		s.writeMutationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mutation{Data: tmpl, Notice: notice})
}

func (s *Server) ApplyTemplate(w http.ResponseWriter, r *http.Request) {
	notice, err := s.content.ApplyTemplate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeMutationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mutation{Notice: notice})
}

// GrantCoins credits coins to a user as an earn transaction.
func (s *Server) GrantCoins(w http.ResponseWriter, r *http.Request) {
	wallet, ok := s.coinWallet(w, r)
	if !ok {
		return
	}
	var req struct {
		UserID      string `json:"user_id"`
		Amount      int    `json:"amount"`
		Description string `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "user_id is required", Fields: map[string]string{"user_id": "is required"}})
		return
	}
	if req.Description == "" {
		req.Description = "Granted by admin"
	}
	res, err := wallet.Earn(r.Context(), req.UserID, req.Amount, req.Description)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("Coins granted",
		zap.String("user_id", req.UserID),
		zap.Int("amount", req.Amount),
		zap.String("admin", userID(r)),
	)
	writeJSON(w, http.StatusOK, res)
}

// SyncAll refreshes every local mirror from the database.
func (s *Server) SyncAll(w http.ResponseWriter, r *http.Request) {
	if err := s.content.SyncAll(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "synced"})
}
