package adapthttp

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"phrasebook/internal/app"
	"phrasebook/internal/domain"
)

// multipartMemory is how much of an upload is held in memory before
// spilling to temporary files.
const multipartMemory = 1 << 20

func (s *Server) handleImportForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "import", nil)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	if s.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.renderError(w, r, uploadError(err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	var csv io.Reader
	file, _, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		// Treated as an empty file.
	case err != nil:
		s.renderError(w, r, uploadError(err))
		return
	default:
		defer file.Close()
		csv = file
	}

	_, err = s.imports.Import(r.Context(), app.ImportRequest{
		OwnerID:    user.ID,
		Name:       r.PostFormValue("name"),
		TargetLang: r.PostFormValue("target_lang"),
		SourceLang: r.PostFormValue("source_lang"),
		CSV:        csv,
	})
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/mypage", http.StatusSeeOther)
}

func uploadError(err error) error {
	return domain.E(domain.KindUpload, fmt.Sprintf("Upload error: %v", err), err)
}
