package adapthttp

import (
	"net/http"
	"strconv"

	"phrasebook/internal/app"
	"phrasebook/internal/domain"

	"github.com/gorilla/mux"
)

type myPageData struct {
	Username string
	Lists    []app.ListSummary
}

func (s *Server) handleMyPage(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	lists, err := s.lists.MyLists(r.Context(), user.ID)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "mypage", myPageData{Username: user.Username, Lists: lists})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	// The route only matches digits; an id that overflows int64 cannot
	// name a list.
	listID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		s.renderError(w, r, domain.Unauthorized())
		return
	}

	view, err := s.lists.GetList(r.Context(), user.ID, listID, r.URL.Query().Get("display_mode"))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "list", view)
}
