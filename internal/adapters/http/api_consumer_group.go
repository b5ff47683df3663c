package httpserver

import (
	"net/http"

	"github.com/OliveiraNt/infralens/internal/application"
	"github.com/OliveiraNt/infralens/internal/utils"
	"github.com/go-chi/chi/v5"
)

func (s *Server) apiListConsumerGroups(w http.ResponseWriter, r *http.Request) {
	view, err := s.engine.UserView()
	if err != nil {
		s.writeReadError(w, r, err, "")
		return
	}
	utils.Logger.Debug("api list consumer groups", "count", len(view.Groups))
	s.writeSnapshot(w, view.Cluster.CapturedAt, view.Groups)
}

func (s *Server) apiGetConsumerGroup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "groupID")
	view, err := s.engine.UserView()
	if err != nil {
		s.writeReadError(w, r, err, "")
		return
	}
	for _, g := range view.Groups {
		if g.GroupID == id {
			s.writeSnapshot(w, view.Cluster.CapturedAt, g)
			return
		}
	}
	utils.Logger.Debug("api get consumer group failed", "group", id)
	s.writeReadError(w, r, application.ErrGroupNotFound, "errors.group_not_found")
}
