package httpserver

import (
	"net/http"

	"github.com/OliveiraNt/infralens/internal/application"
	"github.com/OliveiraNt/infralens/internal/utils"
	"github.com/go-chi/chi/v5"
)

func (s *Server) apiListTopics(w http.ResponseWriter, r *http.Request) {
	view, err := s.engine.UserView()
	if err != nil {
		s.writeReadError(w, r, err, "")
		return
	}
	utils.Logger.Debug("api list topics", "count", len(view.Topics))
	s.writeSnapshot(w, view.Cluster.CapturedAt, view.Topics)
}

func (s *Server) apiGetTopic(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "topicName")
	view, err := s.engine.UserView()
	if err != nil {
		s.writeReadError(w, r, err, "")
		return
	}
	for _, t := range view.Topics {
		if t.Name == name {
			s.writeSnapshot(w, view.Cluster.CapturedAt, t)
			return
		}
	}
	utils.Logger.Debug("api get topic failed", "topic", name)
	s.writeReadError(w, r, application.ErrTopicNotFound, "errors.topic_not_found")
}
