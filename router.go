package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

type app struct {
	cfg    Config
	topics *TopicsManager
}

func newApp(cfg Config) *app {
	return &app{cfg: cfg, topics: NewTopicsManager(cfg.HistorySize)}
}

func (a *app) routes() http.Handler {
	mux := http.NewServeMux()

	// WebSocket endpoint
	mux.HandleFunc("/ws", a.wsHandler)

	// REST endpoints
	mux.HandleFunc("/health", a.healthHandler)
	mux.HandleFunc("/stats", a.statsHandler)
	mux.HandleFunc("/topics", a.topicsCollectionHandler) // POST /topics, GET /topics
	mux.HandleFunc("/topics/", a.topicsItemHandler)      // DELETE /topics/{name}, GET .../history, POST .../messages

	// default
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	protected := a.requireAPIKey(mux)
	return loggingMiddleware(corsMiddleware(protected))
}

// publish assigns an id when missing, stores m and fans it out.
func (a *app) publish(topicName string, m Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	dropped, err := a.topics.Publish(topicName, m)
	if err != nil {
		return err
	}
	for _, s := range dropped {
		// backpressure overflow: disconnect slow consumer
		log.Printf("disconnecting slow consumer %s on topic %s", s.id, topicName)
		s.CloseWithError("SLOW_CONSUMER", "subscriber queue overflow")
	}
	return nil
}

func publishErrorCode(err error) string {
	if errors.Is(err, ErrTopicNotFound) {
		return "TOPIC_NOT_FOUND"
	}
	return "INTERNAL"
}

func (a *app) topicsCollectionHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "name is required")
			return
		}
		if err := a.topics.CreateTopic(req.Name); err != nil {
			if errors.Is(err, ErrTopicExists) {
				writeError(w, http.StatusConflict, "CONFLICT", "topic already exists")
				return
			}
			writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"status": "created", "topic": req.Name})
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"topics": a.topics.ListTopics()})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (a *app) topicsItemHandler(w http.ResponseWriter, r *http.Request) {
	// /topics/{name}[/history|/messages]
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/topics/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "topic name required")
		return
	}
	name := parts[0]
	sub := ""
	if len(parts) > 1 {
		sub = parts[1]
	}
	switch {
	case sub == "" && r.Method == http.MethodDelete:
		a.deleteTopic(w, name)
	case sub == "history" && r.Method == http.MethodGet:
		a.topicHistory(w, r, name)
	case sub == "messages" && r.Method == http.MethodPost:
		a.publishMessage(w, r, name)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (a *app) deleteTopic(w http.ResponseWriter, name string) {
	if err := a.topics.DeleteTopic(name); err != nil {
		if errors.Is(err, ErrTopicNotFound) {
			writeError(w, http.StatusNotFound, "TOPIC_NOT_FOUND", "topic not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted", "topic": name})
}

func (a *app) topicHistory(w http.ResponseWriter, r *http.Request, name string) {
	t, err := a.topics.GetTopic(name)
	if err != nil {
		writeError(w, http.StatusNotFound, "TOPIC_NOT_FOUND", "topic not found")
		return
	}
	var msgs []Message
	if v := r.URL.Query().Get("last_n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "last_n must be a non-negative integer")
			return
		}
		msgs = t.history.LastN(n)
	} else {
		msgs = t.history.All()
	}
	_, capacity := t.history.Stats()
	writeJSON(w, http.StatusOK, HistoryView{Topic: name, Capacity: capacity, Size: len(msgs), Messages: msgs})
}

func (a *app) publishMessage(w http.ResponseWriter, r *http.Request, name string) {
	var m Message
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid message body")
		return
	}
	if err := a.publish(name, m); err != nil {
		if errors.Is(err, ErrTopicNotFound) {
			writeError(w, http.StatusNotFound, "TOPIC_NOT_FOUND", "topic not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "published", "topic": name})
}

func (a *app) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.topics.Health())
}

func (a *app) statsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.topics.Stats())
}

func (a *app) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Allow unauthenticated health & root requests
		if r.URL.Path == "/health" || r.URL.Path == "/" {
			next.ServeHTTP(w, r)
			return
		}

		if a.cfg.APIKey != "" && r.Header.Get("X-API-Key") != a.cfg.APIKey {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
