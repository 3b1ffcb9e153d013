// Package httpd exposes the synchronization engine over HTTP.
//
// The wire surface is four fixed paths:
//
//	GET  /file/content?protocol=R|RR|RRA
//	GET  /file/version
//	POST /sync/confirm
//	POST /sync/acknowledge
//
// Every request carries HTTP Basic credentials and every response is a
// JSON envelope. A failed operation answers 400, an unknown path 404,
// a wrong method 405; the envelope's success flag is authoritative.
package httpd

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/mfsync/mfsync/auth"
	"github.com/mfsync/mfsync/engine"
	"github.com/mfsync/mfsync/wire"
)

// Server routes HTTP requests to a dispatcher.
type Server struct {
	d *engine.Dispatcher
}

// New produces a Server over the given dispatcher.
func New(d *engine.Dispatcher) *Server {
	return &Server{d: d}
}

// Handler returns the http.Handler serving the synchronization API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/file/content", s.method(http.MethodGet, s.getDocument))
	mux.HandleFunc("/file/version", s.method(http.MethodGet, s.checkVersion))
	mux.HandleFunc("/sync/confirm", s.method(http.MethodPost, s.confirmSync))
	mux.HandleFunc("/sync/acknowledge", s.method(http.MethodPost, s.acknowledgeSync))
	mux.HandleFunc("/", s.notFound)
	return mux
}

func (s *Server) method(want string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != want {
			respond(w, http.StatusMethodNotAllowed, wire.Err(time.Now(), "method not allowed"))
			return
		}
		next(w, req)
	}
}

func (s *Server) notFound(w http.ResponseWriter, req *http.Request) {
	respond(w, http.StatusNotFound, wire.Err(time.Now(), "not found"))
}

func (s *Server) getDocument(w http.ResponseWriter, req *http.Request) {
	r := request(req)
	r.Protocol = req.URL.Query().Get("protocol")
	s.dispatch(w, req, engine.OpGetDocument, r)
}

func (s *Server) checkVersion(w http.ResponseWriter, req *http.Request) {
	s.dispatch(w, req, engine.OpCheckVersion, request(req))
}

func (s *Server) confirmSync(w http.ResponseWriter, req *http.Request) {
	r := request(req)
	r.SyncID = syncID(req)
	s.dispatch(w, req, engine.OpConfirmSync, r)
}

func (s *Server) acknowledgeSync(w http.ResponseWriter, req *http.Request) {
	r := request(req)
	r.SyncID = syncID(req)
	s.dispatch(w, req, engine.OpAcknowledgeSync, r)
}

func (s *Server) dispatch(w http.ResponseWriter, req *http.Request, op engine.Op, r engine.Request) {
	resp := s.d.Handle(req.Context(), op, r)
	status := http.StatusOK
	if !resp.Success {
		status = http.StatusBadRequest
	}
	respond(w, status, resp)
}

// request extracts the caller's credentials and origin.
func request(req *http.Request) engine.Request {
	username, password := auth.ParseBasic(req.Header.Get("Authorization"))
	return engine.Request{
		Username: username,
		Password: password,
		Origin:   origin(req),
	}
}

// origin is the first X-Forwarded-For hop when present,
// otherwise the peer address.
func origin(req *http.Request) string {
	if fwd := req.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
	}
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}

// syncID pulls the sync id out of a POST body.
// An undecodable body yields an empty id,
// which the dispatcher rejects as malformed.
func syncID(req *http.Request) string {
	var body wire.SyncIDRequest
	err := json.NewDecoder(req.Body).Decode(&body)
	if err != nil {
		return ""
	}
	return body.SyncID
}

func respond(w http.ResponseWriter, status int, resp wire.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(resp)
	if err != nil {
		log.Printf("encoding response: %s", err)
	}
}
