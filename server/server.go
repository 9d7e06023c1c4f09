package server

import (
	"context"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/fx"
	"net"
	"net/http"
	"silo_bridge/logic"
	"silo_bridge/shared"
	"strconv"
	"strings"
	"time"
)

const (
	headerTimeout  = 10 * time.Second
	idleTimeout    = 2 * time.Minute
	methodNotOkStr = "405 Method Not Allowed"
)

func NewHTTPServer(cfg *shared.Config, logger shared.ILogger, lc fx.Lifecycle, router *mux.Router) *http.Server {
	srv := &http.Server{
		Addr:              ":" + strconv.FormatUint(uint64(cfg.ServicePort), 10),
		Handler:           withoutTrailingSlash(router),
		ReadHeaderTimeout: headerTimeout,
		IdleTimeout:       idleTimeout,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// Listen synchronously so a taken port fails startup instead of the serve goroutine
			listener, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			logger.Printf("Bridge API listening at %v", srv.Addr)
			go func() {
				if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
					logger.Errorf("HTTP server stopped: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Printf("Draining HTTP connections")
			return srv.Shutdown(ctx)
		},
	})
	return srv
}

// withoutTrailingSlash lets /api/responses/ reach the same route as /api/responses.
func withoutTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(r.URL.Path) > 1 {
			r.URL.Path = strings.TrimRight(r.URL.Path, "/")
		}
		next.ServeHTTP(w, r)
	})
}

// NewMux mounts each handler group under its prefix, behind the group's own auth.
func NewMux(groups []IHandlerGroup, logger shared.ILogger) *mux.Router {
	router := mux.NewRouter()
	router.Use(requestLogMW(logger), recoverMW(logger))
	for _, group := range groups {
		sub := router.PathPrefix(group.Prefix()).Subrouter()
		sub.Use(noStoreMW, group.AuthMW())
		for _, def := range group.GroupDefs() {
			sub.HandleFunc(def.pattern, def.handler).Methods(http.MethodOptions, def.method)
		}
	}
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Infof("No route for %s %s", r.Method, r.URL.Path)
		writeErrorResponse(w, notFoundStr, http.StatusNotFound)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorResponse(w, methodNotOkStr, http.StatusMethodNotAllowed)
	})
	return router
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// requestLogMW tags every request with an id, reusing the caller's if it sent one.
func requestLogMW(logger shared.ILogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqId := r.Header.Get(logic.RequestIdHeader)
			if reqId == "" {
				reqId = uuid.NewString()
			}
			w.Header().Set(logic.RequestIdHeader, reqId)
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r)
			logger.Debugf("[%s] %s %s -> %d in %v", reqId, r.Method, r.URL.Path, rec.status, time.Since(start))
		})
	}
}

func recoverMW(logger shared.ILogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					logger.Errorf("Panic serving %s %s: %v", r.Method, r.URL.Path, p)
					writeErrorResponse(w, internalErrorStr, http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func noStoreMW(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
