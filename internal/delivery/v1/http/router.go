package http

import (
	"net/http"
	"time"

	_ "github.com/DRSN-tech/medical-ann/docs" // Импорт сгенерированных файлов
	"github.com/DRSN-tech/medical-ann/internal/cfg"
	"github.com/DRSN-tech/medical-ann/internal/usecase"
	"github.com/DRSN-tech/medical-ann/pkg/e"
	"github.com/DRSN-tech/medical-ann/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jimlawless/whereami"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router *chi.Mux
	cfg    *cfg.Config
	logger logger.Logger
}

func NewRouter(router *chi.Mux, cfg *cfg.Config, logger logger.Logger) *Router {
	return &Router{router: router, cfg: cfg, logger: logger}
}

func (r *Router) Init(uploadUC usecase.UploadUC) error {
	indexHandler, err := NewIndexHandler(r.cfg.Http.TemplatesDir, r.logger)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	uploadHandler := NewUploadHandler(uploadUC, r.cfg.Upload, r.logger)

	r.router.Use(middleware.RequestID)
	r.router.Use(middleware.Recoverer)
	r.router.Use(r.requestLogger)

	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(r.cfg.Http.SwaggerURL), // ссылка на JSON
	))
	r.router.Handle("/metrics", promhttp.Handler())
	r.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteText(w, http.StatusOK, "ok")
	})

	r.router.Get("/", indexHandler.renderIndex)
	r.router.Post("/upload", uploadHandler.handleUpload)
	registerStaticRoutes(r.router, r.cfg.Http.StaticDir)

	return nil
}

func registerStaticRoutes(router chi.Router, dir string) {
	fileServer := http.StripPrefix("/static/", http.FileServer(http.Dir(dir)))
	router.Get("/static/*", fileServer.ServeHTTP)
}

// requestLogger пишет одну строку на запрос через логгер приложения.
func (r *Router) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, req)

		r.logger.Debugf("%s %s %d %dB %v request_id=%s",
			req.Method, req.URL.Path, ww.Status(), ww.BytesWritten(), time.Since(start), middleware.GetReqID(req.Context()))
	})
}
