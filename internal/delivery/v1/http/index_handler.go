package http

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"path/filepath"

	"github.com/DRSN-tech/medical-ann/pkg/e"
	"github.com/DRSN-tech/medical-ann/pkg/logger"
	"github.com/jimlawless/whereami"
)

const indexTemplate = "index.html.tmpl"

//go:embed web/index.html.tmpl
var webFS embed.FS

type IndexHandler struct {
	tmpl   *template.Template
	logger logger.Logger
}

// NewIndexHandler загружает шаблон index.html.tmpl из templatesDir или встроенный, если каталог не задан.
func NewIndexHandler(templatesDir string, logger logger.Logger) (*IndexHandler, error) {
	var (
		tmpl *template.Template
		err  error
	)
	if templatesDir == "" {
		tmpl, err = template.ParseFS(webFS, "web/"+indexTemplate)
	} else {
		tmpl, err = template.ParseFiles(filepath.Join(templatesDir, indexTemplate))
	}
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &IndexHandler{tmpl: tmpl, logger: logger}, nil
}

// renderIndex
//
//	@Summary	Главная страница
//	@Tags		pages
//	@Produce	html
//	@Success	200	{string}	string	"HTML"
//	@Router		/ [get]
func (h *IndexHandler) renderIndex(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, indexTemplate, map[string]string{}); err != nil {
		h.logger.Errorf(err, "failed to render index")
		WriteText(w, http.StatusInternalServerError, e.ErrInternalServerError.Error())
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
