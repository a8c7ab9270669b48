package handler

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"reviewhub/internal/service"

	"github.com/rs/zerolog"
)

//go:embed templates
var embedTemplates embed.FS

// loaderScript is the snippet customers paste on their site. It injects an
// iframe pointing back at the hosted widget page.
const loaderScript = `(function () {
  var s = document.currentScript;
  var f = document.createElement("iframe");
  f.src = %q;
  f.style.border = "0";
  f.style.width = "100%%";
  f.style.minHeight = "320px";
  f.loading = "lazy";
  f.title = "Customer reviews";
  s.parentNode.insertBefore(f, s);
})();
`

// EmbedHandler serves the public, unauthenticated widget surface.
type EmbedHandler struct {
	widgetSvc *service.WidgetService
	baseURL   string
	tmpl      *template.Template
	logger    zerolog.Logger
}

// NewEmbedHandler creates an EmbedHandler. baseURL is the externally
// reachable address of this API, used to build iframe URLs.
func NewEmbedHandler(widgetSvc *service.WidgetService, baseURL string, logger zerolog.Logger) *EmbedHandler {
	funcs := template.FuncMap{
		"stars": func(n int) string { return strings.Repeat("★", n) },
		"rating": func(f *float64) string {
			if f == nil {
				return ""
			}
			return fmt.Sprintf("%.1f", *f)
		},
	}
	tmpl := template.Must(template.New("widget.html.tmpl").Funcs(funcs).ParseFS(embedTemplates, "templates/widget.html.tmpl"))
	return &EmbedHandler{
		widgetSvc: widgetSvc,
		baseURL:   strings.TrimRight(baseURL, "/"),
		tmpl:      tmpl,
		logger:    logger,
	}
}

// RegisterRoutes registers the embed endpoints. All of them are public and
// allow any origin: the whole point is rendering on third-party sites.
func (h *EmbedHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /embed/{widgetKey}", http.HandlerFunc(h.widget))
	mux.Handle("GET /embed/{widgetKey}/reviews.json", http.HandlerFunc(h.reviews))
}

// widget serves the hosted widget page, or the loader script when the key
// carries a .js suffix. Route wildcards span whole path segments, so the
// suffix is peeled off here instead of in the pattern.
func (h *EmbedHandler) widget(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("widgetKey")
	if base, ok := strings.CutSuffix(key, ".js"); ok {
		h.loader(w, r, base)
		return
	}
	payload, err := h.widgetSvc.PublicPayload(r.Context(), key)
	if err != nil {
		h.writeEmbedError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	if err := h.tmpl.Execute(w, payload); err != nil {
		h.logger.Error().Err(err).Msg("widget template failed")
	}
}

func (h *EmbedHandler) loader(w http.ResponseWriter, r *http.Request, key string) {
	if key == "" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	fmt.Fprintf(w, loaderScript, h.baseURL+"/v1/embed/"+key)
}

func (h *EmbedHandler) reviews(w http.ResponseWriter, r *http.Request) {
	payload, err := h.widgetSvc.PublicPayload(r.Context(), r.PathValue("widgetKey"))
	if err != nil {
		h.writeEmbedError(w, err)
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, http.StatusOK, payload)
}

func (h *EmbedHandler) writeEmbedError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrNotFound) {
		http.Error(w, "widget not found", http.StatusNotFound)
		return
	}
	h.logger.Error().Err(err).Msg("widget payload failed")
	http.Error(w, "widget unavailable", http.StatusInternalServerError)
}
