package handler

import (
	"context"
	"errors"
	"html/template"
	"log"
	"net/http"
	"strings"

	"github.com/newsflow/go-annotator-service/internal/resolver"
)

// 表单页提示文案
const (
	msgRequired    = "A link is required"
	msgInvalid     = "We are not sure this link is valid"
	msgConnect     = "Could not connect to the given site :("
	msgProcess     = "Could not process this page"
	msgBusy        = "Server is busy, please try again later"
	formFieldURL   = "target_url"
	pageTemplateID = "page"
)

var pageTemplate = template.Must(template.New(pageTemplateID).Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Page annotator</title>
</head>
<body>
  <form method="post" action="/">
    <input type="text" name="target_url" value="{{.TargetURL}}" placeholder="Paste your link">
    <button type="submit">Go</button>
    {{if .FieldError}}<div class="error">{{.FieldError}}</div>{{end}}
  </form>
  {{if .Message}}<div class="text-center">{{.Message}}</div>{{end}}
  {{if .Page}}<div class="page">{{.Page}}</div>{{end}}
</body>
</html>
`))

// pageData 表单页模板数据
type pageData struct {
	TargetURL  string
	FieldError string
	Message    string
	Page       template.HTML
}

// handlePage 表单页：GET 显示表单，POST 抓取并显示标注后的页面
func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.renderPage(w, http.StatusOK, pageData{})
	case http.MethodPost:
		h.submitPage(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) submitPage(w http.ResponseWriter, r *http.Request) {
	data := pageData{TargetURL: strings.TrimSpace(r.PostFormValue(formFieldURL))}

	if data.TargetURL == "" {
		data.FieldError = msgRequired
		h.renderPage(w, http.StatusOK, data)
		return
	}
	if !resolver.IsStrictURL(data.TargetURL) {
		data.FieldError = msgInvalid
		h.renderPage(w, http.StatusOK, data)
		return
	}

	select {
	case h.semaphore <- struct{}{}:
		defer func() { <-h.semaphore }()
	default:
		data.Message = msgBusy
		h.renderPage(w, http.StatusServiceUnavailable, data)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.config.RequestTimeout)
	defer cancel()

	resp, err := h.Annotate(ctx, AnnotateRequest{URL: data.TargetURL})
	switch {
	case err == nil:
		// 内容已经过净化，只含 a/strong/em 和文本
		data.Page = template.HTML(resp.Content)
	case errors.Is(err, ErrFetch):
		data.Message = msgConnect
	case errors.Is(err, ErrInvalidURL):
		data.FieldError = msgInvalid
	default:
		data.Message = msgProcess
	}

	h.renderPage(w, http.StatusOK, data)
}

func (h *Handler) renderPage(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, data); err != nil {
		log.Printf("[Handler] 渲染页面失败: %v", err)
	}
}
