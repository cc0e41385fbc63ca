package gateway

import (
	"bytes"
	"embed"
	htmltemplate "html/template"
	"net/http"
	"strings"
	texttemplate "text/template"
)

//go:embed templates
var templateFS embed.FS

var (
	pageTemplate = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/config.html"))

	scriptTemplates = texttemplate.Must(texttemplate.New("scripts").Funcs(texttemplate.FuncMap{
		"shquote":   shellQuote,
		"batescape": batchEscape,
	}).ParseFS(templateFS, "templates/"+ShellScript, "templates/"+BatchScript))
)

type templateData struct {
	Host    string
	Token   string
	BaseURL string
}

func (h *Handler) templateData(r *http.Request) templateData {
	return templateData{
		Host:    r.Host,
		Token:   h.opts.token,
		BaseURL: h.opts.scheme + "://" + r.Host,
	}
}

func (h *Handler) renderPage(r *http.Request) (*response, error) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, h.templateData(r)); err != nil {
		return nil, err
	}
	resp := textResponse(http.StatusOK, buf.Bytes())
	resp.header.Set("Content-Type", contentTypeHTML)
	return resp, nil
}

func (h *Handler) renderScript(r *http.Request, script string) (*response, error) {
	var buf bytes.Buffer
	if err := scriptTemplates.ExecuteTemplate(&buf, script, h.templateData(r)); err != nil {
		return nil, err
	}
	body := buf.Bytes()
	if script == BatchScript {
		body = bytes.ReplaceAll(body, []byte("\n"), []byte("\r\n"))
	}
	resp := textResponse(http.StatusOK, body)
	resp.header.Set("Content-Disposition", "attachment; filename="+script)
	return resp, nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func batchEscape(s string) string {
	return strings.ReplaceAll(s, "%", "%%")
}
