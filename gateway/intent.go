package gateway

import (
	"net/http"
	"strings"
)

// Kind is what a request asks the handler to do.
type Kind int

const (
	ReadEntry Kind = iota
	WriteFromText
	WriteFromBase64
	WriteFromForm
	RenderPage
	RenderScript
)

func (k Kind) String() string {
	switch k {
	case ReadEntry:
		return "read"
	case WriteFromText:
		return "write-text"
	case WriteFromBase64:
		return "write-b64"
	case WriteFromForm:
		return "write-form"
	case RenderPage:
		return "page"
	case RenderScript:
		return "script"
	}
	return "unknown"
}

// IsWrite tells whether the intent stores an entry.
func (k Kind) IsWrite() bool {
	return k == WriteFromText || k == WriteFromBase64 || k == WriteFromForm
}

// Script names, as served under /config/.
const (
	BatchScript = "update.bat"
	ShellScript = "update.sh"
)

// Intent is the classification of a request.
type Intent struct {
	Kind Kind

	// Entry name, for reads and writes.
	Name string

	// Script file name, for RenderScript.
	Script string
}

// Classify inspects the path, the query and the content type of r. It does
// not read the body.
func Classify(r *http.Request) Intent {
	switch r.URL.Path {
	case "/", "/config":
		return Intent{Kind: RenderPage}
	case "/config/" + BatchScript:
		return Intent{Kind: RenderScript, Script: BatchScript}
	case "/config/" + ShellScript:
		return Intent{Kind: RenderScript, Script: ShellScript}
	}
	intent := Intent{Name: EntryName(r.URL.Path)}
	query := r.URL.Query()
	switch {
	case strings.Contains(r.Header.Get("Content-Type"), "form"):
		intent.Kind = WriteFromForm
	case query.Has("text"):
		intent.Kind = WriteFromText
	case query.Has("b64"):
		intent.Kind = WriteFromBase64
	default:
		intent.Kind = ReadEntry
	}
	return intent
}

// EntryName maps a request path to the name of the entry it addresses.
func EntryName(path string) string {
	return strings.ToLower(strings.TrimPrefix(path, "/"))
}
