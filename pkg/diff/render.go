package diff

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formdraft/pkg/render/template"
	"github.com/goliatone/go-formdraft/pkg/render/template/gotemplate"
)

//go:embed templates/*.tpl
var templateFS embed.FS

const htmlTemplate = "diff"

// Renderer turns a diff result into human-readable markup.
type Renderer interface {
	Render(ctx context.Context, result Result) (string, error)
}

// RendererFunc adapts a function into a Renderer.
type RendererFunc func(ctx context.Context, result Result) (string, error)

func (f RendererFunc) Render(ctx context.Context, result Result) (string, error) {
	return f(ctx, result)
}

type viewChange struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
	From string `json:"from"`
	To   string `json:"to"`
}

type htmlView struct {
	Changes    []viewChange `json:"changes"`
	EmptyLabel string       `json:"empty_label"`
}

func viewChanges(result Result) []viewChange {
	out := make([]viewChange, 0, result.Len())
	for _, c := range result.changes {
		out = append(out, viewChange{
			Path: c.PathString(),
			Kind: string(c.Kind),
			From: formatValue(c.From),
			To:   formatValue(c.To),
		})
	}
	return out
}

func formatValue(v any) string {
	if v == nil {
		return "null"
	}
	if s, ok := v.(string); ok {
		return s
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}

// HTMLRenderer renders a diff as an HTML fragment and sanitises the output.
type HTMLRenderer struct {
	engine        template.TemplateRenderer
	engineOptions []gotemplate.Option
	emptyLabel    string
}

// HTMLOption configures an HTMLRenderer.
type HTMLOption func(*HTMLRenderer)

// WithTemplateRenderer swaps the template engine. The engine must resolve a
// template named "diff".
func WithTemplateRenderer(engine template.TemplateRenderer) HTMLOption {
	return func(r *HTMLRenderer) {
		if engine != nil {
			r.engine = engine
		}
	}
}

// WithEngineOptions configures the default template engine, for example to
// register extra filters. It is ignored when WithTemplateRenderer is set.
func WithEngineOptions(options ...gotemplate.Option) HTMLOption {
	return func(r *HTMLRenderer) {
		r.engineOptions = append(r.engineOptions, options...)
	}
}

// WithEmptyLabel sets the text shown when there is nothing to report.
func WithEmptyLabel(label string) HTMLOption {
	return func(r *HTMLRenderer) {
		r.emptyLabel = label
	}
}

// NewHTMLRenderer builds a renderer using the embedded template.
func NewHTMLRenderer(options ...HTMLOption) (*HTMLRenderer, error) {
	r := &HTMLRenderer{emptyLabel: "No differences"}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	if r.engine == nil {
		files, err := fs.Sub(templateFS, "templates")
		if err != nil {
			return nil, fmt.Errorf("diff: template fs: %w", err)
		}
		options := append([]gotemplate.Option{
			gotemplate.WithFS(files),
			gotemplate.WithGoTemplateOptions(),
		}, r.engineOptions...)
		engine, err := gotemplate.New(options...)
		if err != nil {
			return nil, fmt.Errorf("diff: template engine: %w", err)
		}
		r.engine = engine
	}
	return r, nil
}

// Render executes the template and strips anything outside the diff markup
// allow-list.
func (r *HTMLRenderer) Render(ctx context.Context, result Result) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	out, err := r.engine.RenderTemplate(htmlTemplate, htmlView{
		Changes:    viewChanges(result),
		EmptyLabel: r.emptyLabel,
	})
	if err != nil {
		return "", fmt.Errorf("diff: render html: %w", err)
	}
	return strings.TrimSpace(markupSanitizer().Sanitize(out)), nil
}

var (
	markupPolicyOnce sync.Once
	markupPolicy     *bluemonday.Policy
)

func markupSanitizer() *bluemonday.Policy {
	markupPolicyOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		policy.AllowElements("div", "ul", "li", "span", "del", "ins", "p", "h3")
		policy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).
			OnElements("div", "ul", "li", "span", "del", "ins", "p", "h3")
		markupPolicy = policy
	})
	return markupPolicy
}

// TextRenderer renders a diff for a terminal, one change per line.
type TextRenderer struct {
	// Plain disables colour output.
	Plain bool

	added    lipgloss.Style
	removed  lipgloss.Style
	path     lipgloss.Style
	modified lipgloss.Style
}

// NewTextRenderer returns a coloured terminal renderer.
func NewTextRenderer() *TextRenderer {
	return &TextRenderer{
		added:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		removed:  lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		modified: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		path:     lipgloss.NewStyle().Bold(true),
	}
}

// Render writes "+", "-" or "~" prefixed lines for each change.
func (r *TextRenderer) Render(ctx context.Context, result Result) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if result.IsEmpty() {
		return "no differences", nil
	}

	var b strings.Builder
	for i, c := range viewChanges(result) {
		if i > 0 {
			b.WriteByte('\n')
		}
		switch Kind(c.Kind) {
		case KindAdded:
			b.WriteString(r.style(r.added, "+ "+r.style(r.path, c.Path)+": "+c.To))
		case KindRemoved:
			b.WriteString(r.style(r.removed, "- "+r.style(r.path, c.Path)+": "+c.From))
		default:
			b.WriteString(r.style(r.modified, "~ "+r.style(r.path, c.Path)+": "+c.From+" -> "+c.To))
		}
	}
	return b.String(), nil
}

func (r *TextRenderer) style(s lipgloss.Style, text string) string {
	if r.Plain {
		return text
	}
	return s.Render(text)
}
