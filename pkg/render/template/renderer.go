package template

import (
	"io"
)

// TemplateRenderer is the seam markup renderers depend on. Implementations
// resolve named templates from their configured source and execute them
// against arbitrary data.
type TemplateRenderer interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
}
