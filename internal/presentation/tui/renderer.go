package tui

import (
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

const defaultWidth = 80

// Renderer turns Markdown into terminal output. When the destination is
// not a terminal the Markdown is passed through untouched so it can be
// piped or redirected.
type Renderer struct {
	out    io.Writer
	render func(string) (string, error)
}

// NewRenderer creates a renderer writing to out.
func NewRenderer(out io.Writer) *Renderer {
	r := &Renderer{out: out}

	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return r
	}

	width := defaultWidth
	if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
		width = w
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err == nil {
		r.render = tr.Render
	}
	return r
}

// Styled reports whether output goes through glamour.
func (r *Renderer) Styled() bool {
	return r.render != nil
}

// Print renders markdown to the output.
func (r *Renderer) Print(markdown string) error {
	if r.render != nil {
		styled, err := r.render(markdown)
		if err == nil {
			markdown = styled
		}
	}
	_, err := io.WriteString(r.out, markdown)
	return err
}
