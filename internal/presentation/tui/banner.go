package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{"                       _ _           ", "#34d399"},
	{"   ___  ___ _ __   __ _| (_) ___ _ __ ", "#2dd4bf"},
	{"  / _ \\/ __| '_ \\ / _` | | |/ _ \\ '__|", "#22d3ee"},
	{" |  __/\\__ \\ |_) | (_| | | |  __/ |   ", "#38bdf8"},
	{"  \\___||___/ .__/ \\__,_|_|_|\\___|_|   ", "#60a5fa"},
	{"           |_|                         ", "#818cf8"},
}

// PrintBanner writes the espalier banner, colored when the terminal supports it.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
