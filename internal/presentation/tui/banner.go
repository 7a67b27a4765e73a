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
	{` _                      _ _                         _ `, "#34d399"},
	{`| |__  _ __ ___  __ _  __| | |__   ___   __ _ _ __ __| |`, "#2dd4bf"},
	{`| '_ \| '__/ _ \/ _' |/ _' | '_ \ / _ \ / _' | '__/ _' |`, "#22d3ee"},
	{`| |_) | | |  __/ (_| | (_| | |_) | (_) | (_| | | | (_| |`, "#38bdf8"},
	{`|_.__/|_|  \___|\__,_|\__,_|_.__/ \___/ \__,_|_|  \__,_|`, "#60a5fa"},
}

// PrintBanner writes the breadboard banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
