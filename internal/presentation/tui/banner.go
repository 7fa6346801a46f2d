package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the chat banner, colored when the terminal supports it.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{"   ___                _                    ", "#34d399"},
		{"  / __|___ _ _  __ __(_)___ _ _ __ _ ___   ", "#2dd4bf"},
		{" | (__/ _ \\ ' \\/ _/ _| / -_) '_/ _` / -_)  ", "#22d3ee"},
		{"  \\___\\___/_||_\\__\\__|_\\___|_| \\__, \\___|  ", "#38bdf8"},
		{"                                |___/      ", "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// Hint writes a dimmed helper line.
func Hint(w io.Writer, msg string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w, out.String(msg).Faint())
}
