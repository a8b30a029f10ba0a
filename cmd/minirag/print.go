package main

import (
	"fmt"
	"io"
	"strings"

	"minirag/internal/session"
)

// printView writes a plain-text rendering of v for one-shot commands.
func printView(w io.Writer, v session.View) {
	if v.Status != "" {
		fmt.Fprintln(w, v.Status)
	}
	if v.Error != "" {
		fmt.Fprintln(w, "Error: "+v.Error)
	}
	if v.Answer == nil {
		return
	}
	fmt.Fprintln(w, "Answer:")
	fmt.Fprintln(w, v.Answer.Text)
	if len(v.Answer.Citations) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Citations:")
		for _, c := range v.Answer.Citations {
			fmt.Fprintln(w, "  "+c)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Metrics:")
	cells := make([]string, 0, len(v.Answer.Metrics))
	for _, m := range v.Answer.Metrics {
		cells = append(cells, m.Label+": "+m.Value)
	}
	fmt.Fprintln(w, "  "+strings.Join(cells, "  "))
}
