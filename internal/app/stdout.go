package app

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// StdoutSender prints the message instead of delivering it.
type StdoutSender struct {
	w io.Writer
}

func NewStdoutSender(w io.Writer) *StdoutSender {
	return &StdoutSender{w: w}
}

func (s *StdoutSender) Send(_ context.Context, text string) error {
	rule := strings.Repeat("=", 60)
	_, err := fmt.Fprintf(s.w, "%s\n%s\n%s\n", rule, text, rule)
	return err
}
