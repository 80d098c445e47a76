package command

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

type ResponseFormatter struct{}

func NewResponseFormatter() *ResponseFormatter {
	return &ResponseFormatter{}
}

func (f *ResponseFormatter) Title(title string) string {
	return fmt.Sprintf("**%s**\n", title)
}

func (f *ResponseFormatter) Error(err error) string {
	return fmt.Sprintf("**Command Error**: %s", err.Error())
}

func (f *ResponseFormatter) Label(label, value string) string {
	return fmt.Sprintf("%s: %s\n", label, value)
}

func (f *ResponseFormatter) Usage(usage string) string {
	return fmt.Sprintf("**Usage**: `%s`\n", usage)
}

func (f *ResponseFormatter) Section(title, content string) string {
	return fmt.Sprintf("**%s**\n%s", title, content)
}

func (f *ResponseFormatter) Combine(sections ...string) string {
	return strings.TrimRight(strings.Join(sections, "\n"), "\n")
}

// Clip shortens s to max characters, marking the cut with "...".
func (f *ResponseFormatter) Clip(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "..."
}
