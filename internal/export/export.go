// Package export writes the live conversation as a plain-text transcript.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tekai/internal/chat"
)

const (
	FileExtension = ".txt"
	MimeType      = "text/plain"
)

var ErrEmpty = errors.New("export: nothing to export")

// Transcript renders one "SENDER: text" line per message with a blank line between turns.
func Transcript(msgs []chat.Message) string {
	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strings.ToUpper(string(m.Sender)))
		b.WriteString(": ")
		b.WriteString(m.Text)
	}
	if len(msgs) > 0 {
		b.WriteString("\n")
	}
	return b.String()
}

// FileName is the suggested name for a transcript exported at now.
func FileName(now time.Time) string {
	return "tekai-chat-" + now.Format("20060102-150405") + FileExtension
}

// ToFile writes the transcript into dir and returns the file path.
func ToFile(dir string, msgs []chat.Message, now time.Time) (string, error) {
	if len(msgs) == 0 {
		return "", ErrEmpty
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure export dir: %w", err)
	}
	path := filepath.Join(dir, FileName(now))
	if err := os.WriteFile(path, []byte(Transcript(msgs)), 0o644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	return path, nil
}
