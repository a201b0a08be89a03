package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// CommandRecognizer runs an external transcriber (a whisper wrapper, for
// instance) that records one utterance and prints the text on stdout.
type CommandRecognizer struct {
	argv     []string
	language string
}

func NewCommandRecognizer(command, language string) *CommandRecognizer {
	return &CommandRecognizer{argv: strings.Fields(command), language: language}
}

func (r *CommandRecognizer) Listen(ctx context.Context) (string, error) {
	if len(r.argv) == 0 {
		return "", errors.New("no recognizer command configured")
	}
	cmd := exec.CommandContext(ctx, r.argv[0], r.argv[1:]...)
	cmd.Env = append(os.Environ(), "SPEECH_LANGUAGE="+r.language)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%s: %w: %s", r.argv[0], err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// CommandSynthesizer runs an external TTS program (espeak, say, piper wrapper)
// with the text as its last argument.
type CommandSynthesizer struct {
	argv     []string
	language string
}

func NewCommandSynthesizer(command, language string) *CommandSynthesizer {
	return &CommandSynthesizer{argv: strings.Fields(command), language: language}
}

func (s *CommandSynthesizer) Speak(ctx context.Context, text string) error {
	if len(s.argv) == 0 {
		return errors.New("no synthesizer command configured")
	}
	args := append(append([]string(nil), s.argv[1:]...), text)
	cmd := exec.CommandContext(ctx, s.argv[0], args...)
	cmd.Env = append(os.Environ(), "SPEECH_LANGUAGE="+s.language)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: %w: %s", s.argv[0], err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
