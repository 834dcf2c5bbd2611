package narration

import (
	"context"
	"fmt"

	htgotts "github.com/hegedustibor/htgo-tts"
)

// Synthesizer converts text into an audio file. Implementations write the
// artifact into dir under the given base name and return the full path,
// including their native extension.
type Synthesizer interface {
	SynthesizeToFile(ctx context.Context, text, dir, name string) (string, error)
}

// TTSSynthesizer synthesizes speech through the htgo-tts engine, which
// produces mp3 artifacts.
type TTSSynthesizer struct {
	language string
}

// NewTTSSynthesizer creates a synthesizer for the given voice language
// code (e.g. "en").
func NewTTSSynthesizer(language string) *TTSSynthesizer {
	return &TTSSynthesizer{language: language}
}

// SynthesizeToFile renders text as speech into dir/name.mp3. The engine
// call itself is not cancellable, so cancellation is observed by
// abandoning the in-flight call; the caller treats that as a failed
// synthesis and never serves a partial artifact.
func (s *TTSSynthesizer) SynthesizeToFile(ctx context.Context, text, dir, name string) (string, error) {
	speech := htgotts.Speech{Folder: dir, Language: s.language}

	type result struct {
		path string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		path, err := speech.CreateSpeechFile(text, name)
		done <- result{path: path, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("speech synthesis aborted: %w", ctx.Err())
	case res := <-done:
		if res.err != nil {
			return "", fmt.Errorf("speech synthesis failed: %w", res.err)
		}
		return res.path, nil
	}
}
