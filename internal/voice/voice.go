// Package voice provides speech-to-text and text-to-speech clients.
package voice

import (
	"context"
)

// Transcriber converts raw audio bytes into a transcript. An empty
// transcript means no speech was detected; that decision belongs to the
// caller, not the client.
type Transcriber interface {
	// Transcribe transcribes the audio and returns the transcript text.
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Synthesizer converts reply text into synthesized audio bytes.
type Synthesizer interface {
	// Synthesize renders the text as spoken audio (MP3).
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
