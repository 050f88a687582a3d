package stt

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/satriahrh/rapat/domain/repositories"
)

// GoogleSpeech implements Transcriber using Google Cloud Speech-to-Text
// synchronous recognition. Credentials come from the ambient Google Cloud
// environment (GOOGLE_APPLICATION_CREDENTIALS).
type GoogleSpeech struct {
	client     *speech.Client
	sampleRate int
	language   string
	logger     *zap.Logger
}

var _ repositories.Transcriber = (*GoogleSpeech)(nil)

// NewGoogleSpeech creates a Google Speech adapter. It fails only when the
// client cannot be constructed; missing credentials surface at call time.
func NewGoogleSpeech(ctx context.Context, sampleRate int, logger *zap.Logger) (*GoogleSpeech, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	return &GoogleSpeech{
		client:     client,
		sampleRate: sampleRate,
		language:   "en-US",
		logger:     logger,
	}, nil
}

// Configured reports whether a client was constructed.
func (g *GoogleSpeech) Configured() bool {
	return g.client != nil
}

// Transcribe performs a synchronous recognize call on a WAV clip and joins
// the alternative transcripts in result order.
func (g *GoogleSpeech) Transcribe(ctx context.Context, wav []byte) (string, error) {
	if !g.Configured() {
		return "", fmt.Errorf("speech client not configured")
	}

	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz: int32(g.sampleRate),
			LanguageCode:    g.language,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: wav},
		},
	})
	if err != nil {
		return "", fmt.Errorf("recognize failed: %w", err)
	}

	var parts []string
	for _, result := range resp.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		parts = append(parts, result.Alternatives[0].Transcript)
	}
	return strings.Join(parts, " "), nil
}

// Close releases the underlying gRPC connection.
func (g *GoogleSpeech) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}
