package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Synthesizer transforma texto em áudio mp3
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Nop é usado quando VOICE_ENABLED=false; o bot só pula o áudio
type Nop struct{}

func (Nop) Synthesize(context.Context, string) ([]byte, error) { return nil, nil }

const defaultBaseURL = "https://api.elevenlabs.io"

type ElevenLabs struct {
	BaseURL         string
	APIKey          string
	VoiceID         string
	Model           string
	Stability       float64
	SimilarityBoost float64
	HTTP            *http.Client
}

func NewElevenLabs(apiKey, voiceID, model string) *ElevenLabs {
	return &ElevenLabs{
		BaseURL:         defaultBaseURL,
		APIKey:          apiKey,
		VoiceID:         voiceID,
		Model:           model,
		Stability:       0.71,
		SimilarityBoost: 0.75,
		HTTP:            &http.Client{Timeout: 20 * time.Second},
	}
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

func (e *ElevenLabs) Synthesize(ctx context.Context, text string) ([]byte, error) {
	body, err := json.Marshal(ttsRequest{
		Text:    text,
		ModelID: e.Model,
		VoiceSettings: voiceSettings{
			Stability:       e.Stability,
			SimilarityBoost: e.SimilarityBoost,
		},
	})
	if err != nil {
		return nil, err
	}

	url := strings.TrimRight(e.BaseURL, "/") + "/v1/text-to-speech/" + e.VoiceID
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", e.APIKey)

	res, err := e.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("elevenlabs: http %d: %s", res.StatusCode, bytes.TrimSpace(msg))
	}
	return io.ReadAll(res.Body)
}

// BetConfirmation é o texto falado depois de uma aposta aceita
func BetConfirmation(team string, odds, amount decimal.Decimal) string {
	o := odds.Round(0).String()
	if odds.IsPositive() {
		o = "+" + o
	}
	return fmt.Sprintf("Congratulations! Your bet has been successfully placed. You have bet %s dollars on %s at odds of %s. Good luck!",
		amount.StringFixed(2), team, o)
}
