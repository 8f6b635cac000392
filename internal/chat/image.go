package chat

// image.go calls the Gemini image model over REST. The request asks for
// both TEXT and IMAGE response modalities and returns the first image part.

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/photo-to-profit/internal/assets"
	"github.com/fpang/photo-to-profit/internal/imaging"
	"github.com/fpang/photo-to-profit/internal/metrics"
)

// DefaultBaseURL is the Gemini REST API base URL.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// ImageEditor edits product photos with the Gemini image model.
type ImageEditor struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Sink
}

// NewImageEditor creates an editor. Empty model and baseURL fall back to
// the defaults.
func NewImageEditor(apiKey, model, baseURL string, sink *metrics.Sink) *ImageEditor {
	if model == "" {
		model = DefaultImageModel
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	// No client timeout: image generation runs as long as ctx allows.
	return &ImageEditor{
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{},
		metrics:    sink,
	}
}

// --- REST API request/response types ---

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *geminiBlobData `json:"inlineData,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type geminiBlobData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"` // base64 encoded
}

type geminiResponse struct {
	Candidates     []geminiCandidate     `json:"candidates"`
	PromptFeedback *geminiPromptFeedback `json:"promptFeedback,omitempty"`
	Error          *geminiError          `json:"error,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiPromptFeedback struct {
	BlockReason        string `json:"blockReason,omitempty"`
	BlockReasonMessage string `json:"blockReasonMessage,omitempty"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// RemoveBackground cuts the subject out onto a neutral light grey
// background.
func (e *ImageEditor) RemoveBackground(ctx context.Context, img imaging.Image) (imaging.Image, error) {
	return e.edit(ctx, img, assets.StagingPrompt, "image staging")
}

// ReplaceBackground composites the subject into the described scene.
func (e *ImageEditor) ReplaceBackground(ctx context.Context, img imaging.Image, scene string) (imaging.Image, error) {
	return e.edit(ctx, img, assets.RenderBackgroundPrompt(scene), "background replacement")
}

func (e *ImageEditor) edit(ctx context.Context, img imaging.Image, instruction, purpose string) (out imaging.Image, err error) {
	startTime := time.Now()
	defer func() {
		rec := e.metrics.New().
			Dimension("Operation", "image_edit").
			Duration("LatencyMs", time.Since(startTime)).
			Count("Calls").
			Property("model", e.model).
			Property("purpose", purpose)
		if err != nil {
			rec.Count("Failures")
		}
		rec.Flush()
	}()

	log.Info().
		Str("model", e.model).
		Str("purpose", purpose).
		Int("image_bytes", img.Size()).
		Str("image_mime", img.MIMEType()).
		Msg("Sending image to Gemini for editing")

	req := geminiRequest{
		GenerationConfig: &geminiGenerationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		},
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{
					InlineData: &geminiBlobData{
						MIMEType: img.MIMEType(),
						Data:     base64.StdEncoding.EncodeToString(img.Bytes()),
					},
				},
				{Text: instruction},
			},
		}},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return imaging.Image{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	// The key travels in a header so transport errors, which quote the URL,
	// never carry it.
	url := fmt.Sprintf("%s/models/%s:generateContent", e.baseURL, e.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return imaging.Image{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", e.apiKey)

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return imaging.Image{}, classifyError(fmt.Errorf("HTTP request failed: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return imaging.Image{}, classifyError(fmt.Errorf("failed to read response: %w", err))
	}

	var geminiResp geminiResponse
	parseErr := json.Unmarshal(respBody, &geminiResp)

	if resp.StatusCode != http.StatusOK {
		backendMsg := truncateString(string(respBody), 200)
		if parseErr == nil && geminiResp.Error != nil {
			backendMsg = geminiResp.Error.Message
		}
		log.Error().
			Int("status", resp.StatusCode).
			Str("body", truncateString(string(respBody), 500)).
			Msg("Gemini image editing API returned error")
		return imaging.Image{}, classifyStatus(resp.StatusCode, backendMsg, fmt.Errorf("API returned status %d", resp.StatusCode))
	}
	if parseErr != nil {
		return imaging.Image{}, &RemoteError{Kind: KindUnknown, Message: "Failed to parse image response", Err: parseErr}
	}

	out, err = extractImage(&geminiResp, purpose)
	if err != nil {
		log.Error().Err(err).Str("purpose", purpose).Msg("Gemini image response unusable")
		return imaging.Image{}, err
	}

	log.Info().
		Int("output_bytes", out.Size()).
		Str("output_mime", out.MIMEType()).
		Dur("duration", time.Since(startTime)).
		Msg("Gemini image editing complete")
	return out, nil
}

// extractImage pulls the first inline image from a response. Blocked
// prompts, abnormal finish reasons, and text-only answers are failures.
func extractImage(resp *geminiResponse, purpose string) (imaging.Image, error) {
	if resp.Error != nil {
		return imaging.Image{}, &RemoteError{
			Kind:    KindUnknown,
			Message: withBackend("Gemini API error", resp.Error.Message),
		}
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return imaging.Image{}, &RemoteError{
			Kind:    KindBlocked,
			Message: strings.TrimSpace(fmt.Sprintf("Request was blocked. Reason: %s. %s", fb.BlockReason, fb.BlockReasonMessage)),
		}
	}

	var text strings.Builder
	var finishReason string
	for i, candidate := range resp.Candidates {
		if i == 0 {
			finishReason = candidate.FinishReason
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && part.InlineData.Data != "" {
				decoded, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
				if err != nil {
					return imaging.Image{}, &RemoteError{Kind: KindNoImage, Message: "Failed to decode image data", Err: err}
				}
				mimeType := part.InlineData.MIMEType
				if mimeType == "" {
					mimeType = "image/png"
				}
				return imaging.New(decoded, mimeType), nil
			}
			text.WriteString(part.Text)
		}
	}

	if finishReason != "" && finishReason != "STOP" {
		return imaging.Image{}, &RemoteError{
			Kind:    KindBlocked,
			Message: fmt.Sprintf("Image generation for %s stopped unexpectedly. Reason: %s. This often relates to safety settings.", purpose, finishReason),
		}
	}

	msg := fmt.Sprintf("The AI model did not return an image for the %s.", purpose)
	if feedback := strings.TrimSpace(text.String()); feedback != "" {
		msg += fmt.Sprintf(" The model responded with text: %q", truncateString(feedback, 300))
	} else {
		msg += " This can happen due to safety filters or if the request is too complex. Try rephrasing the prompt to be more direct."
	}
	return imaging.Image{}, &RemoteError{Kind: KindNoImage, Message: msg}
}

// truncateString truncates a string to maxLen, appending "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
