package chat

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fpang/photo-to-profit/internal/imaging"
	"github.com/fpang/photo-to-profit/internal/metrics"
)

var inputImage = imaging.New([]byte("input-bytes"), "image/jpeg")

func newTestEditor(t *testing.T, handler http.HandlerFunc) (*ImageEditor, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	var emf bytes.Buffer
	return NewImageEditor("test-key", "test-image-model", srv.URL, metrics.NewSink(&emf, "Test", "")), &emf
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestReplaceBackgroundSendsImageAndPrompt(t *testing.T) {
	output := []byte("edited-png")
	editor, emf := newTestEditor(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/test-image-model:generateContent" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if r.URL.RawQuery != "" {
			t.Errorf("query = %q, want none", r.URL.RawQuery)
		}
		body, _ := io.ReadAll(r.Body)
		var req geminiRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		parts := req.Contents[0].Parts
		if parts[0].InlineData == nil || parts[0].InlineData.MIMEType != "image/jpeg" {
			t.Errorf("first part is not the input image: %+v", parts[0])
		}
		if !strings.Contains(parts[1].Text, `"a marble countertop"`) {
			t.Errorf("prompt missing scene: %q", parts[1].Text)
		}
		if got := req.GenerationConfig.ResponseModalities; len(got) != 2 || got[1] != "IMAGE" {
			t.Errorf("response modalities = %v", got)
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"candidates": []any{map[string]any{
				"finishReason": "STOP",
				"content": map[string]any{"parts": []any{
					map[string]any{"text": "Here you go"},
					map[string]any{"inlineData": map[string]any{
						"mimeType": "image/png",
						"data":     base64.StdEncoding.EncodeToString(output),
					}},
				}},
			}},
		})
	})

	got, err := editor.ReplaceBackground(context.Background(), inputImage, "a marble countertop")
	if err != nil {
		t.Fatalf("ReplaceBackground: %v", err)
	}
	if !got.Equal(imaging.New(output, "image/png")) {
		t.Errorf("unexpected output image %q (%s)", got.Bytes(), got.MIMEType())
	}
	if !strings.Contains(emf.String(), `"Operation":"image_edit"`) {
		t.Errorf("no EMF document recorded: %s", emf.String())
	}
}

func TestRemoveBackgroundUsesStagingPrompt(t *testing.T) {
	editor, _ := newTestEditor(t, func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if !strings.Contains(req.Contents[0].Parts[1].Text, "light grey") {
			t.Errorf("staging prompt not sent: %q", req.Contents[0].Parts[1].Text)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"candidates": []any{map[string]any{"content": map[string]any{"parts": []any{
				map[string]any{"inlineData": map[string]any{"mimeType": "image/png", "data": base64.StdEncoding.EncodeToString([]byte("x"))}},
			}}}},
		})
	})
	if _, err := editor.RemoveBackground(context.Background(), inputImage); err != nil {
		t.Fatalf("RemoveBackground: %v", err)
	}
}

func TestImageEditFailures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     any
		wantKind FailureKind
		wantMsg  string
	}{
		{
			name:     "blocked prompt",
			status:   http.StatusOK,
			body:     map[string]any{"promptFeedback": map[string]any{"blockReason": "SAFETY"}},
			wantKind: KindBlocked,
			wantMsg:  "Reason: SAFETY",
		},
		{
			name:   "abnormal finish",
			status: http.StatusOK,
			body: map[string]any{"candidates": []any{map[string]any{
				"finishReason": "IMAGE_SAFETY",
				"content":      map[string]any{"parts": []any{}},
			}}},
			wantKind: KindBlocked,
			wantMsg:  "IMAGE_SAFETY",
		},
		{
			name:   "text only",
			status: http.StatusOK,
			body: map[string]any{"candidates": []any{map[string]any{
				"finishReason": "STOP",
				"content":      map[string]any{"parts": []any{map[string]any{"text": "I cannot edit this"}}},
			}}},
			wantKind: KindNoImage,
			wantMsg:  "I cannot edit this",
		},
		{
			name:     "quota",
			status:   http.StatusTooManyRequests,
			body:     map[string]any{"error": map[string]any{"code": 429, "message": "Resource has been exhausted"}},
			wantKind: KindQuotaExceeded,
		},
		{
			name:     "server error carries backend message",
			status:   http.StatusServiceUnavailable,
			body:     map[string]any{"error": map[string]any{"code": 503, "message": "model overloaded"}},
			wantKind: KindNetwork,
			wantMsg:  "model overloaded",
		},
		{
			name:     "bad key",
			status:   http.StatusForbidden,
			body:     map[string]any{"error": map[string]any{"code": 403, "message": "denied"}},
			wantKind: KindInvalidKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			editor, emf := newTestEditor(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			_, err := editor.ReplaceBackground(context.Background(), inputImage, "beach")
			if !errors.Is(err, ErrRemoteFailure) {
				t.Fatalf("error = %v, want ErrRemoteFailure", err)
			}
			var re *RemoteError
			if !errors.As(err, &re) {
				t.Fatalf("error is not a *RemoteError: %T", err)
			}
			if re.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", re.Kind, tt.wantKind)
			}
			if tt.wantMsg != "" && !strings.Contains(re.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", re.Error(), tt.wantMsg)
			}
			if !strings.Contains(emf.String(), `"Failures":1`) {
				t.Errorf("failure not counted: %s", emf.String())
			}
		})
	}
}

func TestImageEditHonoursContext(t *testing.T) {
	release := make(chan struct{})
	editor, _ := newTestEditor(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := editor.RemoveBackground(ctx, inputImage); !errors.Is(err, ErrRemoteFailure) {
		t.Fatalf("error = %v, want ErrRemoteFailure", err)
	}
}

func TestImageEditTransportErrorOmitsKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	editor := NewImageEditor("SECRET-KEY-123", "test-image-model", url, nil)
	_, err := editor.RemoveBackground(context.Background(), inputImage)
	if !errors.Is(err, ErrRemoteFailure) {
		t.Fatalf("error = %v, want ErrRemoteFailure", err)
	}
	if strings.Contains(err.Error(), "SECRET-KEY-123") {
		t.Errorf("error text leaks the API key: %v", err)
	}
	var remote *RemoteError
	if !errors.As(err, &remote) || remote.Kind != KindNetwork {
		t.Errorf("error = %#v, want a network RemoteError", err)
	}
	if remote != nil && remote.UserMessage() != remote.Message {
		t.Errorf("UserMessage = %q, want %q", remote.UserMessage(), remote.Message)
	}
}

func TestImageEditorLeavesDeadlinesToContext(t *testing.T) {
	editor := NewImageEditor("k", "", "", nil)
	if editor.httpClient.Timeout != 0 {
		t.Errorf("client timeout = %v, want none", editor.httpClient.Timeout)
	}
}
