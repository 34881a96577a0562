package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/homework-backend/internal/platform/ctxutil"
	"github.com/yungbote/homework-backend/internal/platform/httpx"
	"github.com/yungbote/homework-backend/internal/platform/logger"
)

// Message is one conversation turn. Content is plain text; Images carries
// optional image attachments (https URLs or data:image/...;base64,... URLs).
type Message struct {
	Role    string
	Content string
	Images  []ImageInput
}

type ImageInput struct {
	ImageURL string
	Detail   string // "low" | "high"
}

// Client streams chat completions. Deltas are forwarded to onDelta in
// arrival order; the accumulated text is returned once the stream ends.
type Client interface {
	StreamChat(ctx context.Context, messages []Message, onDelta func(delta string)) (string, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client

	maxRetries int
}

func NewClient(log *logger.Logger) (Client, error) {
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}

	baseURL := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	model := strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if model == "" {
		model = "gpt-4o-mini"
	}

	timeoutSec := 180
	if v := os.Getenv("OPENAI_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	maxRetries := 4
	if v := os.Getenv("OPENAI_MAX_RETRIES"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	return &client{
		log:        log.With("service", "OpenAIClient"),
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries: maxRetries,
	}, nil
}

type openAIHTTPError struct {
	StatusCode int
	Body       string
}

func (e *openAIHTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func (e *openAIHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

type chatCompletionsRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatCompletionsChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func encodeMessages(messages []Message) []chatMessage {
	out := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		if len(m.Images) == 0 {
			out = append(out, chatMessage{Role: m.Role, Content: m.Content})
			continue
		}
		content := make([]map[string]any, 0, 1+len(m.Images))
		if strings.TrimSpace(m.Content) != "" {
			content = append(content, map[string]any{
				"type": "text",
				"text": m.Content,
			})
		}
		for _, img := range m.Images {
			u := strings.TrimSpace(img.ImageURL)
			if u == "" {
				continue
			}
			imageURL := map[string]any{"url": u}
			if strings.TrimSpace(img.Detail) != "" {
				imageURL["detail"] = strings.TrimSpace(img.Detail)
			}
			content = append(content, map[string]any{
				"type":      "image_url",
				"image_url": imageURL,
			})
		}
		out = append(out, chatMessage{Role: m.Role, Content: content})
	}
	return out
}

// StreamChat opens a streaming chat completion and forwards each non-empty
// content delta. Connection establishment is retried with backoff; once the
// first byte of the stream has been consumed no retry happens.
func (c *client) StreamChat(ctx context.Context, messages []Message, onDelta func(delta string)) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("messages required")
	}

	reqBody := chatCompletionsRequest{
		Model:    c.model,
		Messages: encodeMessages(messages),
		Stream:   true,
	}
	raw, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	backoff := 1 * time.Second
	var resp *http.Response

	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		req, rErr := http.NewRequestWithContext(ctxutil.Default(ctx), "POST", c.baseURL+"/v1/chat/completions", bytes.NewReader(raw))
		if rErr != nil {
			return "", rErr
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "text/event-stream")

		var doErr error
		resp, doErr = c.httpClient.Do(req)
		if doErr == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
			break
		}

		if doErr == nil {
			body, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			doErr = &openAIHTTPError{StatusCode: resp.StatusCode, Body: string(body)}
		}

		if attempt >= c.maxRetries || !httpx.IsRetryableError(doErr) {
			return "", doErr
		}

		sleepFor := httpx.RetryAfterDuration(resp, backoff, 10*time.Second)
		sleepFor = httpx.JitterSleep(sleepFor)
		c.log.Warn("OpenAI stream connect retrying",
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", doErr.Error(),
		)
		time.Sleep(sleepFor)
		backoff *= 2
	}
	defer resp.Body.Close()

	var full strings.Builder
	err = streamSSE(resp.Body, func(_ string, data string) error {
		if strings.TrimSpace(data) == "" || strings.TrimSpace(data) == "[DONE]" {
			return nil
		}

		var chunk chatCompletionsChunk
		if uErr := json.Unmarshal([]byte(data), &chunk); uErr != nil {
			return nil
		}
		if chunk.Error != nil {
			return fmt.Errorf("openai stream error: %s", chunk.Error.Message)
		}
		if len(chunk.Choices) == 0 {
			return nil
		}

		d := chunk.Choices[0].Delta.Content
		if d == "" {
			return nil
		}
		full.WriteString(d)
		if onDelta != nil {
			onDelta(d)
		}
		return nil
	})
	if err != nil {
		return full.String(), err
	}
	return full.String(), nil
}

func streamSSE(r io.Reader, onEvent func(event string, data string) error) error {
	br := bufio.NewReader(r)
	var (
		eventName string
		dataLines []string
	)

	flush := func() error {
		if len(dataLines) == 0 {
			eventName = ""
			return nil
		}
		data := strings.Join(dataLines, "\n")
		dataLines = nil
		ev := eventName
		eventName = ""
		if onEvent == nil {
			return nil
		}
		return onEvent(ev, data)
	}

	for {
		line, err := br.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				_ = flush()
				break
			}
			return err
		}
		line = strings.TrimRight(line, "\r\n")

		// Blank line ends event.
		if line == "" {
			if err := flush(); err != nil {
				return err
			}
			continue
		}

		// Comment.
		if strings.HasPrefix(line, ":") {
			continue
		}

		if strings.HasPrefix(line, "event:") {
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			continue
		}

		if strings.HasPrefix(line, "data:") {
			dataLines = append(dataLines, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
			continue
		}
	}

	return nil
}
