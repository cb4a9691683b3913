// Package whatsapp is the WhatsApp Cloud API integration: an outbound Graph
// API client and inbound webhook payload parsing.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"
)

const (
	defaultGraphAPIBase = "https://graph.facebook.com/v18.0"
	defaultHTTPTimeout  = 15 * time.Second

	maxButtons        = 3
	maxButtonTitleLen = 20
)

// Client sends messages through the WhatsApp Cloud API.
type Client struct {
	accessToken   string
	phoneNumberID string
	baseURL       string
	httpClient    *http.Client
}

// NewClient creates a Cloud API client for one business phone number.
func NewClient(accessToken, phoneNumberID string) *Client {
	return &Client{
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
		baseURL:       defaultGraphAPIBase,
		httpClient:    &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// SetBaseURL overrides the Graph API base URL (useful for testing).
func (c *Client) SetBaseURL(base string) {
	c.baseURL = base
}

// SendText sends a plain text message.
func (c *Client) SendText(ctx context.Context, to, text string) (*SendResponse, error) {
	return c.send(ctx, sendRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             &textBody{Body: text},
	})
}

// SendButtons sends a message with up to three quick-reply buttons. Extra
// buttons are dropped and long titles truncated, per API limits.
func (c *Client) SendButtons(ctx context.Context, to, text string, buttons []Button) (*SendResponse, error) {
	if len(buttons) > maxButtons {
		buttons = buttons[:maxButtons]
	}
	replies := make([]replyButton, 0, len(buttons))
	for _, b := range buttons {
		title := b.Title
		if len([]rune(title)) > maxButtonTitleLen {
			title = string([]rune(title)[:maxButtonTitleLen])
		}
		replies = append(replies, replyButton{
			Type:  "reply",
			Reply: buttonReply{ID: b.ID, Title: title},
		})
	}
	return c.send(ctx, sendRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "interactive",
		Interactive: &interactive{
			Type:   "button",
			Body:   interactiveText{Text: text},
			Action: interactiveAction{Buttons: replies},
		},
	})
}

// SendList sends an interactive list message.
func (c *Client) SendList(ctx context.Context, to, header, body, buttonLabel string, sections []ListSection) (*SendResponse, error) {
	msg := sendRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "interactive",
		Interactive: &interactive{
			Type: "list",
			Body: interactiveText{Text: body},
			Action: interactiveAction{
				Button:   buttonLabel,
				Sections: sections,
			},
		},
	}
	if header != "" {
		msg.Interactive.Header = &interactiveHeader{Type: "text", Text: header}
	}
	return c.send(ctx, msg)
}

// SendImage uploads image bytes as media and sends the resulting media id
// with an optional caption.
func (c *Client) SendImage(ctx context.Context, to string, data []byte, mimeType, caption string) (*SendResponse, error) {
	mediaID, err := c.UploadMedia(ctx, data, mimeType)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, sendRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "image",
		Image:            &imageBody{ID: mediaID, Caption: caption},
	})
}

func (c *Client) send(ctx context.Context, req sendRequest) (*SendResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: marshal send request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("whatsapp: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: send message: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: read response: %w", err)
	}

	var sendResp SendResponse
	if err := json.Unmarshal(respBody, &sendResp); err != nil {
		return nil, fmt.Errorf("whatsapp: unmarshal response: %w", err)
	}
	if sendResp.Error != nil {
		return &sendResp, fmt.Errorf("whatsapp: API error %d: %s", sendResp.Error.Code, sendResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return &sendResp, fmt.Errorf("whatsapp: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
	return &sendResp, nil
}

// UploadMedia uploads raw bytes and returns the media id to send with.
func (c *Client) UploadMedia(ctx context.Context, data []byte, mimeType string) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("messaging_product", "whatsapp"); err != nil {
		return "", fmt.Errorf("whatsapp: build upload form: %w", err)
	}
	if err := mw.WriteField("type", mimeType); err != nil {
		return "", fmt.Errorf("whatsapp: build upload form: %w", err)
	}
	part, err := mw.CreateFormFile("file", "upload")
	if err != nil {
		return "", fmt.Errorf("whatsapp: build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("whatsapp: build upload form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("whatsapp: build upload form: %w", err)
	}

	url := fmt.Sprintf("%s/%s/media", c.baseURL, c.phoneNumberID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return "", fmt.Errorf("whatsapp: create upload request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("whatsapp: upload media: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("whatsapp: read upload response: %w", err)
	}

	var upload mediaUploadResponse
	if err := json.Unmarshal(respBody, &upload); err != nil {
		return "", fmt.Errorf("whatsapp: unmarshal upload response: %w", err)
	}
	if upload.Error != nil {
		return "", fmt.Errorf("whatsapp: API error %d: %s", upload.Error.Code, upload.Error.Message)
	}
	if upload.ID == "" {
		return "", fmt.Errorf("whatsapp: upload returned no media id (status %d)", resp.StatusCode)
	}
	return upload.ID, nil
}

// DownloadMedia resolves a media id to its temporary URL and fetches the
// bytes. Both requests carry the access token.
func (c *Client) DownloadMedia(ctx context.Context, mediaID string) ([]byte, error) {
	lookupURL := fmt.Sprintf("%s/%s", c.baseURL, mediaID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: create media lookup: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: media lookup: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: read media lookup: %w", err)
	}

	var lookup mediaLookupResponse
	if err := json.Unmarshal(respBody, &lookup); err != nil {
		return nil, fmt.Errorf("whatsapp: unmarshal media lookup: %w", err)
	}
	if lookup.Error != nil {
		return nil, fmt.Errorf("whatsapp: API error %d: %s", lookup.Error.Code, lookup.Error.Message)
	}
	if lookup.URL == "" {
		return nil, fmt.Errorf("whatsapp: media %s has no download URL", mediaID)
	}

	dlReq, err := http.NewRequestWithContext(ctx, http.MethodGet, lookup.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: create media download: %w", err)
	}
	dlReq.Header.Set("Authorization", "Bearer "+c.accessToken)

	dlResp, err := c.httpClient.Do(dlReq)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: media download: %w", err)
	}
	defer dlResp.Body.Close()

	if dlResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whatsapp: media download status %d", dlResp.StatusCode)
	}
	data, err := io.ReadAll(dlResp.Body)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: read media bytes: %w", err)
	}
	return data, nil
}

func parseTimestamp(ts string) time.Time {
	secs, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}
