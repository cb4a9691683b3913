package whatsapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// ParseWebhookEvent flattens a Cloud API webhook event into inbound messages.
// Interactive replies (button and list taps) are surfaced as their title
// text; unsupported message types are skipped.
func ParseWebhookEvent(event WebhookEvent) []Message {
	var messages []Message

	for _, entry := range event.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			for _, m := range change.Value.Messages {
				parsed := Message{
					From:      m.From,
					MessageID: m.ID,
					Timestamp: parseTimestamp(m.Timestamp),
				}

				switch m.Type {
				case "text":
					if m.Text == nil {
						continue
					}
					parsed.Kind = KindText
					parsed.Text = m.Text.Body
				case "interactive":
					if m.Interactive == nil {
						continue
					}
					parsed.Kind = KindText
					switch {
					case m.Interactive.ButtonReply != nil:
						parsed.Text = m.Interactive.ButtonReply.Title
					case m.Interactive.ListReply != nil:
						parsed.Text = m.Interactive.ListReply.ID
					default:
						continue
					}
				case "image":
					if m.Image == nil {
						continue
					}
					parsed.Kind = KindImage
					parsed.MediaID = m.Image.ID
				default:
					continue
				}

				messages = append(messages, parsed)
			}
		}
	}

	return messages
}

// VerifySignature checks the X-Hub-Signature-256 header against the raw body.
func VerifySignature(appSecret string, body []byte, signature string) bool {
	if appSecret == "" || signature == "" {
		return false
	}

	const prefix = "sha256="
	if len(signature) <= len(prefix) {
		return false
	}
	sigHex := signature[len(prefix):]

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(sigHex))
}
