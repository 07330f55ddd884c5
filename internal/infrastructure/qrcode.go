package infrastructure

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"
)

// DeepLink returns the t.me link that opens a chat with the bot. A non-empty
// payload is delivered to the bot as "/start <payload>".
func DeepLink(botUsername, payload string) (string, error) {
	name := strings.TrimPrefix(strings.TrimSpace(botUsername), "@")
	if name == "" {
		return "", fmt.Errorf("bot username is required for a deep link")
	}
	link := "https://t.me/" + url.PathEscape(name)
	if payload != "" {
		link += "?start=" + url.QueryEscape(payload)
	}
	return link, nil
}

// DeepLinkQR renders the deep link as a PNG QR code of size x size pixels.
func DeepLinkQR(botUsername, payload string, size int) ([]byte, error) {
	link, err := DeepLink(botUsername, payload)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(link, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
