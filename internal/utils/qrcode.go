package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/skip2/go-qrcode"
)

// GenerateQRCodeImage renders the ticket token as a PNG under dirPath and
// returns the filename. The token itself stays the source of truth; the
// image is just what attendees present at the kitchen.
func GenerateQRCodeImage(token, dirPath string) (string, error) {
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create QR directory: %w", err)
	}

	filename := fmt.Sprintf("%s.png", token)
	fullPath := filepath.Join(dirPath, filename)

	if err := qrcode.WriteFile(token, qrcode.Medium, 256, fullPath); err != nil {
		return "", fmt.Errorf("failed to generate QR code: %w", err)
	}

	return filename, nil
}

// RemoveQRCodeImage deletes the rendered PNG for a ticket, used when a
// member is deleted and their tickets are cascaded away.
func RemoveQRCodeImage(qrPath, dirPath string) error {
	filename := filepath.Base(qrPath)
	if filename == "." || filename == "/" {
		return nil
	}
	err := os.Remove(filepath.Join(dirPath, filename))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
