package provider

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

const DefaultQRSize = 256

// QRCode renders content as a PNG QR code of size×size pixels.
func QRCode(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultQRSize
	}

	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}
