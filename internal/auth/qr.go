package auth

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/parleyhq/parley/pkg/logger"
)

// PrintQR renders data as a terminal QR code. Used for the web client
// handoff: scanning it opens the same account in the browser client.
func PrintQR(data string) {
	qr, err := qrcode.New(data, qrcode.Medium)
	if err != nil {
		logger.Warnf("Failed to generate QR code: %v", err)
		logger.Infof("URL: %s", data)
		return
	}
	fmt.Println(qr.ToSmallString(false))
}
