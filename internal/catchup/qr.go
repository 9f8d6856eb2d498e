package catchup

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// QRPayload is the text encoded inside a ticket QR image. It carries enough
// to look the registration back up at scan time without any extra round
// trip: the student's HEMIS id, the schedule id, and the per-registration
// token that guards against stale or forged tickets.
type QRPayload struct {
	HemisID           string `json:"hemisId"`
	CatchupScheduleID uint   `json:"catchupScheduleId"`
	Token             string `json:"token"`
}

// EncodeQRPayload renders the payload as compact JSON.
func EncodeQRPayload(p QRPayload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// DecodeQRPayload parses scanned QR text. The scanner forwards whatever the
// camera decoded, so anything malformed is rejected here.
func DecodeQRPayload(qrData string) (QRPayload, error) {
	var p QRPayload
	qrData = strings.TrimSpace(qrData)
	if qrData == "" || !strings.HasPrefix(qrData, "{") {
		return p, Errorf(CodeValidation, "invalid or expired QR code")
	}
	if err := json.Unmarshal([]byte(qrData), &p); err != nil {
		return p, Errorf(CodeValidation, "invalid or expired QR code")
	}
	if p.HemisID == "" || p.CatchupScheduleID == 0 || p.Token == "" {
		return p, Errorf(CodeValidation, "invalid or expired QR code")
	}
	return p, nil
}

// TicketImage renders the payload as a PNG data URL suitable for an <img>
// source on the student's ticket.
func TicketImage(p QRPayload) (string, error) {
	text, err := EncodeQRPayload(p)
	if err != nil {
		return "", err
	}
	png, err := qrcode.Encode(text, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
