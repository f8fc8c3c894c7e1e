package vision

import (
	"encoding/base64"
	"net/http"
)

// DataURI embeds image bytes as a base64 data URI.
// The media type is sniffed from the bytes and defaults to JPEG.
func DataURI(data []byte) string {
	mime := http.DetectContentType(data)
	switch mime {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
	default:
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
