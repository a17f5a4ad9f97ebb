package models

// FallbackHeader выставляется в "true", если изображение построено запасным генератором
const FallbackHeader = "X-QR-Fallback"

// QROptions параметры запроса к /api/generate-qr
type QROptions struct {
	Type                 string   `json:"type"`
	Width                int      `json:"width"`
	Margin               *int     `json:"margin,omitempty"`
	Color                QRColors `json:"color"`
	ErrorCorrectionLevel string   `json:"errorCorrectionLevel"`
}

type QRColors struct {
	Dark  string `json:"dark"`
	Light string `json:"light"`
}

// GenerateQRRequest тело запроса к /api/generate-qr
type GenerateQRRequest struct {
	Data    string    `json:"data"`
	Options QROptions `json:"options"`
}

// LegacyQRRequest тело запроса к /generate-qr, который использует форма
type LegacyQRRequest struct {
	Text  string `json:"text"`
	Size  int    `json:"size"`
	Dark  string `json:"dark"`
	Light string `json:"light"`
}

type DataURLResponse struct {
	QRCode string `json:"qrCode"`
}

type ValidateURLRequest struct {
	URL string `json:"url"`
}

type ValidateURLResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

type VCardResponse struct {
	VCard string `json:"vcard"`
}

type StatusResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// HistoryRequest тело запроса на добавление в историю
type HistoryRequest struct {
	Text    string `json:"text"`
	Size    int    `json:"size"`
	BgColor string `json:"bgColor"`
	FgColor string `json:"fgColor"`
}

type LoginRequest struct {
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}
