package present

import (
	"strconv"
	"strings"

	"spreadscan/pkg/model"
)

const (
	defaultRed   = "#ff4b4b"
	defaultGreen = "#09ab3b"
)

// Styles maps the two outcome classes to colour and icon tokens
type Styles struct {
	Red       string
	Green     string
	RedIcon   string
	GreenIcon string
}

// NewStyles builds styles, substituting defaults for empty tokens
func NewStyles(red, green, redIcon, greenIcon string) Styles {
	s := Styles{Red: red, Green: green, RedIcon: redIcon, GreenIcon: greenIcon}
	if s.Red == "" {
		s.Red = defaultRed
	}
	if s.Green == "" {
		s.Green = defaultGreen
	}
	if s.RedIcon == "" {
		s.RedIcon = "🔴"
	}
	if s.GreenIcon == "" {
		s.GreenIcon = "🟢"
	}
	return s
}

// DefaultStyles returns the built-in styles
func DefaultStyles() Styles {
	return NewStyles("", "", "", "")
}

// Color returns the colour token for a result
func (s Styles) Color(l model.Label) string {
	if l.IsSetup() {
		return s.Green
	}
	return s.Red
}

// Icon returns the icon token for a result
func (s Styles) Icon(l model.Label) string {
	if l.IsSetup() {
		return s.GreenIcon
	}
	return s.RedIcon
}

// Cell is the plain-text rendering of a result, e.g. "🟢 R1-CALL"
func (s Styles) Cell(l model.Label) string {
	return s.Icon(l) + " " + string(l)
}

// Box is the HTML badge for a result
func (s Styles) Box(l model.Label) string {
	return `<div style="background-color:` + s.Color(l) +
		`; color:white; padding:8px; border-radius:5px; font-weight:bold; text-align:center;">` +
		string(l) + `</div>`
}

// rgb parses "#rrggbb" or "#rgb"; named colours fall back to ok=false
func rgb(token string) (r, g, b int, ok bool) {
	hex := strings.TrimPrefix(strings.TrimSpace(token), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), true
}
