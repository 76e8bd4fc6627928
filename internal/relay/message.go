package relay

// Wire payloads. Anything else is malformed.
const (
	PayloadOn  = "1"
	PayloadOff = "0"
)

// Encode renders an indicator value as a wire payload.
func Encode(on bool) string {
	if on {
		return PayloadOn
	}
	return PayloadOff
}

// Decode parses a wire payload. ok is false for malformed input.
func Decode(text string) (on bool, ok bool) {
	switch text {
	case PayloadOn:
		return true, true
	case PayloadOff:
		return false, true
	default:
		return false, false
	}
}
