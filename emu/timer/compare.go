package timer

// ComAction is one of the eight symbolic pin actions the COMn1:0 bits can
// select, resolved against the mode's WgmKind per spec §4.6.
type ComAction int

const (
	Disconnected ComAction = iota
	ToggleOnMatch
	ClearOnMatch
	SetOnMatch
	ClearOnMatchSetAtBottom  // single-slope (Fast PWM), non-inverting
	SetOnMatchClearAtBottom  // single-slope (Fast PWM), inverting
	ClearOnUpSetOnDown       // dual-slope, non-inverting
	SetOnUpClearOnDown       // dual-slope, inverting
)

// resolveComAction maps the raw 2-bit COM field plus the mode's kind to one
// of the eight symbolic actions.
func resolveComAction(kind WgmKind, com uint8) ComAction {
	switch com & 0x3 {
	case 0:
		return Disconnected
	case 1:
		return ToggleOnMatch
	case 2:
		switch kind {
		case FastPWM:
			return ClearOnMatchSetAtBottom
		case PhaseCorrect, PhaseFreqCorrect:
			return ClearOnUpSetOnDown
		default:
			return ClearOnMatch
		}
	default: // 3
		switch kind {
		case FastPWM:
			return SetOnMatchClearAtBottom
		case PhaseCorrect, PhaseFreqCorrect:
			return SetOnUpClearOnDown
		default:
			return SetOnMatch
		}
	}
}
