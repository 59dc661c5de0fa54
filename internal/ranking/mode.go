package ranking

import (
	"fmt"
	"strings"
)

// Mode selects the weight vector and time-decay curve used for scoring.
type Mode int

// Ranking modes.
const (
	ModeTrending Mode = iota + 1
	ModeHot
	ModeTop
	ModeNew
	ModeControversial
)

var modeNames = map[Mode]string{
	ModeTrending:      "trending",
	ModeHot:           "hot",
	ModeTop:           "top",
	ModeNew:           "new",
	ModeControversial: "controversial",
}

// Modes returns every ranking mode in declaration order.
func Modes() []Mode {
	return []Mode{ModeTrending, ModeHot, ModeTop, ModeNew, ModeControversial}
}

// String returns the lowercase mode name.
func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Valid reports whether m is one of the declared modes.
func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// ParseMode converts a mode name into a Mode. Matching is case-insensitive.
func ParseMode(s string) (Mode, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for m, name := range modeNames {
		if name == needle {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// MarshalText implements encoding.TextMarshaler so modes can key JSON objects.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
