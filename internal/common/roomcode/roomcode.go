package roomcode

import (
	"math/rand"
	"strings"
	"time"
)

//go:generate mockgen -package=mocks -destination=mocks/mock_generator.go planningpoker/internal/common/roomcode Generator

const (
	// Letters excludes I and O to avoid confusion with 1 and 0
	Letters = "ABCDEFGHJKLMNPQRSTUVWXYZ"

	// Digits excludes 0 and 1 to avoid confusion with O and I
	Digits = "23456789"

	// Length is the fixed length of a room code
	Length = 6
)

// Generator produces human-shareable room codes
type Generator interface {
	// NewCode returns a 6-character code alternating letter and digit
	NewCode() string
}

// Config for the default generator
type Config struct {
	// Optional seed for testing
	Seed int64
}

// Default implements Generator using a seeded random source
type Default struct {
	random *rand.Rand
}

// New creates a new room code generator
func New(cfg *Config) *Default {
	var seed int64
	if cfg != nil && cfg.Seed != 0 {
		seed = cfg.Seed
	} else {
		seed = time.Now().UnixNano()
	}

	source := rand.NewSource(seed)

	return &Default{
		random: rand.New(source),
	}
}

// NewCode returns a code in the pattern letter-digit-letter-digit-letter-digit
func (g *Default) NewCode() string {
	var b strings.Builder
	b.Grow(Length)

	for i := 0; i < Length; i++ {
		if i%2 == 0 {
			b.WriteByte(Letters[g.random.Intn(len(Letters))])
		} else {
			b.WriteByte(Digits[g.random.Intn(len(Digits))])
		}
	}

	return b.String()
}

// Normalize upper-cases a code for lookup; codes are stored uppercase
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsCode reports whether the input has the shape of a room code. Used to
// decide whether a shareable-link value is a code or a session ID.
func IsCode(input string) bool {
	code := Normalize(input)
	if len(code) != Length {
		return false
	}

	for i := 0; i < Length; i++ {
		set := Letters
		if i%2 == 1 {
			set = Digits
		}
		if !strings.ContainsRune(set, rune(code[i])) {
			return false
		}
	}

	return true
}
