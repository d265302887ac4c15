// Package generator creates random passwords and passphrases and scores
// password strength.
package generator

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/sethvargo/go-diceware/diceware"

	verrors "github.com/atinyakov/gophvault/internal/errors"
)

// Length limits offered by the generator.
const (
	MinLength     = 6
	MaxLength     = 32
	DefaultLength = 12

	MinWords     = 3
	MaxWords     = 12
	DefaultWords = 6
)

const (
	upper         = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	upperUnambig  = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	lower         = "abcdefghijklmnopqrstuvwxyz"
	lowerUnambig  = "abcdefghijkmnopqrstuvwxyz"
	digits        = "0123456789"
	digitsUnambig = "23456789"
	symbols       = "!@#$%^&*_-+="
)

// Options select the password alphabet.
type Options struct {
	Length         int  `json:"length"`
	Uppercase      bool `json:"includeUppercase"`
	Lowercase      bool `json:"includeLowercase"`
	Numbers        bool `json:"includeNumbers"`
	Symbols        bool `json:"includeSymbols"`
	AvoidAmbiguous bool `json:"avoidAmbiguous"`
}

// DefaultOptions are the generator defaults: 12 characters from every class.
func DefaultOptions() Options {
	return Options{
		Length:    DefaultLength,
		Uppercase: true,
		Lowercase: true,
		Numbers:   true,
		Symbols:   true,
	}
}

func (o Options) alphabet() string {
	var b strings.Builder
	pick := func(on bool, all, unambiguous string) {
		if !on {
			return
		}
		if o.AvoidAmbiguous {
			b.WriteString(unambiguous)
		} else {
			b.WriteString(all)
		}
	}
	pick(o.Uppercase, upper, upperUnambig)
	pick(o.Lowercase, lower, lowerUnambig)
	pick(o.Numbers, digits, digitsUnambig)
	pick(o.Symbols, symbols, symbols)
	if b.Len() == 0 {
		return lower
	}
	return b.String()
}

// Generate returns a random password. With no character class selected
// it falls back to lowercase letters.
func Generate(o Options) (string, error) {
	if o.Length < MinLength || o.Length > MaxLength {
		return "", verrors.InvalidInput("length", fmt.Sprintf("must be between %d and %d", MinLength, MaxLength))
	}
	chars := o.alphabet()
	size := big.NewInt(int64(len(chars)))

	out := make([]byte, o.Length)
	for i := range out {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		out[i] = chars[n.Int64()]
	}
	return string(out), nil
}

// Passphrase returns words diceware words joined by separator.
func Passphrase(words int, separator string) (string, error) {
	if words < MinWords || words > MaxWords {
		return "", verrors.InvalidInput("words", fmt.Sprintf("must be between %d and %d", MinWords, MaxWords))
	}
	list, err := diceware.Generate(words)
	if err != nil {
		return "", fmt.Errorf("generate passphrase: %w", err)
	}
	return strings.Join(list, separator), nil
}
