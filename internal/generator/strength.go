package generator

import "unicode/utf8"

// Strength rates a password for display.
type Strength struct {
	Score      int    `json:"score"`
	Label      string `json:"label"`
	Color      string `json:"color"`
	Percentage int    `json:"percentage"`
}

var strengthLevels = []Strength{
	{Score: 0, Label: "Weak", Color: "red", Percentage: 25},
	{Score: 3, Label: "Medium", Color: "orange", Percentage: 50},
	{Score: 5, Label: "Strong", Color: "yellow", Percentage: 75},
	{Score: 6, Label: "Very Strong", Color: "green", Percentage: 100},
}

// Rate scores one point each for length >= 8, length >= 12, an upper
// case letter, a lower case letter, a digit and any other character.
func Rate(password string) Strength {
	score := 0
	n := utf8.RuneCountInString(password)
	if n >= 8 {
		score++
	}
	if n >= 12 {
		score++
	}
	var hasUpper, hasLower, hasDigit, hasOther bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		default:
			hasOther = true
		}
	}
	for _, ok := range []bool{hasUpper, hasLower, hasDigit, hasOther} {
		if ok {
			score++
		}
	}

	level := strengthLevels[0]
	for _, l := range strengthLevels {
		if score >= l.Score {
			level = l
		}
	}
	level.Score = score
	return level
}
