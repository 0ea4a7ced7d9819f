package security

import (
	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

var strengthLabels = [...]string{"very weak", "weak", "fair", "strong", "very strong"}

// PasswordStrength is an advisory zxcvbn report. It never blocks signup on its own.
type PasswordStrength struct {
	Score       int     `json:"score"`
	Label       string  `json:"label"`
	CrackTime   string  `json:"crack_time"`
	Entropy     float64 `json:"entropy"`
	Recommended bool    `json:"recommended"`
}

// EstimatePasswordStrength scores password, penalising reuse of userInputs such as the username or email.
func EstimatePasswordStrength(password string, userInputs ...string) PasswordStrength {
	if password == "" {
		return PasswordStrength{Label: strengthLabels[0], CrackTime: "instant"}
	}

	result := zxcvbn.PasswordStrength(password, userInputs)
	score := result.Score
	if score < 0 {
		score = 0
	}
	if score > 4 {
		score = 4
	}

	return PasswordStrength{
		Score:       score,
		Label:       strengthLabels[score],
		CrackTime:   result.CrackTimeDisplay,
		Entropy:     result.Entropy,
		Recommended: score >= 3,
	}
}
