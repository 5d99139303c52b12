package credit

import (
	"fmt"

	"CreditRisk/internal/domain/models"
)

// Thresholds drive the credit decision.
type Thresholds struct {
	ZSafe                 float64 `yaml:"z_safe" json:"z_safe"`
	ZDistress             float64 `yaml:"z_distress" json:"z_distress"`
	MaxDefaultProbability float64 `yaml:"max_default_probability" json:"max_default_probability"`
}

// DefaultThresholds returns the classic Altman cut-offs and a 5% PD ceiling.
func DefaultThresholds() Thresholds {
	return Thresholds{ZSafe: 3.0, ZDistress: 1.8, MaxDefaultProbability: 0.05}
}

func (t Thresholds) Validate() error {
	if !isFinite(t.ZSafe) || !isFinite(t.ZDistress) {
		return fmt.Errorf("%w: z thresholds must be finite", ErrInvalidInput)
	}
	if t.ZDistress >= t.ZSafe {
		return fmt.Errorf("%w: z_distress (%v) must be below z_safe (%v)", ErrInvalidInput, t.ZDistress, t.ZSafe)
	}
	if !(t.MaxDefaultProbability > 0 && t.MaxDefaultProbability <= 1) {
		return fmt.Errorf("%w: max_default_probability %v out of (0, 1]", ErrInvalidInput, t.MaxDefaultProbability)
	}
	return nil
}

// Decide applies the rule in order:
//  1. z above distress and pd below the ceiling: approved
//  2. otherwise z above safe: approved
//  3. otherwise denied
//
// A grey-zone score with a low PD is approved by rule 1 while a grey-zone
// score with a high PD is denied.
func Decide(z, pd float64, t Thresholds) models.Decision {
	if z > t.ZDistress && pd < t.MaxDefaultProbability {
		return models.DecisionApproved
	}
	if z > t.ZSafe {
		return models.DecisionApproved
	}
	return models.DecisionDenied
}

// NewCreditDecision applies Decide and keeps its inputs on the result.
func NewCreditDecision(z, pd float64, t Thresholds) (models.CreditDecision, error) {
	if !isFinite(z) {
		return models.CreditDecision{}, fmt.Errorf("%w: z-score is %v", ErrInvalidInput, z)
	}
	if !isFinite(pd) || pd < 0 || pd > 1 {
		return models.CreditDecision{}, fmt.Errorf("%w: default probability is %v", ErrInvalidInput, pd)
	}
	return models.CreditDecision{
		Decision:           Decide(z, pd, t),
		ZScore:             z,
		DefaultProbability: pd,
	}, nil
}
