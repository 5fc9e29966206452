package srs

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidQuality is returned for quality signals outside the accepted
// encodings. Check with errors.Is.
var ErrInvalidQuality = errors.New("srs: invalid quality")

// Quality is the canonical recall-quality signal, the SM-2 0-5 scale.
type Quality int

const (
	// QualityBlackout: complete failure to recall.
	QualityBlackout Quality = 0
	// QualityIncorrect: incorrect, but remembered upon seeing the answer.
	QualityIncorrect Quality = 1
	// QualityIncorrectFamiliar: incorrect, but the answer felt familiar.
	QualityIncorrectFamiliar Quality = 2
	// QualityCorrectDifficult: correct with significant effort.
	QualityCorrectDifficult Quality = 3
	// QualityCorrectHesitation: correct after some hesitation.
	QualityCorrectHesitation Quality = 4
	// QualityPerfect: perfect recall with no hesitation.
	QualityPerfect Quality = 5
)

// categoricalQuality maps the 4-way categorical encoding used by review
// clients onto the canonical scale. Qualities 1 and 5 are reachable only
// via the numeric path.
var categoricalQuality = map[string]Quality{
	"again": QualityBlackout,
	"hard":  QualityIncorrectFamiliar,
	"good":  QualityCorrectDifficult,
	"easy":  QualityCorrectHesitation,
}

// IsValid reports whether q is on the 0-5 scale.
func (q Quality) IsValid() bool {
	return q >= QualityBlackout && q <= QualityPerfect
}

// ParseQuality converts a categorical rating ("again", "hard", "good",
// "easy") to its canonical numeric quality. The mapping happens here, at
// the boundary, once; the algorithm only ever sees numeric qualities.
func ParseQuality(s string) (Quality, error) {
	q, ok := categoricalQuality[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuality, s)
	}
	return q, nil
}
