package srs

import (
	"fmt"
	"math"
	"time"

	"github.com/phrazzld/scry-vocab/internal/domain"
)

// estimateQuality maps an auto-graded answer to a quality score.
//
//	accuracy >= high:   fast -> 5, normal -> 4, slow -> 3
//	accuracy >= medium: fast or normal -> 3, slow -> 2
//	accuracy >= low:    2
//	accuracy > 0:       1
//	accuracy == 0:      0
func estimateQuality(accuracy float64, responseTime time.Duration, p EstimatorParams) (domain.Quality, error) {
	if math.IsNaN(accuracy) || accuracy < 0 || accuracy > 1 {
		return 0, fmt.Errorf("%w: accuracy %.3f outside [0,1]", domain.ErrValidation, accuracy)
	}
	if responseTime < 0 {
		return 0, fmt.Errorf("%w: negative response time %s", domain.ErrValidation, responseTime)
	}

	switch {
	case accuracy >= p.HighAccuracy:
		switch {
		case responseTime <= p.FastResponse:
			return domain.QualityPerfect, nil
		case responseTime <= p.SlowResponse:
			return domain.QualityCorrectHesitation, nil
		default:
			return domain.QualityCorrectDifficult, nil
		}
	case accuracy >= p.MediumAccuracy:
		if responseTime <= p.SlowResponse {
			return domain.QualityCorrectDifficult, nil
		}
		return domain.QualityIncorrectFamiliar, nil
	case accuracy >= p.LowAccuracy:
		return domain.QualityIncorrectFamiliar, nil
	case accuracy > 0:
		return domain.QualityIncorrect, nil
	default:
		return domain.QualityBlackout, nil
	}
}
