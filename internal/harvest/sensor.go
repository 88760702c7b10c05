package harvest

import (
	"fmt"

	"github.com/banshee-data/spray.report/internal/spray"
)

// Sensor reports the distance to the fruit in metres.
type Sensor interface {
	MeasureDistance() (float64, error)
}

// RandomSensor simulates a depth sensor with readings uniform in [Min, Max).
type RandomSensor struct {
	min, max float64
	src      spray.RandomSource
}

// NewRandomSensor requires 0 <= min < max and a non-nil source.
func NewRandomSensor(min, max float64, src spray.RandomSource) (*RandomSensor, error) {
	if !(min >= 0) || !(max > min) {
		return nil, fmt.Errorf("%w: range [%v, %v)", ErrInvalidSensor, min, max)
	}
	if src == nil {
		return nil, fmt.Errorf("%w: random source is required", ErrInvalidSensor)
	}
	return &RandomSensor{min: min, max: max, src: src}, nil
}

// MeasureDistance draws one reading.
func (s *RandomSensor) MeasureDistance() (float64, error) {
	d := s.min + s.src.Float64()*(s.max-s.min)
	opsf("measured distance: %.2f meters", d)
	return d, nil
}
