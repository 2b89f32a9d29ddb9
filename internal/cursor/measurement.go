package cursor

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Measurement is the timing of a cursor selection.
type Measurement struct {
	Samples    int64
	SampleRate float64
	Segments   int
}

// Period is the selection duration in seconds.
func (m Measurement) Period() float64 {
	if m.SampleRate <= 0 {
		return 0
	}
	return float64(m.Samples) / m.SampleRate
}

// Rate is the reciprocal of the period in Hz.
func (m Measurement) Rate() float64 {
	if p := m.Period(); p > 0 {
		return 1 / p
	}
	return 0
}

// SymbolPeriod is the duration of one segment in seconds.
func (m Measurement) SymbolPeriod() float64 {
	return m.Period() / float64(max(1, m.Segments))
}

// SymbolRate is the number of segments per second, in baud.
func (m Measurement) SymbolRate() float64 {
	if p := m.Period(); p > 0 {
		return float64(max(1, m.Segments)) / p
	}
	return 0
}

func (m Measurement) String() string {
	return fmt.Sprintf("Period: %s Rate: %s Symbol period: %s Symbol rate: %s",
		humanize.SIWithDigits(m.Period(), 3, "s"),
		humanize.SIWithDigits(m.Rate(), 3, "Hz"),
		humanize.SIWithDigits(m.SymbolPeriod(), 3, "s"),
		humanize.SIWithDigits(m.SymbolRate(), 3, "Bd"))
}
