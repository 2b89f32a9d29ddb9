package spectrogram

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// analyzer computes windowed power spectra of a fixed size.
type analyzer struct {
	size   int
	fft    *fourier.CmplxFFT
	window []float64
	gain   float64 // 1/(sum of window)^2
	in     []complex128
	out    []complex128
}

func newAnalyzer(size int) *analyzer {
	w := make([]float64, size)
	for i := range w {
		w[i] = 1
	}
	window.Hann(w)

	var sum float64
	for _, v := range w {
		sum += v
	}

	return &analyzer{
		size:   size,
		fft:    fourier.NewCmplxFFT(size),
		window: w,
		gain:   1 / (sum * sum),
		in:     make([]complex128, size),
		out:    make([]complex128, size),
	}
}

// power writes size bins of power in dB into dst, highest frequency first.
// Missing samples past the end of in are treated as zero.
func (a *analyzer) power(dst []float32, in []complex64) {
	for i := range a.in {
		if i < len(in) {
			a.in[i] = complex128(in[i]) * complex(a.window[i], 0)
		} else {
			a.in[i] = 0
		}
	}
	a.out = a.fft.Coefficients(a.out, a.in)

	for row := range dst[:a.size] {
		x := a.out[BinIndex(RowToBin(row, a.size), a.size)]
		mag2 := real(x)*real(x) + imag(x)*imag(x)
		dst[row] = float32(10 * math.Log10(mag2*a.gain+1e-20))
	}
}

// RowToBin returns the frequency bin, relative to DC, displayed on row. Row 0
// holds the highest frequency.
func RowToBin(row, fftSize int) int {
	return fftSize/2 - 1 - row
}

// BinToRow is the inverse of RowToBin.
func BinToRow(bin, fftSize int) int {
	return fftSize/2 - 1 - bin
}

// BinIndex returns the FFT output index of a signed bin.
func BinIndex(bin, fftSize int) int {
	return ((bin % fftSize) + fftSize) % fftSize
}
