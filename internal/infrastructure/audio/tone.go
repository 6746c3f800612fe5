package audio

import (
	"math"
	"time"
)

// DefaultToneHz частота стандартного сигнала цензуры.
const DefaultToneHz = 1000

// Beep генерирует синусоидальный сигнал половинной громкости.
func Beep(sampleRate, channels, bitDepth int, d time.Duration, hz float64) *PCM {
	frames := int(math.Round(d.Seconds() * float64(sampleRate)))
	amp := float64(int(1)<<(bitDepth-1)-1) / 2
	out := &PCM{SampleRate: sampleRate, Channels: channels, BitDepth: bitDepth, Samples: make([]int, frames*channels)}
	for f := 0; f < frames; f++ {
		v := int(math.Round(amp * math.Sin(2*math.Pi*hz*float64(f)/float64(sampleRate))))
		for c := 0; c < channels; c++ {
			out.Samples[f*channels+c] = v
		}
	}
	return out
}
