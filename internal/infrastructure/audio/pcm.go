// Package audio работает с несжатым PCM: чтение и запись WAV, приведение формата
// и склейка с заменой отрезков на сигнал цензуры.
package audio

import (
	"fmt"
	"math"
	"time"
)

// PCM несжатое аудио с чередующимися отсчётами каналов.
type PCM struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Samples    []int
}

// Frames число кадров (отсчётов на канал).
func (p *PCM) Frames() int {
	if p.Channels <= 0 {
		return 0
	}
	return len(p.Samples) / p.Channels
}

// Seconds длительность в секундах.
func (p *PCM) Seconds() float64 {
	if p.SampleRate <= 0 {
		return 0
	}
	return float64(p.Frames()) / float64(p.SampleRate)
}

// Duration длительность.
func (p *PCM) Duration() time.Duration {
	return time.Duration(p.Seconds() * float64(time.Second))
}

// FrameAt переводит секунды в номер кадра по собственной частоте дискретизации, с обрезкой по длине.
func (p *PCM) FrameAt(seconds float64) int {
	n := int(math.Round(seconds * float64(p.SampleRate)))
	if n < 0 {
		return 0
	}
	if total := p.Frames(); n > total {
		return total
	}
	return n
}

// frames возвращает отсчёты кадров [from, to).
func (p *PCM) frames(from, to int) []int {
	return p.Samples[from*p.Channels : to*p.Channels]
}

// SameFormat сообщает, совпадают ли частота, число каналов и разрядность.
func (p *PCM) SameFormat(other *PCM) bool {
	return p.SampleRate == other.SampleRate && p.Channels == other.Channels && p.BitDepth == other.BitDepth
}

func (p *PCM) validate() error {
	if p.SampleRate <= 0 || p.Channels <= 0 || p.BitDepth <= 0 {
		return fmt.Errorf("invalid pcm format: rate=%d channels=%d depth=%d", p.SampleRate, p.Channels, p.BitDepth)
	}
	if len(p.Samples)%p.Channels != 0 {
		return fmt.Errorf("pcm has %d samples, not a multiple of %d channels", len(p.Samples), p.Channels)
	}
	return nil
}
