package audio

import "math"

// Convert приводит PCM к заданной частоте, числу каналов и разрядности.
func Convert(src *PCM, sampleRate, channels, bitDepth int) *PCM {
	out := &PCM{
		SampleRate: src.SampleRate,
		Channels:   src.Channels,
		BitDepth:   src.BitDepth,
		Samples:    append([]int(nil), src.Samples...),
	}
	if out.Channels != channels {
		out = remix(out, channels)
	}
	if out.SampleRate != sampleRate {
		out = resample(out, sampleRate)
	}
	if out.BitDepth != bitDepth {
		out = requantize(out, bitDepth)
	}
	return out
}

// remix меняет число каналов: в моно — среднее по каналам, иначе канал c берётся из c mod srcChannels.
func remix(src *PCM, channels int) *PCM {
	frames := src.Frames()
	out := &PCM{SampleRate: src.SampleRate, Channels: channels, BitDepth: src.BitDepth, Samples: make([]int, frames*channels)}
	for f := 0; f < frames; f++ {
		in := src.Samples[f*src.Channels : (f+1)*src.Channels]
		if channels == 1 {
			sum := 0
			for _, s := range in {
				sum += s
			}
			out.Samples[f] = sum / len(in)
			continue
		}
		for c := 0; c < channels; c++ {
			out.Samples[f*channels+c] = in[c%src.Channels]
		}
	}
	return out
}

// resample меняет частоту линейной интерполяцией.
func resample(src *PCM, sampleRate int) *PCM {
	frames := src.Frames()
	n := int(math.Round(float64(frames) * float64(sampleRate) / float64(src.SampleRate)))
	out := &PCM{SampleRate: sampleRate, Channels: src.Channels, BitDepth: src.BitDepth, Samples: make([]int, n*src.Channels)}
	if frames == 0 {
		return out
	}
	ratio := float64(src.SampleRate) / float64(sampleRate)
	for f := 0; f < n; f++ {
		pos := float64(f) * ratio
		i := int(pos)
		if i >= frames-1 {
			i = frames - 1
		}
		frac := pos - float64(i)
		j := min(i+1, frames-1)
		for c := 0; c < src.Channels; c++ {
			a := float64(src.Samples[i*src.Channels+c])
			b := float64(src.Samples[j*src.Channels+c])
			out.Samples[f*src.Channels+c] = int(math.Round(a + (b-a)*frac))
		}
	}
	return out
}

// requantize меняет разрядность сдвигом отсчётов.
func requantize(src *PCM, bitDepth int) *PCM {
	out := &PCM{SampleRate: src.SampleRate, Channels: src.Channels, BitDepth: bitDepth, Samples: make([]int, len(src.Samples))}
	shift := bitDepth - src.BitDepth
	for i, s := range src.Samples {
		if shift > 0 {
			out.Samples[i] = s << shift
		} else {
			out.Samples[i] = s >> -shift
		}
	}
	return out
}
