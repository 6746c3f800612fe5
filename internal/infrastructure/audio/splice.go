package audio

import (
	"errors"
	"fmt"

	"censor-bot/internal/domain/entity"
)

// Splice заменяет отрезки intervals исходного аудио сигналом tone.
// Сигнал приводится к формату исходника, повторяется ceil(d/len) раз и обрезается
// ровно до длины отрезка, поэтому число кадров результата всегда равно исходному.
// Отрезки должны идти по возрастанию и не пересекаться.
func Splice(orig *PCM, intervals []entity.ProfanityInterval, tone *PCM) (*PCM, error) {
	if err := orig.validate(); err != nil {
		return nil, err
	}
	if err := checkIntervals(intervals); err != nil {
		return nil, err
	}

	out := &PCM{
		SampleRate: orig.SampleRate,
		Channels:   orig.Channels,
		BitDepth:   orig.BitDepth,
		Samples:    make([]int, 0, len(orig.Samples)),
	}
	if len(intervals) == 0 {
		out.Samples = append(out.Samples, orig.Samples...)
		return out, nil
	}

	if tone == nil || tone.Frames() == 0 {
		return nil, errors.New("censor tone is empty")
	}
	if !tone.SameFormat(orig) {
		tone = Convert(tone, orig.SampleRate, orig.Channels, orig.BitDepth)
	}
	if tone.Frames() == 0 {
		return nil, errors.New("censor tone is empty after conversion")
	}

	total := orig.Frames()
	cursor := 0
	for _, iv := range intervals {
		start := max(orig.FrameAt(iv.Start), cursor)
		end := max(orig.FrameAt(iv.End), start)

		out.Samples = append(out.Samples, orig.frames(cursor, start)...)
		out.Samples = appendLooped(out.Samples, tone, end-start)
		cursor = end
	}
	out.Samples = append(out.Samples, orig.frames(cursor, total)...)

	if out.Frames() != total {
		return nil, fmt.Errorf("%w: spliced %d frames, original %d", entity.ErrDurationMismatch, out.Frames(), total)
	}
	return out, nil
}

// appendLooped дописывает n кадров сигнала tone, повторяя его по кругу.
func appendLooped(dst []int, tone *PCM, n int) []int {
	toneFrames := tone.Frames()
	repeats := (n + toneFrames - 1) / toneFrames
	for r := 0; r < repeats && n > 0; r++ {
		take := min(toneFrames, n)
		dst = append(dst, tone.frames(0, take)...)
		n -= take
	}
	return dst
}

func checkIntervals(intervals []entity.ProfanityInterval) error {
	prevEnd := 0.0
	for i, iv := range intervals {
		if iv.End < iv.Start || (i > 0 && iv.Start < prevEnd) {
			return fmt.Errorf("%w: %s at %d", entity.ErrInvalidIntervals, iv, i)
		}
		prevEnd = iv.End
	}
	return nil
}
