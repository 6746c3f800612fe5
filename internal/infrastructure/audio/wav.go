package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

// DecodeWAV читает WAV целиком.
func DecodeWAV(r io.ReadSeeker) (*PCM, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, errors.New("invalid wav file")
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read pcm: %w", err)
	}
	return &PCM{
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		BitDepth:   int(d.BitDepth),
		Samples:    buf.Data,
	}, nil
}

// ReadWAV читает WAV-файл.
func ReadWAV(path string) (*PCM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pcm, err := DecodeWAV(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return pcm, nil
}

// EncodeWAV записывает PCM в WAV.
func EncodeWAV(w io.WriteSeeker, pcm *PCM) error {
	if err := pcm.validate(); err != nil {
		return err
	}
	e := wav.NewEncoder(w, pcm.SampleRate, pcm.BitDepth, pcm.Channels, wavFormatPCM)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: pcm.Channels,
			SampleRate:  pcm.SampleRate,
		},
		Data:           pcm.Samples,
		SourceBitDepth: pcm.BitDepth,
	}
	if err := e.Write(buf); err != nil {
		return fmt.Errorf("write pcm: %w", err)
	}
	return e.Close()
}

// WriteWAV записывает PCM в WAV-файл.
func WriteWAV(path string, pcm *PCM) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeWAV(f, pcm); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
