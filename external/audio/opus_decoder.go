//go:build opus

package audio

import (
	"github.com/foxseedlab/gijirokun/internal/audio"
	"github.com/hraban/opus"
)

const (
	sampleRate = 48000
	channels   = 2
)

type opusDecoder struct {
	dec *opus.Decoder
}

func NewOpusDecoder() (audio.Decoder, error) {
	dec, err := opus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, err
	}
	return &opusDecoder{dec: dec}, nil
}

func (d *opusDecoder) Decode(packet []byte, pcm []int16) (int, error) {
	return d.dec.Decode(packet, pcm)
}
