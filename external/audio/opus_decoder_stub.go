//go:build !opus

package audio

import "github.com/foxseedlab/gijirokun/internal/audio"

type noopDecoder struct{}

func NewOpusDecoder() (audio.Decoder, error) {
	return noopDecoder{}, nil
}

func (noopDecoder) Decode(_ []byte, _ []int16) (int, error) {
	return 0, nil
}
