package audio

// Decoder decodes one opus packet into interleaved 48kHz stereo PCM and
// returns the number of samples written per channel.
type Decoder interface {
	Decode(packet []byte, pcm []int16) (int, error)
}

type DecoderFactory func() (Decoder, error)
