package recorder

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const (
	wavSampleRate    = 48000
	wavChannels      = 2
	wavBitsPerSample = 16
	wavHeaderSize    = 44
)

// writeWAVFromPCM wraps a raw little-endian 16-bit PCM file in a RIFF/WAVE
// container. The distributable artifact format of the capture pipeline.
func writeWAVFromPCM(pcmPath, wavPath string) error {
	pcm, err := os.Open(pcmPath)
	if err != nil {
		return fmt.Errorf("open pcm: %w", err)
	}
	defer func() {
		_ = pcm.Close()
	}()
	info, err := pcm.Stat()
	if err != nil {
		return fmt.Errorf("stat pcm: %w", err)
	}
	dataSize := info.Size()

	out, err := os.Create(wavPath)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	if err := writeWAVHeader(out, dataSize); err != nil {
		_ = out.Close()
		return err
	}
	if _, err := io.Copy(out, pcm); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy pcm data: %w", err)
	}
	return out.Close()
}

func writeWAVHeader(w io.Writer, dataSize int64) error {
	byteRate := wavSampleRate * wavChannels * wavBitsPerSample / 8
	blockAlign := wavChannels * wavBitsPerSample / 8

	header := make([]byte, wavHeaderSize)
	copy(header[0:], "RIFF")
	binary.LittleEndian.PutUint32(header[4:], uint32(dataSize+wavHeaderSize-8))
	copy(header[8:], "WAVE")
	copy(header[12:], "fmt ")
	binary.LittleEndian.PutUint32(header[16:], 16)
	binary.LittleEndian.PutUint16(header[20:], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:], wavChannels)
	binary.LittleEndian.PutUint32(header[24:], wavSampleRate)
	binary.LittleEndian.PutUint32(header[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:], wavBitsPerSample)
	copy(header[36:], "data")
	binary.LittleEndian.PutUint32(header[40:], uint32(dataSize))

	_, err := w.Write(header)
	return err
}
