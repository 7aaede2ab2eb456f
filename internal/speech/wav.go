package speech

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"snaptrans/internal/domain"
)

const (
	wavBitDepth   = 16
	wavChannels   = 1
	wavFormatPCM  = 1
	bytesPerFrame = 2
)

func writeWAV(path string, frame domain.AudioFrame) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create wav file: %w", err)
	}

	encoder := wav.NewEncoder(file, frame.SampleRate, wavBitDepth, wavChannels, wavFormatPCM)
	buffer := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: wavChannels, SampleRate: frame.SampleRate},
		Data:           pcmToInts(frame.PCM),
		SourceBitDepth: wavBitDepth,
	}

	if err := encoder.Write(buffer); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to encode wav: %w", err)
	}
	if err := encoder.Close(); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to finalize wav: %w", err)
	}
	return file.Close()
}

func pcmToInts(pcm []byte) []int {
	samples := make([]int, len(pcm)/bytesPerFrame)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*bytesPerFrame:])))
	}
	return samples
}
