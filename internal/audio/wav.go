package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// wavHeaderSize is the byte size of a canonical PCM WAV header.
const wavHeaderSize = 44

// EncodeWAV frames a clip as a canonical RIFF/WAVE file (PCM16, mono).
func EncodeWAV(clip *Clip) []byte {
	dataSize := len(clip.Samples) * 2
	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+dataSize))

	byteRate := clip.SampleRate * 2 // mono, 16-bit

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))         // fmt chunk size
	binary.Write(buf, binary.LittleEndian, uint16(1))          // PCM
	binary.Write(buf, binary.LittleEndian, uint16(1))          // mono
	binary.Write(buf, binary.LittleEndian, uint32(clip.SampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(buf, binary.LittleEndian, uint16(2))          // block align
	binary.Write(buf, binary.LittleEndian, uint16(16))         // bits per sample

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataSize))
	binary.Write(buf, binary.LittleEndian, clip.Samples)

	return buf.Bytes()
}

// DecodeWAV parses a PCM16 mono WAV file into a clip. Compressed formats,
// multi-channel audio and other bit depths are rejected.
func DecodeWAV(data []byte) (*Clip, error) {
	if len(data) < wavHeaderSize {
		return nil, fmt.Errorf("WAV data too short: %d bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF/WAVE file")
	}

	var sampleRate int
	pos := 12
	for pos+8 <= len(data) {
		chunkID := string(data[pos : pos+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+chunkSize > len(data) {
			return nil, fmt.Errorf("truncated %q chunk", chunkID)
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, fmt.Errorf("fmt chunk too short: %d bytes", chunkSize)
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			channels := binary.LittleEndian.Uint16(data[body+2 : body+4])
			bits := binary.LittleEndian.Uint16(data[body+14 : body+16])
			if format != 1 {
				return nil, fmt.Errorf("unsupported WAV format %d (PCM only)", format)
			}
			if channels != 1 {
				return nil, fmt.Errorf("unsupported channel count %d (mono only)", channels)
			}
			if bits != 16 {
				return nil, fmt.Errorf("unsupported bit depth %d (16-bit only)", bits)
			}
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
		case "data":
			if sampleRate == 0 {
				return nil, fmt.Errorf("data chunk before fmt chunk")
			}
			samples := make([]int16, chunkSize/2)
			if err := binary.Read(bytes.NewReader(data[body:body+chunkSize]), binary.LittleEndian, samples); err != nil {
				return nil, fmt.Errorf("reading samples: %w", err)
			}
			return &Clip{Samples: samples, SampleRate: sampleRate}, nil
		}

		// Chunks are word-aligned.
		pos = body + chunkSize
		if chunkSize%2 == 1 {
			pos++
		}
	}
	return nil, fmt.Errorf("no data chunk found")
}
