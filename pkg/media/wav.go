// Package media provides lightweight probes over generated media files
package media

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// WAVDuration reads a RIFF/WAVE file's header chunks and returns the
// playback length in seconds.
func WAVDuration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()
	return wavDuration(f)
}

func wavDuration(r io.ReadSeeker) (float64, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return 0, fmt.Errorf("not a wav file: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return 0, fmt.Errorf("not a wav file")
	}

	var byteRate uint32
	var dataSize uint32
	haveFmt, haveData := false, false

	for !(haveFmt && haveData) {
		var header [8]byte
		if _, err := io.ReadFull(r, header[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return 0, fmt.Errorf("malformed wav chunk: %w", err)
		}
		id := string(header[0:4])
		size := binary.LittleEndian.Uint32(header[4:8])

		switch id {
		case "fmt ":
			var fmtChunk [16]byte
			if _, err := io.ReadFull(r, fmtChunk[:]); err != nil {
				return 0, fmt.Errorf("malformed fmt chunk: %w", err)
			}
			byteRate = binary.LittleEndian.Uint32(fmtChunk[8:12])
			haveFmt = true
			if size > 16 {
				if _, err := r.Seek(int64(size-16), io.SeekCurrent); err != nil {
					return 0, err
				}
			}
		case "data":
			dataSize = size
			haveData = true
			if _, err := r.Seek(int64(size), io.SeekCurrent); err != nil {
				return 0, err
			}
		default:
			if _, err := r.Seek(int64(size), io.SeekCurrent); err != nil {
				return 0, err
			}
		}
		// Chunks are word-aligned
		if size%2 == 1 {
			if _, err := r.Seek(1, io.SeekCurrent); err != nil {
				return 0, err
			}
		}
	}

	if !haveFmt || !haveData {
		return 0, fmt.Errorf("wav file missing fmt or data chunk")
	}
	if byteRate == 0 {
		return 0, fmt.Errorf("wav file reports zero byte rate")
	}

	return float64(dataSize) / float64(byteRate), nil
}

// WriteWAV wraps raw PCM bytes in a RIFF/WAVE container, matching the
// 24kHz mono 16-bit format speech providers return.
func WriteWAV(path string, pcm []byte, channels, sampleRate, sampleWidth int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create wav file: %w", err)
	}
	defer f.Close()

	byteRate := sampleRate * channels * sampleWidth
	blockAlign := channels * sampleWidth

	var header [44]byte
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+len(pcm)))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], uint16(sampleWidth*8))
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(len(pcm)))

	if _, err := f.Write(header[:]); err != nil {
		return err
	}
	if _, err := f.Write(pcm); err != nil {
		return err
	}
	return nil
}
