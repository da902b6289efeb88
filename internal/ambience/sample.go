package ambience

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"
)

// resampleQuality is passed to beep.Resample.
const resampleQuality = 4

// OpenSample decodes a wind recording and loops it forever at rate. The
// returned func releases the file.
func OpenSample(path string, rate beep.SampleRate) (beep.Streamer, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	default:
		_ = f.Close()
		return nil, nil, errors.New("unsupported file type: " + ext)
	}
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	if streamer.Len() == 0 {
		_ = streamer.Close()
		_ = f.Close()
		return nil, nil, fmt.Errorf("%s is empty", filepath.Base(path))
	}

	var out beep.Streamer = beep.Loop(-1, streamer)
	if format.SampleRate != rate {
		out = beep.Resample(resampleQuality, format.SampleRate, rate, out)
	}
	release := func() {
		_ = streamer.Close()
		_ = f.Close()
	}
	return out, release, nil
}
