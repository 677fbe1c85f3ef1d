package audio

import (
	"fmt"
	"io"
)

// SourceFormat is a format an uploaded audio file might arrive in.
type SourceFormat string

const (
	SourceWAV  SourceFormat = "wav"
	SourceMP3  SourceFormat = "mp3"
	SourceFLAC SourceFormat = "flac"
)

// ExternalDecoder decodes a non-WAV source file into mono float32 PCM plus
// its native sample rate. Like ExternalEncoder, this is the seam a real
// codec library plugs into; it is not implemented here.
type ExternalDecoder func(r io.Reader) (samples []float32, sampleRate int, err error)

// ErrNoExternalDecoder is returned by Decoder.Decode for any non-WAV
// format with no registered ExternalDecoder.
type ErrNoExternalDecoder struct {
	Format SourceFormat
}

func (e *ErrNoExternalDecoder) Error() string {
	return fmt.Sprintf("audio: no external decoder configured for format %q", string(e.Format))
}

// Decoder dispatches an uploaded file to the right decode path: WAV is
// handled natively, everything else via a configured ExternalDecoder.
type Decoder struct {
	external map[SourceFormat]ExternalDecoder
}

// NewDecoder builds a Decoder; external may be nil.
func NewDecoder(external map[SourceFormat]ExternalDecoder) *Decoder {
	if external == nil {
		external = map[SourceFormat]ExternalDecoder{}
	}
	return &Decoder{external: external}
}

// Decode reads r (in the given source format) into mono float32 PCM and
// its native sample rate.
func (d *Decoder) Decode(format SourceFormat, r io.Reader) ([]float32, int, error) {
	if format == SourceWAV {
		pcm16, sampleRate, err := DecodeWAV(r)
		if err != nil {
			return nil, 0, err
		}
		return Int16LEToFloat32(pcm16), sampleRate, nil
	}
	dec, ok := d.external[format]
	if !ok {
		return nil, 0, &ErrNoExternalDecoder{Format: format}
	}
	return dec(r)
}
