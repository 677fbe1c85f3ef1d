package audio

import (
	"bytes"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Format is a TTS response container/codec.
type Format string

const (
	FormatMP3  Format = "mp3"
	FormatFLAC Format = "flac"
	FormatWAV  Format = "wav"
	FormatPCM  Format = "pcm"
)

// Streamable formats can be sent to the client chunk-by-chunk as PCM
// arrives; non-streamable formats require the full PCM stream buffered
// before a single container can be muxed.
func (f Format) Streamable() bool {
	return f == FormatPCM || f == FormatMP3
}

// ContentType is the media type sent in the TTS response's Content-Type header.
func (f Format) ContentType() string {
	switch f {
	case FormatMP3:
		return "audio/mp3"
	case FormatFLAC:
		return "audio/flac"
	case FormatWAV:
		return "audio/wav"
	default:
		return "audio/pcm"
	}
}

// EncodeWAV wraps signed 16-bit LE mono PCM in a RIFF/WAVE container.
// pcm16 is raw wire bytes (2 bytes per sample, little-endian).
func EncodeWAV(pcm16 []byte, sampleRate int) ([]byte, error) {
	samples := Int16LEToFloat32(pcm16)

	buf := &bytes.Buffer{}
	enc := wav.NewEncoder(buf, sampleRate, 16, 1, 1)

	intBuf := &goaudio.IntBuffer{
		Format: &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:   make([]int, len(samples)),
	}
	for i, s := range samples {
		intBuf.Data[i] = int(s * 32767.0)
	}

	if err := enc.Write(intBuf); err != nil {
		return nil, fmt.Errorf("audio: encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("audio: close wav encoder: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeWAV reads a RIFF/WAVE file back into signed 16-bit LE mono PCM and
// its sample rate.
func DecodeWAV(r io.Reader) (pcm16 []byte, sampleRate int, err error) {
	dec := wav.NewDecoder(toReadSeeker(r))
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("audio: not a valid WAV file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("audio: decode wav: %w", err)
	}
	samples := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float32(v) / 32768.0
	}
	return Float32ToInt16LE(samples), buf.Format.SampleRate, nil
}

func toReadSeeker(r io.Reader) io.ReadSeeker {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs
	}
	data, _ := io.ReadAll(r)
	return bytes.NewReader(data)
}

// ExternalEncoder muxes raw PCM into a non-WAV/PCM container (mp3, flac).
// The concrete encoder is an out-of-scope external collaborator per the
// gateway's design — this package only defines the seam a real codec
// library plugs into.
type ExternalEncoder func(pcm16 []byte, sampleRate int) ([]byte, error)

// ErrNoExternalEncoder is returned by Mux for mp3/flac when no
// ExternalEncoder has been configured for that format.
type ErrNoExternalEncoder struct {
	Format Format
}

func (e *ErrNoExternalEncoder) Error() string {
	return fmt.Sprintf("audio: no external encoder configured for format %q", string(e.Format))
}

// Muxer dispatches PCM to the right container encoder: WAV and PCM are
// handled natively; mp3/flac are delegated to configured ExternalEncoders.
type Muxer struct {
	external map[Format]ExternalEncoder
}

// NewMuxer builds a Muxer. external may be nil; formats without a
// registered encoder fail with ErrNoExternalEncoder rather than silently
// falling back to a different container.
func NewMuxer(external map[Format]ExternalEncoder) *Muxer {
	if external == nil {
		external = map[Format]ExternalEncoder{}
	}
	return &Muxer{external: external}
}

// Mux encodes pcm16 into the requested format.
func (m *Muxer) Mux(format Format, pcm16 []byte, sampleRate int) ([]byte, error) {
	switch format {
	case FormatPCM:
		return pcm16, nil
	case FormatWAV:
		return EncodeWAV(pcm16, sampleRate)
	default:
		enc, ok := m.external[format]
		if !ok {
			return nil, &ErrNoExternalEncoder{Format: format}
		}
		return enc(pcm16, sampleRate)
	}
}
