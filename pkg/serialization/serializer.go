// Package serialization turns diagram data into self-describing byte blobs
// for history snapshots and document storage
// PRINCIPLES:
// - KISS: One pipeline, encode then compress then encrypt
// - SRP: Codecs only encode, the serializer only sequences stages
package serialization

import (
	"bytes"
	"compress/gzip"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// Serialization errors
var (
	ErrUnknownCodec       = errors.New("unknown codec")
	ErrUnknownCompression = errors.New("unknown compression")
	ErrInvalidKey         = errors.New("encryption key must be 16, 24 or 32 bytes")
	ErrMissingKey         = errors.New("blob is encrypted but no key is configured")
	ErrCorrupt            = errors.New("corrupt blob")
)

// Normalizer is implemented by values that fix up codec-specific types
// after decoding.
type Normalizer interface {
	NormalizeNumbers()
}

// Codec encodes values to bytes and back.
type Codec interface {
	Encode(v interface{}) ([]byte, error)
	Decode(data []byte, v interface{}) error
	Name() string
}

// Compression selects the compression stage.
type Compression byte

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	}
	return fmt.Sprintf("compression(%d)", byte(c))
}

// ParseCompression maps a config value to a Compression. Empty means zstd.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "zstd":
		return CompressionZstd, nil
	case "gzip":
		return CompressionGzip, nil
	case "none":
		return CompressionNone, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCompression, s)
}

// JSONCodec implements JSON serialization
type JSONCodec struct{}

func (JSONCodec) Encode(v interface{}) ([]byte, error)    { return json.Marshal(v) }
func (JSONCodec) Decode(data []byte, v interface{}) error { return json.Unmarshal(data, v) }
func (JSONCodec) Name() string                            { return "json" }

// MsgPackCodec implements MessagePack serialization
type MsgPackCodec struct{}

func (MsgPackCodec) Encode(v interface{}) ([]byte, error)    { return msgpack.Marshal(v) }
func (MsgPackCodec) Decode(data []byte, v interface{}) error { return msgpack.Unmarshal(data, v) }
func (MsgPackCodec) Name() string                            { return "msgpack" }

// CodecByName returns a built-in codec.
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "msgpack":
		return MsgPackCodec{}, nil
	case "json":
		return JSONCodec{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
}

// Options configures a Serializer.
type Options struct {
	Codec       Codec
	Compression Compression
	// Key enables AES-GCM encryption when set.
	Key []byte
}

// Serializer runs the encode, compress, encrypt pipeline. Every blob starts
// with a short header naming its codec and stages, so a blob written with
// one configuration can be read by a serializer configured differently.
type Serializer struct {
	opts Options

	zstdOnce sync.Once
	zenc     *zstd.Encoder
	zdec     *zstd.Decoder
	zstdErr  error
}

// New validates opts and returns a serializer. A nil codec means msgpack.
func New(opts Options) (*Serializer, error) {
	if opts.Codec == nil {
		opts.Codec = MsgPackCodec{}
	}
	if opts.Compression > CompressionZstd {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCompression, opts.Compression)
	}
	switch len(opts.Key) {
	case 0, 16, 24, 32:
	default:
		return nil, ErrInvalidKey
	}
	return &Serializer{opts: opts}, nil
}

// Default returns a msgpack+zstd serializer without encryption.
func Default() *Serializer {
	return &Serializer{opts: Options{Codec: MsgPackCodec{}, Compression: CompressionZstd}}
}

// Describe names the pipeline, for logs.
func (s *Serializer) Describe() string {
	d := s.opts.Codec.Name() + "+" + s.opts.Compression.String()
	if len(s.opts.Key) > 0 {
		d += "+aes"
	}
	return d
}

const (
	magic0, magic1 = 'F', 'C'
	version        = 1
	flagEncrypted  = 1 << 0
)

// Marshal encodes v into a self-describing blob.
func (s *Serializer) Marshal(v interface{}) ([]byte, error) {
	data, err := s.opts.Codec.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("codec encoding failed: %w", err)
	}
	if data, err = s.compress(s.opts.Compression, data); err != nil {
		return nil, fmt.Errorf("compression failed: %w", err)
	}
	var flags byte
	if len(s.opts.Key) > 0 {
		if data, err = s.encrypt(data); err != nil {
			return nil, fmt.Errorf("encryption failed: %w", err)
		}
		flags |= flagEncrypted
	}

	name := s.opts.Codec.Name()
	out := make([]byte, 0, 6+len(name)+len(data))
	out = append(out, magic0, magic1, version, flags, byte(s.opts.Compression), byte(len(name)))
	out = append(out, name...)
	return append(out, data...), nil
}

// Unmarshal decodes a blob produced by any Serializer into v.
func (s *Serializer) Unmarshal(blob []byte, v interface{}) error {
	if len(blob) < 6 || blob[0] != magic0 || blob[1] != magic1 || blob[2] != version {
		return ErrCorrupt
	}
	flags, comp, n := blob[3], Compression(blob[4]), int(blob[5])
	if len(blob) < 6+n {
		return ErrCorrupt
	}
	codec, err := CodecByName(string(blob[6 : 6+n]))
	if err != nil {
		return err
	}
	data := blob[6+n:]

	if flags&flagEncrypted != 0 {
		if len(s.opts.Key) == 0 {
			return ErrMissingKey
		}
		if data, err = s.decrypt(data); err != nil {
			return fmt.Errorf("decryption failed: %w", err)
		}
	}
	if data, err = s.decompress(comp, data); err != nil {
		return fmt.Errorf("decompression failed: %w", err)
	}
	if err := codec.Decode(data, v); err != nil {
		return fmt.Errorf("codec decoding failed: %w", err)
	}
	normalize(v)
	return nil
}

// normalize calls NormalizeNumbers on v, or on *v when v points at a
// pointer the decoder allocated.
func normalize(v interface{}) {
	if n, ok := v.(Normalizer); ok {
		n.NormalizeNumbers()
		return
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return
	}
	if el := rv.Elem(); el.Kind() == reflect.Pointer && !el.IsNil() {
		if n, ok := el.Interface().(Normalizer); ok {
			n.NormalizeNumbers()
		}
	}
}

func (s *Serializer) zstd() (*zstd.Encoder, *zstd.Decoder, error) {
	s.zstdOnce.Do(func() {
		if s.zenc, s.zstdErr = zstd.NewWriter(nil); s.zstdErr != nil {
			return
		}
		s.zdec, s.zstdErr = zstd.NewReader(nil)
	})
	return s.zenc, s.zdec, s.zstdErr
}

func (s *Serializer) compress(c Compression, data []byte) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionGzip:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CompressionZstd:
		enc, _, err := s.zstd()
		if err != nil {
			return nil, err
		}
		return enc.EncodeAll(data, nil), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownCompression, c)
}

func (s *Serializer) decompress(c Compression, data []byte) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionGzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case CompressionZstd:
		_, dec, err := s.zstd()
		if err != nil {
			return nil, err
		}
		return dec.DecodeAll(data, nil)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownCompression, c)
}

func (s *Serializer) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.opts.Key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// encrypt seals data with AES-GCM, prefixing the random nonce
func (s *Serializer) encrypt(data []byte) ([]byte, error) {
	gcm, err := s.gcm()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, data, nil), nil
}

func (s *Serializer) decrypt(data []byte) ([]byte, error) {
	gcm, err := s.gcm()
	if err != nil {
		return nil, err
	}
	if len(data) < gcm.NonceSize() {
		return nil, fmt.Errorf("invalid ciphertext size")
	}
	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
