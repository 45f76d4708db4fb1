// Package file persists cache contents as one file per cache under the key's
// root directory. Writes go to a temporary file that is renamed into place,
// so readers never see a partial file.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/unkn0wn-root/cachewrap/internal/util"
	pr "github.com/unkn0wn-root/cachewrap/provider"
)

const (
	ext           = ".cwr"
	compressedExt = ".cwr.zst"
)

type Provider struct {
	dirMode  os.FileMode
	fileMode os.FileMode

	encoder *zstd.Encoder // nil => no compression
	decoder *zstd.Decoder
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	// CompressionLevel is a zstd level (1-22); 0 disables compression.
	CompressionLevel int
	DirMode          os.FileMode // 0 => 0o755
	FileMode         os.FileMode // 0 => 0o644
}

func New(cfg Config) (*Provider, error) {
	p := &Provider{
		dirMode:  cfg.DirMode,
		fileMode: cfg.FileMode,
	}
	if p.dirMode == 0 {
		p.dirMode = 0o755
	}
	if p.fileMode == 0 {
		p.fileMode = 0o644
	}

	if cfg.CompressionLevel > 0 {
		var err error
		p.encoder, err = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(cfg.CompressionLevel)))
		if err != nil {
			return nil, fmt.Errorf("file provider: create zstd encoder: %w", err)
		}
		p.decoder, err = zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("file provider: create zstd decoder: %w", err)
		}
	}
	return p, nil
}

// Path returns the file a key is stored in.
func (p *Provider) Path(key pr.Key) string {
	e := ext
	if p.encoder != nil {
		e = compressedExt
	}
	return filepath.Join(key.Root, util.SafeName(key.Name)+e)
}

func (p *Provider) Get(_ context.Context, key pr.Key) ([]byte, bool, error) {
	b, err := os.ReadFile(p.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if p.decoder != nil {
		if b, err = p.decoder.DecodeAll(b, nil); err != nil {
			return nil, false, fmt.Errorf("file provider: decompress %s: %w", key.Name, err)
		}
	}
	return b, true, nil
}

func (p *Provider) Set(_ context.Context, key pr.Key, value []byte) (bool, error) {
	if err := os.MkdirAll(key.Root, p.dirMode); err != nil {
		return false, fmt.Errorf("file provider: unable to build cache directory %s: %w", key.Root, err)
	}
	if p.encoder != nil {
		value = p.encoder.EncodeAll(value, nil)
	}

	path := p.Path(key)
	tmp, err := os.CreateTemp(key.Root, filepath.Base(path)+".tmp-*")
	if err != nil {
		return false, err
	}
	// On any failure below the temp file must not linger.
	ok := false
	defer func() {
		if !ok {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return false, fmt.Errorf("file provider: unable to save %s: %w", key.Name, err)
	}
	if err := tmp.Chmod(p.fileMode); err != nil {
		_ = tmp.Close()
		return false, err
	}
	if err := tmp.Close(); err != nil {
		return false, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return false, fmt.Errorf("file provider: unable to save %s: %w", key.Name, err)
	}
	ok = true
	return true, nil
}

func (p *Provider) Del(_ context.Context, key pr.Key) error {
	err := os.Remove(p.Path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (p *Provider) Close(_ context.Context) error {
	if p.encoder != nil {
		_ = p.encoder.Close()
	}
	if p.decoder != nil {
		p.decoder.Close()
	}
	return nil
}
