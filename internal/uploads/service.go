package uploads

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"pet-adoption-api/internal/platform/logger"
	"pet-adoption-api/internal/platform/metrics"
)

const (
	DefaultMaxBytes = 5 << 20
	MaxKeyLen       = 200
)

var (
	ErrEmpty           = errors.New("file is empty")
	ErrTooLarge        = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrKeyReused       = errors.New("idempotency key already used for a different file")
	ErrInvalidKey      = errors.New("invalid idempotency key")
)

// allowedTypes: content type detectado -> extensión del archivo guardado.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type Config struct {
	Dir       string
	PublicURL string
	MaxBytes  int64
}

type Result struct {
	Filename string
	URL      string
	// Replayed indica que se devolvió un archivo ya guardado.
	Replayed bool
}

type Service struct {
	dir       string
	publicURL string
	maxBytes  int64
	index     *Index
	log       logger.Logger
	now       func() time.Time
}

func NewService(cfg Config, index *Index, log logger.Logger) (*Service, error) {
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, errors.New("uploads dir required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		dir:       cfg.Dir,
		publicURL: strings.TrimRight(strings.TrimSpace(cfg.PublicURL), "/"),
		maxBytes:  cfg.MaxBytes,
		index:     index,
		log:       log,
		now:       time.Now,
	}, nil
}

func (s *Service) MaxBytes() int64 { return s.maxBytes }

// Store guarda la imagen. Con la misma clave (o el mismo contenido si no
// hay clave) devuelve siempre el mismo archivo.
func (s *Service) Store(ctx context.Context, idemKey string, r io.Reader) (Result, error) {
	idemKey = strings.TrimSpace(idemKey)
	if len(idemKey) > MaxKeyLen {
		return Result{}, ErrInvalidKey
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return Result{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return Result{}, s.reject(ErrEmpty)
	}
	if int64(len(data)) > s.maxBytes {
		return Result{}, s.reject(ErrTooLarge)
	}

	contentType := http.DetectContentType(data)
	ext, ok := allowedTypes[contentType]
	if !ok {
		return Result{}, s.reject(ErrUnsupportedType)
	}

	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])

	key := "sha256:" + digest
	if idemKey != "" {
		key = "key:" + idemKey
	}

	if rec, found, err := s.index.Get(key); err != nil {
		return Result{}, err
	} else if found {
		if res, ok, err := s.replay(key, rec, digest); ok || err != nil {
			return res, err
		}
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	filename := uuid.NewString() + ext
	if err := s.writeFile(filename, data); err != nil {
		return Result{}, err
	}

	rec, created, err := s.index.PutIfAbsent(key, Record{
		Filename:    filename,
		SHA256:      digest,
		Size:        int64(len(data)),
		ContentType: contentType,
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		_ = os.Remove(filepath.Join(s.dir, filename))
		return Result{}, fmt.Errorf("index upload: %w", err)
	}
	if !created {
		// otro request con la misma clave ganó la carrera
		_ = os.Remove(filepath.Join(s.dir, filename))
		if rec.SHA256 != digest {
			return Result{}, s.reject(ErrKeyReused)
		}
		metrics.UploadsStored.WithLabelValues("replayed").Inc()
		return Result{Filename: rec.Filename, URL: s.url(rec.Filename), Replayed: true}, nil
	}

	metrics.UploadsStored.WithLabelValues("stored").Inc()
	s.log.Info("upload stored", map[string]any{
		"filename":     filename,
		"size":         len(data),
		"content_type": contentType,
	})
	return Result{Filename: filename, URL: s.url(filename)}, nil
}

// replay devuelve el archivo indexado. Si el archivo ya no está en disco se
// borra la entrada y se vuelve a guardar (ok=false).
func (s *Service) replay(key string, rec Record, digest string) (Result, bool, error) {
	if rec.SHA256 != digest {
		return Result{}, false, s.reject(ErrKeyReused)
	}
	if _, err := os.Stat(filepath.Join(s.dir, rec.Filename)); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Result{}, false, err
		}
		s.log.Warn("indexed upload missing on disk, storing again", map[string]any{"filename": rec.Filename})
		if err := s.index.Delete(key); err != nil {
			return Result{}, false, err
		}
		return Result{}, false, nil
	}
	metrics.UploadsStored.WithLabelValues("replayed").Inc()
	return Result{Filename: rec.Filename, URL: s.url(rec.Filename), Replayed: true}, true, nil
}

func (s *Service) writeFile(filename string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close upload: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(s.dir, filename))
}

func (s *Service) url(filename string) string {
	return s.publicURL + "/uploads/" + filename
}

func (s *Service) reject(err error) error {
	metrics.UploadsStored.WithLabelValues("rejected").Inc()
	return err
}
