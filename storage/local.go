package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Local writes files below Root and serves them from PublicPrefix.
type Local struct {
	Root         string
	PublicPrefix string
}

func NewLocal(root, publicPrefix string) (*Local, error) {
	if root == "" {
		root = "./uploads"
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, os.ModePerm); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	if publicPrefix == "" {
		publicPrefix = "/uploads"
	}
	return &Local{Root: abs, PublicPrefix: strings.TrimRight(publicPrefix, "/")}, nil
}

func (l *Local) resolve(location string) (string, error) {
	full := filepath.Join(l.Root, filepath.FromSlash(location))
	rel, err := filepath.Rel(l.Root, full)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", ErrInvalidPath
	}
	return full, nil
}

func (l *Local) Save(ctx context.Context, folder, filename, _ string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name, err := objectName(folder, filename)
	if err != nil {
		return "", err
	}
	full, err := l.resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), os.ModePerm); err != nil {
		return "", fmt.Errorf("create folder: %w", err)
	}

	f, err := os.OpenFile(full, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		f.Close()
		_ = os.Remove(full)
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return name, nil
}

func (l *Local) Open(_ context.Context, location string) (io.ReadCloser, error) {
	full, err := l.resolve(location)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

func (l *Local) URL(_ context.Context, location string) (string, error) {
	if _, err := l.resolve(location); err != nil {
		return "", err
	}
	return l.PublicPrefix + "/" + strings.TrimPrefix(filepath.ToSlash(location), "/"), nil
}
