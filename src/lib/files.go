package lib

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
)

// FileStore persists uploaded files and returns a reference to them.
type FileStore interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

// URLSigner is implemented by stores that can hand out temporary download
// links for stored keys.
type URLSigner interface {
	PresignURL(ctx context.Context, key string) (string, error)
}

// ProofKey names the object holding a payment proof for a transaction.
func ProofKey(transactionID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	base := slug.Make(strings.TrimSuffix(path.Base(filename), path.Ext(filename)))
	if base == "" {
		base = "proof"
	}
	return fmt.Sprintf("proofs/%s/%s%s", transactionID, base, ext)
}

type LocalFileStore struct {
	Dir string
}

func (s LocalFileStore) Put(_ context.Context, key string, body io.Reader, _ string) (string, error) {
	dest := filepath.Join(s.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, body); err != nil {
		return "", err
	}
	return key, nil
}
