package lib

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProofKey(t *testing.T) {
	assert.Equal(t, "proofs/abc/bukti-transfer-bca.jpg", ProofKey("abc", "Bukti Transfer BCA.JPG"))
	assert.Equal(t, "proofs/abc/proof.png", ProofKey("abc", "!!!.png"))
	assert.Equal(t, "proofs/abc/passwd", ProofKey("abc", "../../etc/passwd"))
}

func TestLocalFileStore(t *testing.T) {
	store := LocalFileStore{Dir: t.TempDir()}

	ref, err := store.Put(context.Background(), "proofs/abc/receipt.png", strings.NewReader("png-bytes"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "proofs/abc/receipt.png", ref)

	b, err := os.ReadFile(filepath.Join(store.Dir, "proofs", "abc", "receipt.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(b))
}
