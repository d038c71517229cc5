package ltpanel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alfex4936/ltpanel/internal/store"
)

func writeList(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestReadWordList(t *testing.T) {
	words, err := ReadWordList(writeList(t, "# exported\nKubernetes\r\n\n  gRPC  \nšumnik"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Kubernetes", "gRPC", "šumnik"}, words)

	words, err = ReadWordList(writeList(t, ""))
	require.NoError(t, err)
	assert.Empty(t, words)

	_, err = ReadWordList(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestImportWordList(t *testing.T) {
	ctx := context.Background()
	st := store.New(store.NewMemory(), "")
	_, err := st.Update(ctx, func(s *store.Settings) error {
		s.Dictionary = []string{"gRPC"}
		return nil
	})
	require.NoError(t, err)

	n, err := ImportWordList(ctx, st, writeList(t, "Kubernetes\ngRPC\nKubernetes\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"gRPC", "Kubernetes"}, got.Dictionary)
	assert.Equal(t, int64(2), got.Version)
}

func TestImportWordList_LargeListWithRepeats(t *testing.T) {
	ctx := context.Background()
	st := store.New(store.NewMemory(), "")

	var b strings.Builder
	for i := range 20000 {
		fmt.Fprintf(&b, "word%d\n", i%5000)
	}
	n, err := ImportWordList(ctx, st, writeList(t, b.String()))
	require.NoError(t, err)
	assert.Equal(t, 5000, n)

	n, err = ImportWordList(ctx, st, writeList(t, b.String()))
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Dictionary, 5000)
	assert.Equal(t, "word0", got.Dictionary[0])
	assert.Equal(t, "word4999", got.Dictionary[4999])
}

func TestSession_ImportWordList(t *testing.T) {
	f := newFixture(t)
	_, err := f.s.Do(context.Background(), Action{Kind: ActionImportWordList, Path: writeList(t, "teh\n")})
	require.NoError(t, err)
	assert.Equal(t, []string{"teh"}, f.settings(t).Dictionary)
	assert.Zero(t, f.checker.count())
}
