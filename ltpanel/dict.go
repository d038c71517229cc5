package ltpanel

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/Alfex4936/ltpanel/internal/store"
)

// ReadWordList reads a one-word-per-line file. Blank lines and lines
// starting with '#' are skipped. The file is memory-mapped, so large
// exported dictionaries are not copied before splitting.
func ReadWordList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ltpanel: word list: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("ltpanel: word list: %w", err)
	}
	if info.Size() == 0 {
		return []string{}, nil
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("ltpanel: mmap %s: %w", path, err)
	}
	defer m.Unmap()

	words := []string{}
	for line := range bytes.Lines(m) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		words = append(words, string(line))
	}
	return words, nil
}

// ImportWordList adds the words of path to the stored dictionary in one
// commit. Words already present are skipped. It returns how many were
// added.
func ImportWordList(ctx context.Context, st *store.Store, path string) (int, error) {
	words, err := ReadWordList(path)
	if err != nil {
		return 0, err
	}
	added := 0
	_, err = st.Update(ctx, func(s *store.Settings) error {
		added = 0
		known := make(map[string]struct{}, len(s.Dictionary)+len(words))
		for _, w := range s.Dictionary {
			known[w] = struct{}{}
		}
		for _, w := range words {
			if _, ok := known[w]; !ok {
				known[w] = struct{}{}
				s.Dictionary = append(s.Dictionary, w)
				added++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}
