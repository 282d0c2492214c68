package migrate

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

const (
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"
)

// Pair is one migration found on disk: an up-script, its sha256 checksum,
// and an optional down-script.
type Pair struct {
	// ID is the filename without the .up.sql/.down.sql suffix. IDs must
	// sort lexicographically in chronological order (timestamp prefix).
	ID       string
	UpPath   string
	DownPath string // empty when the migration is irreversible
	Checksum string // sha256 hex of the up-script content

	upSQL string
}

// scanPairs reads the migrations directory and returns all pairs sorted by
// id ascending. Down-scripts without a matching up-script are discarded.
func scanPairs(dir string) ([]Pair, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrDirNotFound, dir)
		}
		return nil, errors.Wrapf(err, "read migrations directory %s", dir)
	}

	type paths struct{ up, down string }
	byID := make(map[string]*paths)
	get := func(id string) *paths {
		p := byID[id]
		if p == nil {
			p = &paths{}
			byID[id] = p
		}
		return p
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		switch {
		case strings.HasSuffix(name, upSuffix):
			get(strings.TrimSuffix(name, upSuffix)).up = filepath.Join(dir, name)
		case strings.HasSuffix(name, downSuffix):
			get(strings.TrimSuffix(name, downSuffix)).down = filepath.Join(dir, name)
		}
	}

	out := make([]Pair, 0, len(byID))
	for id, p := range byID {
		if p.up == "" {
			// Orphan down-script.
			continue
		}
		content, err := os.ReadFile(p.up)
		if err != nil {
			return nil, errors.Wrapf(err, "read migration %s", p.up)
		}
		out = append(out, Pair{
			ID:       id,
			UpPath:   p.up,
			DownPath: p.down,
			Checksum: checksum(content),
			upSQL:    string(content),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func checksum(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
