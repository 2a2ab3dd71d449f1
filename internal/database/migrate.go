package database

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"sync"
)

// Migration is one numbered schema change together with its rollback.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

func (m Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

// Each dialect keeps its own scripts under migrations/<dialect>/, numbered the same way.
//
//go:embed migrations
var migrationFS embed.FS

var migrationFile = regexp.MustCompile(`^(\d{6})_([a-z0-9_]+)\.(up|down)\.sql$`)

var (
	migrationsMu sync.Mutex
	migrationSet = map[string][]Migration{}
)

// MigrationsFor returns the embedded migrations for a gorm dialect name, oldest first.
func MigrationsFor(dialect string) ([]Migration, error) {
	migrationsMu.Lock()
	defer migrationsMu.Unlock()

	if ms, ok := migrationSet[dialect]; ok {
		return ms, nil
	}

	sub, err := fs.Sub(migrationFS, path.Join("migrations", dialect))
	if err != nil {
		return nil, fmt.Errorf("no migrations for dialect %q: %w", dialect, err)
	}
	ms, err := parseMigrations(sub)
	if err != nil {
		return nil, fmt.Errorf("%s migrations: %w", dialect, err)
	}
	if len(ms) == 0 {
		return nil, fmt.Errorf("no migrations for dialect %q", dialect)
	}
	migrationSet[dialect] = ms
	return ms, nil
}

// parseMigrations pairs every up script with its down script. Versions must run 1, 2, 3...
// without gaps so that "latest applied" is unambiguous.
func parseMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}

	byVersion := map[int]*Migration{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := migrationFile.FindStringSubmatch(entry.Name())
		if match == nil {
			return nil, fmt.Errorf("unexpected file %q", entry.Name())
		}
		version, _ := strconv.Atoi(match[1])
		body, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, err
		}

		m, ok := byVersion[version]
		if !ok {
			m = &Migration{Version: version, Name: match[2]}
			byVersion[version] = m
		} else if m.Name != match[2] {
			return nil, fmt.Errorf("version %06d has two names: %q and %q", version, m.Name, match[2])
		}
		if match[3] == "up" {
			m.Up = string(body)
		} else {
			m.Down = string(body)
		}
	}

	out := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.Up == "" || m.Down == "" {
			return nil, fmt.Errorf("%s needs both an up and a down script", m)
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })

	for i, m := range out {
		if m.Version != i+1 {
			return nil, fmt.Errorf("expected version %06d, found %s", i+1, m)
		}
	}
	return out, nil
}
