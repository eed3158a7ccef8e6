package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/afero"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileExists   = errors.New("profile already exists")
	ErrSystemProfile   = errors.New("system profiles are read-only")
)

// Store keeps the system profiles plus the user profiles persisted as one
// file per profile in a directory.
type Store struct {
	fs  afero.Fs
	dir string

	mu       sync.RWMutex
	profiles map[string]*Profile
	keys     map[string]string // short system key -> profile name
	warnings []string
}

// NewStore loads the user profiles found in dir. Unreadable profile files
// are reported through Warnings rather than failing the store.
func NewStore(fs afero.Fs, dir string) (*Store, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	s := &Store{
		fs:       fs,
		dir:      dir,
		profiles: make(map[string]*Profile),
		keys:     make(map[string]string),
	}
	for key, p := range SystemProfiles() {
		s.profiles[p.Name] = p
		s.keys[key] = p.Name
	}
	if dir == "" {
		return s, nil
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return errors.Wrapf(err, "read profile directory %s", s.dir)
	}
	for _, e := range entries {
		if e.IsDir() || !isProfileFile(e.Name()) {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		p, err := s.readFile(path)
		if err != nil {
			s.warnings = append(s.warnings, fmt.Sprintf("skipped profile %s: %v", path, err))
			logf("", "skipped profile %s: %v", path, err)
			continue
		}
		if existing, ok := s.profiles[p.Name]; ok && existing.IsSystemProfile {
			s.warnings = append(s.warnings, fmt.Sprintf("skipped profile %s: name %q is reserved", path, p.Name))
			continue
		}
		p.IsSystemProfile = false
		s.profiles[p.Name] = p
		debugf("loaded profile %q from %s", p.Name, path)
	}
	return nil
}

func isProfileFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func (s *Store) readFile(path string) (*Profile, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return Unmarshal(data, FormatForPath(path))
}

// Warnings lists the profile files that could not be loaded.
func (s *Store) Warnings() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.warnings...)
}

func (s *Store) resolve(name string) (string, bool) {
	if _, ok := s.profiles[name]; ok {
		return name, true
	}
	if full, ok := s.keys[strings.ToLower(name)]; ok {
		return full, true
	}
	return "", false
}

// Get returns a copy of the profile called name, or of the system profile
// with that short key.
func (s *Store) Get(name string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	full, ok := s.resolve(name)
	if !ok {
		return nil, s.notFound(name)
	}
	return s.profiles[full].copy(), nil
}

func (s *Store) notFound(name string) error {
	err := errors.Wrapf(ErrProfileNotFound, "%q", name)
	if hint := s.suggest(name); len(hint) > 0 {
		err = errors.WithHintf(err, "did you mean %s?", strings.Join(hint, " or "))
	}
	return err
}

// Suggest returns up to three known profile names close to name.
func (s *Store) Suggest(name string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.suggest(name)
}

func (s *Store) suggest(name string) []string {
	candidates := s.names()
	for key := range s.keys {
		candidates = append(candidates, key)
	}
	var out []string
	seen := make(map[string]bool)
	for _, m := range fuzzy.Find(name, candidates) {
		full, _ := s.resolve(m.Str)
		if seen[full] {
			continue
		}
		seen[full] = true
		out = append(out, fmt.Sprintf("%q", full))
		if len(out) == 3 {
			break
		}
	}
	return out
}

func (s *Store) names() []string {
	names := make([]string, 0, len(s.profiles))
	for n := range s.profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// List returns copies of every profile, system profiles first, each group
// ordered by name.
func (s *Store) List() []*Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var system, user []*Profile
	for _, n := range s.names() {
		p := s.profiles[n].copy()
		if p.IsSystemProfile {
			system = append(system, p)
		} else {
			user = append(user, p)
		}
	}
	return append(system, user...)
}

// Add stores a new user profile and persists it.
func (s *Store) Add(p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.resolve(p.Name); ok {
		return errors.Wrapf(ErrProfileExists, "%q", p.Name)
	}
	return s.save(p)
}

// Save creates or replaces a user profile and persists it.
func (s *Store) Save(p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.profiles[p.Name]; ok && existing.IsSystemProfile {
		return errors.Wrapf(ErrSystemProfile, "save %q", p.Name)
	}
	return s.save(p)
}

func (s *Store) save(p *Profile) error {
	if p.IsSystemProfile {
		return errors.Wrapf(ErrSystemProfile, "save %q", p.Name)
	}
	if err := p.Check(); err != nil {
		return err
	}
	stored := p.copy()
	if s.dir != "" {
		data, err := Marshal(stored, FormatJSON)
		if err != nil {
			return err
		}
		if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
			return errors.Wrapf(err, "create profile directory %s", s.dir)
		}
		path := s.pathFor(stored.Name)
		if err := afero.WriteFile(s.fs, path, data, 0o644); err != nil {
			return errors.Wrapf(err, "write profile %s", path)
		}
		debugf("saved profile %q to %s", stored.Name, path)
	}
	s.profiles[stored.Name] = stored
	return nil
}

// Remove deletes a user profile and its file.
func (s *Store) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	full, ok := s.resolve(name)
	if !ok {
		return s.notFound(name)
	}
	if s.profiles[full].IsSystemProfile {
		return errors.Wrapf(ErrSystemProfile, "remove %q", full)
	}
	delete(s.profiles, full)
	if s.dir == "" {
		return nil
	}
	if err := s.fs.Remove(s.pathFor(full)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "remove profile file for %q", full)
	}
	return nil
}

// Export writes the named profile to path, as YAML for .yaml/.yml paths and
// JSON otherwise.
func (s *Store) Export(name, path string) error {
	p, err := s.Get(name)
	if err != nil {
		return err
	}
	data, err := Marshal(p, FormatForPath(path))
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create %s", dir)
		}
	}
	return errors.Wrapf(afero.WriteFile(s.fs, path, data, 0o644), "export profile to %s", path)
}

// Import reads a profile file and stores it as a user profile. A name
// already taken gets a " (n)" suffix.
func (s *Store) Import(path string) (*Profile, error) {
	p, err := s.readFile(path)
	if err != nil {
		return nil, err
	}
	p.IsSystemProfile = false
	p.IsDefault = false

	s.mu.Lock()
	defer s.mu.Unlock()
	base := p.Name
	for n := 1; ; n++ {
		if _, taken := s.resolve(p.Name); !taken {
			break
		}
		p.Name = fmt.Sprintf("%s (%d)", base, n)
	}
	if err := s.save(p); err != nil {
		return nil, err
	}
	return p.copy(), nil
}

func (s *Store) pathFor(name string) string {
	return filepath.Join(s.dir, FileName(name)+".json")
}

// FileName turns a profile name into a safe file stem.
func FileName(name string) string {
	stem := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if stem == "" || stem == "." || stem == ".." {
		return "profile"
	}
	return stem
}
