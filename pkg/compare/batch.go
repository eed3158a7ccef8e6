package compare

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/jdai-explore/beyond-reqif/pkg/profile"
	"github.com/jdai-explore/beyond-reqif/pkg/reqif"
)

var (
	DefaultInclude = []string{"**/*.reqif", "**/*.reqifz"}

	ErrTooManyFiles = errors.New("too many files to compare")
	ErrNotDirectory = errors.New("not a directory")
)

const (
	DefaultMaxFiles           = 200
	DefaultFileMatchThreshold = 0.6
)

// BatchOptions tune a folder comparison. Zero values take the defaults.
type BatchOptions struct {
	Options
	// Include holds doublestar patterns matched against slash-separated
	// paths relative to each folder, lowercased.
	Include []string
	// MaxFiles caps the files found in both folders together.
	MaxFiles int
	// Workers bounds the file pairs compared concurrently.
	Workers int
	// FileMatchThreshold gates the pairing of renamed files by name.
	FileMatchThreshold float64
	// Scratch receives archive extraction files.
	Scratch afero.Fs
	// Progress, when set, is called after each file pair.
	Progress func(done, total int, name string)
}

func (o BatchOptions) withDefaults() BatchOptions {
	o.Options = o.Options.withDefaults()
	if len(o.Include) == 0 {
		o.Include = DefaultInclude
	}
	if o.MaxFiles <= 0 {
		o.MaxFiles = DefaultMaxFiles
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.FileMatchThreshold <= 0 {
		o.FileMatchThreshold = DefaultFileMatchThreshold
	}
	return o
}

// FileStatus tells how a file took part in a folder comparison.
type FileStatus string

const (
	FileCompared FileStatus = "compared"
	FileRenamed  FileStatus = "renamed"
	FileAdded    FileStatus = "added"
	FileDeleted  FileStatus = "deleted"
)

// FileResult is the comparison of one file pair. Err holds a parse or
// compare failure; the rest of the batch is unaffected by it.
type FileResult struct {
	Name       string     `json:"name"`
	OldPath    string     `json:"old_path,omitempty"`
	NewPath    string     `json:"new_path,omitempty"`
	Status     FileStatus `json:"status"`
	MatchScore float64    `json:"match_score"`
	Result     *Result    `json:"result,omitempty"`
	Err        error      `json:"-"`
	Error      string     `json:"error,omitempty"`
}

// BatchResult collects the per-file results in file name order.
type BatchResult struct {
	RunID    string       `json:"run_id"`
	OldDir   string       `json:"old_dir"`
	NewDir   string       `json:"new_dir"`
	Files    []FileResult `json:"files"`
	Summary  Summary      `json:"summary"`
	Failed   int          `json:"failed"`
	Warnings []string     `json:"warnings"`
}

type fileRef struct {
	rel  string
	full string
}

// CompareFolders compares every ReqIF file under oldDir with its
// counterpart under newDir. Files are joined on their relative path, then
// leftover files with the same extension are paired by name similarity.
// Files found on one side only contribute all their requirements as added
// or deleted. The profile is cloned for every pair.
func CompareFolders(ctx context.Context, fsys afero.Fs, oldDir, newDir string, p *profile.Profile, opts BatchOptions) (*BatchResult, error) {
	if err := p.Check(); err != nil {
		return nil, err
	}
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	opts = opts.withDefaults()
	if err := opts.Options.validate(); err != nil {
		return nil, err
	}

	oldFiles, err := scanFolder(fsys, oldDir, opts.Include)
	if err != nil {
		return nil, err
	}
	newFiles, err := scanFolder(fsys, newDir, opts.Include)
	if err != nil {
		return nil, err
	}
	if n := len(oldFiles) + len(newFiles); n > opts.MaxFiles {
		return nil, errors.WithHintf(errors.Wrapf(ErrTooManyFiles, "%d files found, at most %d allowed", n, opts.MaxFiles),
			"narrow the include patterns or raise the file limit")
	}

	files := joinFiles(oldFiles, newFiles, opts.FileMatchThreshold)
	br := &BatchResult{
		RunID:    uuid.NewString(),
		OldDir:   oldDir,
		NewDir:   newDir,
		Files:    files,
		Warnings: []string{},
	}
	logf("", "comparing %d file pairs from %s and %s", len(files), oldDir, newDir)

	var mu sync.Mutex
	done := 0
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i := range files {
		g.Go(func() error {
			f := &files[i]
			if err := gctx.Err(); err != nil {
				f.Err = err
			} else {
				compareFile(gctx, fsys, f, p.Clone(p.Name), opts)
			}
			if opts.Progress != nil {
				mu.Lock()
				done++
				opts.Progress(done, len(files), f.Name)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	for i := range files {
		f := &files[i]
		if f.Err != nil {
			f.Error = f.Err.Error()
			br.Failed++
			br.Warnings = append(br.Warnings, f.Name+": "+f.Error)
			continue
		}
		br.Summary.add(f.Result.Summary)
	}
	return br, ctx.Err()
}

func scanFolder(fsys afero.Fs, dir string, include []string) ([]fileRef, error) {
	info, err := fsys.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Mark(errors.Wrapf(err, "folder %s", dir), reqif.ErrFileNotFound)
		}
		return nil, errors.Wrapf(err, "stat %s", dir)
	}
	if !info.IsDir() {
		return nil, errors.Wrapf(ErrNotDirectory, "%s", dir)
	}

	var out []fileRef
	err = afero.Walk(fsys, dir, func(full string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, full)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if matchesAny(include, strings.ToLower(rel)) {
			out = append(out, fileRef{rel: rel, full: full})
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s", dir)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].rel < out[j].rel })
	return out, nil
}

func matchesAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

func joinFiles(oldFiles, newFiles []fileRef, threshold float64) []FileResult {
	oldByRel := make(map[string]fileRef, len(oldFiles))
	for _, f := range oldFiles {
		oldByRel[f.rel] = f
	}
	newByRel := make(map[string]fileRef, len(newFiles))
	for _, f := range newFiles {
		newByRel[f.rel] = f
	}

	var out []FileResult
	var leftOld, leftNew []string
	for _, f := range oldFiles {
		if nf, ok := newByRel[f.rel]; ok {
			out = append(out, FileResult{Name: f.rel, OldPath: f.full, NewPath: nf.full, Status: FileCompared, MatchScore: 1})
		} else {
			leftOld = append(leftOld, f.rel)
		}
	}
	for _, f := range newFiles {
		if _, ok := oldByRel[f.rel]; !ok {
			leftNew = append(leftNew, f.rel)
		}
	}

	renamed := greedyPairs(leftOld, leftNew, threshold, fileSimilarity)
	usedOld := make(map[string]bool)
	usedNew := make(map[string]bool)
	for _, r := range renamed {
		usedOld[r.old], usedNew[r.new] = true, true
		out = append(out, FileResult{
			Name:       r.old + " → " + r.new,
			OldPath:    oldByRel[r.old].full,
			NewPath:    newByRel[r.new].full,
			Status:     FileRenamed,
			MatchScore: r.score,
		})
	}
	for _, rel := range without(leftOld, usedOld) {
		out = append(out, FileResult{Name: rel, OldPath: oldByRel[rel].full, Status: FileDeleted})
	}
	for _, rel := range without(leftNew, usedNew) {
		out = append(out, FileResult{Name: rel, NewPath: newByRel[rel].full, Status: FileAdded})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// fileSimilarity weighs the base name at 0.7 and the relative path at 0.3.
// Files with different extensions never pair.
func fileSimilarity(a, b string) float64 {
	if !strings.EqualFold(path.Ext(a), path.Ext(b)) {
		return 0
	}
	la, lb := strings.ToLower(a), strings.ToLower(b)
	return 0.7*Ratio(path.Base(la), path.Base(lb)) + 0.3*Ratio(la, lb)
}

func compareFile(ctx context.Context, fsys afero.Fs, f *FileResult, p *profile.Profile, opts BatchOptions) {
	parseOpts := reqif.Options{FS: fsys, Scratch: opts.Scratch}
	load := func(path string) (*reqif.ParsedDocument, error) {
		if path == "" {
			return reqif.NewDocument(""), nil
		}
		return reqif.ParseFile(ctx, path, parseOpts)
	}

	oldDoc, err := load(f.OldPath)
	if err != nil {
		f.Err = err
		return
	}
	newDoc, err := load(f.NewPath)
	if err != nil {
		f.Err = err
		return
	}
	res, err := Compare(oldDoc, newDoc, p, opts.Options)
	if err != nil {
		f.Err = err
		return
	}
	for _, w := range oldDoc.Warnings {
		res.Warnings = append(res.Warnings, "old: "+w)
	}
	for _, w := range newDoc.Warnings {
		res.Warnings = append(res.Warnings, "new: "+w)
	}
	f.Result = res
}
