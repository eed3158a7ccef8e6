package compare

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdai-explore/beyond-reqif/pkg/profile"
	"github.com/jdai-explore/beyond-reqif/pkg/reqif"
)

// reqifDoc renders a minimal ReqIF document with one Title value per
// requirement.
func reqifDoc(titles map[string]string, order ...string) []byte {
	var b strings.Builder
	b.WriteString(`<REQ-IF><THE-HEADER/><CORE-CONTENT><SPEC-OBJECTS>`)
	for _, id := range order {
		fmt.Fprintf(&b, `<SPEC-OBJECT IDENTIFIER=%q><VALUES><ATTRIBUTE-VALUE-STRING ATTRIBUTE-DEFINITION-REF="Title" THE-VALUE=%q/></VALUES></SPEC-OBJECT>`, id, titles[id])
	}
	b.WriteString(`</SPEC-OBJECTS></CORE-CONTENT></REQ-IF>`)
	return []byte(b.String())
}

func writeFile(t *testing.T, fs afero.Fs, path string, data []byte) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, data, 0o644))
}

func batchFixture(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/old/a.reqif", reqifDoc(map[string]string{"REQ-1": "Start", "REQ-2": "Stop"}, "REQ-1", "REQ-2"))
	writeFile(t, fs, "/new/a.reqif", reqifDoc(map[string]string{"REQ-1": "Start now", "REQ-2": "Stop"}, "REQ-1", "REQ-2"))
	same := reqifDoc(map[string]string{"REQ-9": "Same"}, "REQ-9")
	writeFile(t, fs, "/old/sub/b.reqif", same)
	writeFile(t, fs, "/new/sub/b.reqif", same)
	writeFile(t, fs, "/old/gone.reqif", reqifDoc(map[string]string{"REQ-5": "Old"}, "REQ-5"))
	writeFile(t, fs, "/new/broken.reqif", []byte("<<<"))
	writeFile(t, fs, "/old/notes.txt", []byte("ignored"))
	return fs
}

func TestCompareFolders(t *testing.T) {
	fs := batchFixture(t)
	p := profile.New("batch")
	before := p.Clone(p.Name)
	before.CreatedDate, before.ModifiedDate = p.CreatedDate, p.ModifiedDate

	var calls atomic.Int32
	res, err := CompareFolders(context.Background(), fs, "/old", "/new", p, BatchOptions{
		Workers:            2,
		FileMatchThreshold: 0.99,
		Progress:           func(done, total int, name string) { calls.Add(1) },
	})
	require.NoError(t, err)

	var names []string
	for _, f := range res.Files {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"a.reqif", "broken.reqif", "gone.reqif", "sub/b.reqif"}, names)
	assert.EqualValues(t, 4, calls.Load())

	byName := map[string]FileResult{}
	for _, f := range res.Files {
		byName[f.Name] = f
	}
	assert.Equal(t, FileCompared, byName["a.reqif"].Status)
	assert.Equal(t, 1, byName["a.reqif"].Result.Summary.ModifiedCount)
	assert.Equal(t, FileDeleted, byName["gone.reqif"].Status)
	assert.Equal(t, 1, byName["gone.reqif"].Result.Summary.DeletedCount)

	broken := byName["broken.reqif"]
	assert.Equal(t, FileAdded, broken.Status)
	require.Error(t, broken.Err)
	assert.True(t, errors.Is(broken.Err, reqif.ErrMalformedXml))
	assert.NotEmpty(t, broken.Error)

	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, Summary{ModifiedCount: 1, DeletedCount: 1, UnchangedCount: 2, TotalOld: 4, TotalNew: 3}, res.Summary)
	assert.Equal(t, before, p)
}

func TestCompareFolders_RenamedFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/old/spec_v1.reqif", reqifDoc(map[string]string{"R-1": "Same"}, "R-1"))
	writeFile(t, fs, "/new/spec_v2.reqif", reqifDoc(map[string]string{"R-1": "Same"}, "R-1"))

	res, err := CompareFolders(context.Background(), fs, "/old", "/new", profile.New("p"), BatchOptions{})
	require.NoError(t, err)
	require.Len(t, res.Files, 1)
	f := res.Files[0]
	assert.Equal(t, FileRenamed, f.Status)
	assert.Equal(t, "spec_v1.reqif → spec_v2.reqif", f.Name)
	assert.Greater(t, f.MatchScore, 0.9)
	assert.Equal(t, 1, f.Result.Summary.UnchangedCount)
}

func TestCompareFolders_Errors(t *testing.T) {
	fs := batchFixture(t)

	_, err := CompareFolders(context.Background(), fs, "/old", "/new", profile.New("p"), BatchOptions{MaxFiles: 2})
	assert.True(t, errors.Is(err, ErrTooManyFiles), "%v", err)

	_, err = CompareFolders(context.Background(), fs, "/missing", "/new", profile.New("p"), BatchOptions{})
	assert.True(t, errors.Is(err, reqif.ErrFileNotFound), "%v", err)

	_, err = CompareFolders(context.Background(), fs, "/old/a.reqif", "/new", profile.New("p"), BatchOptions{})
	assert.True(t, errors.Is(err, ErrNotDirectory), "%v", err)

	bad := profile.New("bad")
	bad.SimilarityThreshold = 2
	_, err = CompareFolders(context.Background(), fs, "/old", "/new", bad, BatchOptions{})
	assert.True(t, errors.Is(err, profile.ErrInvalidProfile))
}

func TestCompareFolders_Cancelled(t *testing.T) {
	fs := batchFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := CompareFolders(ctx, fs, "/old", "/new", profile.New("p"), BatchOptions{})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Equal(t, len(res.Files), res.Failed)
}

func TestFileSimilarity(t *testing.T) {
	assert.Zero(t, fileSimilarity("a.reqif", "a.reqifz"))
	assert.InDelta(t, 1.0, fileSimilarity("x/a.reqif", "x/a.reqif"), 1e-9)
	assert.Greater(t, fileSimilarity("spec_v1.reqif", "spec_v2.reqif"), fileSimilarity("spec_v1.reqif", "other.reqif"))
}
