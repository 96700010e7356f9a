package compile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keagan/clipvault/internal/ffmpeg"
	"github.com/keagan/clipvault/internal/selection"
	"github.com/keagan/clipvault/internal/timewindow"
	"github.com/keagan/clipvault/internal/twitch"
)

type fakeDownloader struct {
	downloads []string
	failSlugs map[string]bool
}

func (f *fakeDownloader) DownloadClip(_ context.Context, slug, path string) error {
	if f.failSlugs[slug] {
		return fmt.Errorf("download of %s failed", slug)
	}
	f.downloads = append(f.downloads, slug)
	return os.WriteFile(path, []byte("raw"), 0644)
}

type fakeTranscoder struct {
	filters       []string
	concatCalled  bool
	manifestPath  string
	outputPath    string
	progressWired bool
	probeDuration time.Duration
	probeErr      error
}

func (f *fakeTranscoder) Reencode(_ context.Context, opts ffmpeg.ReencodeOptions) error {
	f.progressWired = opts.ProgressFunc != nil
	return os.WriteFile(opts.Output, []byte("scaled"), 0644)
}

func (f *fakeTranscoder) ProbeDuration(_ context.Context, _ string) (time.Duration, error) {
	if f.probeErr != nil {
		return 0, f.probeErr
	}
	if f.probeDuration == 0 {
		return 30 * time.Second, nil
	}
	return f.probeDuration, nil
}

func (f *fakeTranscoder) DrawText(_ context.Context, input, output, filter string) error {
	f.filters = append(f.filters, filter)
	return os.WriteFile(output, []byte("overlaid"), 0644)
}

func (f *fakeTranscoder) Concat(_ context.Context, manifest, output string) error {
	f.concatCalled = true
	f.manifestPath = manifest
	f.outputPath = output
	return nil
}

func makePick(id string, views int, created time.Time) selection.Pick {
	return selection.Pick{
		Time:  created,
		Views: views,
		Clip: twitch.Clip{
			ID:          id,
			Title:       "clip " + id,
			CreatorName: "creator-" + id,
			ViewCount:   views,
			Duration:    30.0,
		},
	}
}

func compileWindow(t *testing.T) timewindow.Window {
	t.Helper()
	window, err := timewindow.ResolveRange("2023-01-01T00:00:01Z", "2023-01-31T23:59:59Z", time.UTC, 8*time.Hour)
	require.NoError(t, err)
	return window
}

func TestCompileRendersAndConcats(t *testing.T) {
	dir := t.TempDir()
	dl := &fakeDownloader{}
	ff := &fakeTranscoder{}

	pipeline := New(zerolog.Nop(), dl, ff, Options{
		OutDir:       dir,
		Output:       filepath.Join(dir, "final.mp4"),
		FontFile:     "./font.ttf",
		TextDuration: 15.0,
	})

	picks := []selection.Pick{
		makePick("aaa", 100, time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC)),
		makePick("bbb", 50, time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC)),
	}

	require.NoError(t, pipeline.Compile(context.Background(), picks, compileWindow(t)))

	assert.True(t, ff.concatCalled)
	assert.Equal(t, filepath.Join(dir, "final.mp4"), ff.outputPath)

	// Rendered clips end up named after their IDs.
	assert.FileExists(t, filepath.Join(dir, "aaa.mp4"))
	assert.FileExists(t, filepath.Join(dir, "bbb.mp4"))

	manifest, err := os.ReadFile(ff.manifestPath)
	require.NoError(t, err)
	// Popularity mode orders ascending by views.
	assert.Equal(t, "file bbb.mp4\nfile aaa.mp4\n", string(manifest))

	desc, err := os.ReadFile(filepath.Join(dir, "desc.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(desc), "Top clips from 2023-01-01 until 2023-01-31.")
	assert.Contains(t, string(desc), "\"clip aaa\"\nhttps://clips.twitch.tv/aaa")
}

func TestCompileChronologicalOrder(t *testing.T) {
	dir := t.TempDir()
	ff := &fakeTranscoder{}

	pipeline := New(zerolog.Nop(), &fakeDownloader{}, ff, Options{
		OutDir:        dir,
		Output:        filepath.Join(dir, "final.mp4"),
		Chronological: true,
	})

	picks := []selection.Pick{
		makePick("late", 100, time.Date(2023, 1, 20, 0, 0, 0, 0, time.UTC)),
		makePick("early", 50, time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC)),
	}

	require.NoError(t, pipeline.Compile(context.Background(), picks, compileWindow(t)))

	manifest, err := os.ReadFile(ff.manifestPath)
	require.NoError(t, err)
	assert.Equal(t, "file early.mp4\nfile late.mp4\n", string(manifest))
}

func TestCompileSkipsAlreadyRenderedClips(t *testing.T) {
	dir := t.TempDir()
	dl := &fakeDownloader{}
	ff := &fakeTranscoder{}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "done.mp4"), []byte("rendered"), 0644))

	pipeline := New(zerolog.Nop(), dl, ff, Options{OutDir: dir, Output: filepath.Join(dir, "final.mp4")})

	picks := []selection.Pick{
		makePick("done", 100, time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC)),
		makePick("new", 50, time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC)),
	}

	require.NoError(t, pipeline.Compile(context.Background(), picks, compileWindow(t)))

	assert.Equal(t, []string{"new"}, dl.downloads, "already rendered clip must not be downloaded again")

	manifest, err := os.ReadFile(ff.manifestPath)
	require.NoError(t, err)
	assert.Contains(t, string(manifest), "file done.mp4")
	assert.Contains(t, string(manifest), "file new.mp4")
}

func TestCompileSkipsFailedClips(t *testing.T) {
	dir := t.TempDir()
	dl := &fakeDownloader{failSlugs: map[string]bool{"bad": true}}
	ff := &fakeTranscoder{}

	pipeline := New(zerolog.Nop(), dl, ff, Options{OutDir: dir, Output: filepath.Join(dir, "final.mp4")})

	picks := []selection.Pick{
		makePick("bad", 100, time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC)),
		makePick("good", 50, time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC)),
	}

	require.NoError(t, pipeline.Compile(context.Background(), picks, compileWindow(t)))

	assert.True(t, ff.concatCalled, "one bad clip must not abort the run")

	manifest, err := os.ReadFile(ff.manifestPath)
	require.NoError(t, err)
	assert.NotContains(t, string(manifest), "bad.mp4")
	assert.Contains(t, string(manifest), "file good.mp4")
}

func TestCompileRejectsEmptySelection(t *testing.T) {
	pipeline := New(zerolog.Nop(), &fakeDownloader{}, &fakeTranscoder{}, Options{OutDir: t.TempDir()})
	err := pipeline.Compile(context.Background(), nil, compileWindow(t))
	assert.Error(t, err)
}

func TestOverlayFilterCountdownNumbering(t *testing.T) {
	pipeline := New(zerolog.Nop(), &fakeDownloader{}, &fakeTranscoder{}, Options{
		OutDir:       t.TempDir(),
		FontFile:     "./font.ttf",
		TextDuration: 15.0,
	})

	pick := makePick("xyz", 42, time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC))

	// Least viewed clip of five gets #5, the most viewed gets #1.
	filter := pipeline.overlayFilter(0, 5, pick, 30)
	assert.Contains(t, filter, "#5 - clip xyz - clipped by creator-xyz")
	assert.Contains(t, filter, "42 views")
	assert.Contains(t, filter, "2023-01-05")

	filter = pipeline.overlayFilter(4, 5, pick, 30)
	assert.Contains(t, filter, "#1 - clip xyz")
}

func TestOverlayFilterChronologicalHasNoNumber(t *testing.T) {
	pipeline := New(zerolog.Nop(), &fakeDownloader{}, &fakeTranscoder{}, Options{
		OutDir:        t.TempDir(),
		FontFile:      "./font.ttf",
		Chronological: true,
	})

	filter := pipeline.overlayFilter(0, 5, makePick("xyz", 42, time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC)), 30)
	assert.NotContains(t, filter, "#")
	assert.Contains(t, filter, "clip xyz - clipped by creator-xyz")
}

func TestOverlayFilterTextDurationClampedToClipLength(t *testing.T) {
	pipeline := New(zerolog.Nop(), &fakeDownloader{}, &fakeTranscoder{}, Options{
		OutDir:       t.TempDir(),
		FontFile:     "./font.ttf",
		TextDuration: 15.0,
	})

	short := makePick("short", 10, time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC))

	filter := pipeline.overlayFilter(0, 1, short, 7.8)
	assert.True(t, strings.Contains(filter, "between(t,0,7)"), "overlay must not outlive the clip: %s", filter)
}

func TestOverlayFilterDateUsesConfiguredTimezone(t *testing.T) {
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	pipeline := New(zerolog.Nop(), &fakeDownloader{}, &fakeTranscoder{}, Options{
		OutDir:   t.TempDir(),
		FontFile: "./font.ttf",
		Location: loc,
	})

	// 02:00 UTC on Jan 6 is still Jan 5 in the configured timezone.
	pick := makePick("xyz", 42, time.Date(2023, 1, 6, 2, 0, 0, 0, time.UTC))
	filter := pipeline.overlayFilter(0, 1, pick, 30)
	assert.Contains(t, filter, "2023-01-05")
	assert.NotContains(t, filter, "2023-01-06")
}

func TestRenderClipUsesProbedDuration(t *testing.T) {
	dir := t.TempDir()
	// The API claims 30s but the rendered file is shorter.
	ff := &fakeTranscoder{probeDuration: 7800 * time.Millisecond}

	pipeline := New(zerolog.Nop(), &fakeDownloader{}, ff, Options{
		OutDir:       dir,
		Output:       filepath.Join(dir, "final.mp4"),
		FontFile:     "./font.ttf",
		TextDuration: 15.0,
	})

	picks := []selection.Pick{makePick("xyz", 42, time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC))}
	require.NoError(t, pipeline.Compile(context.Background(), picks, compileWindow(t)))

	require.Len(t, ff.filters, 1)
	assert.Contains(t, ff.filters[0], "between(t,0,7)")
}

func TestRenderClipProbeFailureFallsBackToReportedDuration(t *testing.T) {
	dir := t.TempDir()
	ff := &fakeTranscoder{probeErr: fmt.Errorf("ffprobe exploded")}

	pipeline := New(zerolog.Nop(), &fakeDownloader{}, ff, Options{
		OutDir:       dir,
		Output:       filepath.Join(dir, "final.mp4"),
		FontFile:     "./font.ttf",
		TextDuration: 15.0,
	})

	pick := makePick("xyz", 42, time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC))
	pick.Clip.Duration = 9.5

	require.NoError(t, pipeline.Compile(context.Background(), []selection.Pick{pick}, compileWindow(t)))

	require.Len(t, ff.filters, 1)
	assert.Contains(t, ff.filters[0], "between(t,0,9)")
}

func TestRenderClipWiresProgressReporting(t *testing.T) {
	dir := t.TempDir()
	ff := &fakeTranscoder{}

	pipeline := New(zerolog.Nop(), &fakeDownloader{}, ff, Options{
		OutDir: dir,
		Output: filepath.Join(dir, "final.mp4"),
	})

	picks := []selection.Pick{makePick("xyz", 42, time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC))}
	require.NoError(t, pipeline.Compile(context.Background(), picks, compileWindow(t)))

	assert.True(t, ff.progressWired, "re-encode must receive a progress handler")
}
