package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metcalfc/storyreader/internal/api"
	"github.com/metcalfc/storyreader/internal/config"
	"github.com/metcalfc/storyreader/internal/novel"
	"github.com/metcalfc/storyreader/internal/reader"
	"github.com/metcalfc/storyreader/internal/segment"
	"github.com/metcalfc/storyreader/internal/state"
	"github.com/metcalfc/storyreader/internal/store"
)

// testEnv points config, state and the database at a temp dir and returns
// the database path.
func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	t.Setenv("STORYREADER_LOG_LEVEL", "error")
	db := filepath.Join(dir, "novels.db")
	t.Setenv("STORYREADER_DB", db)
	return db
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	testEnv(t)
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "storyreader dev (commit: none, built: unknown)\n", out)
}

func TestSegmentCmd(t *testing.T) {
	testEnv(t)

	out, err := run(t, "Chapter 1: Start\nHello.\nChapter 2: End\nBye.", "segment")
	require.NoError(t, err)
	assert.Equal(t, "== Chapter 1: Start\nHello.\n\n== Chapter 2: End\nBye.\n", out)

	out, err = run(t, "hello world", "segment")
	require.NoError(t, err)
	assert.Equal(t, "== hello world\n", out)
}

func TestSegmentCmdJSON(t *testing.T) {
	testEnv(t)
	path := filepath.Join(t.TempDir(), "story.txt")
	require.NoError(t, os.WriteFile(path, []byte("chapter 7\nSeven.\nCHAPTER 8:"), 0o644))

	out, err := run(t, "", "segment", "--json", path)
	require.NoError(t, err)

	var got []segment.Segment
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []segment.Segment{
		{Header: "chapter 7", Body: "Seven."},
		{Header: "CHAPTER 8:", Body: ""},
	}, got)

	out, err = run(t, "", "segment", "--json")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestSegmentCmdHeaders(t *testing.T) {
	testEnv(t)
	out, err := run(t, "Prologue\nChapter 1: A\nx\nChapter 2: B\ny", "segment", "--headers")
	require.NoError(t, err)
	assert.Equal(t, "Prologue\nChapter 1: A\nChapter 2: B\n", out)
}

func TestSegmentCmdMissingFile(t *testing.T) {
	testEnv(t)
	_, err := run(t, "", "segment", filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

const seed = `
- title: Sea Stories
  code: 7
  chapters:
    - title: Harbour
      content: "Chapter 1: Ropes\nKnots."
`

func TestImportAndDeleteCmd(t *testing.T) {
	db := testEnv(t)
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o644))

	out, err := run(t, "", "import", path)
	require.NoError(t, err)
	fields := strings.Split(strings.TrimSpace(out), "\t")
	require.Len(t, fields, 2)
	id := fields[0]
	assert.Equal(t, "Sea Stories", fields[1])

	s, err := store.Open(db)
	require.NoError(t, err)
	n, err := s.GetNovel(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 7, n.Code)
	require.Len(t, n.Chapters, 1)
	require.NoError(t, s.Close())

	prefs, err := state.NewStateStore()
	require.NoError(t, err)
	require.NoError(t, prefs.SetLastChapter(id, 3))

	out, err = run(t, "", "delete", id)
	require.NoError(t, err)
	assert.Equal(t, "deleted "+id+"\n", out)

	prefs, err = state.NewStateStore()
	require.NoError(t, err)
	assert.Equal(t, 0, prefs.LastChapter(id))

	_, err = run(t, "", "delete", id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestImportCmdBadFile(t *testing.T) {
	testEnv(t)
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"code": 1}]`), 0o644))

	_, err := run(t, "", "import", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, novel.ErrInvalid)
}

func TestServerCommands(t *testing.T) {
	db := testEnv(t)
	s, err := store.Open(db)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	n := &novel.Novel{
		Title: "Sea Stories",
		Code:  42,
		Chapters: []novel.Chapter{
			{ChapterNumber: 2, Title: "Open Water", Content: "Chapter 3: Waves\nBig ones.\nChapter 4\nCalm."},
			{ChapterNumber: 1, Title: "Harbour", Content: "Chapter 1: Ropes\nKnots."},
		},
	}
	require.NoError(t, s.InsertNovel(context.Background(), n))

	srv := httptest.NewServer(api.NewRouter(api.NewHandler(s, nil)))
	t.Cleanup(srv.Close)
	t.Setenv("STORYREADER_BASE_URL", srv.URL+"/")

	t.Run("list", func(t *testing.T) {
		out, err := run(t, "", "list")
		require.NoError(t, err)
		assert.Contains(t, out, "TITLE")
		assert.Contains(t, out, n.ID)
		assert.Contains(t, out, "Sea Stories")
	})

	t.Run("search", func(t *testing.T) {
		out, err := run(t, "", "search", "42")
		require.NoError(t, err)
		assert.Contains(t, out, "Sea Stories")

		out, err = run(t, "", "search", "nothing", "here")
		require.NoError(t, err)
		assert.Equal(t, "No novels found.\n", out)
	})

	t.Run("show first chapter", func(t *testing.T) {
		out, err := run(t, "", "show", n.ID)
		require.NoError(t, err)
		assert.Equal(t, "Sea Stories\nChapter 1: Harbour\n\n== Chapter 1: Ropes\nKnots.\n", out)
	})

	t.Run("show chapter", func(t *testing.T) {
		out, err := run(t, "", "show", n.ID, "--chapter", "2")
		require.NoError(t, err)
		assert.Contains(t, out, "== Chapter 3: Waves\nBig ones.\n\n== Chapter 4\nCalm.\n")
	})

	t.Run("toc", func(t *testing.T) {
		out, err := run(t, "", "toc", n.ID)
		require.NoError(t, err)
		assert.Equal(t, "Sea Stories\nHarbour\n  Chapter 1: Ropes\nOpen Water\n  Chapter 3: Waves\n  Chapter 4\n", out)
	})

	t.Run("show missing chapter", func(t *testing.T) {
		_, err := run(t, "", "show", n.ID, "-c", "9")
		assert.Error(t, err)
	})

	t.Run("show missing novel", func(t *testing.T) {
		_, err := run(t, "", "show", "nope")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Novel not found")
	})
}

func TestConfigCmd(t *testing.T) {
	testEnv(t)
	path := filepath.Join(t.TempDir(), "storyreader", "config.yaml")

	out, err := run(t, "", "--config", path, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "font_size: Large")
	assert.Contains(t, out, "level: error")

	out, err = run(t, "", "--config", path, "config", "--write")
	require.NoError(t, err)
	assert.Equal(t, "wrote "+path+"\n", out)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Large", cfg.Reader.FontSize)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestBadConfig(t *testing.T) {
	testEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("reader:\n  font_size: Huge\n"), 0o644))

	_, err := run(t, "", "--config", path, "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "font_size")
}

func TestNewLogger(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "storyreader.log")
	logger, err := newLogger(config.LoggingConfig{Level: "Warn", File: logFile}, false)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "shown")
	assert.NotContains(t, string(data), "hidden")

	_, err = newLogger(config.LoggingConfig{Level: "loud"}, false)
	assert.Error(t, err)
}

func TestAppFontSize(t *testing.T) {
	a := &app{cfg: config.Default()}
	a.cfg.Reader.FontSize = "Medium"
	assert.Equal(t, reader.Medium, a.fontSize(nil))

	prefs, err := state.Open(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, reader.Medium, a.fontSize(prefs))

	require.NoError(t, prefs.SetFontSize("Small"))
	assert.Equal(t, reader.Small, a.fontSize(prefs))
}
