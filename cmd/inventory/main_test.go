package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alecthomas/assert"

	"github.com/kjk/inventory/csvcodec"
	"github.com/kjk/inventory/log"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags(nil)
	assert.NoError(t, err)
	assert.Equal(t, time.Second, opts.delay)
	assert.Equal(t, "inventory", opts.s3Prefix)

	opts, err = parseFlags([]string{"-delay", "5ms", "-save", "inv.csv.gz", "-verify", "-sort", "-bucket", "b", "-s3-endpoint", "localhost:9000"})
	assert.NoError(t, err)
	assert.Equal(t, 5*time.Millisecond, opts.delay)
	assert.Equal(t, "inv.csv.gz", opts.save)
	assert.True(t, opts.verify)
	assert.True(t, opts.sort)
	assert.Equal(t, "b", opts.s3.Bucket)
	assert.Equal(t, "localhost:9000", opts.s3.Endpoint)

	bad := [][]string{
		{"-verify"},
		{"-bucket", "b"},
		{"-bucket", "b", "-verify"},
		{"-delay", "-1s"},
		{"extra"},
		{"-no-such-flag"},
	}
	opts, err = parseFlags([]string{"-bucket", "b", "-load", "inv.csv"})
	assert.NoError(t, err)
	assert.Equal(t, "inv.csv", opts.load)

	for _, args := range bad {
		_, err = parseFlags(args)
		assert.Error(t, err, strings.Join(args, " "))
	}
}

func TestRunScenario(t *testing.T) {
	dir := t.TempDir()
	savePath := filepath.Join(dir, "inventory.csv.zst")
	opts := &options{
		logDir: filepath.Join(dir, "logs"),
		save:   savePath,
		sort:   true,
		verify: true,
	}
	var stdout, logOut bytes.Buffer
	assert.NoError(t, run(context.Background(), opts, &stdout, &logOut))

	var rep report
	assert.NoError(t, json.Unmarshal(stdout.Bytes(), &rep))
	assert.Equal(t, 8, rep.CountAdded)
	assert.Equal(t, 8, len(rep.AfterAdd))
	assert.Equal(t, map[string]bool{"Фрукты": true, "Обувь": true}, rep.Removed)
	assert.Equal(t, 6, len(rep.AfterRemove))
	assert.Equal(t, []string{"Книга"}, rep.Search["Книга"])
	assert.Equal(t, 0, len(rep.Search["Обувь"]))
	assert.Equal(t, 0, len(rep.Search["ноутбук"]))
	assert.Equal(t, savePath, rep.Saved)
	assert.Equal(t, 0, rep.FinalCount)
	assert.Equal(t, 0, len(rep.Final))
	assert.Equal(t, 0, rep.Failed)
	assert.True(t, rep.Events > 0)

	assert.True(t, strings.Contains(logOut.String(), "added item: Лопата)"))
	_, err := os.Stat(filepath.Join(opts.logDir, "events"))
	assert.NoError(t, err)

	// the saved file survives Clear
	opts2 := &options{load: savePath}
	stdout.Reset()
	assert.NoError(t, run(context.Background(), opts2, &stdout, &logOut))
	rep = report{}
	assert.NoError(t, json.Unmarshal(stdout.Bytes(), &rep))
	assert.Equal(t, []string{"Вода", "Книга", "Компьютер", "Лопата)", "Фотоаппарат", "Электроника"}, rep.Loaded)
	assert.Equal(t, 14, rep.CountAdded)
}

func TestRunSaveFailureIsIsolated(t *testing.T) {
	opts := &options{save: filepath.Join(t.TempDir(), "missing", "inventory.csv")}
	var stdout, logOut bytes.Buffer
	assert.NoError(t, run(context.Background(), opts, &stdout, &logOut))
	var rep report
	assert.NoError(t, json.Unmarshal(stdout.Bytes(), &rep))
	assert.Equal(t, 1, rep.Failed)
	assert.Equal(t, "", rep.Saved)
	assert.Equal(t, 0, rep.FinalCount)
	assert.True(t, strings.Contains(logOut.String(), "write-failure"))
}

func TestVerifySaved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.csv")
	assert.NoError(t, os.WriteFile(path, []byte(csvcodec.Header+"\nКнига\nВода\n"), 0644))
	assert.NoError(t, verifySaved(path, []string{"Книга", "Вода"}))

	err := verifySaved(path, []string{"Книга", "Обувь"})
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "-Обувь"), err.Error())
	assert.True(t, strings.Contains(err.Error(), "+Вода"), err.Error())

	assert.Error(t, verifySaved(path+".missing", nil))
}

func TestRunBatchIsolatesFailures(t *testing.T) {
	var buf bytes.Buffer
	l, err := log.New(&log.Config{Stdout: &buf})
	assert.NoError(t, err)

	var nOK atomic.Int32
	ok := func() error {
		nOK.Add(1)
		return nil
	}
	nFailed := runBatch(l, "test",
		task{"ok1", ok},
		task{"fails", func() error { return errors.New("boom") }},
		task{"panics", func() error { panic("crash") }},
		task{"ok2", ok},
	)
	assert.Equal(t, 2, nFailed)
	assert.Equal(t, int32(2), nOK.Load())
	out := buf.String()
	assert.True(t, strings.Contains(out, "task 'fails' failed: boom"), out)
	assert.True(t, strings.Contains(out, "task 'panics' failed: panic: crash"), out)

	assert.Equal(t, 0, runBatch(l, "empty"))
}
