// inventory runs a shop inventory scenario: concurrent batches of adds,
// removals and searches against a single store, with optional
// persistence, remote event logging and bucket mirroring.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/tidwall/pretty"

	"github.com/kjk/inventory/csvcodec"
	"github.com/kjk/inventory/inventory"
	"github.com/kjk/inventory/log"
	"github.com/kjk/inventory/logtastic"
	"github.com/kjk/inventory/minioutil"
	"github.com/kjk/inventory/u"
)

var (
	itemsToAdd    = []string{"Книга", "Фрукты", "Электроника", "Компьютер", "Фотоаппарат", "Обувь", "Вода", "Лопата)"}
	itemsToRemove = []string{"Фрукты", "Обувь"}
	searches      = []string{"Обувь", "ноутбук", "Яблоко", "Книга"}
)

type options struct {
	delay     time.Duration
	logDir    string
	verbose   bool
	load      string
	save      string
	sort      bool
	verify    bool
	logServer string
	logApiKey string
	s3        minioutil.Config
	s3Prefix  string
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("inventory", flag.ContinueOnError)
	fs.DurationVar(&opts.delay, "delay", time.Second, "artificial latency of every operation")
	fs.StringVar(&opts.logDir, "log-dir", "", "directory for log and event files")
	fs.BoolVar(&opts.verbose, "verbose", false, "log debug messages and dump events")
	fs.StringVar(&opts.load, "load", "", "load inventory from this file before running")
	fs.StringVar(&opts.save, "save", "", "save inventory to this file (.csv, .csv.gz, .csv.zst, .csv.br)")
	fs.BoolVar(&opts.sort, "sort", false, "sort inventory before saving")
	fs.BoolVar(&opts.verify, "verify", false, "re-read saved file and compare with inventory")
	fs.StringVar(&opts.logServer, "log-server", "", "host:port of a server receiving events")
	fs.StringVar(&opts.logApiKey, "log-api-key", "", "api key for -log-server")
	fs.StringVar(&opts.s3.Bucket, "bucket", "", "mirror saved file to this bucket, restore -load file from it if missing")
	fs.StringVar(&opts.s3.Endpoint, "s3-endpoint", "", "S3-compatible endpoint for -bucket")
	fs.StringVar(&opts.s3.Access, "s3-access", os.Getenv("S3_ACCESS_KEY"), "access key for -bucket")
	fs.StringVar(&opts.s3.Secret, "s3-secret", os.Getenv("S3_SECRET_KEY"), "secret key for -bucket")
	fs.StringVar(&opts.s3.Region, "s3-region", "", "region for -bucket")
	fs.BoolVar(&opts.s3.Insecure, "s3-insecure", false, "use http for -s3-endpoint")
	fs.StringVar(&opts.s3Prefix, "s3-prefix", "inventory", "object name prefix for -bucket")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if opts.delay < 0 {
		return nil, errors.New("-delay can't be negative")
	}
	if opts.verify && opts.save == "" {
		return nil, errors.New("-verify requires -save")
	}
	if opts.s3.Bucket != "" && opts.save == "" && opts.load == "" {
		return nil, errors.New("-bucket requires -save or -load")
	}
	return opts, nil
}

type report struct {
	Loaded      []string            `json:"loaded,omitempty"`
	AfterAdd    []string            `json:"after_add"`
	CountAdded  int                 `json:"count_after_add"`
	Removed     map[string]bool     `json:"removed"`
	AfterRemove []string            `json:"after_remove"`
	Search      map[string][]string `json:"search"`
	Saved       string              `json:"saved,omitempty"`
	Mirrored    string              `json:"mirrored,omitempty"`
	Final       []string            `json:"final"`
	FinalCount  int                 `json:"final_count"`
	Events      int                 `json:"events"`
	Failed      int                 `json:"failed_tasks"`
}

func run(ctx context.Context, opts *options, stdout io.Writer, logOut io.Writer) error {
	l, err := log.New(&log.Config{Dir: opts.logDir, Stdout: logOut, Verbose: opts.verbose})
	if err != nil {
		return err
	}
	defer l.Close()

	rec := &inventory.Recorder{}
	sinks := inventory.MultiSink{inventory.NewLogSink(l), rec}
	if opts.logServer != "" {
		remote, err := logtastic.New(&logtastic.Config{
			Server: opts.logServer,
			ApiKey: opts.logApiKey,
			Logf:   l.Warnf,
		})
		if err != nil {
			return err
		}
		defer remote.Close()
		sinks = append(sinks, remote)
	}

	store := inventory.New(&inventory.Config{Delay: opts.delay, Sink: sinks})
	rep := &report{
		Removed: map[string]bool{},
		Search:  map[string][]string{},
	}

	if opts.load != "" {
		if opts.s3.Bucket != "" {
			if err := restore(ctx, &opts.s3, opts.s3Prefix, opts.load); err != nil {
				l.Warnf("restoring '%s' from bucket failed: %s", opts.load, err)
			}
		}
		if err := store.LoadFromFile(opts.load); err == nil {
			rep.Loaded = store.Display()
		}
	}

	var tasks []task
	for _, item := range itemsToAdd {
		tasks = append(tasks, task{"add " + item, func() error {
			store.Add(item)
			return nil
		}})
	}
	rep.Failed += runBatch(l, "add", tasks...)
	rep.AfterAdd = store.Display()
	rep.CountAdded = store.Count()

	var mu sync.Mutex
	tasks = tasks[:0]
	for _, item := range itemsToRemove {
		tasks = append(tasks, task{"remove " + item, func() error {
			removed := store.Remove(item)
			mu.Lock()
			rep.Removed[item] = removed
			mu.Unlock()
			return nil
		}})
	}
	rep.Failed += runBatch(l, "remove", tasks...)
	rep.AfterRemove = store.Display()

	tasks = tasks[:0]
	for _, s := range searches {
		tasks = append(tasks, task{"search " + s, func() error {
			found := store.SearchByName(s)
			mu.Lock()
			rep.Search[s] = found
			mu.Unlock()
			return nil
		}})
	}
	rep.Failed += runBatch(l, "search", tasks...)

	if opts.save != "" {
		if opts.sort {
			store.Sort()
		}
		rep.Failed += runBatch(l, "save", task{"save " + opts.save, func() error {
			if err := store.SaveToFile(opts.save); err != nil {
				return err
			}
			rep.Saved = opts.save
			if opts.verify {
				if err := verifySaved(opts.save, store.Display()); err != nil {
					return err
				}
			}
			if opts.s3.Bucket != "" {
				remotePath, err := mirror(ctx, &opts.s3, opts.s3Prefix, opts.save)
				if err != nil {
					return err
				}
				rep.Mirrored = remotePath
			}
			return nil
		}})
	}

	store.Clear()
	rep.Final = store.Display()
	rep.FinalCount = store.Count()
	rep.Events = len(rec.Events())

	if opts.verbose {
		l.Verbosef("events:\n%s", spew.Sdump(rec.Events()))
	}
	return writeReport(stdout, rep)
}

func writeReport(w io.Writer, rep *report) error {
	d, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	_, err = w.Write(pretty.Pretty(d))
	return err
}

// verifySaved reads the file back and compares with items.
// On mismatch returns an error with a unified diff.
func verifySaved(path string, items []string) error {
	d, err := u.ReadFileMaybeCompressed(path)
	if err != nil {
		return err
	}
	saved, err := csvcodec.Decode(d)
	if err != nil {
		return err
	}
	if slices.Equal(saved, items) {
		return nil
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(strings.Join(items, "\n") + "\n"),
		B:        difflib.SplitLines(strings.Join(saved, "\n") + "\n"),
		FromFile: "inventory",
		ToFile:   path,
		Context:  3,
	}
	s, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return err
	}
	return fmt.Errorf("saved file '%s' doesn't match inventory:\n%s", path, s)
}

func mirror(ctx context.Context, config *minioutil.Config, prefix string, path string) (string, error) {
	c, err := minioutil.New(ctx, config)
	if err != nil {
		return "", err
	}
	remotePath := minioutil.RemotePath(prefix, path)
	if _, err = c.UploadFile(ctx, remotePath, path); err != nil {
		return "", err
	}
	return remotePath, nil
}

// restore downloads path from the bucket if it doesn't exist locally
func restore(ctx context.Context, config *minioutil.Config, prefix string, path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	c, err := minioutil.New(ctx, config)
	if err != nil {
		return err
	}
	remotePath := minioutil.RemotePath(prefix, path)
	if !c.Exists(ctx, remotePath) {
		return fmt.Errorf("'%s' not found in bucket '%s'", remotePath, c.Bucket)
	}
	return c.DownloadFile(ctx, path, remotePath)
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(2)
	}
	if err = run(context.Background(), opts, os.Stdout, os.Stderr); err != nil {
		log.Errorf("inventory failed: %s", err)
		os.Exit(1)
	}
}
