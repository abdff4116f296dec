package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kerbaras/fanqie/pkg/config"
	"github.com/kerbaras/fanqie/pkg/data"
	"github.com/kerbaras/fanqie/pkg/progress"
	"github.com/kerbaras/fanqie/pkg/sources"
	"github.com/kerbaras/fanqie/pkg/store"
)

// checkpointEvery is how many finished chapter attempts pass between
// mid-run record saves.
const checkpointEvery = 5

// RunStatus summarizes how a download run ended.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunPartial   RunStatus = "partial_failure"
	RunNotFound  RunStatus = "not_found"
)

// RunResult is the outcome of one download run. Failed lists the titles that
// stayed unreachable; they stay absent from the record and are retried on the
// next run.
type RunResult struct {
	Status   RunStatus
	Finished bool
	Total    int
	Skipped  int
	Fetched  int
	Failed   []string
}

// Downloader orchestrates a full book download: chapter list, bounded
// parallel fetching, incremental checkpoints, and the final record save.
type Downloader struct {
	source  sources.Source
	store   *store.Store
	library *data.Library
	creds   *CredentialState
	cfg     config.Config
	sink    progress.Sink
	logger  *zap.Logger
}

// NewDownloader wires a downloader. library may be nil when no registry
// should be kept; sink may be progress.Discard().
func NewDownloader(source sources.Source, st *store.Store, library *data.Library, creds *CredentialState, cfg config.Config, sink progress.Sink, logger *zap.Logger) *Downloader {
	return &Downloader{
		source:  source,
		store:   st,
		library: library,
		creds:   creds,
		cfg:     cfg,
		sink:    sink,
		logger:  logger,
	}
}

// runState folds worker results under one mutex. It doubles as the fetcher's
// cache so the stored-chapter short circuit sees mid-run progress too.
type runState struct {
	mu        sync.Mutex
	record    *store.Record
	completed int
	failed    []string
}

func (r *runState) Lookup(title string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.record.Get(title)
}

// Run downloads every missing chapter of the given book. A missing book
// yields a RunNotFound result and no writes; chapter-level failures never
// abort the run, they are collected into the result instead.
func (d *Downloader) Run(ctx context.Context, novelID string) (*data.Book, *RunResult, error) {
	book, err := d.source.GetBook(ctx, novelID)
	if err != nil {
		if errors.Is(err, sources.ErrNotFound) {
			d.logger.Warn("book not found", zap.String("novel_id", novelID))
			return nil, &RunResult{Status: RunNotFound}, nil
		}
		return nil, nil, fmt.Errorf("get chapter list: %w", err)
	}

	key := store.Key(book.Title)
	record, err := d.store.Load(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	record.SetMetadata(store.Metadata{
		NovelID:     book.ID,
		Name:        book.Title,
		Status:      book.Status,
		LastUpdated: time.Now().Format("2006-01-02 15:04:05"),
	})

	total := len(book.Chapters)
	var pending []data.Chapter
	for _, ch := range book.Chapters {
		if record.Has(ch.Title) {
			continue
		}
		pending = append(pending, ch)
	}
	skipped := total - len(pending)

	run := &runState{record: record, completed: skipped}
	fetcher := NewFetcher(d.source, d.creds, run, d.cfg, d.logger)

	d.logger.Info("starting download",
		zap.String("book", book.Title),
		zap.Int("total", total),
		zap.Int("stored", skipped),
		zap.Int("workers", d.cfg.Workers))
	d.sink.Publish(progress.Event{Completed: skipped, Total: total, Description: "下载进度"})

	g := new(errgroup.Group)
	g.SetLimit(d.cfg.Workers)
	for _, ch := range pending {
		ch := ch
		g.Go(func() error {
			content, err := fetcher.Fetch(ctx, ch)

			var snapshot *store.Record
			run.mu.Lock()
			run.completed++
			if err != nil {
				run.failed = append(run.failed, ch.Title)
			} else if perr := run.record.Put(ch.Title, content); perr != nil {
				run.failed = append(run.failed, ch.Title)
				err = perr
			}
			if run.completed%checkpointEvery == 0 {
				snapshot = run.record.Clone()
			}
			completed := run.completed
			run.mu.Unlock()

			if err != nil {
				d.logger.Warn("chapter failed", zap.String("chapter", ch.Title), zap.Error(err))
			}
			if snapshot != nil {
				if err := d.store.Save(ctx, key, snapshot); err != nil {
					d.logger.Warn("checkpoint save failed", zap.Error(err))
				}
			}
			d.sink.Publish(progress.Event{Completed: completed, Total: total, Description: "下载进度", Title: ch.Title})
			return nil
		})
	}
	g.Wait()

	// The final save must land even when the run was cancelled mid-flight,
	// otherwise chapters fetched since the last checkpoint are lost.
	saveCtx := context.WithoutCancel(ctx)
	if err := d.store.Save(saveCtx, key, run.record); err != nil {
		return nil, nil, fmt.Errorf("final record save: %w", err)
	}
	if d.library != nil {
		if err := d.library.Upsert(saveCtx, book); err != nil {
			d.logger.Warn("library update failed", zap.Error(err))
		}
	}

	for i := range book.Chapters {
		if content, ok := run.record.Get(book.Chapters[i].Title); ok {
			book.Chapters[i].Content = content
		}
	}

	sort.Strings(run.failed)
	result := &RunResult{
		Status:   RunCompleted,
		Finished: book.Finished(),
		Total:    total,
		Skipped:  skipped,
		Fetched:  total - skipped - len(run.failed),
		Failed:   run.failed,
	}
	if len(run.failed) > 0 {
		result.Status = RunPartial
	}
	d.logger.Info("download finished",
		zap.String("book", book.Title),
		zap.String("status", string(result.Status)),
		zap.Int("fetched", result.Fetched),
		zap.Int("failed", len(result.Failed)))
	return book, result, nil
}
