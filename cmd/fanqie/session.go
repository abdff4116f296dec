package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/kerbaras/fanqie/pkg/config"
	"github.com/kerbaras/fanqie/pkg/data"
	"github.com/kerbaras/fanqie/pkg/integrations"
	"github.com/kerbaras/fanqie/pkg/progress"
	"github.com/kerbaras/fanqie/pkg/services"
	"github.com/kerbaras/fanqie/pkg/sources"
	"github.com/kerbaras/fanqie/pkg/store"
)

// session bundles the long-lived collaborators so the update command can
// download several books without reopening the store and library each time.
type session struct {
	cfg     config.Config
	source  *sources.Fanqie
	store   *store.Store
	library *data.Library
	mint    *sources.CookieMint
}

func newSession(cfg config.Config) (*session, error) {
	source := sources.NewFanqie(cfg.RequestTimeout)

	st, err := store.OpenDir(filepath.Join(cfg.DataDir, "bookstore"))
	if err != nil {
		return nil, err
	}
	library, err := data.OpenLibrary(filepath.Join(cfg.DataDir, "library.duckdb"))
	if err != nil {
		st.Close()
		return nil, err
	}

	return &session{
		cfg:     cfg,
		source:  source,
		store:   st,
		library: library,
		mint:    sources.NewCookieMint(source, filepath.Join(cfg.DataDir, "cookie.json"), logger),
	}, nil
}

func (s *session) Close() {
	s.store.Close()
	s.library.Close()
}

// download runs the full pipeline for one book and renders the artifact.
func (s *session) download(ctx context.Context, novelID string) error {
	// The book page is needed up front anyway: the first chapter id doubles
	// as the cookie validation probe.
	probe, err := s.source.GetBook(ctx, novelID)
	if err != nil {
		if errors.Is(err, sources.ErrNotFound) {
			fmt.Printf("❌ Book %s not found\n", novelID)
			return nil
		}
		return err
	}

	cookie, err := s.mint.Init(ctx, probe.Chapters[0].RemoteID)
	if err != nil {
		return fmt.Errorf("session cookie: %w", err)
	}
	creds := services.NewCredentialState(cookie, s.mint, logger)

	fmt.Printf("📥 Downloading %s (%d chapters)\n", probe.Title, len(probe.Chapters))
	downloader := services.NewDownloader(s.source, s.store, s.library, creds, s.cfg, progress.NewBar(os.Stdout), logger)
	book, result, err := downloader.Run(ctx, novelID)
	if err != nil {
		return err
	}

	switch result.Status {
	case services.RunNotFound:
		fmt.Printf("❌ Book %s not found\n", novelID)
		return nil
	case services.RunPartial:
		fmt.Printf("⚠️  %d chapters unavailable, retry later:\n", len(result.Failed))
		for _, title := range result.Failed {
			fmt.Printf("   - %s\n", title)
		}
	case services.RunCompleted:
		if result.Finished {
			fmt.Println("✅ Download complete, book is finished")
		} else {
			fmt.Println("✅ Download complete, book is still ongoing")
		}
	}

	path, err := s.render(ctx, book)
	if err != nil {
		return err
	}
	fmt.Printf("📖 Saved to %s\n", path)
	return nil
}

func (s *session) render(ctx context.Context, book *data.Book) (string, error) {
	opts := integrations.Options{}
	if s.cfg.SaveMode == config.SaveEPUB {
		opts = s.epubOptions(ctx, book.ID)
	}
	renderer, err := integrations.New(s.cfg, opts)
	if err != nil {
		return "", err
	}
	return renderer.Render(book)
}

// epubOptions scrapes author and cover for the EPUB metadata. Both are nice
// to have; failures degrade to a plain EPUB.
func (s *session) epubOptions(ctx context.Context, novelID string) integrations.Options {
	opts := integrations.Options{}
	info, err := s.source.GetBookInfo(ctx, novelID)
	if err != nil {
		logger.Warn("book info scrape failed", zap.Error(err))
		return opts
	}
	opts.Author = info.Author
	if info.CoverURL != "" {
		cover, err := s.source.FetchCover(ctx, info.CoverURL)
		if err != nil {
			logger.Warn("cover download failed", zap.Error(err))
		} else {
			opts.Cover = cover
		}
	}
	return opts
}
