package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/Joseda-hg/riel/internal/app"
	"github.com/Joseda-hg/riel/internal/config"
	"github.com/Joseda-hg/riel/internal/db"
	"github.com/Joseda-hg/riel/internal/export"
	"github.com/Joseda-hg/riel/internal/imaging"
	"github.com/Joseda-hg/riel/internal/store"
	"github.com/Joseda-hg/riel/internal/tui"
	"github.com/Joseda-hg/riel/internal/web"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

func main() {
	configPathFlag := flag.String("config", "", "config file path")
	dbPathFlag := flag.String("db", "", "sqlite db path")
	webFlag := flag.Bool("web", false, "enable web server")
	webOnlyFlag := flag.Bool("web-only", false, "run web server only")
	portFlag := flag.Int("port", 0, "web server port")
	envFlag := flag.String("env", ".env", "env file with RIEL_* overrides")
	exportFlag := flag.String("export", "", "export tasks (pdf, xlsx, txt, json) and exit")
	outFlag := flag.String("out", "", "output path for -export (default: export dir)")
	listFlag := flag.Bool("list", false, "print tasks as a table and exit")
	resetFlag := flag.Bool("reset", false, "delete every stored task and exit")
	flag.Parse()

	cfgPath, err := resolveConfigPath(*configPathFlag)
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := config.Resolve(cfgPath, *envFlag, func(cfg *config.Config) {
		if *dbPathFlag != "" {
			cfg.DBPath = *dbPathFlag
		}
		if cfg.DBPath == "" {
			cfg.DBPath = filepath.Join(filepath.Dir(cfgPath), "riel.db")
		}
		if cfg.LogPath == "" {
			cfg.LogPath = filepath.Join(filepath.Dir(cfgPath), "riel.log")
		}
		if *webFlag || *webOnlyFlag {
			cfg.WebEnabled = true
		}
		if *portFlag != 0 {
			cfg.WebPort = *portFlag
		}
	})
	if err != nil {
		log.Fatal(err)
	}

	logger, err := newLogger(cfg.LogPath, *webOnlyFlag)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	conn, err := openDB(cfg.DBPath)
	if err != nil {
		logger.Fatal("open database", zap.String("path", cfg.DBPath), zap.Error(err))
	}
	defer conn.Close()

	ctx := context.Background()
	kv := db.NewKV(conn, cfg.StorageQuota)

	if *resetFlag {
		if err := kv.Delete(ctx, store.SlotKey); err != nil {
			logger.Fatal("reset tasks", zap.Error(err))
		}
		fmt.Println("All tasks deleted.")
		return
	}

	tasks := store.New(kv)
	tasks.Load(ctx)

	if *listFlag {
		export.Table(os.Stdout, tasks.Tasks())
		return
	}
	if *exportFlag != "" {
		path, err := exportTasks(tasks, *exportFlag, *outFlag, cfg.ExportDir)
		if err != nil {
			logger.Fatal("export", zap.String("format", *exportFlag), zap.Error(err))
		}
		fmt.Printf("Exported %d tasks to %s\n", tasks.Len(), path)
		return
	}

	a := app.New(tasks, app.Options{
		Normalizer:       imaging.New(cfg.MaxPhotoWidth, cfg.PhotoQuality),
		CelebrationDelay: cfg.CelebrationDelay(),
		FileSizeWarning:  cfg.FileSizeWarning,
	})

	if cfg.WebEnabled {
		addr := fmt.Sprintf(":%d", cfg.WebPort)
		handler := web.NewServer(a, conn, logger).Handler()
		if *webOnlyFlag {
			logger.Info("web server running", zap.String("url", "http://localhost"+addr))
			if err := http.ListenAndServe(addr, handler); err != nil {
				logger.Fatal("web server", zap.Error(err))
			}
			return
		}

		go func() {
			logger.Info("web server running", zap.String("url", "http://localhost"+addr))
			if err := http.ListenAndServe(addr, handler); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("web server", zap.Error(err))
			}
		}()
	}

	if err := tui.Run(a, cfg.ExportDir); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveConfigPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	return config.DefaultConfigPath()
}

func openDB(dbPath string) (*sqlx.DB, error) {
	if err := config.EnsureDir(dbPath); err != nil {
		return nil, err
	}
	return db.Open(dbPath)
}

// newLogger writes JSON logs to logPath. The TUI owns the terminal, so only
// the web-only mode also logs to stderr.
func newLogger(logPath string, stderr bool) (*zap.Logger, error) {
	if err := config.EnsureDir(logPath); err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{logPath}
	cfg.ErrorOutputPaths = []string{logPath}
	if stderr {
		cfg.OutputPaths = append(cfg.OutputPaths, "stderr")
		cfg.ErrorOutputPaths = append(cfg.ErrorOutputPaths, "stderr")
	}
	return cfg.Build()
}

func exportTasks(tasks *store.Store, formatName, out, exportDir string) (string, error) {
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return "", err
	}
	path := out
	if path == "" {
		path = filepath.Join(exportDir, export.Filename(format))
	}
	if err := config.EnsureDir(path); err != nil {
		return "", err
	}
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := export.Write(file, format, tasks.Tasks(), time.Now()); err != nil {
		_ = file.Close()
		return "", err
	}
	return path, file.Close()
}
