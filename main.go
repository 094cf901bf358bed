package main

import (
	"codeberg.org/miketth/schemaload/pkg/schemaload"
	"codeberg.org/miketth/schemaload/pkg/statements"
	"codeberg.org/miketth/schemaload/pkg/store/sqlite"
	"context"
	"flag"
	"fmt"
	"github.com/adrg/xdg"
	"github.com/coreos/go-systemd/v22/daemon"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
)

func main() {
	err := run()
	if err != nil {
		log.Fatalf("error: %+v", err)
	}
}

func run() error {
	schemaPath := flag.String("schema", schemaload.DefaultSchemaPath, "path to the schema file")
	dbPath := flag.String("db", schemaload.DefaultDatabasePath, "path to the database file")
	useXdg := flag.Bool("xdg", false, "place the database file under $XDG_DATA_HOME/schemaload")
	driver := flag.String("driver", sqlite.DriverCgo, "sqlite driver to use (sqlite3 or sqlite)")
	delimiter := flag.String("delimiter", statements.DefaultDelimiter, "statement delimiter")
	foreignKeys := flag.Bool("foreign-keys", false, "enable foreign key enforcement")
	dumpPath := flag.String("dump", "", "path to dump the resulting schema to")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	log, err := newLogger(*debug)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer log.Sync()

	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// only directories are created here, the database file is left to Load
	if *useXdg {
		*dbPath, err = getDataPath(*dbPath)
		if err != nil {
			return fmt.Errorf("get data path: %w", err)
		}
	}

	log.Infow("loading schema", "schema", *schemaPath, "db", *dbPath)

	res, err := schemaload.Load(ctx, schemaload.Config{
		SchemaPath:   *schemaPath,
		DatabasePath: *dbPath,
		Driver:       *driver,
		Delimiter:    *delimiter,
		ForeignKeys:  *foreignKeys,
		DumpPath:     *dumpPath,
	}, log)
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}

	log.Infow("schema loaded", "statements", res.Applied, "db", res.DatabasePath)

	if err := notifySystemd(res); err != nil {
		log.Warnw("could not notify systemd", "error", err)
	}

	return nil
}

func notifySystemd(res *schemaload.Result) error {
	supported, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		return fmt.Errorf("notify systemd: %w", err)
	}
	if !supported {
		return nil
	}

	status := fmt.Sprintf("STATUS=Applied %d statements to %s", res.Applied, res.DatabasePath)
	if _, err := daemon.SdNotify(false, status); err != nil {
		return fmt.Errorf("notify status: %w", err)
	}

	return nil
}

func getDataPath(name string) (string, error) {
	if filepath.IsAbs(name) {
		return name, nil
	}

	// creates the parent directories, not the file
	path, err := xdg.DataFile(filepath.Join("schemaload", name))
	if err != nil {
		return "", fmt.Errorf("resolve xdg data file: %w", err)
	}

	return path, nil
}

func newLogger(debug bool) (*zap.SugaredLogger, error) {
	loggerConfig := zap.NewDevelopmentConfig()

	loggerConfig.OutputPaths = []string{"stdout"}
	loggerConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if debug {
		loggerConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		loggerConfig.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	logger, err := loggerConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return logger.Sugar(), nil
}
