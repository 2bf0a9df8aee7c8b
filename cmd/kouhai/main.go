package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"

	"git.sr.ht/~delthas/kouhai"
)

func main() {
	var configPath string
	var debug bool
	var version bool
	flag.StringVar(&configPath, "config", "", "path to the configuration file")
	flag.BoolVar(&debug, "debug", false, "log debug information")
	flag.BoolVar(&version, "version", false, "show version info")
	flag.Parse()

	if version {
		if v, ok := kouhai.BuildVersion(); ok {
			fmt.Printf("kouhai version %v\n", v)
		} else {
			fmt.Printf("kouhai (unknown version)\n")
		}
		return
	}

	if configPath == "" {
		var err error
		configPath, err = kouhai.DefaultConfigPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to find the configuration directory: %s\n", err)
			os.Exit(1)
		}
	}

	cfg, err := kouhai.LoadConfigFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load the required configuration file at %q: %s\n", configPath, err)
		os.Exit(1)
	}
	cfg.Debug = cfg.Debug || debug

	logFile, err := openLog(cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open the log file: %s\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	log.SetOutput(logFile)
	log.SetReportTimestamp(true)
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	app, err := kouhai.NewApp(cfg)
	if err != nil {
		log.Error("failed to start", "err", err)
		fmt.Fprintf(os.Stderr, "failed to run: %s\n", err)
		os.Exit(1)
	}
	app.SwitchToBuffer(getLastBuffer())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		<-sigCh
		app.Close()
	}()

	log.Info("starting", "config", configPath)
	app.Run()
	app.Close()
	writeLastBuffer(app)
}

func openLog(path string) (*os.File, error) {
	if path == "" {
		var err error
		path, err = kouhai.DefaultLogPath()
		if err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
}

func lastBufferPath() string {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(cacheDir, "kouhai", "lastbuffer.txt")
}

func getLastBuffer() string {
	p := lastBufferPath()
	if p == "" {
		return ""
	}
	buf, err := os.ReadFile(p)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(buf))
}

func writeLastBuffer(app *kouhai.App) {
	p := lastBufferPath()
	name := app.CurrentBuffer()
	if p == "" || name == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		log.Warn("failed to create the cache directory", "err", err)
		return
	}
	if err := os.WriteFile(p, []byte(name), 0o666); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write last buffer at %q: %s\n", p, err)
	}
}
