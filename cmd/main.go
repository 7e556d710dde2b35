package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"

	"github.com/jaki95/music-radar/config"
	"github.com/jaki95/music-radar/internal/app"
	"github.com/jaki95/music-radar/internal/domain"
	"github.com/jaki95/music-radar/internal/playback"
)

// stubPlayer advances with the wall clock once attached. It stands in for
// an embedded video player when running from the terminal.
type stubPlayer struct {
	mu       sync.Mutex
	start    time.Time
	offset   float64
	duration float64
}

func newStubPlayer(duration float64) *stubPlayer {
	return &stubPlayer{start: time.Now(), duration: duration}
}

func (p *stubPlayer) Ready() bool { return true }

func (p *stubPlayer) CurrentTime() (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	elapsed := p.offset + time.Since(p.start).Seconds()
	if elapsed > p.duration {
		elapsed = p.duration
	}
	return elapsed, true
}

func (p *stubPlayer) Duration() (float64, bool) {
	return p.duration, true
}

func (p *stubPlayer) SeekTo(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.offset = seconds
	p.start = time.Now()
}

func main() {
	email := flag.String("email", "", "Account email (optional; anonymous browsing without it)")
	password := flag.String("password", "", "Account password")
	configPath := flag.String("config", "./config/config.yaml", "Path to the config file")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage of %s:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.Level(cfg.LogLevel)}))
	slog.SetDefault(logger)

	a := app.New(cfg)
	defer a.Close()

	a.Start(nil)

	if *email != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := a.SignIn(ctx, *email, *password)
		cancel()
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("ログイン: %s\n", a.Session.Username())
	}

	charts := a.Charts()
	if len(charts) == 0 {
		fmt.Println("人気の曲を取得できませんでした")
		return
	}

	fmt.Println("人気の曲:")
	for i, track := range charts {
		fmt.Printf("  %d. %s - %s\n", i+1, track.Title, track.Artist)
	}

	playTrack(a, charts[0])
}

// playTrack plays one track to completion, rendering the elapsed clock as
// a progress bar.
func playTrack(a *app.App, track domain.Track) {
	raw := domain.RawTrack{VideoID: track.VideoID, Title: track.Title, Artist: track.Artist}
	if err := a.Playback.Play(raw, false); err != nil {
		log.Fatal(err)
	}

	const duration = 30.0
	a.Playback.AttachHandle(newStubPlayer(duration))

	bar := progressbar.NewOptions(
		int(duration),
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionFullWidth(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan]再生中[reset] %s - %s", track.Title, track.Artist)),
	)

	ticks := make(chan float64, 8)
	a.Playback.AddListener(func(state playback.State) {
		select {
		case ticks <- state.Elapsed:
		default:
		}
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case elapsed := <-ticks:
			bar.Set(int(elapsed))
			if elapsed >= duration {
				fmt.Println()
				return
			}
		case <-sigCh:
			fmt.Println()
			return
		}
	}
}
