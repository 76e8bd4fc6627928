// Package cue plays a short audible tone when a remote peer flips caps lock.
package cue

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jfreymuth/pulse"
	"github.com/rbright/capsync/internal/config"
)

const sampleRate = 16000

type toneSpec struct {
	frequencyHz float64
	duration    time.Duration
	volume      float64
}

var (
	onPCM = synthesize([]toneSpec{
		{frequencyHz: 660, duration: 45 * time.Millisecond, volume: 0.15},
		{frequencyHz: 990, duration: 60 * time.Millisecond, volume: 0.15},
	})
	offPCM = synthesize([]toneSpec{
		{frequencyHz: 990, duration: 45 * time.Millisecond, volume: 0.15},
		{frequencyHz: 660, duration: 60 * time.Millisecond, volume: 0.15},
	})
)

// Player emits on/off cues. Overlapping requests are dropped, not queued.
type Player struct {
	cfg    config.CueConfig
	logger *slog.Logger

	mu        sync.Mutex
	playFile  func(context.Context, string) error
	playSynth func([]int16) error
}

// New builds a cue player. A disabled config yields a player whose Play is a no-op.
func New(cfg config.CueConfig, logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{
		cfg:       cfg,
		logger:    logger,
		playFile:  playFile,
		playSynth: playSynth,
	}
}

// Play starts the cue for the given caps lock state without blocking the caller.
func (p *Player) Play(on bool) {
	if p == nil || !p.cfg.Enable {
		return
	}
	if !p.mu.TryLock() {
		return
	}
	go func() {
		defer p.mu.Unlock()
		if err := p.emit(on); err != nil {
			p.logger.Debug("cue playback failed", "on", on, "error", err.Error())
		}
	}()
}

func (p *Player) emit(on bool) error {
	if path := p.path(on); path != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
		err := p.playFile(ctx, path)
		cancel()
		if err == nil {
			return nil
		}
		p.logger.Debug("cue file failed; falling back to synthesized tone", "path", path, "error", err.Error())
	}
	return p.playSynth(samples(on))
}

func (p *Player) path(on bool) string {
	if on {
		return expandUserPath(p.cfg.OnFile)
	}
	return expandUserPath(p.cfg.OffFile)
}

// Files lists the configured cue files with ~ expanded.
func Files(cfg config.CueConfig) []string {
	var files []string
	for _, raw := range []string{cfg.OnFile, cfg.OffFile} {
		if path := expandUserPath(raw); path != "" {
			files = append(files, path)
		}
	}
	return files
}

func samples(on bool) []int16 {
	if on {
		return onPCM
	}
	return offPCM
}

func expandUserPath(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if raw != "~" && !strings.HasPrefix(raw, "~/") {
		return raw
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return raw
	}
	return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(raw, "~"), "/"))
}

func playFile(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("stat cue file %q: %w", path, err)
	}

	cmd := exec.CommandContext(ctx, "pw-play", "--media-role", "Notification", path)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("play cue file %q: %w", path, err)
	}
	return nil
}

func playSynth(pcm []int16) error {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("capsync"),
		pulse.ClientApplicationIconName("input-keyboard"),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	cursor := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if cursor >= len(pcm) {
			return 0, pulse.EndOfData
		}
		n := copy(buf, pcm[cursor:])
		cursor += n
		if cursor >= len(pcm) {
			return n, pulse.EndOfData
		}
		return n, nil
	})

	stream, err := client.NewPlayback(
		reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(sampleRate),
		pulse.PlaybackLatency(0.02),
		pulse.PlaybackMediaName("capsync cue"),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play cue stream: %w", err)
	}
	return nil
}

func synthesize(parts []toneSpec) []int16 {
	gap := samplesFor(18 * time.Millisecond)
	var pcm []int16
	for i, part := range parts {
		pcm = append(pcm, tone(part)...)
		if i < len(parts)-1 {
			pcm = append(pcm, make([]int16, gap)...)
		}
	}
	return pcm
}

func tone(shape toneSpec) []int16 {
	n := samplesFor(shape.duration)
	if n <= 0 || shape.frequencyHz <= 0 || shape.volume <= 0 {
		return nil
	}

	ramp := min(max(n/10, 1), sampleRate/200)

	pcm := make([]int16, n)
	for i := 0; i < n; i++ {
		envelope := min(1.0, float64(i)/float64(ramp), float64(n-i-1)/float64(ramp))
		t := float64(i) / sampleRate
		pcm[i] = int16(math.Round(math.Sin(2*math.Pi*shape.frequencyHz*t) * shape.volume * envelope * 32767))
	}
	return pcm
}

func samplesFor(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * sampleRate))
}
