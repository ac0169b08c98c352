package recorder

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/foxseedlab/gijirokun/internal/audio"
	"github.com/foxseedlab/gijirokun/internal/session"
	"github.com/foxseedlab/gijirokun/internal/transcriber"
)

const (
	samplesPerFrame  = 960 * 2 // 20ms at 48kHz, stereo
	packetBufferSize = 256
)

// Router fans incoming opus packets out into per-participant capture
// pipelines. A packet for a participant with no running pipeline opens a
// new one, so each contiguous utterance becomes its own capture task: the
// pipeline ends after the trailing-silence threshold or the hard duration
// cap, writes a WAV artifact, then chains the transcription call. The whole
// unit always settles, success or failure, so the engine's all-settled
// barrier can rely on it.
type Router struct {
	engine      *session.Engine
	transcriber transcriber.Transcriber
	newDecoder  audio.DecoderFactory

	guildID      string
	languageCode string
	dir          string
	silence      time.Duration
	maxDuration  time.Duration

	mu        sync.Mutex
	closed    bool
	pipelines map[string]*pipeline
}

type Options struct {
	GuildID       string
	LanguageCode  string
	RecordingsDir string
	Silence       time.Duration
	MaxDuration   time.Duration
}

func NewRouter(engine *session.Engine, stt transcriber.Transcriber, newDecoder audio.DecoderFactory, opts Options) *Router {
	return &Router{
		engine:       engine,
		transcriber:  stt,
		newDecoder:   newDecoder,
		guildID:      opts.GuildID,
		languageCode: opts.LanguageCode,
		dir:          opts.RecordingsDir,
		silence:      opts.Silence,
		maxDuration:  opts.MaxDuration,
		pipelines:    make(map[string]*pipeline),
	}
}

type pipeline struct {
	packets chan []byte
}

// HandlePacket routes one opus packet. Safe to call concurrently; packets
// arriving faster than a pipeline drains are dropped rather than blocking
// the voice receive loop.
func (r *Router) HandlePacket(userID string, packet []byte) {
	if len(packet) == 0 {
		return
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	p, ok := r.pipelines[userID]
	if !ok {
		task := session.NewCaptureTask(userID)
		if err := r.engine.RegisterCaptureTask(r.guildID, task); err != nil {
			r.mu.Unlock()
			slog.Warn("dropping audio packet; capture task rejected", "error", err, "guild_id", r.guildID, "user_id", userID)
			return
		}
		p = &pipeline{packets: make(chan []byte, packetBufferSize)}
		r.pipelines[userID] = p
		go r.runPipeline(p, userID, task)
	}
	r.mu.Unlock()

	select {
	case p.packets <- packet:
	default:
		slog.Warn("dropping audio packet; pipeline buffer full", "guild_id", r.guildID, "user_id", userID)
	}
}

// Close stops accepting packets and lets running pipelines flush out via
// their silence timers. It does not cancel in-flight capture or
// transcription work; the engine's barrier still waits on those.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

func (r *Router) detach(userID string, p *pipeline) {
	r.mu.Lock()
	if r.pipelines[userID] == p {
		delete(r.pipelines, userID)
	}
	r.mu.Unlock()
}

func (r *Router) runPipeline(p *pipeline, userID string, task *session.CaptureTask) {
	outcome := session.CaptureOutcome{UserID: userID}
	defer func() {
		if rec := recover(); rec != nil {
			outcome.Err = fmt.Errorf("capture pipeline panicked: %v", rec)
			slog.Error("capture pipeline panicked", "panic", rec, "guild_id", r.guildID, "user_id", userID)
		}
		task.Settle(outcome)
	}()

	pcmPath, reason, err := r.captureUtterance(p, userID)
	// The slot is freed as soon as capture ends so the participant's next
	// utterance opens a fresh pipeline while this one transcribes.
	r.detach(userID, p)
	if err != nil {
		outcome.Err = err
		slog.Error("capture failed", "error", err, "guild_id", r.guildID, "user_id", userID)
		return
	}
	slog.Info("utterance captured", "guild_id", r.guildID, "user_id", userID, "pcm_path", pcmPath, "end_reason", reason)

	wavPath := pcmPath[:len(pcmPath)-len(".pcm")] + ".wav"
	if err := writeWAVFromPCM(pcmPath, wavPath); err != nil {
		outcome.Err = fmt.Errorf("encode artifact: %w", err)
		slog.Error("artifact encoding failed", "error", err, "guild_id", r.guildID, "user_id", userID)
		return
	}
	if err := os.Remove(pcmPath); err != nil {
		slog.Warn("could not delete raw pcm capture", "error", err, "path", pcmPath)
	}
	outcome.ArtifactPath = wavPath

	ctx := context.Background()
	r.engine.RecordArtifact(ctx, r.guildID, userID, wavPath)

	text, err := r.transcriber.Transcribe(ctx, wavPath, r.languageCode)
	if err != nil {
		outcome.Err = fmt.Errorf("transcription: %w", err)
		slog.Error("transcription failed", "error", err, "guild_id", r.guildID, "user_id", userID, "artifact", wavPath)
		return
	}
	if text != "" {
		r.engine.RecordTranscript(ctx, r.guildID, userID, text, time.Now())
	}
	outcome.Transcript = text
}

// captureUtterance decodes packets to a raw PCM file until the participant
// stays silent past the threshold or the hard cap fires.
func (r *Router) captureUtterance(p *pipeline, userID string) (string, string, error) {
	dec, err := r.newDecoder()
	if err != nil {
		return "", "", fmt.Errorf("create decoder: %w", err)
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create recordings dir: %w", err)
	}
	pcmPath := filepath.Join(r.dir, fmt.Sprintf("%s-%d.pcm", userID, time.Now().UnixMilli()))
	out, err := os.Create(pcmPath)
	if err != nil {
		return "", "", fmt.Errorf("create pcm file: %w", err)
	}

	silenceTimer := time.NewTimer(r.silence)
	deadline := time.NewTimer(r.maxDuration)
	defer silenceTimer.Stop()
	defer deadline.Stop()

	pcm := make([]int16, samplesPerFrame)
	frame := make([]byte, samplesPerFrame*2)
	reason := ""
	for reason == "" {
		select {
		case packet := <-p.packets:
			n, err := dec.Decode(packet, pcm)
			if err != nil {
				slog.Warn("skipping undecodable opus packet", "error", err, "user_id", userID)
				continue
			}
			if n > 0 {
				samples := n * wavChannels
				if samples > len(pcm) {
					samples = len(pcm)
				}
				for i := 0; i < samples; i++ {
					binary.LittleEndian.PutUint16(frame[i*2:], uint16(pcm[i]))
				}
				if _, err := out.Write(frame[:samples*2]); err != nil {
					_ = out.Close()
					_ = os.Remove(pcmPath)
					return "", "", fmt.Errorf("write pcm: %w", err)
				}
			}
			if !silenceTimer.Stop() {
				<-silenceTimer.C
			}
			silenceTimer.Reset(r.silence)
		case <-silenceTimer.C:
			reason = "trailing_silence"
		case <-deadline.C:
			reason = "max_duration"
		}
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(pcmPath)
		return "", "", fmt.Errorf("close pcm file: %w", err)
	}
	return pcmPath, reason, nil
}
