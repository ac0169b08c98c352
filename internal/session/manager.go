package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/foxseedlab/gijirokun/internal/config"
	"github.com/foxseedlab/gijirokun/internal/discord"
	"github.com/foxseedlab/gijirokun/internal/repository"
	"github.com/foxseedlab/gijirokun/internal/summarizer"
	"github.com/foxseedlab/gijirokun/internal/transcriber"
	"github.com/foxseedlab/gijirokun/internal/webhook"
)

const (
	stopReasonManualSummarize = "summarize command"
	stopReasonManualStop      = "stop command"
	stopReasonBotRemoved      = "bot removed from voice channel"
)

// PacketRouter receives the raw voice packets of one running session and
// fans them out into capture work registered on the engine.
type PacketRouter interface {
	HandlePacket(userID string, packet []byte)
	Close()
}

type RouterFactory func(guildID, languageCode string) PacketRouter

// Manager glues Discord commands and voice events to the session engine.
// It owns the live voice connection and packet router per guild; the
// engine owns the session record itself.
type Manager struct {
	cfg        *config.Config
	engine     *Engine
	repo       repository.Repository
	discord    discord.Client
	summarizer summarizer.Summarizer
	webhook    webhook.Sender
	newRouter  RouterFactory

	mu        sync.Mutex
	botUserID string
	voices    map[string]*activeVoice
}

type activeVoice struct {
	sessionID string
	channelID string
	voice     discord.VoiceConnection
	router    PacketRouter
}

func NewManager(cfg *config.Config, engine *Engine, repo repository.Repository, dc discord.Client, sm summarizer.Summarizer, wh webhook.Sender, newRouter RouterFactory) *Manager {
	return &Manager{
		cfg:        cfg,
		engine:     engine,
		repo:       repo,
		discord:    dc,
		summarizer: sm,
		webhook:    wh,
		newRouter:  newRouter,
		voices:     make(map[string]*activeVoice),
	}
}

func (m *Manager) SetBotUserID(userID string) {
	m.mu.Lock()
	m.botUserID = userID
	m.mu.Unlock()
}

func (m *Manager) HandleSlashCommand(event discord.SlashCommandEvent) {
	if m.cfg.DiscordGuildID != "" && event.GuildID != m.cfg.DiscordGuildID {
		_ = event.RespondEphemeral(messageEphemeralWrongGuild)
		return
	}
	switch event.CommandName {
	case commandJoinVCSummary:
		m.handleStart(event)
	case commandSummarizeVC:
		m.handleSummarize(event)
	case commandStopSummary:
		m.handleStop(event)
	case commandMinutes:
		m.handleMinutes(event)
	case commandSummaryMode:
		m.handleSummaryMode(event)
	default:
		_ = event.RespondEphemeral(messageEphemeralUnknownCommand)
	}
}

func (m *Manager) handleStart(event discord.SlashCommandEvent) {
	channelID, err := m.discord.GetUserVoiceChannelID(event.GuildID, event.UserID)
	if err != nil {
		slog.Error("failed to look up voice channel", "error", err, "guild_id", event.GuildID, "user_id", event.UserID)
		_ = event.RespondEphemeral(messageEphemeralVoiceLookupFailed)
		return
	}
	if channelID == "" {
		_ = event.RespondEphemeral(messageEphemeralJoinVCFirst)
		return
	}
	if m.engine.ActiveSession(event.GuildID) != nil {
		_ = event.RespondEphemeral(messageEphemeralAlreadyRunning)
		return
	}

	ctx := context.Background()
	workspaceID, err := m.repo.FindWorkspaceIDByVoiceChannel(ctx, event.GuildID, channelID)
	if err != nil {
		slog.Warn("workspace lookup failed; continuing without a linked workspace", "error", err, "guild_id", event.GuildID, "channel_id", channelID)
		workspaceID = ""
	}

	voice, err := m.discord.JoinVoiceChannel(event.GuildID, channelID)
	if err != nil {
		slog.Error("failed to join voice channel", "error", err, "guild_id", event.GuildID, "channel_id", channelID)
		_ = event.RespondEphemeral(messageEphemeralStartFailed)
		return
	}

	sess, err := m.engine.CreateSession(ctx, event.GuildID, channelID, event.UserID, workspaceID)
	if err != nil {
		_ = voice.Disconnect()
		if errors.Is(err, ErrSessionAlreadyActive) {
			_ = event.RespondEphemeral(messageEphemeralAlreadyRunning)
			return
		}
		slog.Error("failed to create session", "error", err, "guild_id", event.GuildID)
		_ = event.RespondEphemeral(messageEphemeralStartFailed)
		return
	}

	m.seedParticipants(ctx, sess, event.UserID)

	languageCode := transcriber.ResolveLanguageCode(sess.LanguageMode, m.cfg.DefaultTranscribeLanguage)
	router := m.newRouter(event.GuildID, languageCode)
	m.mu.Lock()
	m.voices[event.GuildID] = &activeVoice{
		sessionID: sess.ID,
		channelID: channelID,
		voice:     voice,
		router:    router,
	}
	m.mu.Unlock()

	go voice.ReceiveAudio(router.HandlePacket)

	slog.Info("recording session started", "session_id", sess.ID, "guild_id", event.GuildID, "channel_id", channelID, "language_code", languageCode)
	_ = m.discord.SendChannelMessage(channelID, messageChannelRecordingStarted)
	_ = event.RespondEphemeral(startEphemeralMessage(channelID))
}

func (m *Manager) seedParticipants(ctx context.Context, sess *repository.Session, initiatorID string) {
	participants, err := m.discord.ListVoiceChannelParticipants(sess.GuildID, sess.ChannelID)
	if err != nil {
		slog.Warn("failed to list voice channel participants", "error", err, "guild_id", sess.GuildID, "channel_id", sess.ChannelID)
		return
	}
	for _, p := range participants {
		if p.IsBot || p.UserID == initiatorID {
			continue
		}
		m.engine.AddParticipant(ctx, sess.GuildID, p.UserID)
	}
}

func (m *Manager) handleSummarize(event discord.SlashCommandEvent) {
	if m.engine.ActiveSession(event.GuildID) == nil {
		_ = event.RespondEphemeral(messageEphemeralNotRunning)
		return
	}
	_ = event.RespondEphemeral(messageEphemeralSummarizing)
	go m.finalizeSession(event.GuildID, stopReasonManualSummarize, true)
}

func (m *Manager) handleStop(event discord.SlashCommandEvent) {
	if m.engine.ActiveSession(event.GuildID) == nil {
		_ = event.RespondEphemeral(messageEphemeralNotRunning)
		return
	}
	_ = event.RespondEphemeral(messageEphemeralStopping)
	go m.finalizeSession(event.GuildID, stopReasonManualStop, false)
}

func (m *Manager) handleMinutes(event discord.SlashCommandEvent) {
	ctx := context.Background()
	sess, err := m.engine.LastSession(ctx, event.GuildID)
	if err != nil {
		slog.Error("failed to load last session", "error", err, "guild_id", event.GuildID)
		_ = event.RespondEphemeral(messageEphemeralNoPastSession)
		return
	}
	if sess == nil {
		_ = event.RespondEphemeral(messageEphemeralNoPastSession)
		return
	}
	if sess.LastSummary == nil {
		_ = event.RespondEphemeral(messageEphemeralNoSummaryYet)
		return
	}
	if err := m.discord.SendChannelMessageWithFile(discord.FileMessage{
		ChannelID: event.ChannelID,
		Content:   messageEphemeralMinutesAttached,
		Filename:  fmt.Sprintf("minutes-%s.txt", sess.ID),
		FileBody:  buildMinutesText(sess),
	}); err != nil {
		slog.Error("failed to attach minutes", "error", err, "session_id", sess.ID)
		_ = event.RespondEphemeral(messageEphemeralNoPastSession)
		return
	}
	_ = event.RespondEphemeral(messageEphemeralMinutesAttached)
}

func (m *Manager) handleSummaryMode(event discord.SlashCommandEvent) {
	mode := event.Options[optionSummaryMode]
	if !isValidLanguageMode(mode) {
		_ = event.RespondEphemeral(messageEphemeralInvalidMode)
		return
	}
	if err := m.engine.SetLanguageMode(context.Background(), event.UserID, mode); err != nil {
		slog.Error("failed to save language mode", "error", err, "user_id", event.UserID, "mode", mode)
		_ = event.RespondEphemeral(messageEphemeralStartFailed)
		return
	}
	_ = event.RespondEphemeral(summaryModeSetMessage(mode))
}

// HandleVoiceStateUpdate tracks late joiners and treats the bot's own
// departure from the session channel as a lost connection, which ends the
// session through the same path as an explicit summarize command.
func (m *Manager) HandleVoiceStateUpdate(event discord.VoiceStateEvent) {
	sess := m.engine.ActiveSession(event.GuildID)
	if sess == nil {
		return
	}
	m.mu.Lock()
	botUserID := m.botUserID
	m.mu.Unlock()

	if event.UserID == botUserID {
		if event.BeforeChannelID == sess.ChannelID && event.AfterChannelID != sess.ChannelID {
			slog.Warn("voice connection lost; finalizing session", "session_id", sess.ID, "guild_id", event.GuildID)
			go m.finalizeSession(event.GuildID, stopReasonBotRemoved, true)
		}
		return
	}
	if event.UserIsBot {
		return
	}
	if event.AfterChannelID == sess.ChannelID {
		m.engine.AddParticipant(context.Background(), event.GuildID, event.UserID)
	}
}

// finalizeSession is the single teardown path for every way a session ends.
// It stops the packet intake, waits for all registered capture work to
// settle, ends the session and, when asked, generates and posts the summary.
func (m *Manager) finalizeSession(guildID, reason string, summarize bool) {
	m.mu.Lock()
	av, ok := m.voices[guildID]
	if ok {
		delete(m.voices, guildID)
	}
	m.mu.Unlock()
	if ok {
		av.router.Close()
		if err := av.voice.Disconnect(); err != nil {
			slog.Warn("voice disconnect failed", "error", err, "guild_id", guildID)
		}
	}

	ctx := context.Background()
	if err := m.engine.WaitForOutstandingWork(ctx, guildID); err != nil {
		slog.Error("failed waiting for capture work", "error", err, "guild_id", guildID)
	}
	sess, err := m.engine.EndSession(ctx, guildID)
	if err != nil {
		// Another teardown path won the race; nothing left to do.
		slog.Info("session already ended", "guild_id", guildID, "reason", reason)
		return
	}
	slog.Info("session finalized", "session_id", sess.ID, "guild_id", guildID, "reason", reason, "transcripts", len(sess.Transcripts))

	if !summarize {
		_ = m.discord.SendChannelMessage(sess.ChannelID, messageChannelStopped)
		return
	}
	if len(sess.Transcripts) == 0 {
		_ = m.discord.SendChannelMessage(sess.ChannelID, messageChannelNoSpeech)
		return
	}

	endedAt := sess.StartedAt
	if sess.EndedAt != nil {
		endedAt = *sess.EndedAt
	}
	summary, err := m.summarizer.Summarize(ctx, summarizer.Request{
		Transcripts:  sess.Transcripts,
		Participants: sess.Participants,
		StartedAt:    sess.StartedAt,
		EndedAt:      endedAt,
		LanguageMode: sess.LanguageMode,
	})
	if err != nil {
		slog.Error("summary generation failed", "error", err, "session_id", sess.ID)
		_ = m.discord.SendChannelMessage(sess.ChannelID, messageChannelSummaryFailed)
		return
	}
	if _, err := m.engine.SaveSummary(ctx, sess.ID, summary); err != nil {
		slog.Error("failed to save summary", "error", err, "session_id", sess.ID)
	}
	sess.LastSummary = summary

	if err := m.discord.SendChannelMessage(sess.ChannelID, buildSummaryMessage(summary)); err != nil {
		slog.Error("failed to post summary message", "error", err, "session_id", sess.ID)
	}
	if err := m.webhook.SendSummary(ctx, buildSummaryPayload(sess, summary)); err != nil {
		slog.Error("failed to send summary webhook", "error", err, "session_id", sess.ID)
	}
}

// StopAllSessions finalizes every live voice attachment, used on shutdown.
func (m *Manager) StopAllSessions(summarize bool) int {
	m.mu.Lock()
	guildIDs := make([]string, 0, len(m.voices))
	for guildID := range m.voices {
		guildIDs = append(guildIDs, guildID)
	}
	m.mu.Unlock()
	for _, guildID := range guildIDs {
		m.finalizeSession(guildID, "server shutdown", summarize)
	}
	return len(guildIDs)
}

func (m *Manager) isVoiceActive(guildID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.voices[guildID]
	return ok
}
