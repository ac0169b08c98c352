package session

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/foxseedlab/gijirokun/internal/config"
	"github.com/foxseedlab/gijirokun/internal/discord"
	"github.com/foxseedlab/gijirokun/internal/repository"
	"github.com/foxseedlab/gijirokun/internal/summarizer"
	"github.com/foxseedlab/gijirokun/internal/webhook"
)

type mockDiscordClient struct {
	mu                   sync.Mutex
	sendCalls            []string
	fileCalls            []discord.FileMessage
	userVoiceChannelByID map[string]string
	channelParticipants  []discord.VoiceParticipant
	lastVoice            *mockVoiceConnection
}

func (m *mockDiscordClient) Connect(_ context.Context) error { return nil }
func (m *mockDiscordClient) Close() error                    { return nil }
func (m *mockDiscordClient) JoinVoiceChannel(_, _ string) (discord.VoiceConnection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastVoice = &mockVoiceConnection{}
	return m.lastVoice, nil
}
func (m *mockDiscordClient) SendChannelMessage(_ string, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendCalls = append(m.sendCalls, content)
	return nil
}
func (m *mockDiscordClient) SendChannelMessageWithFile(msg discord.FileMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fileCalls = append(m.fileCalls, msg)
	return nil
}
func (m *mockDiscordClient) RegisterVoiceStateUpdateHandler(_ func(discord.VoiceStateEvent)) {}
func (m *mockDiscordClient) RegisterSlashCommandHandler(_ func(discord.SlashCommandEvent))   {}
func (m *mockDiscordClient) UpsertGuildSlashCommands(_ string, _ []discord.SlashCommandDefinition) error {
	return nil
}
func (m *mockDiscordClient) GetUserVoiceChannelID(_, userID string) (string, error) {
	if m.userVoiceChannelByID == nil {
		return "", nil
	}
	return m.userVoiceChannelByID[userID], nil
}
func (m *mockDiscordClient) ListVoiceChannelParticipants(_, _ string) ([]discord.VoiceParticipant, error) {
	return m.channelParticipants, nil
}
func (m *mockDiscordClient) GetBotUserID() (string, error) { return "bot-self", nil }
func (m *mockDiscordClient) Run() error                    { return nil }

func (m *mockDiscordClient) sentMessages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sendCalls...)
}

func (m *mockDiscordClient) attachedFiles() []discord.FileMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]discord.FileMessage(nil), m.fileCalls...)
}

type mockVoiceConnection struct {
	mu          sync.Mutex
	disconnects int
}

func (m *mockVoiceConnection) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disconnects++
	return nil
}
func (m *mockVoiceConnection) ReceiveAudio(_ func(userID string, opusPacket []byte)) {}

func (m *mockVoiceConnection) disconnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disconnects > 0
}

type fakeRouter struct {
	mu     sync.Mutex
	closed bool
}

func (f *fakeRouter) HandlePacket(_ string, _ []byte) {}
func (f *fakeRouter) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeRouter) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type mockSummarizer struct {
	mu       sync.Mutex
	requests []summarizer.Request
	result   *repository.MeetingSummary
	err      error
}

func (m *mockSummarizer) Summarize(_ context.Context, req summarizer.Request) (*repository.MeetingSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &repository.MeetingSummary{Overview: "the team discussed the release"}, nil
}

func (m *mockSummarizer) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

type mockWebhookSender struct {
	mu       sync.Mutex
	payloads []webhook.SummaryPayload
}

func (m *mockWebhookSender) SendSummary(_ context.Context, payload webhook.SummaryPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloads = append(m.payloads, payload)
	return nil
}

func (m *mockWebhookSender) sent() []webhook.SummaryPayload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]webhook.SummaryPayload(nil), m.payloads...)
}

type managerFixture struct {
	manager    *Manager
	engine     *Engine
	repo       *memoryRepository
	dc         *mockDiscordClient
	summarizer *mockSummarizer
	webhook    *mockWebhookSender
	router     *fakeRouter
}

func newManagerFixture() *managerFixture {
	repo := newMemoryRepository()
	engine := NewEngine(repo)
	dc := &mockDiscordClient{}
	sm := &mockSummarizer{}
	wh := &mockWebhookSender{}
	router := &fakeRouter{}
	cfg := &config.Config{
		Env:                       "test",
		DiscordGuildID:            "guild-1",
		DefaultTranscribeLanguage: "en-IN",
		RecordingsDir:             "/tmp/recordings",
		CaptureSilenceMs:          500,
		MaxCaptureDurationMin:     5,
	}
	manager := NewManager(cfg, engine, repo, dc, sm, wh, func(_, _ string) PacketRouter {
		return router
	})
	manager.SetBotUserID("bot-self")
	return &managerFixture{
		manager:    manager,
		engine:     engine,
		repo:       repo,
		dc:         dc,
		summarizer: sm,
		webhook:    wh,
		router:     router,
	}
}

func slashEvent(command, userID string, respond *string) discord.SlashCommandEvent {
	return discord.SlashCommandEvent{
		GuildID:     "guild-1",
		ChannelID:   "text-1",
		CommandName: command,
		UserID:      userID,
		RespondEphemeral: func(content string) error {
			*respond = content
			return nil
		},
	}
}

func TestHandleSlashCommand_RejectsOtherGuild(t *testing.T) {
	f := newManagerFixture()
	var resp string

	event := slashEvent(commandJoinVCSummary, "user-1", &resp)
	event.GuildID = "guild-2"
	f.manager.HandleSlashCommand(event)

	if resp != messageEphemeralWrongGuild {
		t.Fatalf("unexpected response: %q", resp)
	}
}

func TestHandleStart_RequiresVoiceChannel(t *testing.T) {
	f := newManagerFixture()
	var resp string

	f.manager.HandleSlashCommand(slashEvent(commandJoinVCSummary, "user-1", &resp))

	if resp != messageEphemeralJoinVCFirst {
		t.Fatalf("unexpected response: %q", resp)
	}
	if f.engine.ActiveSession("guild-1") != nil {
		t.Fatal("expected no session to be created")
	}
}

func TestHandleStart_CreatesSessionAndSeedsParticipants(t *testing.T) {
	f := newManagerFixture()
	f.dc.userVoiceChannelByID = map[string]string{"user-1": "vc-1"}
	f.dc.channelParticipants = []discord.VoiceParticipant{
		{UserID: "user-1"},
		{UserID: "user-2"},
		{UserID: "bot-self", IsBot: true},
	}
	var resp string

	f.manager.HandleSlashCommand(slashEvent(commandJoinVCSummary, "user-1", &resp))

	if resp != startEphemeralMessage("vc-1") {
		t.Fatalf("unexpected response: %q", resp)
	}
	sess := f.engine.ActiveSession("guild-1")
	if sess == nil {
		t.Fatal("expected an active session")
	}
	if len(sess.Participants) != 2 || sess.Participants[0] != "user-1" || sess.Participants[1] != "user-2" {
		t.Fatalf("unexpected participants: %v", sess.Participants)
	}
	if !f.manager.isVoiceActive("guild-1") {
		t.Fatal("expected a live voice attachment")
	}
	sent := f.dc.sentMessages()
	if len(sent) != 1 || sent[0] != messageChannelRecordingStarted {
		t.Fatalf("unexpected channel messages: %v", sent)
	}
}

func TestHandleStart_SecondStartRejected(t *testing.T) {
	f := newManagerFixture()
	f.dc.userVoiceChannelByID = map[string]string{"user-1": "vc-1", "user-2": "vc-1"}
	var first, second string

	f.manager.HandleSlashCommand(slashEvent(commandJoinVCSummary, "user-1", &first))
	f.manager.HandleSlashCommand(slashEvent(commandJoinVCSummary, "user-2", &second))

	if second != messageEphemeralAlreadyRunning {
		t.Fatalf("unexpected response: %q", second)
	}
}

func TestHandleSummarize_NotRunning(t *testing.T) {
	f := newManagerFixture()
	var resp string

	f.manager.HandleSlashCommand(slashEvent(commandSummarizeVC, "user-1", &resp))

	if resp != messageEphemeralNotRunning {
		t.Fatalf("unexpected response: %q", resp)
	}
}

func TestHandleSummarize_PostsSummaryAndWebhook(t *testing.T) {
	f := newManagerFixture()
	f.dc.userVoiceChannelByID = map[string]string{"user-1": "vc-1"}
	var resp string

	f.manager.HandleSlashCommand(slashEvent(commandJoinVCSummary, "user-1", &resp))
	f.engine.RecordTranscript(context.Background(), "guild-1", "user-1", "ship it on friday", time.Now())

	f.manager.HandleSlashCommand(slashEvent(commandSummarizeVC, "user-1", &resp))
	if resp != messageEphemeralSummarizing {
		t.Fatalf("unexpected response: %q", resp)
	}

	waitUntil(t, time.Second, func() bool { return f.engine.ActiveSession("guild-1") == nil }, "session should end")
	waitUntil(t, time.Second, func() bool { return f.summarizer.callCount() == 1 }, "summarizer should be called once")
	waitUntil(t, time.Second, func() bool { return len(f.webhook.sent()) == 1 }, "webhook should be delivered")

	if !f.router.isClosed() {
		t.Fatal("expected packet router to be closed")
	}
	if !f.dc.lastVoice.disconnected() {
		t.Fatal("expected voice connection to be disconnected")
	}
	payload := f.webhook.sent()[0]
	if payload.GuildID != "guild-1" || payload.TranscriptCount != 1 {
		t.Fatalf("unexpected webhook payload: %+v", payload)
	}
	found := false
	for _, msg := range f.dc.sentMessages() {
		if strings.Contains(msg, "the team discussed the release") {
			found = true
		}
	}
	if !found {
		t.Fatal("expected summary message in channel")
	}
}

func TestHandleSummarize_NoSpeechFallback(t *testing.T) {
	f := newManagerFixture()
	f.dc.userVoiceChannelByID = map[string]string{"user-1": "vc-1"}
	var resp string

	f.manager.HandleSlashCommand(slashEvent(commandJoinVCSummary, "user-1", &resp))
	f.manager.HandleSlashCommand(slashEvent(commandSummarizeVC, "user-1", &resp))

	waitUntil(t, time.Second, func() bool {
		for _, msg := range f.dc.sentMessages() {
			if msg == messageChannelNoSpeech {
				return true
			}
		}
		return false
	}, "expected no-speech fallback message")
	if f.summarizer.callCount() != 0 {
		t.Fatalf("expected no summarizer calls, got %d", f.summarizer.callCount())
	}
	if len(f.webhook.sent()) != 0 {
		t.Fatal("expected no webhook delivery")
	}
}

func TestHandleStop_EndsWithoutSummary(t *testing.T) {
	f := newManagerFixture()
	f.dc.userVoiceChannelByID = map[string]string{"user-1": "vc-1"}
	var resp string

	f.manager.HandleSlashCommand(slashEvent(commandJoinVCSummary, "user-1", &resp))
	f.engine.RecordTranscript(context.Background(), "guild-1", "user-1", "hello", time.Now())
	f.manager.HandleSlashCommand(slashEvent(commandStopSummary, "user-1", &resp))

	if resp != messageEphemeralStopping {
		t.Fatalf("unexpected response: %q", resp)
	}
	waitUntil(t, time.Second, func() bool { return f.engine.ActiveSession("guild-1") == nil }, "session should end")
	waitUntil(t, time.Second, func() bool {
		for _, msg := range f.dc.sentMessages() {
			if msg == messageChannelStopped {
				return true
			}
		}
		return false
	}, "expected stopped message")
	if f.summarizer.callCount() != 0 {
		t.Fatalf("expected no summarizer calls, got %d", f.summarizer.callCount())
	}
}

func TestHandleMinutes_NoPastSession(t *testing.T) {
	f := newManagerFixture()
	var resp string

	f.manager.HandleSlashCommand(slashEvent(commandMinutes, "user-1", &resp))

	if resp != messageEphemeralNoPastSession {
		t.Fatalf("unexpected response: %q", resp)
	}
}

func TestHandleMinutes_AttachesMinutesFile(t *testing.T) {
	f := newManagerFixture()
	endedAt := time.Now()
	startedAt := endedAt.Add(-10 * time.Minute)
	seed := &repository.Session{
		ID:           "guild-1-100",
		GuildID:      "guild-1",
		ChannelID:    "vc-1",
		InitiatorID:  "user-1",
		Participants: []string{"user-1"},
		Transcripts: []repository.TranscriptEntry{
			{UserID: "user-1", Text: "ship it on friday", CapturedAt: startedAt.Add(time.Minute)},
		},
		Status:      repository.SessionStatusEnded,
		StartedAt:   startedAt,
		EndedAt:     &endedAt,
		LastSummary: &repository.MeetingSummary{Overview: "release planning", Decisions: []string{"ship friday"}},
	}
	if err := f.repo.SaveSession(context.Background(), seed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp string

	f.manager.HandleSlashCommand(slashEvent(commandMinutes, "user-1", &resp))

	if resp != messageEphemeralMinutesAttached {
		t.Fatalf("unexpected response: %q", resp)
	}
	files := f.dc.attachedFiles()
	if len(files) != 1 {
		t.Fatalf("expected one attachment, got %d", len(files))
	}
	if files[0].Filename != "minutes-guild-1-100.txt" {
		t.Fatalf("unexpected filename: %q", files[0].Filename)
	}
	body := string(files[0].FileBody)
	if !strings.Contains(body, "release planning") || !strings.Contains(body, "ship it on friday") {
		t.Fatalf("unexpected minutes body: %q", body)
	}
}

func TestHandleMinutes_NoSummaryYet(t *testing.T) {
	f := newManagerFixture()
	seed := &repository.Session{
		ID:        "guild-1-101",
		GuildID:   "guild-1",
		ChannelID: "vc-1",
		Status:    repository.SessionStatusEnded,
		StartedAt: time.Now(),
	}
	if err := f.repo.SaveSession(context.Background(), seed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp string

	f.manager.HandleSlashCommand(slashEvent(commandMinutes, "user-1", &resp))

	if resp != messageEphemeralNoSummaryYet {
		t.Fatalf("unexpected response: %q", resp)
	}
}

func TestHandleSummaryMode_SavesPreference(t *testing.T) {
	f := newManagerFixture()
	var resp string

	event := slashEvent(commandSummaryMode, "user-1", &resp)
	event.Options = map[string]string{optionSummaryMode: "hindi"}
	f.manager.HandleSlashCommand(event)

	if resp != summaryModeSetMessage("hindi") {
		t.Fatalf("unexpected response: %q", resp)
	}
	mode, err := f.repo.GetLanguageMode(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mode != "hindi" {
		t.Fatalf("unexpected saved mode: %q", mode)
	}
}

func TestHandleSummaryMode_RejectsUnknownMode(t *testing.T) {
	f := newManagerFixture()
	var resp string

	event := slashEvent(commandSummaryMode, "user-1", &resp)
	event.Options = map[string]string{optionSummaryMode: "klingon"}
	f.manager.HandleSlashCommand(event)

	if resp != messageEphemeralInvalidMode {
		t.Fatalf("unexpected response: %q", resp)
	}
}

func TestHandleVoiceStateUpdate_AddsLateJoiner(t *testing.T) {
	f := newManagerFixture()
	f.dc.userVoiceChannelByID = map[string]string{"user-1": "vc-1"}
	var resp string
	f.manager.HandleSlashCommand(slashEvent(commandJoinVCSummary, "user-1", &resp))

	f.manager.HandleVoiceStateUpdate(discord.VoiceStateEvent{
		GuildID:        "guild-1",
		UserID:         "user-3",
		AfterChannelID: "vc-1",
	})

	sess := f.engine.ActiveSession("guild-1")
	if sess == nil || !sess.HasParticipant("user-3") {
		t.Fatal("expected late joiner to be added as participant")
	}
}

func TestHandleVoiceStateUpdate_IgnoresOtherBots(t *testing.T) {
	f := newManagerFixture()
	f.dc.userVoiceChannelByID = map[string]string{"user-1": "vc-1"}
	var resp string
	f.manager.HandleSlashCommand(slashEvent(commandJoinVCSummary, "user-1", &resp))

	f.manager.HandleVoiceStateUpdate(discord.VoiceStateEvent{
		GuildID:        "guild-1",
		UserID:         "other-bot",
		UserIsBot:      true,
		AfterChannelID: "vc-1",
	})

	sess := f.engine.ActiveSession("guild-1")
	if sess == nil || sess.HasParticipant("other-bot") {
		t.Fatal("expected other bots to be excluded from participants")
	}
}

func TestHandleVoiceStateUpdate_BotRemovedFinalizesSession(t *testing.T) {
	f := newManagerFixture()
	f.dc.userVoiceChannelByID = map[string]string{"user-1": "vc-1"}
	var resp string
	f.manager.HandleSlashCommand(slashEvent(commandJoinVCSummary, "user-1", &resp))
	f.engine.RecordTranscript(context.Background(), "guild-1", "user-1", "hello", time.Now())

	f.manager.HandleVoiceStateUpdate(discord.VoiceStateEvent{
		GuildID:         "guild-1",
		UserID:          "bot-self",
		UserIsBot:       true,
		BeforeChannelID: "vc-1",
		AfterChannelID:  "",
	})

	waitUntil(t, time.Second, func() bool { return f.engine.ActiveSession("guild-1") == nil }, "session should end when bot is removed")
	waitUntil(t, time.Second, func() bool { return f.summarizer.callCount() == 1 }, "bot removal should still produce a summary")
	if f.manager.isVoiceActive("guild-1") {
		t.Fatal("expected voice attachment to be released")
	}
}

func TestStopAllSessions_FinalizesLiveSessions(t *testing.T) {
	f := newManagerFixture()
	f.dc.userVoiceChannelByID = map[string]string{"user-1": "vc-1"}
	var resp string
	f.manager.HandleSlashCommand(slashEvent(commandJoinVCSummary, "user-1", &resp))

	count := f.manager.StopAllSessions(false)
	if count != 1 {
		t.Fatalf("expected one stopped session, got %d", count)
	}
	if f.engine.ActiveSession("guild-1") != nil {
		t.Fatal("expected session to end on shutdown")
	}
	if !f.router.isClosed() {
		t.Fatal("expected packet router to be closed")
	}
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool, message string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(message)
}
