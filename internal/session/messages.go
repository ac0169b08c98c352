package session

import (
	"fmt"

	"github.com/foxseedlab/gijirokun/internal/discord"
	"github.com/foxseedlab/gijirokun/internal/repository"
)

const (
	commandJoinVCSummary = "join-vc-summary"
	commandSummarizeVC   = "summarize-vc"
	commandStopSummary   = "stop-summary"
	commandMinutes       = "minutes"
	commandSummaryMode   = "summary-mode"

	optionSummaryMode = "mode"

	slashCommandJoinDescription        = "Start recording your voice channel for meeting minutes."
	slashCommandSummarizeDescription   = "Stop recording and post the meeting summary."
	slashCommandStopDescription        = "Stop recording without generating a summary."
	slashCommandMinutesDescription     = "Fetch the minutes of the most recent session."
	slashCommandSummaryModeDescription = "Set your preferred summary language."
	slashCommandModeOptionDescription  = "Language used for transcription and summaries."

	messageEphemeralWrongGuild        = ":warning: **This command cannot be used on this server.**"
	messageEphemeralUnknownCommand    = ":warning: **Unknown command.**"
	messageEphemeralVoiceLookupFailed = ":warning: **Could not check your voice channel state.**"
	messageEphemeralJoinVCFirst       = ":warning: **Join a voice channel first, then run the command.**"
	messageEphemeralAlreadyRunning    = ":warning: **A recording session is already running on this server.**"
	messageEphemeralStartFailed       = ":warning: **Could not start the recording session.**"
	messageEphemeralNotRunning        = ":warning: **No recording session is running on this server.**"
	messageEphemeralSummarizing       = ":hourglass: **Wrapping up the session and generating the summary...**"
	messageEphemeralStopping          = ":pause_button: **Stopping the session. No summary will be generated.**"
	messageEphemeralNoPastSession     = ":warning: **No past session was found for this server.**"
	messageEphemeralNoSummaryYet      = ":warning: **The last session has no summary yet. Run /summarize-vc after a session ends.**"
	messageEphemeralMinutesAttached   = ":page_facing_up: **Minutes of the last session are attached below.**"
	messageEphemeralInvalidMode       = ":warning: **Unknown language mode. Choose auto, english, hindi or hinglish.**"

	messageChannelRecordingStarted = ":microphone2: **Recording started for meeting minutes.**\n-# Use /summarize-vc to finish and get the summary, or /stop-summary to discard."
	messageChannelNoSpeech         = ":mute: **The session ended but no speech was captured, so there is nothing to summarize.**"
	messageChannelSummaryFailed    = ":warning: **The session ended but the summary could not be generated. The transcript is kept.**"
	messageChannelStopped          = ":pause_button: **Recording stopped. No summary was generated.**"

	messageStartEphemeralTitleFormat = ":microphone2: <#%s> **is now being recorded for meeting minutes.**"
	messageSummaryModeSetFormat      = ":white_check_mark: **Your summary language is now `%s`.**"
)

func startEphemeralMessage(channelID string) string {
	return fmt.Sprintf(messageStartEphemeralTitleFormat, channelID) + "\n-# Use /summarize-vc to finish and get the summary."
}

func summaryModeSetMessage(mode string) string {
	return fmt.Sprintf(messageSummaryModeSetFormat, mode)
}

func isValidLanguageMode(mode string) bool {
	switch mode {
	case repository.LanguageModeAuto, "english", "hindi", "hinglish":
		return true
	default:
		return false
	}
}

func SlashCommandDefinitions() []discord.SlashCommandDefinition {
	return []discord.SlashCommandDefinition{
		{Name: commandJoinVCSummary, Description: slashCommandJoinDescription},
		{Name: commandSummarizeVC, Description: slashCommandSummarizeDescription},
		{Name: commandStopSummary, Description: slashCommandStopDescription},
		{Name: commandMinutes, Description: slashCommandMinutesDescription},
		{
			Name:        commandSummaryMode,
			Description: slashCommandSummaryModeDescription,
			Options: []discord.SlashCommandOption{
				{
					Name:        optionSummaryMode,
					Description: slashCommandModeOptionDescription,
					Required:    true,
					Choices: []discord.SlashCommandChoice{
						{Name: "Auto detect", Value: repository.LanguageModeAuto},
						{Name: "English", Value: "english"},
						{Name: "Hindi", Value: "hindi"},
						{Name: "Hinglish", Value: "hinglish"},
					},
				},
			},
		},
	}
}
