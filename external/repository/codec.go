package repository

import (
	"encoding/json"

	"github.com/foxseedlab/gijirokun/internal/repository"
)

// The recordings, transcripts and summary columns hold one JSON document
// each, rewritten wholesale on every save.

func encodeRecordings(recordings map[string][]string) ([]byte, error) {
	if recordings == nil {
		recordings = map[string][]string{}
	}
	return json.Marshal(recordings)
}

func decodeRecordings(data []byte) (map[string][]string, error) {
	recordings := make(map[string][]string)
	if len(data) == 0 {
		return recordings, nil
	}
	if err := json.Unmarshal(data, &recordings); err != nil {
		return nil, err
	}
	return recordings, nil
}

func encodeTranscripts(transcripts []repository.TranscriptEntry) ([]byte, error) {
	if transcripts == nil {
		transcripts = []repository.TranscriptEntry{}
	}
	return json.Marshal(transcripts)
}

func decodeTranscripts(data []byte) ([]repository.TranscriptEntry, error) {
	var transcripts []repository.TranscriptEntry
	if len(data) == 0 {
		return transcripts, nil
	}
	if err := json.Unmarshal(data, &transcripts); err != nil {
		return nil, err
	}
	return transcripts, nil
}

func encodeSummary(summary *repository.MeetingSummary) ([]byte, error) {
	if summary == nil {
		return nil, nil
	}
	return json.Marshal(summary)
}

func decodeSummary(data []byte) (*repository.MeetingSummary, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var summary repository.MeetingSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}
