package generation

import (
	"sync"
	"time"
)

// Record holds the extracted material for one video. Metadata arrives from
// the extract_metadata task, the transcript from extract_transcript; content
// executors read both.
type Record struct {
	VideoID    string
	Title      string
	Author     string
	Duration   time.Duration
	SourceURL  string
	Transcript string
}

// Library is the in-process store of extracted video material. Pipeline
// stages communicate through it: extractors write, generators read.
type Library struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewLibrary returns an empty library.
func NewLibrary() *Library {
	return &Library{records: make(map[string]*Record)}
}

// PutMetadata stores or refreshes the metadata for a video, preserving any
// transcript already captured.
func (l *Library) PutMetadata(videoID, title, author, sourceURL string, duration time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	record := l.ensureLocked(videoID)
	record.Title = title
	record.Author = author
	record.Duration = duration
	record.SourceURL = sourceURL
}

// PutTranscript stores the transcript text for a video.
func (l *Library) PutTranscript(videoID, transcript string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLocked(videoID).Transcript = transcript
}

// Get returns a copy of the record for videoID, or false when nothing has
// been extracted yet.
func (l *Library) Get(videoID string) (Record, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	record, ok := l.records[videoID]
	if !ok {
		return Record{}, false
	}
	return *record, true
}

// Remove drops the record for videoID.
func (l *Library) Remove(videoID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.records, videoID)
}

func (l *Library) ensureLocked(videoID string) *Record {
	record, ok := l.records[videoID]
	if !ok {
		record = &Record{VideoID: videoID}
		l.records[videoID] = record
	}
	return record
}
