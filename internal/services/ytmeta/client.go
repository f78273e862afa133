package ytmeta

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	yt "github.com/kkdai/youtube/v2"

	"lectern/internal/services"
)

// VideoInfo is the metadata extracted for an imported video.
type VideoInfo struct {
	ID          string
	Title       string
	Author      string
	Duration    time.Duration
	Description string
	Captions    []CaptionTrack
}

// CaptionTrack describes one caption track offered for a video.
type CaptionTrack struct {
	LanguageCode string
	Name         string
	BaseURL      string
}

// HasCaptions reports whether any caption track is available.
func (v *VideoInfo) HasCaptions() bool {
	return len(v.Captions) > 0
}

// FindCaption returns the track matching lang, or the first track when no
// exact match exists.
func (v *VideoInfo) FindCaption(lang string) *CaptionTrack {
	if len(v.Captions) == 0 {
		return nil
	}
	for i := range v.Captions {
		if v.Captions[i].LanguageCode == lang {
			return &v.Captions[i]
		}
	}
	return &v.Captions[0]
}

// Client fetches video metadata and caption transcripts.
type Client struct {
	inner      yt.Client
	httpClient *http.Client
	language   string
}

// NewClient constructs a metadata client. language selects the preferred
// caption language; empty falls back to the first available track.
func NewClient(language string) *Client {
	return &Client{
		inner:      yt.Client{},
		httpClient: &http.Client{Timeout: 30 * time.Second},
		language:   strings.TrimSpace(language),
	}
}

// GetVideo resolves the metadata for a video URL or ID.
func (c *Client) GetVideo(ctx context.Context, url string) (*VideoInfo, error) {
	video, err := c.inner.GetVideoContext(ctx, url)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "ytmeta", "get_video",
			fmt.Sprintf("fetch metadata for %s", url), err)
	}

	captions := make([]CaptionTrack, len(video.CaptionTracks))
	for i, track := range video.CaptionTracks {
		captions[i] = CaptionTrack{
			LanguageCode: track.LanguageCode,
			Name:         track.Name.SimpleText,
			BaseURL:      track.BaseURL,
		}
	}

	return &VideoInfo{
		ID:          video.ID,
		Title:       video.Title,
		Author:      video.Author,
		Duration:    video.Duration,
		Description: video.Description,
		Captions:    captions,
	}, nil
}

// FetchTranscript downloads the caption track for the configured language and
// returns its plain text, segments joined with newlines.
func (c *Client) FetchTranscript(ctx context.Context, video *VideoInfo) (string, error) {
	track := video.FindCaption(c.language)
	if track == nil {
		return "", services.Wrap(services.ErrNotFound, "ytmeta", "fetch_transcript",
			fmt.Sprintf("no caption tracks for %s", video.ID), nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, track.BaseURL, nil)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "ytmeta", "fetch_transcript", "build caption request", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "ytmeta", "fetch_transcript", "download captions", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrTransient, "ytmeta", "fetch_transcript",
			fmt.Sprintf("caption download returned status %d", resp.StatusCode), nil)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "ytmeta", "fetch_transcript", "read caption body", err)
	}

	text, err := parseTranscriptXML(body)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "ytmeta", "fetch_transcript", "parse caption xml", err)
	}
	if text == "" {
		return "", services.Wrap(services.ErrNotFound, "ytmeta", "fetch_transcript",
			fmt.Sprintf("caption track for %s is empty", video.ID), nil)
	}
	return text, nil
}

// Caption XML is the timedtext format served by the caption BaseURL.
type xmlTranscript struct {
	XMLName xml.Name       `xml:"timedtext"`
	Lines   []xmlParagraph `xml:"body>p"`
}

type xmlParagraph struct {
	Segments []xmlSegment `xml:"s"`
	Text     string       `xml:",chardata"`
}

type xmlSegment struct {
	Text string `xml:",chardata"`
}

func parseTranscriptXML(data []byte) (string, error) {
	var transcript xmlTranscript
	if err := xml.Unmarshal(data, &transcript); err != nil {
		return "", err
	}

	var builder strings.Builder
	for _, line := range transcript.Lines {
		text := strings.TrimSpace(line.Text)
		if text == "" {
			var joined strings.Builder
			for _, segment := range line.Segments {
				joined.WriteString(segment.Text)
			}
			text = strings.TrimSpace(joined.String())
		}
		if text == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteByte('\n')
		}
		builder.WriteString(text)
	}
	return builder.String(), nil
}
