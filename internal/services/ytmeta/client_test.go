package ytmeta

import "testing"

func TestFindCaptionPrefersExactLanguage(t *testing.T) {
	video := &VideoInfo{Captions: []CaptionTrack{
		{LanguageCode: "de", BaseURL: "http://example.com/de"},
		{LanguageCode: "en", BaseURL: "http://example.com/en"},
	}}

	track := video.FindCaption("en")
	if track == nil || track.LanguageCode != "en" {
		t.Fatalf("FindCaption(en) = %#v", track)
	}

	// No exact match falls back to the first track.
	track = video.FindCaption("fr")
	if track == nil || track.LanguageCode != "de" {
		t.Fatalf("FindCaption(fr) = %#v", track)
	}

	empty := &VideoInfo{}
	if empty.FindCaption("en") != nil {
		t.Fatal("FindCaption on empty list returned a track")
	}
	if empty.HasCaptions() {
		t.Fatal("HasCaptions true for empty list")
	}
}

func TestParseTranscriptXML(t *testing.T) {
	data := []byte(`<?xml version="1.0" encoding="utf-8"?>
<timedtext format="3">
  <body>
    <p t="0" d="2000"><s>Welcome </s><s>back</s></p>
    <p t="2000" d="1500"> </p>
    <p t="3500" d="2500">to the course</p>
  </body>
</timedtext>`)

	text, err := parseTranscriptXML(data)
	if err != nil {
		t.Fatalf("parseTranscriptXML: %v", err)
	}
	want := "Welcome back\nto the course"
	if text != want {
		t.Fatalf("transcript = %q, want %q", text, want)
	}
}

func TestParseTranscriptXMLRejectsMalformed(t *testing.T) {
	if _, err := parseTranscriptXML([]byte("<timedtext><body>")); err == nil {
		t.Fatal("expected error for malformed xml")
	}
}
