package sources

import (
	"encoding/json"
	"testing"
)

func TestParseTimedText(t *testing.T) {
	body := []byte(`<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.32" dur="2.5">hello &amp;amp; welcome</text>
  <text start="2.82" dur="1.18">to the &lt;b&gt;show&lt;/b&gt;</text>
  <text start="4.0" dur="0.5"></text>
</transcript>`)

	cues, err := parseTimedText(body)
	if err != nil {
		t.Fatalf("parseTimedText: %v", err)
	}
	if len(cues) != 2 {
		t.Fatalf("got %d cues, want 2 (empty line dropped)", len(cues))
	}
	if cues[0].Text != "hello & welcome" {
		t.Errorf("entity decoding: got %q", cues[0].Text)
	}
	if cues[0].Offset != 320 || cues[0].Duration != 2500 {
		t.Errorf("timing: got offset=%d dur=%d, want 320/2500", cues[0].Offset, cues[0].Duration)
	}
	if cues[1].Text != "to the show" {
		t.Errorf("tag stripping: got %q", cues[1].Text)
	}
	if cues[1].Offset != 2820 {
		t.Errorf("second offset: got %d, want 2820", cues[1].Offset)
	}
}

func TestParseTimedTextBadXML(t *testing.T) {
	if _, err := parseTimedText([]byte("not xml at all <")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestPickBestTrack(t *testing.T) {
	manual := func(lang string) captionTrack {
		return captionTrack{BaseURL: "https://yt/tt?lang=" + lang, LanguageCode: lang}
	}
	asr := func(lang string) captionTrack {
		return captionTrack{BaseURL: "https://yt/tt?lang=" + lang + "&kind=asr", LanguageCode: lang, Kind: "asr"}
	}
	poToken := func(lang string) captionTrack {
		return captionTrack{BaseURL: "https://yt/tt?lang=" + lang + "&exp=xpe", LanguageCode: lang}
	}

	t.Run("manual beats asr in same language", func(t *testing.T) {
		track, ok := pickBestTrack([]captionTrack{asr("en"), manual("en")}, []string{"en"})
		if !ok || track.Kind == "asr" {
			t.Fatalf("got kind=%q ok=%v, want manual track", track.Kind, ok)
		}
	})

	t.Run("preferred language beats english", func(t *testing.T) {
		track, ok := pickBestTrack([]captionTrack{manual("en"), manual("de")}, []string{"de", "en"})
		if !ok || track.LanguageCode != "de" {
			t.Fatalf("got %q ok=%v, want de", track.LanguageCode, ok)
		}
	})

	t.Run("asr accepted when no manual track matches", func(t *testing.T) {
		track, ok := pickBestTrack([]captionTrack{asr("ja"), manual("fr")}, []string{"ja"})
		if !ok || track.LanguageCode != "ja" {
			t.Fatalf("got %q ok=%v, want ja asr", track.LanguageCode, ok)
		}
	})

	t.Run("english fallback", func(t *testing.T) {
		track, ok := pickBestTrack([]captionTrack{manual("fr"), manual("en-US")}, []string{"ko"})
		if !ok || track.LanguageCode != "en-US" {
			t.Fatalf("got %q ok=%v, want en-US", track.LanguageCode, ok)
		}
	})

	t.Run("potoken tracks skipped", func(t *testing.T) {
		track, ok := pickBestTrack([]captionTrack{poToken("en"), asr("en")}, []string{"en"})
		if !ok || track.Kind != "asr" {
			t.Fatalf("got kind=%q ok=%v, want asr (non-potoken)", track.Kind, ok)
		}
	})

	t.Run("all potoken reports not ok", func(t *testing.T) {
		if _, ok := pickBestTrack([]captionTrack{poToken("en")}, []string{"en"}); ok {
			t.Fatal("expected ok=false when every track needs PoToken")
		}
	})
}

func TestExtractTranscriptToken(t *testing.T) {
	data := []byte(`{"engagementPanels":[{"x":{"getTranscriptEndpoint":{"params":"Cgl2aWRlb2lkMTI%3D"}}}]}`)
	token, err := extractTranscriptToken(data)
	if err != nil {
		t.Fatalf("extractTranscriptToken: %v", err)
	}
	if token != "Cgl2aWRlb2lkMTI=" {
		t.Errorf("got %q, want URL-unescaped token", token)
	}

	if _, err := extractTranscriptToken([]byte(`{"engagementPanels":[]}`)); err == nil {
		t.Fatal("expected error when token missing")
	}
}

func TestParseTranscriptSegments(t *testing.T) {
	raw := `{"actions":[{"updateEngagementPanelAction":{"content":{"transcriptRenderer":{"content":
		{"transcriptSearchPanelRenderer":{"body":{"transcriptSegmentListRenderer":{"initialSegments":[
			{"transcriptSegmentRenderer":{"startMs":"0","endMs":"1500","snippet":{"runs":[{"text":"first"},{"text":"cue"}]}}},
			{"transcriptSegmentRenderer":{"startMs":"1500","endMs":"3000","snippet":{"runs":[{"text":"second"}]}}},
			{"transcriptSegmentRenderer":{"startMs":"","endMs":"","snippet":{"runs":[{"text":"untimed"}]}}},
			{"transcriptSegmentRenderer":{"startMs":"4000","endMs":"5000","snippet":{"runs":[]}}}
		]}}}}}}}}]}`

	var resp ytGetTranscriptResp
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("fixture unmarshal: %v", err)
	}

	cues := parseTranscriptSegments(resp)
	if len(cues) != 2 {
		t.Fatalf("got %d cues, want 2 (untimed and empty segments skipped)", len(cues))
	}
	if cues[0].Text != "first cue" {
		t.Errorf("run joining: got %q", cues[0].Text)
	}
	if cues[0].Offset != 0 || cues[0].Duration != 1500 {
		t.Errorf("first timing: got %d/%d", cues[0].Offset, cues[0].Duration)
	}
	if cues[1].Offset != 1500 || cues[1].Duration != 1500 {
		t.Errorf("second timing: got %d/%d", cues[1].Offset, cues[1].Duration)
	}
}

func TestPreferredLangs(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"en"}},
		{"en", []string{"en"}},
		{"en-GB", []string{"en-GB"}},
		{"de", []string{"de", "en"}},
	}
	for _, tt := range tests {
		got := preferredLangs(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("preferredLangs(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("preferredLangs(%q) = %v, want %v", tt.in, got, tt.want)
				break
			}
		}
	}
}

func TestExtractJSON(t *testing.T) {
	prefix := []byte(`{"a":{"b":"}"},"c":[1,2]}; var next = 1;`)
	got := extractJSON(prefix)
	if string(got) != `{"a":{"b":"}"},"c":[1,2]}` {
		t.Errorf("extractJSON braces-in-strings: got %q", got)
	}

	if extractJSON([]byte(`{"unterminated": true`)) != nil {
		t.Error("expected nil for unterminated JSON")
	}
	if extractJSON([]byte(`not json`)) != nil {
		t.Error("expected nil when input does not start with a brace")
	}
}
