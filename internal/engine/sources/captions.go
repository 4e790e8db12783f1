package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/xianxx17/my-youtube-mcp-server/internal/engine"
	"github.com/xianxx17/my-youtube-mcp-server/internal/engine/transcript"
)

// Caption cue fetching.
// Primary:  scrape watch page ytInitialPlayerResponse → caption track XML (works from any IP)
// Fallback: /next → engagement panel → /get_transcript (works from datacenter IPs)
// Fallback: ANDROID Innertube /player → captionTracks
//
// All paths preserve per-cue timing: timedtext XML carries start/dur seconds,
// /get_transcript segments carry startMs/endMs.

// Captions implements transcript.CaptionSource against YouTube's
// unofficial caption endpoints.
type Captions struct{}

// FetchCaptions fetches the timed caption cues for a YouTube video.
// Reports transcript.ErrCaptionsUnavailable when the video has no usable
// captions and *transcript.SourceError for transport/parse failures.
func (Captions) FetchCaptions(ctx context.Context, videoID, language string) ([]transcript.Cue, error) {
	engine.IncrCaptionFetches()
	langs := preferredLangs(language)

	sawUnavailable := false
	note := func(path string, err error) {
		if errors.Is(err, transcript.ErrCaptionsUnavailable) {
			sawUnavailable = true
		}
		slog.Warn("captions: fetch path failed",
			slog.String("video_id", videoID), slog.String("path", path), slog.Any("err", err))
	}

	cues, err := fetchCuesViaPageScrape(ctx, videoID, langs)
	if err == nil {
		return cues, nil
	}
	note("page_scrape", err)

	cues, err = fetchCuesViaEngagementPanel(ctx, videoID)
	if err == nil {
		return cues, nil
	}
	note("engagement_panel", err)

	cues, err = fetchCuesViaPlayer(ctx, videoID, langs)
	if err == nil {
		return cues, nil
	}
	note("player", err)

	engine.IncrCaptionFetchErrors()
	if sawUnavailable || errors.Is(err, transcript.ErrCaptionsUnavailable) {
		return nil, fmt.Errorf("%w (video %s)", transcript.ErrCaptionsUnavailable, videoID)
	}
	return nil, &transcript.SourceError{VideoID: videoID, Language: language, Err: err}
}

// preferredLangs expands a requested language into the lookup preference list.
func preferredLangs(language string) []string {
	if language == "" {
		return []string{"en"}
	}
	if language == "en" || strings.HasPrefix(language, "en-") {
		return []string{language}
	}
	return []string{language, "en"}
}

// getTranscriptRE extracts the continuation token from a raw /next JSON response.
var getTranscriptRE = regexp.MustCompile(`"getTranscriptEndpoint":\{"params":"([^"]+)"`)

func extractTranscriptToken(data []byte) (string, error) {
	if m := getTranscriptRE.FindSubmatch(data); len(m) >= 2 {
		// The params value in the /next JSON response is URL-encoded.
		// /get_transcript expects the decoded (raw base64) form.
		decoded, err := url.QueryUnescape(string(m[1]))
		if err != nil {
			return string(m[1]), nil
		}
		return decoded, nil
	}
	return "", fmt.Errorf("%w: getTranscriptEndpoint not found in engagement panels", transcript.ErrCaptionsUnavailable)
}

// parseTranscriptSegments converts a /get_transcript JSON response into cues.
// Segments without timing or text are skipped.
func parseTranscriptSegments(resp ytGetTranscriptResp) []transcript.Cue {
	var cues []transcript.Cue
	for _, action := range resp.Actions {
		if action.UpdateEngagementPanelAction == nil {
			continue
		}
		segs := action.UpdateEngagementPanelAction.Content.
			TranscriptRenderer.Content.
			TranscriptSearchPanelRenderer.Body.
			TranscriptSegmentListRenderer.InitialSegments
		for _, seg := range segs {
			r := seg.TranscriptSegmentRenderer
			if r == nil {
				continue
			}
			var sb strings.Builder
			for _, run := range r.Snippet.Runs {
				if run.Text == "" {
					continue
				}
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(run.Text)
			}
			if sb.Len() == 0 {
				continue
			}
			start, err := strconv.ParseInt(r.StartMs, 10, 64)
			if err != nil {
				continue
			}
			end, _ := strconv.ParseInt(r.EndMs, 10, 64)
			dur := end - start
			if dur < 0 {
				dur = 0
			}
			cues = append(cues, transcript.Cue{Text: sb.String(), Offset: start, Duration: dur})
		}
	}
	return cues
}

// fetchCuesViaEngagementPanel fetches cues via:
//  1. POST /next → get engagementPanels containing transcript continuation token
//  2. POST /get_transcript with the token → timed JSON segments
//
// This approach works from datacenter IPs where /player returns LOGIN_REQUIRED.
func fetchCuesViaEngagementPanel(ctx context.Context, videoID string) ([]transcript.Cue, error) {
	visitorData := generateVisitorData()

	nextData, err := postInnerTubeWEB(ctx, ytNextURL, map[string]any{
		"videoId": videoID,
		"context": ytWebContext(visitorData),
	}, visitorData)
	if err != nil {
		return nil, fmt.Errorf("/next: %w", err)
	}

	token, err := extractTranscriptToken(nextData)
	if err != nil {
		return nil, fmt.Errorf("token: %w", err)
	}

	transcriptData, err := postInnerTubeWEB(ctx, ytGetTranscriptURL, map[string]any{
		"params": token,
		"context": map[string]any{
			"client": ytWebClientCtx{
				ClientName:    "WEB",
				ClientVersion: ytWebVersion,
				VisitorData:   visitorData,
				Hl:            "en",
				Gl:            "US",
			},
		},
	}, visitorData)
	if err != nil {
		return nil, fmt.Errorf("/get_transcript: %w", err)
	}

	var transcriptResp ytGetTranscriptResp
	if err := json.Unmarshal(transcriptData, &transcriptResp); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}

	cues := parseTranscriptSegments(transcriptResp)
	if len(cues) == 0 {
		return nil, fmt.Errorf("%w: empty transcript segments", transcript.ErrCaptionsUnavailable)
	}
	return cues, nil
}

// needsPoToken reports whether a caption track URL requires a PoToken (browser-only).
// Tracks with &exp=xpe cannot be fetched server-side.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// pickBestTrack selects the best usable caption track for the given language preferences.
// Skips tracks that require PoToken — those only work in a browser.
func pickBestTrack(tracks []captionTrack, langs []string) (captionTrack, bool) {
	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		if !needsPoToken(t.BaseURL) {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return tracks[0], false
	}
	// 1. Manual track in preferred language
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return t, true
			}
		}
	}
	// 2. Auto-generated track in preferred language
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang {
				return t, true
			}
		}
	}
	// 3. Any English track
	for _, t := range usable {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t, true
		}
	}
	return usable[0], true
}

// fetchTimedTextCues fetches and parses a YouTube timedtext XML caption URL
// into timed cues.
func fetchTimedTextCues(ctx context.Context, baseURL string) ([]transcript.Cue, error) {
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentBot)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil, err
	}
	return parseTimedText(body)
}

// parseTimedText converts timedtext XML into cues, stripping markup and
// dropping empty lines. Offsets/durations are floored to whole milliseconds.
func parseTimedText(body []byte) ([]transcript.Cue, error) {
	var tt ytTimedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}

	cues := make([]transcript.Cue, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		text := engine.CleanHTML(line.Text)
		if text == "" {
			continue
		}
		cues = append(cues, transcript.Cue{
			Text:     text,
			Offset:   int64(line.Start * 1000),
			Duration: int64(line.Dur * 1000),
		})
	}
	return cues, nil
}

// fetchCuesViaPlayer uses the ANDROID Innertube /player endpoint.
// Works from non-blocked (residential/cloud) IP addresses.
func fetchCuesViaPlayer(ctx context.Context, videoID string, langs []string) ([]transcript.Cue, error) {
	reqBody, err := json.Marshal(innertubeReq{
		VideoID: videoID,
		Context: innertubeCtx{
			Client: innertubeClient{
				ClientName:        "ANDROID",
				ClientVersion:     ytAndroidVersion,
				AndroidSdkVersion: 30,
				Hl:                "en",
				Gl:                "US",
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return nil, err
	}

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, ytInnertubeURL+"?prettyPrint=false", bytes.NewReader(reqBody))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", ytAndroidUA)
		req.Header.Set("X-Youtube-Client-Name", "3")
		req.Header.Set("X-Youtube-Client-Version", ytAndroidVersion)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("android innertube: %w", err)
	}
	defer resp.Body.Close()

	var playerResp innertubePlayerResp
	if err := json.NewDecoder(resp.Body).Decode(&playerResp); err != nil {
		return nil, fmt.Errorf("decode player: %w", err)
	}
	track, err := pickTrackFromPlayer(playerResp, langs)
	if err != nil {
		return nil, err
	}
	return fetchTimedTextCues(ctx, track.BaseURL)
}

// pickTrackFromPlayer maps a player response to a usable caption track,
// classifying caption absence as unavailable rather than a transport failure.
func pickTrackFromPlayer(playerResp innertubePlayerResp, langs []string) (captionTrack, error) {
	if playerResp.Captions == nil {
		reason := ""
		if playerResp.PlayabilityStatus != nil {
			reason = playerResp.PlayabilityStatus.Reason
		}
		if reason != "" {
			return captionTrack{}, fmt.Errorf("%w: %s", transcript.ErrCaptionsUnavailable, reason)
		}
		return captionTrack{}, fmt.Errorf("%w: no captions in player response", transcript.ErrCaptionsUnavailable)
	}
	tracks := playerResp.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return captionTrack{}, fmt.Errorf("%w: no caption tracks", transcript.ErrCaptionsUnavailable)
	}
	track, ok := pickBestTrack(tracks, langs)
	if !ok {
		return captionTrack{}, fmt.Errorf("%w: all caption tracks require PoToken", transcript.ErrCaptionsUnavailable)
	}
	return track, nil
}

// ytInitialPlayerResponseMarker marks the start of the player response JSON in watch page HTML.
const ytInitialPlayerResponseMarker = "ytInitialPlayerResponse = "

// fetchCuesViaPageScrape scrapes the YouTube watch page HTML and extracts
// the caption track XML URL from ytInitialPlayerResponse. Works from any IP.
func fetchCuesViaPageScrape(ctx context.Context, videoID string, langs []string) ([]transcript.Cue, error) {
	watchURL := "https://www.youtube.com/watch?v=" + videoID

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, watchURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentChrome)
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 6*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read watch page: %w", err)
	}

	// Extract ytInitialPlayerResponse JSON
	idx := bytes.Index(body, []byte(ytInitialPlayerResponseMarker))
	if idx < 0 {
		return nil, errors.New("ytInitialPlayerResponse not found in watch page")
	}
	jsonData := extractJSON(body[idx+len(ytInitialPlayerResponseMarker):])
	if jsonData == nil {
		return nil, errors.New("failed to extract ytInitialPlayerResponse JSON")
	}

	var playerResp innertubePlayerResp
	if err := json.Unmarshal(jsonData, &playerResp); err != nil {
		return nil, fmt.Errorf("decode ytInitialPlayerResponse: %w", err)
	}
	track, err := pickTrackFromPlayer(playerResp, langs)
	if err != nil {
		return nil, err
	}
	return fetchTimedTextCues(ctx, track.BaseURL)
}
