package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/xianxx17/my-youtube-mcp-server/internal/engine"
	"github.com/xianxx17/my-youtube-mcp-server/internal/engine/transcript"
)

const (
	dataAPIBatchLimit = 50 // max IDs per list call
	defaultDataAPIQPS = 10
)

// var so tests can point the client at a local server.
var dataAPIBase = "https://www.googleapis.com/youtube/v3"

// DataAPI is a thin client for the YouTube Data API v3.
// All calls are rate-limited, retried on transient failures, and fall back
// to the secondary API key on quota errors (HTTP 403).
type DataAPI struct {
	limiter *rate.Limiter
}

// NewDataAPI builds a client using the QPS limit from the engine config.
func NewDataAPI() *DataAPI {
	qps := engine.Cfg.DataAPIQPS
	if qps <= 0 {
		qps = defaultDataAPIQPS
	}
	return &DataAPI{limiter: rate.NewLimiter(rate.Limit(qps), int(qps)+1)}
}

// apiGet performs a rate-limited GET against a Data API resource and decodes
// the JSON response into out. On HTTP 403 with a fallback key configured, the
// request is retried once with the fallback key.
func (a *DataAPI) apiGet(ctx context.Context, resource string, params url.Values, out any) error {
	if engine.Cfg.YouTubeAPIKey == "" {
		return errors.New("youtube data api key not configured")
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}
	engine.IncrDataAPIRequests()

	body, status, err := a.doGet(ctx, resource, params, engine.Cfg.YouTubeAPIKey)
	if err == nil && status == http.StatusForbidden && engine.Cfg.YouTubeAPIKeyFallback != "" {
		engine.IncrDataAPIKeyFallbacks()
		body, status, err = a.doGet(ctx, resource, params, engine.Cfg.YouTubeAPIKeyFallback)
	}
	if err != nil {
		engine.IncrDataAPIErrors()
		return fmt.Errorf("data api %s: %w", resource, err)
	}
	if status != http.StatusOK {
		engine.IncrDataAPIErrors()
		return fmt.Errorf("data api %s: HTTP %d: %s", resource, status, engine.Truncate(string(body), 200))
	}
	if err := json.Unmarshal(body, out); err != nil {
		engine.IncrDataAPIErrors()
		return fmt.Errorf("data api %s: decode: %w", resource, err)
	}
	return nil
}

func (a *DataAPI) doGet(ctx context.Context, resource string, params url.Values, key string) ([]byte, int, error) {
	q := url.Values{}
	for k, vs := range params {
		q[k] = vs
	}
	q.Set("key", key)
	reqURL := dataAPIBase + "/" + resource + "?" + q.Encode()

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", engine.UserAgentBot)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

// Video is the detail record returned by the video listing tools.
type Video struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	ChannelID    string   `json:"channel_id"`
	ChannelTitle string   `json:"channel_title"`
	PublishedAt  string   `json:"published_at"`
	CategoryID   string   `json:"category_id,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Duration     int64    `json:"duration_seconds"`
	ViewCount    int64    `json:"view_count"`
	LikeCount    int64    `json:"like_count"`
	CommentCount int64    `json:"comment_count"`
}

type ytVideoListResp struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title        string   `json:"title"`
			Description  string   `json:"description"`
			ChannelID    string   `json:"channelId"`
			ChannelTitle string   `json:"channelTitle"`
			PublishedAt  string   `json:"publishedAt"`
			CategoryID   string   `json:"categoryId"`
			Tags         []string `json:"tags"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
		Statistics struct {
			ViewCount    string `json:"viewCount"`
			LikeCount    string `json:"likeCount"`
			CommentCount string `json:"commentCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// ListVideos fetches snippet, contentDetails and statistics for the given
// video IDs, batching requests at the API's 50-ID limit. Unknown IDs are
// simply absent from the result.
func (a *DataAPI) ListVideos(ctx context.Context, ids []string) ([]Video, error) {
	videos := make([]Video, 0, len(ids))
	for start := 0; start < len(ids); start += dataAPIBatchLimit {
		end := min(start+dataAPIBatchLimit, len(ids))
		var resp ytVideoListResp
		err := a.apiGet(ctx, "videos", url.Values{
			"part": {"snippet,contentDetails,statistics"},
			"id":   {strings.Join(ids[start:end], ",")},
		}, &resp)
		if err != nil {
			return nil, err
		}
		for _, it := range resp.Items {
			videos = append(videos, Video{
				ID:           it.ID,
				Title:        it.Snippet.Title,
				Description:  it.Snippet.Description,
				ChannelID:    it.Snippet.ChannelID,
				ChannelTitle: it.Snippet.ChannelTitle,
				PublishedAt:  it.Snippet.PublishedAt,
				CategoryID:   it.Snippet.CategoryID,
				Tags:         it.Snippet.Tags,
				Duration:     parseISODuration(it.ContentDetails.Duration),
				ViewCount:    parseCount(it.Statistics.ViewCount),
				LikeCount:    parseCount(it.Statistics.LikeCount),
				CommentCount: parseCount(it.Statistics.CommentCount),
			})
		}
	}
	return videos, nil
}

// VideoDetails implements transcript.MetadataProvider.
func (a *DataAPI) VideoDetails(ctx context.Context, videoID string) (*transcript.VideoMetadata, error) {
	videos, err := a.ListVideos(ctx, []string{videoID})
	if err != nil {
		return nil, err
	}
	if len(videos) == 0 {
		return nil, fmt.Errorf("%w (video %s)", transcript.ErrMetadataNotFound, videoID)
	}
	v := videos[0]
	return &transcript.VideoMetadata{
		ID:           v.ID,
		Title:        v.Title,
		ChannelID:    v.ChannelID,
		ChannelTitle: v.ChannelTitle,
		PublishedAt:  v.PublishedAt,
		Duration:     v.Duration,
		ViewCount:    v.ViewCount,
		LikeCount:    v.LikeCount,
	}, nil
}

// SearchResult is a single Data API search hit.
type SearchResult struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	ChannelID    string `json:"channel_id"`
	ChannelTitle string `json:"channel_title"`
	PublishedAt  string `json:"published_at"`
}

type ytSearchResp struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			Description  string `json:"description"`
			ChannelID    string `json:"channelId"`
			ChannelTitle string `json:"channelTitle"`
			PublishedAt  string `json:"publishedAt"`
		} `json:"snippet"`
	} `json:"items"`
}

// SearchVideos runs a Data API video search. order may be empty (relevance)
// or one of date, rating, title, viewCount.
func (a *DataAPI) SearchVideos(ctx context.Context, query string, maxResults int, order string) ([]SearchResult, error) {
	params := url.Values{
		"part":       {"snippet"},
		"type":       {"video"},
		"q":          {query},
		"maxResults": {strconv.Itoa(clampResults(maxResults))},
	}
	if order != "" {
		params.Set("order", order)
	}
	var resp ytSearchResp
	if err := a.apiGet(ctx, "search", params, &resp); err != nil {
		return nil, err
	}
	results := make([]SearchResult, 0, len(resp.Items))
	for _, it := range resp.Items {
		if it.ID.VideoID == "" {
			continue
		}
		results = append(results, SearchResult{
			VideoID:      it.ID.VideoID,
			Title:        it.Snippet.Title,
			Description:  it.Snippet.Description,
			ChannelID:    it.Snippet.ChannelID,
			ChannelTitle: it.Snippet.ChannelTitle,
			PublishedAt:  it.Snippet.PublishedAt,
		})
	}
	return results, nil
}

// Comment is a top-level comment thread entry.
type Comment struct {
	Author      string `json:"author"`
	Text        string `json:"text"`
	LikeCount   int64  `json:"like_count"`
	PublishedAt string `json:"published_at"`
	ReplyCount  int64  `json:"reply_count"`
}

type ytCommentThreadsResp struct {
	Items []struct {
		Snippet struct {
			TotalReplyCount int64 `json:"totalReplyCount"`
			TopLevelComment struct {
				Snippet struct {
					AuthorDisplayName string `json:"authorDisplayName"`
					TextDisplay       string `json:"textDisplay"`
					LikeCount         int64  `json:"likeCount"`
					PublishedAt       string `json:"publishedAt"`
				} `json:"snippet"`
			} `json:"topLevelComment"`
		} `json:"snippet"`
	} `json:"items"`
}

// ListComments fetches top-level comment threads for a video. order may be
// empty (relevance) or "time".
func (a *DataAPI) ListComments(ctx context.Context, videoID string, maxResults int, order string) ([]Comment, error) {
	params := url.Values{
		"part":       {"snippet"},
		"videoId":    {videoID},
		"textFormat": {"plainText"},
		"maxResults": {strconv.Itoa(clampResults(maxResults))},
	}
	if order != "" {
		params.Set("order", order)
	}
	var resp ytCommentThreadsResp
	if err := a.apiGet(ctx, "commentThreads", params, &resp); err != nil {
		return nil, err
	}
	comments := make([]Comment, 0, len(resp.Items))
	for _, it := range resp.Items {
		top := it.Snippet.TopLevelComment.Snippet
		comments = append(comments, Comment{
			Author:      top.AuthorDisplayName,
			Text:        engine.CleanHTML(top.TextDisplay),
			LikeCount:   top.LikeCount,
			PublishedAt: top.PublishedAt,
			ReplyCount:  it.Snippet.TotalReplyCount,
		})
	}
	return comments, nil
}

// TrendingVideos fetches the mostPopular chart for a region, optionally
// filtered to a category. region defaults to US.
func (a *DataAPI) TrendingVideos(ctx context.Context, region, categoryID string, maxResults int) ([]Video, error) {
	if region == "" {
		region = "US"
	}
	params := url.Values{
		"part":       {"snippet,contentDetails,statistics"},
		"chart":      {"mostPopular"},
		"regionCode": {region},
		"maxResults": {strconv.Itoa(clampResults(maxResults))},
	}
	if categoryID != "" {
		params.Set("videoCategoryId", categoryID)
	}
	var resp ytVideoListResp
	if err := a.apiGet(ctx, "videos", params, &resp); err != nil {
		return nil, err
	}
	videos := make([]Video, 0, len(resp.Items))
	for _, it := range resp.Items {
		videos = append(videos, Video{
			ID:           it.ID,
			Title:        it.Snippet.Title,
			ChannelID:    it.Snippet.ChannelID,
			ChannelTitle: it.Snippet.ChannelTitle,
			PublishedAt:  it.Snippet.PublishedAt,
			CategoryID:   it.Snippet.CategoryID,
			Duration:     parseISODuration(it.ContentDetails.Duration),
			ViewCount:    parseCount(it.Statistics.ViewCount),
			LikeCount:    parseCount(it.Statistics.LikeCount),
			CommentCount: parseCount(it.Statistics.CommentCount),
		})
	}
	return videos, nil
}

// Category is a video category as listed for a region.
type Category struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type ytCategoriesResp struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title      string `json:"title"`
			Assignable bool   `json:"assignable"`
		} `json:"snippet"`
	} `json:"items"`
}

// VideoCategories lists the assignable video categories for a region.
func (a *DataAPI) VideoCategories(ctx context.Context, region string) ([]Category, error) {
	if region == "" {
		region = "US"
	}
	var resp ytCategoriesResp
	err := a.apiGet(ctx, "videoCategories", url.Values{
		"part":       {"snippet"},
		"regionCode": {region},
	}, &resp)
	if err != nil {
		return nil, err
	}
	cats := make([]Category, 0, len(resp.Items))
	for _, it := range resp.Items {
		if !it.Snippet.Assignable {
			continue
		}
		cats = append(cats, Category{ID: it.ID, Title: it.Snippet.Title})
	}
	return cats, nil
}

// ChannelStats holds the public statistics of a channel.
type ChannelStats struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	SubscriberCount int64  `json:"subscriber_count"`
	ViewCount       int64  `json:"view_count"`
	VideoCount      int64  `json:"video_count"`
}

type ytChannelsResp struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
		Statistics struct {
			SubscriberCount string `json:"subscriberCount"`
			ViewCount       string `json:"viewCount"`
			VideoCount      string `json:"videoCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// ChannelStatistics fetches subscriber/view/video counts for channel IDs.
func (a *DataAPI) ChannelStatistics(ctx context.Context, channelIDs []string) ([]ChannelStats, error) {
	stats := make([]ChannelStats, 0, len(channelIDs))
	for start := 0; start < len(channelIDs); start += dataAPIBatchLimit {
		end := min(start+dataAPIBatchLimit, len(channelIDs))
		var resp ytChannelsResp
		err := a.apiGet(ctx, "channels", url.Values{
			"part": {"snippet,statistics"},
			"id":   {strings.Join(channelIDs[start:end], ",")},
		}, &resp)
		if err != nil {
			return nil, err
		}
		for _, it := range resp.Items {
			stats = append(stats, ChannelStats{
				ID:              it.ID,
				Title:           it.Snippet.Title,
				SubscriberCount: parseCount(it.Statistics.SubscriberCount),
				ViewCount:       parseCount(it.Statistics.ViewCount),
				VideoCount:      parseCount(it.Statistics.VideoCount),
			})
		}
	}
	return stats, nil
}

// parseISODuration converts an ISO-8601 duration ("PT1H2M3S", "P1DT4H") into seconds.
// Malformed input yields 0.
func parseISODuration(s string) int64 {
	s = strings.TrimPrefix(s, "P")
	var total, n int64
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
			n = n*10 + int64(c-'0')
		case c == 'D':
			total += n * 86400
			n = 0
		case c == 'H':
			total += n * 3600
			n = 0
		case c == 'M':
			total += n * 60
			n = 0
		case c == 'S':
			total += n
			n = 0
		case c == 'T':
			n = 0
		default:
			return 0
		}
	}
	return total
}

// parseCount parses a Data API statistics counter. Statistics values are
// serialized as strings; hidden counters come through empty.
func parseCount(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func clampResults(n int) int {
	if n <= 0 {
		return 10
	}
	if n > dataAPIBatchLimit {
		return dataAPIBatchLimit
	}
	return n
}
