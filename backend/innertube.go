package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/KRIPAVERMA/mediabotbackend/model"
)

// Innertube API hosts, tried in order. The googleapis host sometimes serves
// streams the primary host refuses.
var defaultPlayerHosts = []string{
	"https://www.youtube.com",
	"https://youtubei.googleapis.com",
}

// clientProfile is one impersonated YouTube client. Profiles are tried in
// priority order; the Android client gets plain URLs for most videos, the
// iOS client unblocks some of the rest, and the web client is the fallback.
type clientProfile struct {
	Name      string
	Version   string
	UserAgent string
}

var clientProfiles = []clientProfile{
	{
		Name:      "ANDROID",
		Version:   "19.09.37",
		UserAgent: "com.google.android.youtube/19.09.37 (Linux; U; Android 14) gzip",
	},
	{
		Name:      "IOS",
		Version:   "19.09.3",
		UserAgent: "com.google.ios.youtube/19.09.3 (iPhone16,2; U; CPU iOS 17_1_1 like Mac OS X;)",
	},
	{
		Name:      "WEB",
		Version:   "2.20240304.00.00",
		UserAgent: desktopUA,
	},
}

type playerRequest struct {
	Context struct {
		Client struct {
			ClientName    string `json:"clientName"`
			ClientVersion string `json:"clientVersion"`
			HL            string `json:"hl"`
		} `json:"client"`
	} `json:"context"`
	VideoID string `json:"videoId"`
}

type streamFormat struct {
	Itag         int    `json:"itag"`
	URL          string `json:"url"`
	MimeType     string `json:"mimeType"`
	Bitrate      int64  `json:"bitrate"`
	QualityLabel string `json:"qualityLabel"`
	AudioQuality string `json:"audioQuality"`
}

type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	StreamingData struct {
		Formats         []streamFormat `json:"formats"`
		AdaptiveFormats []streamFormat `json:"adaptiveFormats"`
	} `json:"streamingData"`
	VideoDetails struct {
		Title string `json:"title"`
	} `json:"videoDetails"`
}

// InnertubeBackend extracts YouTube media through the private client API,
// avoiding the external downloader entirely. Transcoding and merging still
// go through ffmpeg.
type InnertubeBackend struct {
	hosts       []string
	profiles    []clientProfile
	httpClient  *http.Client
	downloadDir string
	transcoder  *Transcoder
	logger      *zap.Logger
}

func NewInnertubeBackend(downloadDir string, transcoder *Transcoder, logger *zap.Logger) *InnertubeBackend {
	return &InnertubeBackend{
		hosts:    defaultPlayerHosts,
		profiles: clientProfiles,
		httpClient: &http.Client{
			// Long ceiling for stream downloads; the orchestrator's per-job
			// context enforces the real timeout.
			Timeout: 30 * time.Minute,
		},
		downloadDir: downloadDir,
		transcoder:  transcoder,
		logger:      logger,
	}
}

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)[?&]v=([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`(?i)youtu\.be/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`(?i)/shorts/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`(?i)/live/([A-Za-z0-9_-]{11})`),
}

// extractVideoID pulls the 11-character video id out of any supported
// YouTube URL shape.
func extractVideoID(rawURL string) (string, bool) {
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(rawURL); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// Extract resolves stream URLs via the player API and downloads the winning
// stream, merging or transcoding as the requested format demands.
func (b *InnertubeBackend) Extract(ctx context.Context, req Request) (Result, error) {
	videoID, ok := extractVideoID(req.URL)
	if !ok {
		return Result{}, &ExtractError{
			Kind:   model.ErrKindNotFound,
			Detail: fmt.Sprintf("no video id in url %q", req.URL),
		}
	}

	emitPhase(req, "Fetching stream info…")
	resp, profile, err := b.resolvePlayer(ctx, videoID)
	if err != nil {
		return Result{}, err
	}

	res, err := b.fetchStreams(ctx, req, resp, profile)
	if err != nil {
		CleanupJobFiles(b.downloadDir, req.JobID)
		return Result{}, err
	}
	return res, nil
}

// resolvePlayer walks profiles then hosts until one returns a playable
// response with streams.
func (b *InnertubeBackend) resolvePlayer(ctx context.Context, videoID string) (*playerResponse, clientProfile, error) {
	var lastDetail string
	for _, host := range b.hosts {
		for _, profile := range b.profiles {
			resp, err := b.callPlayer(ctx, host, profile, videoID)
			if err != nil {
				if ctx.Err() != nil {
					return nil, clientProfile{}, &ExtractError{
						Kind:   model.ErrKindTimeout,
						Detail: err.Error(),
					}
				}
				lastDetail = err.Error()
				continue
			}

			status := resp.PlayabilityStatus.Status
			if status != "OK" {
				lastDetail = fmt.Sprintf("playability %s: %s", status, resp.PlayabilityStatus.Reason)
				b.logger.Debug("player profile rejected",
					zap.String("video", videoID),
					zap.String("client", profile.Name),
					zap.String("status", status))
				continue
			}
			if len(resp.StreamingData.Formats) == 0 && len(resp.StreamingData.AdaptiveFormats) == 0 {
				lastDetail = fmt.Sprintf("client %s returned no streams", profile.Name)
				continue
			}
			return resp, profile, nil
		}
	}
	return nil, clientProfile{}, classified(lastDetail)
}

func (b *InnertubeBackend) callPlayer(ctx context.Context, host string, profile clientProfile, videoID string) (*playerResponse, error) {
	var payload playerRequest
	payload.Context.Client.ClientName = profile.Name
	payload.Context.Client.ClientVersion = profile.Version
	payload.Context.Client.HL = "en"
	payload.VideoID = videoID

	body, _ := json.Marshal(payload)
	endpoint := host + "/youtubei/v1/player?prettyPrint=false"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", profile.UserAgent)

	httpResp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("player endpoint %s returned %d", host, httpResp.StatusCode)
	}

	var resp playerResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("unparseable player response from %s: %w", host, err)
	}
	return &resp, nil
}

// streamPlan is the chosen set of streams for one extraction: either a
// single muxed/audio stream, or a separate video+audio pair needing a merge.
type streamPlan struct {
	single *streamFormat
	video  *streamFormat
	audio  *streamFormat
}

// planStreams selects streams for the requested format. Muxed streams are
// preferred for video to avoid the merge step; audio requests take the best
// audio-only adaptive stream.
func planStreams(sd []streamFormat, adaptive []streamFormat, wantAudio bool) (streamPlan, error) {
	if wantAudio {
		if f := bestByMime(adaptive, "audio/mp4"); f != nil {
			return streamPlan{single: f}, nil
		}
		if f := bestByMime(adaptive, "audio/"); f != nil {
			return streamPlan{single: f}, nil
		}
		// Last resort: muxed streams still carry an audio track.
		if f := bestByMime(sd, "video/"); f != nil {
			return streamPlan{single: f}, nil
		}
		return streamPlan{}, fmt.Errorf("no audio stream available")
	}

	if f := bestByMime(sd, "video/mp4"); f != nil {
		return streamPlan{single: f}, nil
	}
	if f := bestByMime(sd, "video/"); f != nil {
		return streamPlan{single: f}, nil
	}

	video := bestByMime(adaptive, "video/mp4")
	audio := bestByMime(adaptive, "audio/mp4")
	if video != nil && audio != nil {
		return streamPlan{video: video, audio: audio}, nil
	}
	return streamPlan{}, fmt.Errorf("no muxed stream and no mergeable adaptive pair")
}

func bestByMime(formats []streamFormat, mimePrefix string) *streamFormat {
	var best *streamFormat
	for i := range formats {
		f := &formats[i]
		if f.URL == "" || !strings.HasPrefix(f.MimeType, mimePrefix) {
			continue
		}
		if best == nil || f.Bitrate > best.Bitrate {
			best = f
		}
	}
	return best
}

func (b *InnertubeBackend) fetchStreams(ctx context.Context, req Request, resp *playerResponse, profile clientProfile) (Result, error) {
	plan, err := planStreams(resp.StreamingData.Formats, resp.StreamingData.AdaptiveFormats, req.Audio)
	if err != nil {
		return Result{}, &ExtractError{Kind: model.ErrKindEmptyOutput, Detail: err.Error()}
	}

	emitPhase(req, "Downloading…")

	if plan.single != nil {
		src := filepath.Join(b.downloadDir, req.JobID+extForMime(plan.single.MimeType))
		if err := b.download(ctx, plan.single.URL, src, profile.UserAgent); err != nil {
			return Result{}, b.downloadErr(ctx, err)
		}
		return b.finishSingle(ctx, req, src)
	}

	videoSrc := filepath.Join(b.downloadDir, req.JobID+".video"+extForMime(plan.video.MimeType))
	audioSrc := filepath.Join(b.downloadDir, req.JobID+".audio"+extForMime(plan.audio.MimeType))
	if err := b.download(ctx, plan.video.URL, videoSrc, profile.UserAgent); err != nil {
		return Result{}, b.downloadErr(ctx, err)
	}
	if err := b.download(ctx, plan.audio.URL, audioSrc, profile.UserAgent); err != nil {
		return Result{}, b.downloadErr(ctx, err)
	}

	emitPhase(req, "Merging…")
	dst := filepath.Join(b.downloadDir, req.JobID+".mp4")
	path, size, err := b.transcoder.Merge(ctx, videoSrc, audioSrc, dst)
	if err != nil {
		return Result{}, wrapTranscodeErr(ctx, err)
	}
	emitPhase(req, "Finishing…")
	return Result{Path: path, Size: size}, nil
}

// finishSingle converts a downloaded single stream into the requested
// deliverable: MP3 for audio jobs, MP4 container for video jobs.
func (b *InnertubeBackend) finishSingle(ctx context.Context, req Request, src string) (Result, error) {
	info, err := os.Stat(src)
	if err != nil || info.Size() == 0 {
		return Result{}, &ExtractError{
			Kind:   model.ErrKindEmptyOutput,
			Detail: fmt.Sprintf("downloaded stream is empty: %s", src),
		}
	}

	if req.Audio {
		emitPhase(req, "Converting…")
		dst := filepath.Join(b.downloadDir, req.JobID+".mp3")
		path, size, err := b.transcoder.ToMP3(ctx, src, dst)
		if err != nil {
			return Result{}, wrapTranscodeErr(ctx, err)
		}
		emitPhase(req, "Finishing…")
		return Result{Path: path, Size: size}, nil
	}

	if filepath.Ext(src) != ".mp4" {
		emitPhase(req, "Converting…")
		dst := filepath.Join(b.downloadDir, req.JobID+".mp4")
		path, size, err := b.transcoder.Remux(ctx, src, dst)
		if err != nil {
			return Result{}, wrapTranscodeErr(ctx, err)
		}
		emitPhase(req, "Finishing…")
		return Result{Path: path, Size: size}, nil
	}

	emitPhase(req, "Finishing…")
	return Result{Path: src, Size: info.Size()}, nil
}

// download streams streamURL to dst, following redirects. CDN stream URLs
// redirect across edge hosts before the bytes flow.
func (b *InnertubeBackend) download(ctx context.Context, streamURL, dst, userAgent string) error {
	if _, err := url.Parse(streamURL); err != nil {
		return fmt.Errorf("bad stream url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream download returned HTTP %d", resp.StatusCode)
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("stream copy interrupted: %w", err)
	}
	return nil
}

func (b *InnertubeBackend) downloadErr(ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return &ExtractError{Kind: model.ErrKindTimeout, Detail: err.Error()}
	}
	return classified(err.Error())
}

func extForMime(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "video/mp4"):
		return ".mp4"
	case strings.HasPrefix(mimeType, "video/webm"):
		return ".webm"
	case strings.HasPrefix(mimeType, "audio/mp4"):
		return ".m4a"
	case strings.HasPrefix(mimeType, "audio/webm"):
		return ".webm"
	case strings.HasPrefix(mimeType, "audio/mpeg"):
		return ".mp3"
	default:
		return ".bin"
	}
}
