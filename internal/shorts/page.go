package shorts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://www.youtube.com"
	probeUserAgent = "Mozilla/5.0"
)

var (
	canonicalRe = regexp.MustCompile(`<link rel="canonical" href="([^"]+)"`)
	keywordsRe  = regexp.MustCompile(`"keywords":\s*(\[[^\]]+\])`)
	ogWidthRe   = regexp.MustCompile(`og:video:width" content="(\d+)"`)
	ogHeightRe  = regexp.MustCompile(`og:video:height" content="(\d+)"`)
)

// PageProber extracts page-level short-form signals for a video: the
// canonical link pattern, short-form keywords in the page metadata, the
// video aspect ratio, and whether the shorts URL variant resolves.
type PageProber struct {
	httpClient *http.Client
	baseURL    string
	log        *zap.Logger
}

// NewPageProber creates a prober against the public watch/shorts pages.
func NewPageProber(log *zap.Logger) *PageProber {
	if log == nil {
		log = zap.NewNop()
	}
	return &PageProber{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
			// The shorts URL probe must observe the redirect itself.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		baseURL: defaultBaseURL,
		log:     log,
	}
}

// Probe fetches the watch page and the shorts URL variant for the video.
// A failed watch-page fetch with a reachable server (non-200 status) yields
// unfetched page signals; a transport-level failure is an error the caller
// maps to a long-form verdict.
func (p *PageProber) Probe(ctx context.Context, videoID string) (PageSignals, error) {
	signals, err := p.probeWatchPage(ctx, videoID)
	if err != nil {
		return PageSignals{}, err
	}

	alive, err := p.ProbeShortsURL(ctx, videoID)
	if err != nil {
		return PageSignals{}, err
	}
	signals.ShortsURLAlive = alive

	return signals, nil
}

func (p *PageProber) probeWatchPage(ctx context.Context, videoID string) (PageSignals, error) {
	url := fmt.Sprintf("%s/watch?v=%s", p.baseURL, videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return PageSignals{}, fmt.Errorf("build watch page request: %w", err)
	}
	req.Header.Set("User-Agent", probeUserAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return PageSignals{}, fmt.Errorf("fetch watch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.log.Debug("watch page not ok", zap.String("video_id", videoID), zap.Int("status", resp.StatusCode))
		return PageSignals{}, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return PageSignals{}, fmt.Errorf("read watch page: %w", err)
	}

	return parseWatchPage(string(body)), nil
}

// ProbeShortsURL checks whether the short-form URL variant exists for the
// video, without following redirects.
func (p *PageProber) ProbeShortsURL(ctx context.Context, videoID string) (bool, error) {
	url := fmt.Sprintf("%s/shorts/%s", p.baseURL, videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false, fmt.Errorf("build shorts url request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("probe shorts url: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusMovedPermanently, http.StatusFound:
		return true, nil
	default:
		return false, nil
	}
}

func parseWatchPage(html string) PageSignals {
	signals := PageSignals{Fetched: true}

	if m := canonicalRe.FindStringSubmatch(html); m != nil && strings.Contains(m[1], "/shorts/") {
		signals.CanonicalShorts = true
	}

	if m := keywordsRe.FindStringSubmatch(html); m != nil {
		var tags []string
		if err := json.Unmarshal([]byte(m[1]), &tags); err == nil {
			for _, tag := range tags {
				if TitleHasShortKeyword(tag) {
					signals.KeywordShort = true
					break
				}
			}
		}
	}

	wm := ogWidthRe.FindStringSubmatch(html)
	hm := ogHeightRe.FindStringSubmatch(html)
	if wm != nil && hm != nil {
		width, _ := strconv.Atoi(wm[1])
		height, _ := strconv.Atoi(hm[1])
		if height > width {
			signals.Portrait = true
		}
	}

	return signals
}
