// Package fetcher retrieves article HTML, trying plain HTTP first and
// falling back to a headless browser for JS-rendered or bot-protected
// pages.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Result contains the fetched HTML and metadata.
type Result struct {
	HTML        string
	FinalURL    string // URL after following redirects
	UsedBrowser bool
	FetchTime   time.Duration
}

// Options configures the fetcher behavior.
type Options struct {
	UserAgent      string
	TimeoutSeconds int
	ChromePath     string // path to Chrome binary (empty = auto-detect)
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		TimeoutSeconds: 30,
	}
}

var opts = DefaultOptions()

// Configure sets the package-level options.
func Configure(o Options) {
	if o.UserAgent != "" {
		opts.UserAgent = o.UserAgent
	}
	if o.TimeoutSeconds > 0 {
		opts.TimeoutSeconds = o.TimeoutSeconds
	}
	opts.ChromePath = o.ChromePath
}

// Timeout returns the currently configured timeout duration.
func Timeout() time.Duration {
	return time.Duration(opts.TimeoutSeconds) * time.Second
}

// userDataDir returns a persistent directory for Chrome user data so
// cookies survive between fetches.
func userDataDir() string {
	dir, _ := os.UserCacheDir()
	return filepath.Join(dir, "gloss-chrome-profile")
}

// Simple fetches a URL using standard HTTP.
func Simple(url string) (*Result, error) {
	start := time.Now()

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", opts.UserAgent)

	client := &http.Client{Timeout: Timeout()}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	return &Result{
		HTML:      string(body),
		FinalURL:  resp.Request.URL.String(),
		FetchTime: time.Since(start),
	}, nil
}

// stealthScript masks the usual headless-automation tells so bot checks
// pass. Based on puppeteer-extra-plugin-stealth techniques.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', {
    get: () => undefined,
});

window.chrome = {
    runtime: {},
    loadTimes: function() {},
    csi: function() {},
    app: {},
};

Object.defineProperty(navigator, 'plugins', {
    get: () => [
        { name: 'Chrome PDF Plugin', filename: 'internal-pdf-viewer', description: 'Portable Document Format' },
        { name: 'Chrome PDF Viewer', filename: 'mhjfbmdgcfjbbpaeojofohoefgiehjai', description: '' },
        { name: 'Native Client', filename: 'internal-nacl-plugin', description: '' },
    ],
});

Object.defineProperty(navigator, 'languages', {
    get: () => ['en-US', 'en'],
});

const originalQuery = window.navigator.permissions.query;
window.navigator.permissions.query = (parameters) => (
    parameters.name === 'notifications' ?
        Promise.resolve({ state: Notification.permission }) :
        originalQuery(parameters)
);

Object.defineProperty(screen, 'availWidth', { get: () => window.innerWidth });
Object.defineProperty(screen, 'availHeight', { get: () => window.innerHeight });
`

// WithBrowser fetches a URL using headless Chrome to execute JavaScript.
// Slower, but handles JS-rendered content.
func WithBrowser(targetURL string) (*Result, error) {
	start := time.Now()

	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoFirstRun,
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("exclude-switches", "enable-automation"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-component-update", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-service-autorun", true),
		chromedp.Flag("password-store", "basic"),
		chromedp.Flag("use-mock-keychain", true),
		chromedp.Flag("headless", "new"),
		chromedp.UserAgent(opts.UserAgent),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserDataDir(userDataDir()),
	}
	if opts.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ChromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	defer allocCancel()

	// Browser fetches need extra headroom over the plain HTTP timeout.
	timeout := Timeout()
	if timeout < 30*time.Second {
		timeout = 45 * time.Second
	} else {
		timeout += 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(allocCtx, timeout)
	defer cancel()

	ctx, cancel = chromedp.NewContext(ctx)
	defer cancel()

	var html string
	var finalURL string
	err := chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
		network.SetExtraHTTPHeaders(network.Headers(map[string]interface{}{
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language":           "en-US,en;q=0.9",
			"Sec-Fetch-Dest":            "document",
			"Sec-Fetch-Mode":            "navigate",
			"Sec-Fetch-Site":            "none",
			"Upgrade-Insecure-Requests": "1",
		})),
		chromedp.Navigate(targetURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
		// Cloudflare interstitials resolve themselves given a little time.
		chromedp.ActionFunc(func(ctx context.Context) error {
			var title string
			if err := chromedp.Title(&title).Do(ctx); err != nil {
				return nil
			}
			if title == "Just a moment..." {
				return chromedp.Sleep(5 * time.Second).Do(ctx)
			}
			return nil
		}),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Location(&finalURL),
	)
	if err != nil {
		return nil, fmt.Errorf("browser fetch: %w", err)
	}

	return &Result{
		HTML:        html,
		FinalURL:    finalURL,
		UsedBrowser: true,
		FetchTime:   time.Since(start),
	}, nil
}

// IsBlockedResponse checks if the HTML indicates a blocked or challenged
// page.
func IsBlockedResponse(html string) (bool, string) {
	switch {
	case strings.Contains(html, "Just a moment..."),
		strings.Contains(html, "Checking your browser"),
		strings.Contains(html, "cf-browser-verification"):
		return true, "Cloudflare challenge"
	case strings.Contains(html, "captcha-delivery.com"),
		strings.Contains(html, "DataDome"):
		return true, "DataDome bot protection"
	case strings.Contains(html, "recaptcha") && len(html) < 10000:
		return true, "reCAPTCHA challenge"
	case strings.Contains(html, "perimeterx"),
		strings.Contains(html, "px-captcha"):
		return true, "PerimeterX bot protection"
	}
	return false, ""
}

// Smart fetches with the best available method: plain HTTP first, browser
// fallback when the response looks blocked or suspiciously thin.
func Smart(targetURL string) (*Result, error) {
	result, err := Simple(targetURL)
	if err == nil {
		blocked, _ := IsBlockedResponse(result.HTML)
		if !blocked && len(result.HTML) > 5000 {
			return result, nil
		}
	}

	result, err = WithBrowser(targetURL)
	if err != nil {
		return nil, err
	}
	if blocked, reason := IsBlockedResponse(result.HTML); blocked {
		return result, fmt.Errorf("blocked: %s", reason)
	}
	return result, nil
}
