// Package capture produces analysis artifacts from live web pages: it
// drives a headless browser to a URL and returns a full-page screenshot as
// PNG bytes, ready for the artifact loader.
package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"percept/internal/logging"
)

// DefaultTimeout bounds one capture, navigation included.
const DefaultTimeout = 30 * time.Second

// Screenshot navigates to url in a headless browser and returns a full-page
// PNG screenshot.
func Screenshot(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	runCtx, runCancel := context.WithTimeout(browserCtx, timeout)
	defer runCancel()

	logger := logging.New("capture")
	logger.Info("capturing page", "url", url, "timeout", timeout)

	var buf []byte
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.FullScreenshot(&buf, 90),
	)
	if err != nil {
		return nil, fmt.Errorf("capture %s: %w", url, err)
	}
	if len(buf) == 0 {
		return nil, fmt.Errorf("capture %s: empty screenshot", url)
	}

	logger.Info("captured", "url", url, "bytes", len(buf))
	return buf, nil
}
