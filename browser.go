package pagepdf

import (
	"fmt"

	"github.com/go-rod/rod/lib/launcher"
)

// resolveBrowser downloads a compatible Chromium binary if one is not
// already cached and returns the path to the executable. The binary is
// stored under dir, or ~/.cache/rod/browser (Unix) and
// %APPDATA%\rod\browser (Windows) when dir is empty.
func resolveBrowser(dir string) (string, error) {
	b := launcher.NewBrowser()
	if dir != "" {
		b.RootDir = dir
	}
	path, err := b.Get()
	if err != nil {
		return "", fmt.Errorf("downloading browser: %w", err)
	}
	return path, nil
}

// resolveChromePath returns the executable to launch, or "" to let chromedp search
// the standard install locations.
func (c *config) resolveChromePath() (string, error) {
	if c.chromePath != "" || !c.autoDownload {
		return c.chromePath, nil
	}
	return resolveBrowser(c.browserDir)
}
