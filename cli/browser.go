package cli

import (
	"fmt"

	"github.com/pkg/browser"
)

var openURL = browser.OpenURL

// OpenBrowser asks the desktop to open url. The login flow prints the URL
// anyway, so callers treat a failure as a warning.
func OpenBrowser(url string) error {
	if err := openURL(url); err != nil {
		return fmt.Errorf("cli: open browser: %w", err)
	}
	return nil
}
