package fetcher

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// RodFetcher implements the Fetcher interface using rod (headless browser)
type RodFetcher struct {
	browser *rod.Browser
	timeout time.Duration
}

// NewRodFetcher creates a new RodFetcher instance.
// timeout bounds how long a single fetch waits for the price element.
func NewRodFetcher(timeout time.Duration) (*RodFetcher, error) {
	// Get user data directory from environment or use default
	// This should be mounted as a volume to use disk instead of memory
	userDataDir := os.Getenv("BOT_DATA_DIR")
	if userDataDir == "" {
		userDataDir = "/tmp/price-watcher-data"
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(userDataDir, 0755); err != nil {
		log.Printf("Warning: Failed to create bot data directory %s: %v\n", userDataDir, err)
		userDataDir = "" // Fall back to default if we can't create it
	}

	// Try to use system Chrome first, fallback to downloading Chromium
	launcher := launcher.New().
		Headless(true).
		Set("disable-blink-features", "AutomationControlled").
		NoSandbox(true).
		Leakless(false). // Disable leakless to avoid antivirus issues
		UserDataDir(userDataDir).
		// Additional flags for Linux compatibility
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-first-run").
		Set("no-default-browser-check").
		Set("disable-extensions").
		Set("disable-background-networking").
		Set("disable-background-timer-throttling").
		Set("disable-renderer-backgrounding").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-breakpad").
		Set("disable-client-side-phishing-detection").
		Set("disable-default-apps").
		Set("disable-hang-monitor").
		Set("disable-popup-blocking").
		Set("disable-prompt-on-repost").
		Set("disable-sync").
		Set("disable-translate").
		Set("metrics-recording-only").
		Set("mute-audio").
		Set("no-zygote").
		Set("safebrowsing-disable-auto-update").
		Set("enable-automation").
		Set("use-mock-keychain").
		// Memory optimization flags
		Set("memory-pressure-off").
		Set("disable-ipc-flooding-protection").
		Set("disable-features", "TranslateUI,BlinkGenPropertyTrees")

	// Try Linux Chrome/Chromium paths
	linuxPaths := []string{
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/snap/bin/chromium",
	}

	for _, path := range linuxPaths {
		if _, err := os.Stat(path); err == nil {
			launcher = launcher.Bin(path)
			break
		}
	}

	browserURL, err := launcher.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w\n\nNote: On Linux, you may need to install Chromium dependencies:\n  apt-get update && apt-get install -y chromium chromium-sandbox || yum install -y chromium", err)
	}

	browser := rod.New().ControlURL(browserURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &RodFetcher{
		browser: browser,
		timeout: timeout,
	}, nil
}

// Close closes the browser
func (rf *RodFetcher) Close() error {
	if rf.browser != nil {
		return rf.browser.Close()
	}
	return nil
}

// Fetch implements the Fetcher interface.
// Each call renders the page on its own tab, which is closed when done.
func (rf *RodFetcher) Fetch(url string, xpath string) (string, error) {
	// Create a new page (use MustPage with panic recovery)
	var page *rod.Page
	var pageErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				pageErr = fmt.Errorf("panic while creating page: %v", r)
				log.Printf("Panic while creating page: %v\n", r)
			}
		}()
		page = rf.browser.MustPage()
	}()
	if pageErr != nil {
		return "", pageErr
	}
	if page == nil {
		return "", fmt.Errorf("failed to create page")
	}
	defer page.Close()

	// Navigate to the URL
	if err := page.Timeout(rf.timeout).Navigate(url); err != nil {
		return "", fmt.Errorf("failed to navigate: %w", err)
	}

	// Wait for the price element to appear; ElementX keeps retrying
	// until the timeout, which covers JavaScript-rendered prices.
	element, err := page.Timeout(rf.timeout).ElementX(xpath)
	if err != nil {
		return "", fmt.Errorf("failed to find element at %s: %w", xpath, err)
	}

	text, err := element.Text()
	if err != nil {
		return "", fmt.Errorf("failed to read element text: %w", err)
	}

	return text, nil
}
