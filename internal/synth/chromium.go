package synth

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"resumecoach/internal/config"
	"resumecoach/internal/errors"
)

var pageTemplate = template.Must(template.New("resume").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
@page { margin: 15mm; }
body { font-family: {{.FontFamily}}, Helvetica, sans-serif; font-size: {{.FontSize}}pt; line-height: 1.4; }
pre { font-family: inherit; white-space: pre-wrap; word-wrap: break-word; margin: 0; }
</style>
</head>
<body><pre>{{.Text}}</pre></body>
</html>`))

type pageData struct {
	FontFamily template.CSS
	FontSize   float64
	Text       string
}

// ChromiumRenderer prints the resume through headless Chromium. The
// browser is started on first use and shared by later renders.
type ChromiumRenderer struct {
	fontFamily  string
	fontSize    float64
	paperSize   string
	timeout     time.Duration
	installDeps bool
	logger      *errors.Logger

	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
}

// NewChromiumRenderer creates a renderer from the render config.
func NewChromiumRenderer(cfg config.RenderConfig, logger *errors.Logger) *ChromiumRenderer {
	r := &ChromiumRenderer{
		fontFamily:  cfg.FontFamily,
		fontSize:    cfg.FontSize,
		paperSize:   cfg.Chromium.PaperSize,
		timeout:     cfg.Chromium.Timeout,
		installDeps: cfg.Chromium.InstallDeps,
		logger:      logger,
	}
	if r.fontFamily == "" {
		r.fontFamily = "Arial"
	}
	if r.fontSize <= 0 {
		r.fontSize = 10
	}
	if r.paperSize == "" {
		r.paperSize = "A4"
	}
	if r.timeout <= 0 {
		r.timeout = 30 * time.Second
	}
	return r
}

// HTML renders the page that is printed to PDF.
func (r *ChromiumRenderer) HTML(text string) (string, error) {
	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, pageData{
		FontFamily: template.CSS(fmt.Sprintf("%q", r.fontFamily)),
		FontSize:   r.fontSize,
		Text:       text,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *ChromiumRenderer) start() (playwright.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil && r.browser.IsConnected() {
		return r.browser, nil
	}

	if r.pw == nil {
		if r.installDeps {
			r.logger.Info("Installing Chromium for PDF rendering")
			if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
				return nil, fmt.Errorf("failed to install chromium: %w", err)
			}
		}
		pw, err := playwright.Run()
		if err != nil {
			return nil, fmt.Errorf("failed to start playwright: %w", err)
		}
		r.pw = pw
	}

	browser, err := r.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to launch chromium: %w", err)
	}
	r.browser = browser
	r.logger.Info("Chromium renderer started", "paper_size", r.paperSize)
	return browser, nil
}

// Render implements Renderer.
func (r *ChromiumRenderer) Render(ctx context.Context, text string) ([]byte, error) {
	html, err := r.HTML(text)
	if err != nil {
		return nil, err
	}

	browser, err := r.start()
	if err != nil {
		return nil, err
	}

	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}

	page, err := browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			r.logger.LogError(err, "Failed to close render page")
		}
	}()
	page.SetDefaultTimeout(float64(timeout.Milliseconds()))

	if err := page.SetContent(html); err != nil {
		return nil, fmt.Errorf("failed to load resume html: %w", err)
	}
	pdf, err := page.PDF(playwright.PagePdfOptions{
		Format:          playwright.String(r.paperSize),
		PrintBackground: playwright.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to print pdf: %w", err)
	}
	return pdf, nil
}

// Close shuts the browser and the playwright driver down.
func (r *ChromiumRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	if r.browser != nil {
		if err := r.browser.Close(); err != nil {
			firstErr = err
		}
		r.browser = nil
	}
	if r.pw != nil {
		if err := r.pw.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
		r.pw = nil
	}
	return firstErr
}
