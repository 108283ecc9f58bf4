/*
Package amion retrieves the published physician schedule from amion.com.

PURPOSE:
  The schedule site has no API, so this collaborator drives a headless
  Chrome instance (chromedp): log in, walk the per-day calendar pages
  for the requested range, and lift each shift element's data attributes
  into comp.ScheduledShift records.

SCOPE:
  All network concerns live here - timeouts, cancellation, and the
  browser lifecycle. The computation core receives only the resulting
  in-memory records and never blocks on I/O.

CREDENTIALS:
  Supplied by the caller (resolved from the environment by the config
  package). Never logged.

SEE ALSO:
  - parse.go: Pure attribute-to-record conversion (unit tested)
  - config/config.go: AmionConfig with env-resolved credentials
*/
package amion

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/medshift/comp-engine/comp"
)

// Source yields the external schedule for a date range. The live
// scraper, the persisted snapshot in the store, and test fixtures all
// satisfy it.
type Source interface {
	FetchSchedule(ctx context.Context, start, end time.Time) ([]comp.ScheduledShift, error)
}

// Credentials authenticate against amion.com.
type Credentials struct {
	Username string
	Password string
}

// Client scrapes the schedule with a headless browser.
type Client struct {
	BaseURL     string
	Credentials Credentials

	// PageTimeout bounds each navigation + wait. Defaults to 30s.
	PageTimeout time.Duration
}

// NewClient returns a scraper client for the given site and credentials.
func NewClient(baseURL string, creds Credentials) *Client {
	return &Client{
		BaseURL:     baseURL,
		Credentials: creds,
		PageTimeout: 30 * time.Second,
	}
}

// FetchSchedule logs in and scrapes every calendar day in [start, end].
// The browser is torn down on all exit paths.
func (c *Client) FetchSchedule(ctx context.Context, start, end time.Time) ([]comp.ScheduledShift, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if err := c.login(browserCtx); err != nil {
		return nil, fmt.Errorf("amion login: %w", err)
	}

	var schedule []comp.ScheduledShift
	for day := dateOnly(start); !day.After(dateOnly(end)); day = day.AddDate(0, 0, 1) {
		raws, err := c.scrapeDay(browserCtx, day)
		if err != nil {
			return nil, fmt.Errorf("amion calendar %s: %w", day.Format("2006-01-02"), err)
		}
		for _, raw := range raws {
			entry, err := raw.toScheduledShift(day)
			if err != nil {
				return nil, fmt.Errorf("amion calendar %s: %w", day.Format("2006-01-02"), err)
			}
			schedule = append(schedule, entry)
		}
	}
	return schedule, nil
}

func (c *Client) login(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.pageTimeout())
	defer cancel()

	return chromedp.Run(ctx,
		chromedp.Navigate(c.BaseURL+"/login"),
		chromedp.WaitVisible(`input[name="username"]`, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="username"]`, c.Credentials.Username, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="password"]`, c.Credentials.Password, chromedp.ByQuery),
		chromedp.Submit(`input[name="password"]`, chromedp.ByQuery),
		chromedp.WaitVisible(`#calendar`, chromedp.ByID),
	)
}

// extractShiftsJS lifts each shift element's data attributes. Days with
// no shifts are legitimate (an empty calendar page), so the expression
// tolerates zero matches.
const extractShiftsJS = `
Array.from(document.querySelectorAll('.shift')).map(el => ({
	physician_id: el.dataset.physicianId || '',
	start_time:   el.dataset.startTime || '',
	end_time:     el.dataset.endTime || '',
	shift_type:   el.dataset.shiftType || ''
}))`

func (c *Client) scrapeDay(ctx context.Context, day time.Time) ([]rawShift, error) {
	ctx, cancel := context.WithTimeout(ctx, c.pageTimeout())
	defer cancel()

	var raws []rawShift
	err := chromedp.Run(ctx,
		chromedp.Navigate(fmt.Sprintf("%s/calendar/%s", c.BaseURL, day.Format("2006-01-02"))),
		chromedp.WaitReady(`body`, chromedp.ByQuery),
		chromedp.Evaluate(extractShiftsJS, &raws),
	)
	return raws, err
}

func (c *Client) pageTimeout() time.Duration {
	if c.PageTimeout > 0 {
		return c.PageTimeout
	}
	return 30 * time.Second
}

// StaticSource serves a fixed schedule. Used in tests and for replaying
// persisted snapshots.
type StaticSource []comp.ScheduledShift

func (s StaticSource) FetchSchedule(ctx context.Context, start, end time.Time) ([]comp.ScheduledShift, error) {
	var out []comp.ScheduledShift
	for _, e := range s {
		d := dateOnly(e.Date)
		if !d.Before(dateOnly(start)) && !d.After(dateOnly(end)) {
			out = append(out, e)
		}
	}
	return out, nil
}
