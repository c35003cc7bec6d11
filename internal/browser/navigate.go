package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// networkAlmostIdle is the Chrome lifecycle event fired once no more than two
// network connections have been active for 500ms.
const networkAlmostIdle = "networkAlmostIdle"

// Navigate loads url and waits until the network of the main frame is almost
// idle. A fixed sleep is not enough: the results table renders after the
// load event. Any failure is wrapped in ErrNavigation.
func Navigate(ctx context.Context, url string, timeout time.Duration) error {
	listenCtx, stopListening := context.WithCancel(ctx)
	defer stopListening()

	idle := make(chan *page.EventLifecycleEvent, 64)
	chromedp.ListenTarget(listenCtx, func(ev any) {
		e, ok := ev.(*page.EventLifecycleEvent)
		if !ok || e.Name != networkAlmostIdle {
			return
		}
		select {
		case idle <- e:
		default:
		}
	})

	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Enabling lifecycle events replays them for the current document, so
	// only events of the navigated document's loader count.
	var main *cdp.Frame
	err := chromedp.Run(navCtx,
		page.SetLifecycleEventsEnabled(true),
		chromedp.Navigate(url),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			main = tree.Frame
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("%w: navigate to %s: %v", ErrNavigation, url, err)
	}

	if err := waitIdle(navCtx, idle, main); err != nil {
		return fmt.Errorf("%w: %s did not reach network idle within %s", ErrNavigation, url, timeout)
	}
	return nil
}

// waitIdle returns once main's current document reports networkAlmostIdle,
// or ctx.Err() when ctx ends first.
func waitIdle(ctx context.Context, idle <-chan *page.EventLifecycleEvent, main *cdp.Frame) error {
	for {
		select {
		case e := <-idle:
			if e.FrameID == main.ID && e.LoaderID == main.LoaderID {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
