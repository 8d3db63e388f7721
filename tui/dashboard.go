// Package tui implements the optional live dashboard for the live-stats,
// live-map, and msg modes: a status line plus a scrolling activity list,
// refreshed once a second, with recently-active rows highlighted via a
// wall-clock TTL cache rather than the frame-time-based expiry the
// reassemblers themselves use.
package tui

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/jroimartin/gocui"
	. "github.com/logrusorgru/aurora"
	"github.com/patrickmn/go-cache"
)

// recentTTL is how long a frame type/satellite is considered "active" for
// dashboard highlighting -- a real wall-clock window, unlike the
// frame-timestamp-based expiry windows the reassemblers use, because this
// is for an operator watching a live feed.
const recentTTL = 5 * time.Second

// Row is one line of dashboard activity: a frame type or satellite/beam
// identifier with a running count.
type Row struct {
	Key   string
	Count int
}

// Dashboard is the gocui-backed live view. Zero value is not ready; use
// New.
type Dashboard struct {
	mu    sync.Mutex
	rows  map[string]int
	recent *cache.Cache

	title string
	g     *gocui.Gui
}

// New builds a Dashboard with the given window title (e.g. "LIVE STATS",
// "SATELLITES").
func New(title string) *Dashboard {
	return &Dashboard{
		rows:   make(map[string]int),
		recent: cache.New(recentTTL, recentTTL/2),
		title:  title,
	}
}

// Bump increments a row's count and marks it recently active.
func (d *Dashboard) Bump(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rows[key]++
	d.recent.Set(key, true, cache.DefaultExpiration)
}

func (d *Dashboard) wasRecentlySeen(key string) bool {
	_, found := d.recent.Get(key)
	return found
}

// RunWith opens the gocui main loop on the calling goroutine and starts
// feed in a background goroutine, mirroring the read-in-the-background,
// render-on-the-main-loop split of a gocui-driven live view. The display,
// refreshed once a second from the accumulated rows, closes when the
// operator quits (Ctrl-C) or feed returns; RunWith returns only after feed
// has returned, with feed's error.
func (d *Dashboard) RunWith(feed func() error) error {
	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return err
	}
	defer g.Close()
	d.g = g

	g.SetManagerFunc(d.layout)

	if err := g.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, quit); err != nil {
		return err
	}

	go func() {
		for range time.Tick(time.Second) {
			g.Update(d.update)
		}
	}()

	feedErr := make(chan error, 1)
	go func() {
		feedErr <- feed()
		g.Update(func(*gocui.Gui) error { return gocui.ErrQuit })
	}()

	if err := g.MainLoop(); err != nil && err != gocui.ErrQuit {
		log.Println("tui:", err)
		return err
	}
	return <-feedErr
}

func (d *Dashboard) layout(g *gocui.Gui) error {
	const maxX = 80
	_, maxY := g.Size()

	v, err := g.SetView("status", 0, 0, maxX-2, 2)
	if err != nil && err != gocui.ErrUnknownView {
		return err
	}
	if v != nil {
		v.Title = " STATUS "
	}

	v, err = g.SetView("list", 0, 3, maxX-2, maxY-1)
	if err != nil && err != gocui.ErrUnknownView {
		return err
	}
	if v != nil {
		v.Title = " " + d.title + " "
	}
	return nil
}

func (d *Dashboard) update(g *gocui.Gui) error {
	d.mu.Lock()
	rows := make([]Row, 0, len(d.rows))
	for k, n := range d.rows {
		rows = append(rows, Row{Key: k, Count: n})
	}
	d.mu.Unlock()

	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })

	s, err := g.View("status")
	if err != nil {
		return nil
	}
	s.Clear()
	fmt.Fprintf(s, " ROWS: %02d  LAST UPDATE: %s\n",
		Green(len(rows)), Bold(Green(time.Now().Format("2006-01-02 15:04:05"))))

	l, err := g.View("list")
	if err != nil {
		return nil
	}
	l.Clear()
	fmt.Fprintln(l, " KEY                 COUNT")
	fmt.Fprintln(l, " ==========================")
	for _, r := range rows {
		if d.wasRecentlySeen(r.Key) {
			fmt.Fprintln(l, Sprintf(Bold(Yellow(" %-18s  %6d")), r.Key, r.Count))
		} else {
			fmt.Fprintln(l, Sprintf(" %-18s  %6d", r.Key, r.Count))
		}
	}
	return nil
}

func quit(g *gocui.Gui, v *gocui.View) error {
	return gocui.ErrQuit
}
