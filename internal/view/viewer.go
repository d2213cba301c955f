package view

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/cwbudde/evoshapes/internal/fit"
	"github.com/cwbudde/evoshapes/internal/store"
	"github.com/gdamore/tcell/v2"
)

// Snapshot is what the viewer shows in one frame
type Snapshot struct {
	Title    string
	Status   string
	Image    image.Image
	Finished bool
}

// Source produces the current snapshot
type Source func(ctx context.Context) (Snapshot, error)

// StoreSource follows a run persisted in st, re-rendering its stored genome
// whenever it is polled.
func StoreSource(st *store.FSStore, runID string) Source {
	raster := fit.NewVectorRasterizer()
	return func(ctx context.Context) (Snapshot, error) {
		record, err := st.LoadRun(runID)
		if err != nil {
			return Snapshot{}, err
		}
		shapes, err := record.Shapes()
		if err != nil {
			return Snapshot{}, err
		}
		img, err := raster.Render(shapes, record.Width, record.Height)
		if err != nil {
			return Snapshot{}, err
		}

		return Snapshot{
			Title: fmt.Sprintf("%s  %s", record.RunID, record.Config.RefPath),
			Status: fmt.Sprintf("%s  generation %d  fitness %.3f (from %.3f)",
				record.State, record.Generation, record.BestFitness, record.InitialFitness),
			Image:    img,
			Finished: finished(record.State),
		}, nil
	}
}

func finished(state string) bool {
	switch state {
	case "completed", "stopped", "failed", "cancelled":
		return true
	}
	return false
}

// Viewer polls a Source and paints it until the user quits or ctx ends
type Viewer struct {
	screen   tcell.Screen
	source   Source
	chime    Chime
	interval time.Duration

	last    Snapshot
	lastErr error
	chimed  bool
}

// New creates a viewer on an initialized screen. Run finalizes it.
func New(screen tcell.Screen, source Source, chime Chime, interval time.Duration) *Viewer {
	if chime == nil {
		chime = Silent{}
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Viewer{screen: screen, source: source, chime: chime, interval: interval}
}

// Run blocks until q, Esc or Ctrl-C is pressed or ctx is done
func (v *Viewer) Run(ctx context.Context) error {
	defer v.screen.Fini()

	events := make(chan tcell.Event, 16)
	done := make(chan struct{})
	defer close(done)
	go pumpEvents(v.screen.PollEvent, events, done)

	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()

	v.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
					(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
					return nil
				}
			case *tcell.EventResize:
				v.screen.Sync()
				v.draw()
			}

		case <-ticker.C:
			v.refresh(ctx)
		}
	}
}

// pumpEvents forwards polled events until poll returns nil or done closes
func pumpEvents(poll func() tcell.Event, events chan<- tcell.Event, done <-chan struct{}) {
	for {
		ev := poll()
		if ev == nil {
			return
		}
		select {
		case events <- ev:
		case <-done:
			return
		}
	}
}

// refresh polls the source once and redraws
func (v *Viewer) refresh(ctx context.Context) {
	snap, err := v.source(ctx)
	v.lastErr = err
	if err != nil {
		slog.Debug("Viewer source failed", "error", err)
	} else {
		v.last = snap
		if snap.Finished && !v.chimed {
			v.chimed = true
			v.chime.Play()
		}
	}
	v.draw()
}

func (v *Viewer) draw() {
	v.screen.Clear()
	width, height := v.screen.Size()

	bold := tcell.StyleDefault.Bold(true)
	DrawText(v.screen, 0, 0, width, v.last.Title, bold)

	status := v.last.Status
	if v.lastErr != nil {
		status = "error: " + v.lastErr.Error()
	}
	DrawText(v.screen, 0, height-1, width, status+"  (q to quit)", tcell.StyleDefault)

	if v.last.Image != nil {
		Paint(v.screen, v.last.Image, 0, 1, width, height-2)
	}
	v.screen.Show()
}
