package view

import (
	"context"
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cwbudde/evoshapes/internal/gene"
	"github.com/cwbudde/evoshapes/internal/store"
	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, s.Init())
	s.SetSize(w, h)
	return s
}

func cellColors(s tcell.Screen, x, y int) (rune, tcell.Color, tcell.Color) {
	r, _, style, _ := s.GetContent(x, y)
	fg, bg, _ := style.Decompose()
	return r, fg, bg
}

func TestPaintHalfBlocks(t *testing.T) {
	s := simScreen(t, 10, 10)
	defer s.Fini()

	// 2x2 image: red over blue in column 0, green over white in column 1
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 255})
	img.SetNRGBA(0, 1, color.NRGBA{0, 0, 255, 255})
	img.SetNRGBA(1, 0, color.NRGBA{0, 255, 0, 255})
	img.SetNRGBA(1, 1, color.NRGBA{255, 255, 255, 255})

	Paint(s, img, 0, 0, 2, 1)

	r, fg, bg := cellColors(s, 0, 0)
	assert.Equal(t, halfBlock, r)
	assert.Equal(t, tcell.NewRGBColor(255, 0, 0), fg)
	assert.Equal(t, tcell.NewRGBColor(0, 0, 255), bg)

	_, fg, bg = cellColors(s, 1, 0)
	assert.Equal(t, tcell.NewRGBColor(0, 255, 0), fg)
	assert.Equal(t, tcell.NewRGBColor(255, 255, 255), bg)
}

func TestPaintScalesDown(t *testing.T) {
	s := simScreen(t, 20, 20)
	defer s.Fini()

	img := image.NewNRGBA(image.Rect(0, 0, 40, 40))
	for i := range img.Pix {
		img.Pix[i] = 255
	}

	Paint(s, img, 0, 0, 4, 2)

	r, _, _ := cellColors(s, 3, 1)
	assert.Equal(t, halfBlock, r, "box corner should be painted")
	r, _, _ = cellColors(s, 4, 0)
	assert.NotEqual(t, halfBlock, r, "nothing outside the box")
	r, _, _ = cellColors(s, 0, 2)
	assert.NotEqual(t, halfBlock, r, "nothing below the box")
}

func TestPaintEmpty(t *testing.T) {
	s := simScreen(t, 4, 4)
	defer s.Fini()

	Paint(s, image.NewNRGBA(image.Rect(0, 0, 0, 0)), 0, 0, 4, 4)
	Paint(s, image.NewNRGBA(image.Rect(0, 0, 2, 2)), 0, 0, 0, 4)

	r, _, _ := cellColors(s, 0, 0)
	assert.NotEqual(t, halfBlock, r)
}

type countingChime struct{ n atomic.Int32 }

func (c *countingChime) Play() { c.n.Add(1) }

func TestViewerChimesOnce(t *testing.T) {
	s := simScreen(t, 30, 12)

	var polls atomic.Int32
	source := func(ctx context.Context) (Snapshot, error) {
		n := polls.Add(1)
		if n == 2 {
			return Snapshot{}, errors.New("transient")
		}
		return Snapshot{
			Title:    "run",
			Status:   "done",
			Image:    image.NewNRGBA(image.Rect(0, 0, 4, 4)),
			Finished: n >= 3,
		}, nil
	}

	chime := &countingChime{}
	v := New(s, source, chime, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	require.NoError(t, v.Run(ctx))

	assert.GreaterOrEqual(t, polls.Load(), int32(4))
	assert.Equal(t, int32(1), chime.n.Load())
}

func TestStoreSource(t *testing.T) {
	st, err := store.NewFSStore(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)

	shape, err := gene.NewShape([]float64{0, 8, 0}, []float64{0, 0, 8}, gene.MustColor(255, 0, 0, 1))
	require.NoError(t, err)

	record := &store.RunRecord{
		RunID:       "run-1",
		State:       "completed",
		Generation:  12,
		BestFitness: 75,
		Width:       8,
		Height:      8,
		BestGenes:   store.RecordGenes([]*gene.Shape{shape}),
		Timestamp:   time.Now(),
		Config:      store.RunConfig{RefPath: "ref.png", PopulationSize: 10, Genes: 1, Vertices: 3},
	}
	require.NoError(t, st.SaveRun(record))

	snap, err := StoreSource(st, "run-1")(context.Background())
	require.NoError(t, err)

	assert.True(t, snap.Finished)
	assert.Contains(t, snap.Status, "generation 12")
	assert.Equal(t, image.Rect(0, 0, 8, 8), snap.Image.Bounds())

	_, err = StoreSource(st, "missing")(context.Background())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPumpEventsStopsWhenReaderIsGone(t *testing.T) {
	poll := func() tcell.Event {
		return tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)
	}
	events := make(chan tcell.Event, 2)
	done := make(chan struct{})

	returned := make(chan struct{})
	go func() {
		pumpEvents(poll, events, done)
		close(returned)
	}()

	// Let the buffer fill up with nobody reading
	assert.Eventually(t, func() bool { return len(events) == cap(events) }, time.Second, time.Millisecond)

	close(done)
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("pumpEvents blocked on a full channel after done closed")
	}
}

func TestPumpEventsStopsOnNilEvent(t *testing.T) {
	var calls atomic.Int32
	poll := func() tcell.Event {
		if calls.Add(1) > 3 {
			return nil
		}
		return tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)
	}
	events := make(chan tcell.Event, 8)

	pumpEvents(poll, events, make(chan struct{}))
	assert.Len(t, events, 3)
}
