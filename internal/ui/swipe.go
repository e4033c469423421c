package ui

import (
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/widget"
)

// Gesture is a recognised touch movement over a page
type Gesture int

const (
	GestureNone Gesture = iota
	GestureSwipeLeft
	GestureSwipeRight
	GesturePullDown
)

// Gesture thresholds
const (
	SwipeThreshold   float32 = 50
	SwipeMaxDuration         = 600 * time.Millisecond
)

// classifyGesture turns a touch from start to end lasting d into a gesture.
// Slow or short movements are not gestures.
func classifyGesture(start, end fyne.Position, d time.Duration) Gesture {
	if d > SwipeMaxDuration {
		return GestureNone
	}
	dx := end.X - start.X
	dy := end.Y - start.Y
	absDx, absDy := abs32(dx), abs32(dy)

	switch {
	case absDx >= absDy && absDx >= SwipeThreshold:
		if dx > 0 {
			return GestureSwipeRight
		}
		return GestureSwipeLeft
	case absDy > absDx && dy >= SwipeThreshold:
		return GesturePullDown
	default:
		return GestureNone
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// swipeArea wraps page content and maps touch gestures to navigation:
// swipe right goes back, swipe left goes forward, pull down reloads.
type swipeArea struct {
	widget.BaseWidget

	content   fyne.CanvasObject
	onGesture func(Gesture)

	startPos  fyne.Position
	startTime time.Time
	now       func() time.Time
}

var _ mobile.Touchable = (*swipeArea)(nil)

func newSwipeArea(content fyne.CanvasObject, onGesture func(Gesture)) *swipeArea {
	s := &swipeArea{content: content, onGesture: onGesture, now: time.Now}
	s.ExtendBaseWidget(s)
	return s
}

func (s *swipeArea) TouchDown(event *mobile.TouchEvent) {
	s.startPos = event.Position
	s.startTime = s.now()
}

func (s *swipeArea) TouchUp(event *mobile.TouchEvent) {
	if s.startTime.IsZero() {
		return
	}
	g := classifyGesture(s.startPos, event.Position, s.now().Sub(s.startTime))
	s.startTime = time.Time{}
	if g != GestureNone && s.onGesture != nil {
		s.onGesture(g)
	}
}

func (s *swipeArea) TouchCancel(*mobile.TouchEvent) {
	s.startTime = time.Time{}
}

func (s *swipeArea) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(s.content)
}
