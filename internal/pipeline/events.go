package pipeline

import "github.com/example/cutout/internal/artifact"

// EventType classifies orchestrator notifications.
type EventType int

const (
	// EventImageLoaded fires when a new base image replaces the session.
	EventImageLoaded EventType = iota
	// EventSettingsChanged carries transient (dragged) settings.
	EventSettingsChanged
	// EventCommitted carries newly accepted settings.
	EventCommitted
	// EventProcessing fires when a processing run starts.
	EventProcessing
	// EventStageChanged reports a stage state transition.
	EventStageChanged
	// EventDisplayChanged carries the new displayed image.
	EventDisplayChanged
	// EventError reports a failed stage; the displayed image is unchanged.
	EventError
)

var eventNames = map[EventType]string{
	EventImageLoaded:     "image-loaded",
	EventSettingsChanged: "settings-changed",
	EventCommitted:       "committed",
	EventProcessing:      "processing",
	EventStageChanged:    "stage-changed",
	EventDisplayChanged:  "display-changed",
	EventError:           "error",
}

func (t EventType) String() string { return eventNames[t] }

// Event is delivered to subscribers after the orchestrator's state changed.
type Event struct {
	Type       EventType
	Generation uint64
	Settings   Settings
	Stage      Stage
	State      StageState
	Image      *artifact.Image
	Err        error
}

// Subscribe registers fn for every event and returns a function removing
// it. fn runs without the orchestrator's lock held and may call back into
// the orchestrator.
//
// Events of one call arrive in order, on the goroutine that produced them.
// Events of different calls or runs may interleave or arrive out of order,
// so an EventDisplayChanged can be older than one delivered before it.
// Consumers that keep the displayed image compare it against Displayed,
// or keep the highest Generation seen.
func (o *Orchestrator) Subscribe(fn func(Event)) func() {
	o.listenersMu.Lock()
	defer o.listenersMu.Unlock()
	id := o.nextListener
	o.nextListener++
	o.listeners[id] = fn
	return func() {
		o.listenersMu.Lock()
		delete(o.listeners, id)
		o.listenersMu.Unlock()
	}
}

func (o *Orchestrator) emit(evs []Event) {
	if len(evs) == 0 {
		return
	}
	o.listenersMu.Lock()
	fns := make([]func(Event), 0, len(o.listeners))
	for i := 0; i < o.nextListener; i++ {
		if fn, ok := o.listeners[i]; ok {
			fns = append(fns, fn)
		}
	}
	o.listenersMu.Unlock()
	for _, ev := range evs {
		for _, fn := range fns {
			fn(ev)
		}
	}
}
