package core

import "sync"

// EventContext carries a payload to event listeners. Data is typed per
// event code; listeners assert to the documented type.
type EventContext struct {
	Type SystemEventCode
	Data interface{}
}

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode int

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT SystemEventCode = 0x01

	// Resized/resolution changed from the OS.
	/* Context usage:
	 * data = *core.ResizeEvent
	 */
	EVENT_CODE_RESIZED SystemEventCode = 0x02

	// The render pipeline asset file changed on disk and was re-read.
	/* Context usage:
	 * data = string (path of the asset file)
	 */
	EVENT_CODE_PIPELINE_ASSET_RELOADED SystemEventCode = 0x03

	// Debug render mode changed (default/cascades visualization).
	/* Context usage:
	 * data = metadata.RendererDebugViewMode
	 */
	EVENT_CODE_SET_RENDER_MODE SystemEventCode = 0x04

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

type ResizeEvent struct {
	Width  uint32
	Height uint32
}

// Should return true if handled.
type FnOnEvent func(code SystemEventCode, sender interface{}, listenerInst interface{}, data EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

// State structure.
type eventSystemState struct {
	mutex      sync.RWMutex
	registered map[SystemEventCode][]*registeredEvent
}

var onceEvent sync.Once
var eventState *eventSystemState = nil

func EventInitialize() bool {
	onceEvent.Do(func() {
		eventState = &eventSystemState{
			registered: make(map[SystemEventCode][]*registeredEvent),
		}
	})
	return true
}

func EventShutdown() error {
	if eventState == nil {
		return nil
	}
	eventState.mutex.Lock()
	defer eventState.mutex.Unlock()
	// Free the listener lists. The objects pointed to are destroyed on
	// their own.
	eventState.registered = make(map[SystemEventCode][]*registeredEvent)
	return nil
}

// EventRegister starts listening for events sent with the provided code.
// A duplicate listener for the same code is not registered again and
// causes this to return false.
func EventRegister(code SystemEventCode, listener interface{}, onEvent FnOnEvent) bool {
	if eventState == nil {
		return false
	}
	eventState.mutex.Lock()
	defer eventState.mutex.Unlock()
	for _, e := range eventState.registered[code] {
		if e.listener == listener {
			LogWarn("EventRegister - listener already registered for code %d", code)
			return false
		}
	}
	eventState.registered[code] = append(eventState.registered[code], &registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return true
}

// EventUnregister stops listening for events sent with the provided code.
// If no matching registration is found, this returns false.
func EventUnregister(code SystemEventCode, listener interface{}) bool {
	if eventState == nil {
		return false
	}
	eventState.mutex.Lock()
	defer eventState.mutex.Unlock()
	events := eventState.registered[code]
	for i, e := range events {
		if e.listener == listener {
			eventState.registered[code] = append(events[:i], events[i+1:]...)
			return true
		}
	}
	return false
}

// EventFire sends an event to listeners of the given code. If a handler
// returns true the event is considered handled and is not passed on to
// any more listeners.
func EventFire(code SystemEventCode, sender interface{}, context EventContext) bool {
	if eventState == nil {
		return false
	}
	eventState.mutex.RLock()
	events := make([]*registeredEvent, len(eventState.registered[code]))
	copy(events, eventState.registered[code])
	eventState.mutex.RUnlock()

	for _, e := range events {
		if e.callback(code, sender, e.listener, context) {
			// Message has been handled, do not send to other listeners.
			return true
		}
	}
	return false
}
