// Package hook provides a small pre/post event-dispatch mechanism the
// engine fires synchronously from its single command-processing
// goroutine. cmd/relaybrokerd registers no hooks; the engine updates
// logging and metrics directly. Nothing here authenticates or authorizes
// a client, which is explicitly out of scope for this broker.
package hook

// Event identifies a point in a client or topic's lifecycle a Hook can
// observe.
type Event byte

const (
	OnConnect Event = iota
	OnRestore
	OnNameCollision
	OnDisconnect
	OnLost
	OnExpire
	OnSubscribe
	OnUnsubscribe
	OnPublish
	OnPublishDropped
	OnStarted
	OnStopped
)

// String returns the event's name.
func (e Event) String() string {
	names := [...]string{
		"OnConnect",
		"OnRestore",
		"OnNameCollision",
		"OnDisconnect",
		"OnLost",
		"OnExpire",
		"OnSubscribe",
		"OnUnsubscribe",
		"OnPublish",
		"OnPublishDropped",
		"OnStarted",
		"OnStopped",
	}
	if int(e) < len(names) {
		return names[e]
	}
	return "Unknown"
}

// ClientInfo is the subset of client state a hook may want to observe;
// it is a value snapshot, not a live handle, so hooks can't mutate
// broker state.
type ClientInfo struct {
	Name          string
	Subscriptions []string
}

// PublishInfo describes a single publish fan-out event.
type PublishInfo struct {
	Topic       string
	Subscribers int
}

// Hook is the interface every registered hook implements. Base provides
// a no-op default for every method so a hook only needs to override the
// events it cares about.
type Hook interface {
	ID() string

	OnStarted(addr string) error
	OnStopped(err error) error

	OnConnect(c ClientInfo) error
	OnRestore(c ClientInfo) error
	OnNameCollision(name string) error
	OnDisconnect(c ClientInfo) error
	OnLost(c ClientInfo) error
	OnExpire(c ClientInfo) error

	OnSubscribe(c ClientInfo, topic string) error
	OnUnsubscribe(c ClientInfo, topic string) error

	OnPublish(p PublishInfo) error
	OnPublishDropped(recipient string, topic string) error
}
