package hook

// Base is a no-op Hook implementation meant to be embedded by name; a
// hook that only cares about a couple of events overrides just those
// methods and inherits the rest from Base.
type Base struct {
	id string
}

// NewBase creates a Base reporting id from ID().
func NewBase(id string) Base {
	return Base{id: id}
}

func (b Base) ID() string { return b.id }

func (b Base) OnStarted(addr string) error { return nil }
func (b Base) OnStopped(err error) error   { return nil }

func (b Base) OnConnect(c ClientInfo) error      { return nil }
func (b Base) OnRestore(c ClientInfo) error      { return nil }
func (b Base) OnNameCollision(name string) error { return nil }
func (b Base) OnDisconnect(c ClientInfo) error   { return nil }
func (b Base) OnLost(c ClientInfo) error         { return nil }
func (b Base) OnExpire(c ClientInfo) error       { return nil }

func (b Base) OnSubscribe(c ClientInfo, topic string) error   { return nil }
func (b Base) OnUnsubscribe(c ClientInfo, topic string) error { return nil }

func (b Base) OnPublish(p PublishInfo) error                      { return nil }
func (b Base) OnPublishDropped(recipient string, topic string) error { return nil }

var _ Hook = Base{}
