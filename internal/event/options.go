package event

// BusOption configures a Bus.
type BusOption func(*busConfig)

// busConfig contains configuration for the event bus.
type busConfig struct {
	sender       Sender
	errorHandler ErrorHandler
	panicHandler PanicHandler
}

func defaultBusConfig() busConfig {
	return busConfig{
		errorHandler: func(Event, error) {},
		panicHandler: func(Event, any, []byte) {},
	}
}

// WithSender sets the outbound channel used by Emit.
func WithSender(s Sender) BusOption {
	return func(c *busConfig) {
		c.sender = s
	}
}

// WithErrorHandler sets the callback for handler errors.
func WithErrorHandler(h ErrorHandler) BusOption {
	return func(c *busConfig) {
		if h != nil {
			c.errorHandler = h
		}
	}
}

// WithPanicHandler sets the callback for handler panics.
func WithPanicHandler(h PanicHandler) BusOption {
	return func(c *busConfig) {
		if h != nil {
			c.panicHandler = h
		}
	}
}
