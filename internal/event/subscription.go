package event

// SubscriptionConfig contains configuration for a subscription.
type SubscriptionConfig struct {
	// Once removes the subscription after its first successful invocation.
	Once bool

	// Owner groups the subscription for bulk removal with UnsubscribeByOwner.
	// Nil means no owner.
	Owner any
}

// DefaultSubscriptionConfig returns a default subscription configuration.
func DefaultSubscriptionConfig() SubscriptionConfig {
	return SubscriptionConfig{
		Once:  false,
		Owner: nil,
	}
}

// SubscriptionOption is a function that configures a subscription.
type SubscriptionOption func(*SubscriptionConfig)

// WithOnce sets the subscription to remove itself after the first event.
func WithOnce() SubscriptionOption {
	return func(c *SubscriptionConfig) {
		c.Once = true
	}
}

// WithOwner associates the subscription with an owner key.
func WithOwner(owner any) SubscriptionOption {
	return func(c *SubscriptionConfig) {
		c.Owner = owner
	}
}

// subscription is one (id, handler) entry in the registry.
type subscription struct {
	id      ID
	handler Handler
	once    bool
	owner   any

	// spent is set once a once-subscription has fired, so re-entrant
	// dispatches of the same id skip it before cleanup removes it.
	spent bool
}

// newSubscription creates a new subscription.
func newSubscription(id ID, h Handler, opts ...SubscriptionOption) *subscription {
	config := DefaultSubscriptionConfig()
	for _, opt := range opts {
		opt(&config)
	}

	return &subscription{
		id:      id,
		handler: h,
		once:    config.Once,
		owner:   config.Owner,
	}
}

// ownerEntry is one row of the owner index.
type ownerEntry struct {
	id      ID
	handler Handler
}
