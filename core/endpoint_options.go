package core

import "sync"

// EndpointOptions holds the target of one notification category.
// A missing URL or nil headers mean "inherit from the base configuration".
type EndpointOptions struct {
	mu      sync.RWMutex
	url     *string
	headers map[string]string
	async   bool
}

func NewEndpointOptions() *EndpointOptions {
	return &EndpointOptions{}
}

// NewEndpointOptionsWithURL mirrors the plain URL construction path:
// no headers and synchronous delivery.
func NewEndpointOptionsWithURL(url string) *EndpointOptions {
	return NewEndpointOptions().WithURL(url)
}

func (o *EndpointOptions) URL() (string, bool) {
	if o == nil {
		return "", false
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.url == nil {
		return "", false
	}
	return *o.url, true
}

func (o *EndpointOptions) WithURL(url string) *EndpointOptions {
	o.mu.Lock()
	defer o.mu.Unlock()
	value := url
	o.url = &value
	return o
}

func (o *EndpointOptions) WithoutURL() *EndpointOptions {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.url = nil
	return o
}

// Headers returns a copy of the header set, or nil when the headers are inherited.
func (o *EndpointOptions) Headers() map[string]string {
	if o == nil {
		return nil
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	return copyHeaders(o.headers)
}

// WithHeaders stores a copy of headers. Passing nil restores inheritance;
// an empty map means "explicitly no headers".
func (o *EndpointOptions) WithHeaders(headers map[string]string) *EndpointOptions {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.headers = copyHeaders(headers)
	return o
}

func (o *EndpointOptions) WithHeader(key string, value string) *EndpointOptions {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.headers == nil {
		o.headers = map[string]string{}
	}
	o.headers[key] = value
	return o
}

func (o *EndpointOptions) Async() bool {
	if o == nil {
		return false
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.async
}

func (o *EndpointOptions) WithAsync(async bool) *EndpointOptions {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.async = async
	return o
}

func (o *EndpointOptions) Clone() *EndpointOptions {
	if o == nil {
		return NewEndpointOptions()
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	clone := &EndpointOptions{
		headers: copyHeaders(o.headers),
		async:   o.async,
	}
	if o.url != nil {
		value := *o.url
		clone.url = &value
	}
	return clone
}

// Equal compares by value, distinguishing absent from empty.
func (o *EndpointOptions) Equal(other *EndpointOptions) bool {
	if o == nil || other == nil {
		return o == other
	}
	if o == other {
		return true
	}
	leftURL, leftHasURL := o.URL()
	rightURL, rightHasURL := other.URL()
	if leftHasURL != rightHasURL || leftURL != rightURL {
		return false
	}
	if o.Async() != other.Async() {
		return false
	}
	leftHeaders := o.Headers()
	rightHeaders := other.Headers()
	if (leftHeaders == nil) != (rightHeaders == nil) || len(leftHeaders) != len(rightHeaders) {
		return false
	}
	for key, value := range leftHeaders {
		if candidate, ok := rightHeaders[key]; !ok || candidate != value {
			return false
		}
	}
	return true
}

func copyHeaders(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
