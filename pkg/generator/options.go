package generator

// Option configures a provider backend.
type Option func(*Options)

// Options holds provider settings shared by every backend.
type Options struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
}

// WithAPIKey sets the provider API key.
func WithAPIKey(key string) Option {
	return func(o *Options) {
		o.APIKey = key
	}
}

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// WithBaseURL points the client at a different endpoint.
func WithBaseURL(url string) Option {
	return func(o *Options) {
		o.BaseURL = url
	}
}

// WithMaxTokens sets the default completion budget used when a request leaves it zero.
func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// WithTemperature sets the default temperature used when a request leaves it zero.
func WithTemperature(t float64) Option {
	return func(o *Options) {
		o.Temperature = t
	}
}

// NewOptions applies opts over the defaults.
func NewOptions(opts ...Option) Options {
	options := Options{
		MaxTokens:   1024,
		Temperature: 0.7,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// Resolve fills zero request fields from the options.
func (o Options) Resolve(req Request) Request {
	if req.MaxTokens <= 0 {
		req.MaxTokens = o.MaxTokens
	}
	if req.Temperature <= 0 {
		req.Temperature = o.Temperature
	}
	return req
}
