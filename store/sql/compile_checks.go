package sqlstore

var (
	_ EndpointRegistry = (*EndpointStore)(nil)
	_ EndpointRegistry = (*CachedEndpointStore)(nil)
)
