package storage

import "context"

type namespaced struct {
	Store
	prefix string
}

// WithNamespace prefixes every key with ns and ":". Close is not forwarded so a shared store survives its namespaces.
func WithNamespace(s Store, ns string) Store {
	return &namespaced{Store: s, prefix: ns + ":"}
}

func (n *namespaced) Get(ctx context.Context, key string) (string, bool, error) {
	return n.Store.Get(ctx, n.prefix+key)
}

func (n *namespaced) Set(ctx context.Context, key, value string) error {
	return n.Store.Set(ctx, n.prefix+key, value)
}

func (n *namespaced) Delete(ctx context.Context, keys ...string) error {
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = n.prefix + k
	}
	return n.Store.Delete(ctx, prefixed...)
}

func (n *namespaced) Close() error {
	return nil
}
