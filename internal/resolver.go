package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"sync"
	"time"

	"payfast/services"
)

// AddressCache keeps resolved host addresses for a limited time.
type AddressCache interface {
	Get(ctx context.Context, host string) ([]netip.Addr, bool)
	Set(ctx context.Context, host string, addrs []netip.Addr, ttl time.Duration)
}

type LookupFunc func(ctx context.Context, host string) ([]netip.Addr, error)

// DNSResolver resolves the gateway hosts into the set of addresses
// notifications are accepted from.
type DNSResolver struct {
	lookup LookupFunc
	cache  AddressCache
	ttl    time.Duration
	logger services.LogHandler
}

func NewDNSResolver(ttl time.Duration) *DNSResolver {
	return &DNSResolver{
		lookup: func(ctx context.Context, host string) ([]netip.Addr, error) {
			return net.DefaultResolver.LookupNetIP(ctx, "ip", host)
		},
		cache: NewMemoryAddressCache(),
		ttl:   ttl,
	}
}

func (r *DNSResolver) SetLogger(logger services.LogHandler) {
	r.logger = logger
}

func (r *DNSResolver) SetLookup(lookup LookupFunc) {
	r.lookup = lookup
}

// SetCache replaces the cache; nil disables caching.
func (r *DNSResolver) SetCache(cache AddressCache) {
	r.cache = cache
}

// AllowedAddresses resolves every host. A host that fails to resolve is
// skipped; an error is returned only when no host resolved at all.
func (r *DNSResolver) AllowedAddresses(ctx context.Context, hosts []string) (services.AddressSet, error) {
	set := services.NewAddressSet()
	var errs []error
	for _, host := range hosts {
		addrs, err := r.resolve(ctx, host)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", host, err))
			if r.logger != nil {
				r.logger.Warn(fmt.Sprintf("resolve %s: %v", host, err))
			}
			continue
		}
		for _, addr := range addrs {
			set.Add(addr)
		}
	}
	if len(set) == 0 {
		if len(errs) == 0 {
			return nil, errors.New("no allowed hosts resolved")
		}
		return nil, fmt.Errorf("resolve allowed hosts: %w", errors.Join(errs...))
	}
	return set, nil
}

func (r *DNSResolver) resolve(ctx context.Context, host string) ([]netip.Addr, error) {
	host = strings.ToLower(strings.TrimSpace(host))
	if r.cache != nil && r.ttl > 0 {
		if addrs, ok := r.cache.Get(ctx, host); ok {
			return addrs, nil
		}
	}
	addrs, err := r.lookup(ctx, host)
	if err != nil {
		return nil, err
	}
	if r.cache != nil && r.ttl > 0 && len(addrs) > 0 {
		r.cache.Set(ctx, host, addrs, r.ttl)
	}
	return addrs, nil
}

type cachedAddresses struct {
	addrs   []netip.Addr
	expires time.Time
}

// MemoryAddressCache is a process-local AddressCache.
type MemoryAddressCache struct {
	mutex   sync.RWMutex
	entries map[string]cachedAddresses
	now     func() time.Time
}

func NewMemoryAddressCache() *MemoryAddressCache {
	return &MemoryAddressCache{
		entries: make(map[string]cachedAddresses),
		now:     time.Now,
	}
}

func (c *MemoryAddressCache) Get(_ context.Context, host string) ([]netip.Addr, bool) {
	c.mutex.RLock()
	entry, ok := c.entries[host]
	c.mutex.RUnlock()
	if !ok || !c.now().Before(entry.expires) {
		return nil, false
	}
	return entry.addrs, true
}

func (c *MemoryAddressCache) Set(_ context.Context, host string, addrs []netip.Addr, ttl time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries[host] = cachedAddresses{
		addrs:   append([]netip.Addr(nil), addrs...),
		expires: c.now().Add(ttl),
	}
}
