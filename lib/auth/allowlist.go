package auth

import (
	"fmt"
	"net/http"
	"net/netip"

	"github.com/corvidlabs/brochure/internal"
	"github.com/gaissmai/bart"
)

// Allowlist restricts the admin API to a set of networks.
type Allowlist struct {
	table *bart.Table[struct{}]
	size  int
}

// NewAllowlist parses cidrs. An empty list lets everyone through.
func NewAllowlist(cidrs []string) (*Allowlist, error) {
	result := &Allowlist{table: new(bart.Table[struct{}])}

	for _, cidr := range cidrs {
		pfx, err := netip.ParsePrefix(cidr)
		if err != nil {
			return nil, fmt.Errorf("auth: bad CIDR %q: %w", cidr, err)
		}
		result.table.Insert(pfx.Masked(), struct{}{})
		result.size++
	}

	return result, nil
}

func (a *Allowlist) Allows(addr string) bool {
	if a == nil || a.size == 0 {
		return true
	}

	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return false
	}

	_, ok := a.table.Lookup(ip.Unmap())
	return ok
}

// Middleware answers 403 to clients outside the list.
func (a *Allowlist) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Allows(internal.ClientIP(r)) {
			internal.GetRequestLogger(r).Warn("admin request from outside allowlist", "ip", internal.ClientIP(r))
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
