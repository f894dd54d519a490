package request

import (
	"time"

	"github.com/patrickmn/go-cache"

	"item_requests/internal/domain"
	"item_requests/internal/domain/entity"
	"item_requests/internal/domain/value"
	"item_requests/pkg/errcodes"
)

type RegistryOptions struct {
	// IdleTTL drops a negotiation nobody touched for this long. Zero keeps
	// deals until they are closed.
	IdleTTL time.Duration
}

// Registry maps a counterparty to its single open deal. It owns the deals:
// callers borrow them, they never construct or drop one on their own.
//
// The registry has no locks and runs no goroutines: idle deals are only
// evicted by OpenDeal and Sweep, on the caller's goroutine.
type Registry struct {
	deals   *cache.Cache
	expired []*entity.Deal
}

func NewRegistry(opts RegistryOptions) *Registry {
	ttl := opts.IdleTTL
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}

	r := &Registry{
		deals: cache.New(ttl, 0),
	}
	r.deals.OnEvicted(r.evicted)

	return r
}

// evicted runs for every removal. Deals closed by CloseDeal or Release are
// already closed here; anything else timed out.
func (r *Registry) evicted(_ string, v any) {
	deal, ok := v.(*entity.Deal)
	if !ok {
		return
	}

	if deal.Close() {
		r.expired = append(r.expired, deal)
	}
}

// OpenDeal returns the open deal with the counterparty, creating an empty
// one if there is none.
func (r *Registry) OpenDeal(id value.CounterpartyID) (*entity.Deal, error) {
	if deal, ok := r.Deal(id); ok {
		return deal, nil
	}

	// An idle deal may still sit under the key; evict it so it gets closed
	// instead of silently overwritten.
	r.deals.DeleteExpired()

	deal := entity.NewDeal(id)

	if err := r.deals.Add(id.String(), deal, cache.DefaultExpiration); err != nil {
		return nil, domain.WrapError(err, errcodes.RegistryConsistency, "second open deal for "+id.String())
	}

	return deal, nil
}

func (r *Registry) Deal(id value.CounterpartyID) (*entity.Deal, bool) {
	v, ok := r.deals.Get(id.String())
	if !ok {
		return nil, false
	}

	deal, ok := v.(*entity.Deal)

	return deal, ok
}

func (r *Registry) HasOpenDeal(id value.CounterpartyID) bool {
	_, ok := r.Deal(id)
	return ok
}

// CloseDeal closes and forgets the open deal, if any.
func (r *Registry) CloseDeal(id value.CounterpartyID) {
	deal, ok := r.Deal(id)
	if !ok {
		return
	}

	deal.Close()
	r.deals.Delete(id.String())
}

// Release closes exactly this deal. Another instance registered for the same
// counterparty means two live deals existed at once.
func (r *Registry) Release(deal *entity.Deal) error {
	current, ok := r.Deal(deal.CounterpartyID)
	if ok && current != deal {
		return domain.Errorf(errcodes.RegistryConsistency,
			"deal %s is not the open deal %s for %s", deal.ID, current.ID, deal.CounterpartyID)
	}

	deal.Close()

	if ok {
		r.deals.Delete(deal.CounterpartyID.String())
	}

	return nil
}

// Sweep evicts idle deals and returns every deal that timed out since the
// previous sweep, closed.
func (r *Registry) Sweep() []*entity.Deal {
	r.deals.DeleteExpired()

	expired := r.expired
	r.expired = nil

	return expired
}

// Touch restarts the idle timer of a registered deal.
func (r *Registry) Touch(deal *entity.Deal) {
	if current, ok := r.Deal(deal.CounterpartyID); ok && current == deal {
		r.deals.Set(deal.CounterpartyID.String(), deal, cache.DefaultExpiration)
	}
}

func (r *Registry) Len() int {
	return r.deals.ItemCount()
}
