package links

import (
	"context"

	"github.com/karloscodes/cartridge"
)

// Resolver maps a short code to its link. Unknown codes are *LinkNotFoundError.
type Resolver interface {
	Resolve(ctx context.Context, code string) (*Link, error)
	// Forget drops any cached copy of code after the link changed.
	Forget(ctx context.Context, code string)
}

var (
	_ Resolver = (*DBResolver)(nil)
	_ Resolver = (*CachedResolver)(nil)
)

// DBResolver reads links straight from the database.
type DBResolver struct {
	dbManager cartridge.DBManager
}

func NewDBResolver(dbManager cartridge.DBManager) *DBResolver {
	return &DBResolver{dbManager: dbManager}
}

func (r *DBResolver) Resolve(ctx context.Context, code string) (*Link, error) {
	return GetLinkByCode(r.dbManager.GetConnection().WithContext(ctx), code)
}

func (r *DBResolver) Forget(context.Context, string) {}

// CachedResolver checks the cache before the wrapped resolver and fills it on a miss.
type CachedResolver struct {
	next  Resolver
	cache LinkCache
}

func NewCachedResolver(next Resolver, cache LinkCache) *CachedResolver {
	return &CachedResolver{next: next, cache: cache}
}

func (r *CachedResolver) Resolve(ctx context.Context, code string) (*Link, error) {
	if cached, err := r.cache.Get(ctx, code); err == nil && cached != nil {
		return cached, nil
	}

	link, err := r.next.Resolve(ctx, code)
	if err != nil {
		return nil, err
	}

	_ = r.cache.Set(ctx, link)
	return link, nil
}

func (r *CachedResolver) Forget(ctx context.Context, code string) {
	_ = r.cache.Invalidate(ctx, code)
	r.next.Forget(ctx, code)
}
