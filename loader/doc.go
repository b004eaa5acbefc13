// Package loader provides memoized, single-flight loading of the masking
// engine.
//
// The first EnsureLoaded call starts the underlying load; every caller
// that arrives while it is in flight waits on the same operation, so the
// engine is fetched and initialized once regardless of concurrency. A
// successful load is cached for the life of the Loader. A failed load is
// delivered to every waiter of that attempt and then forgotten, so a
// later call retries from scratch.
//
// The loader imposes no timeout of its own; a waiting caller bounds its
// wait through its context, which releases only that caller, never the
// shared load.
package loader
