package transport

// Middleware decorates a Searcher. Recovery, RequestID and Logging are the
// stock ones; the HTTP server installs all three.
type Middleware func(Searcher) Searcher

// Chain composes middleware so that Chain(a, b, c)(s) == a(b(c(s))): the
// first one sees the request first.
func Chain(middlewares ...Middleware) Middleware {
	return func(s Searcher) Searcher {
		for i := len(middlewares) - 1; i >= 0; i-- {
			s = middlewares[i](s)
		}
		return s
	}
}
