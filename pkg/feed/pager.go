package feed

import "sync"

// DefaultPageSize matches the infinite-scroll batch the UI loads at once.
const DefaultPageSize = 10

// Pager implements incremental "load more" pagination over a derived view.
// Each LoadMore extends the visible window by one page; items already shown
// are never re-fetched, and HasMore turns false once the view is exhausted.
type Pager struct {
	mu       sync.Mutex
	pageSize int
	visible  int
}

func NewPager(pageSize int) *Pager {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Pager{pageSize: pageSize}
}

// LoadMore grows the window and returns everything visible so far plus
// whether more remains.
func (p *Pager) LoadMore(posts []PostView) (visible []PostView, hasMore bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.visible += p.pageSize
	if p.visible > len(posts) {
		p.visible = len(posts)
	}
	return append([]PostView(nil), posts[:p.visible]...), p.visible < len(posts)
}

// Visible returns the current window without growing it.
func (p *Pager) Visible(posts []PostView) (visible []PostView, hasMore bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := p.visible
	if n > len(posts) {
		n = len(posts)
	}
	return append([]PostView(nil), posts[:n]...), n < len(posts)
}

// Reset rewinds the window, e.g. after the query changed.
func (p *Pager) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visible = 0
}

// Paginate is the stateless offset/limit variant used by the HTTP surface.
func Paginate[T any](items []T, offset, limit int) (page []T, hasMore bool) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if offset >= len(items) {
		return []T{}, false
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return append([]T(nil), items[offset:end]...), end < len(items)
}
