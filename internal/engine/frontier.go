package engine

import (
	"container/list"
	"sync"

	"github.com/law-makers/appcrawl/pkg/models"
)

// frontier is the FIFO of URLs waiting to be visited plus the visited set.
// A URL is never both queued and visited.
type frontier struct {
	mu      sync.Mutex
	queue   *list.List
	queued  map[string]struct{}
	visited map[string]struct{}
	order   []string
}

func newFrontier() *frontier {
	return &frontier{
		queue:   list.New(),
		queued:  make(map[string]struct{}),
		visited: make(map[string]struct{}),
	}
}

// Push enqueues item unless its URL is already queued or visited.
func (f *frontier) Push(item models.CrawlURL) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.visited[item.URL]; ok {
		return false
	}
	if _, ok := f.queued[item.URL]; ok {
		return false
	}
	f.queued[item.URL] = struct{}{}
	f.queue.PushBack(item)
	return true
}

// Pop removes the oldest item.
func (f *frontier) Pop() (models.CrawlURL, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	el := f.queue.Front()
	if el == nil {
		return models.CrawlURL{}, false
	}
	item := f.queue.Remove(el).(models.CrawlURL)
	delete(f.queued, item.URL)
	return item, true
}

func (f *frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queue.Len()
}

// TryVisit marks url visited and reports whether this call did so. Safe to
// race from several workers: exactly one caller wins.
func (f *frontier) TryVisit(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.visited[url]; ok {
		return false
	}
	f.visited[url] = struct{}{}
	f.order = append(f.order, url)
	return true
}

// Visited returns visited URLs in visit order.
func (f *frontier) Visited() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.order...)
}

func (f *frontier) VisitedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.order)
}
