package sync

// semaphore is a counting semaphore backed by a buffered channel, adapted
// from ivoronin-dupedog's internal/types.Semaphore: it bounds the metadata
// fetch pool's concurrent requests to metadata_concurrency (spec §5).
type semaphore chan struct{}

func newSemaphore(n int) semaphore { return make(chan struct{}, n) }

func (s semaphore) acquire() { s <- struct{}{} }

func (s semaphore) release() { <-s }
