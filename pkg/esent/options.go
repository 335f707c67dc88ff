package esent

import "go.uber.org/zap"

const (
	defaultMaxDepth  = 32
	defaultCacheSize = 256
)

//Options tunes how a database is opened. The zero value is usable.
type Options struct {
	//MaxDepth bounds B-tree descent, a deeper tree is treated as corrupt
	MaxDepth int
	//CacheSize is the number of pages kept in the LRU cache. Negative disables caching
	CacheSize int
	//SkipChecksums disables header and page checksum verification
	SkipChecksums bool
	//Mmap maps the file into memory instead of reading through the descriptor (Open only)
	Mmap bool
	//InMemory reads the whole file up front and closes it (Open only, wins over Mmap)
	InMemory bool
	//Logger overrides the package logger
	Logger *zap.Logger
}

//DefaultOptions returns the options used when nil is passed to Open
func DefaultOptions() *Options {
	return &Options{
		MaxDepth:  defaultMaxDepth,
		CacheSize: defaultCacheSize,
	}
}

func (o *Options) withDefaults() Options {
	r := Options{}
	if o != nil {
		r = *o
	}
	if r.MaxDepth <= 0 {
		r.MaxDepth = defaultMaxDepth
	}
	if r.CacheSize == 0 {
		r.CacheSize = defaultCacheSize
	}
	return r
}
