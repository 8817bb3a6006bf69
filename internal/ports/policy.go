package ports

import "time"

// Policy bounds the snapshot mirror's buffering.
type Policy struct {
	MaxQueueLen   int           `yaml:"queue_len"`
	MaxBatchSize  int           `yaml:"max_batch"`
	FlushInterval time.Duration `yaml:"flush_interval"`

	OnQueueFull string `yaml:"on_queue_full"` // "drop" or "drop_oldest"
}
