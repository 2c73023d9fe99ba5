package notification

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

const (
	outboxBucket = "outbox"
	// deadBucket keeps entries that could not be decoded
	deadBucket = "outbox_dead"
)

// Outbox persists notification jobs until they are delivered
type Outbox struct {
	db     *bolt.DB
	bucket []byte
	logger *zap.Logger
}

// OpenOutbox opens (or creates) the BoltDB file at path.
func OpenOutbox(path string, logger *zap.Logger) (*Outbox, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open outbox: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{outboxBucket, deadBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Outbox{db: db, bucket: []byte(outboxBucket), logger: logger.Named("outbox")}, nil
}

// Enqueue stores a job under a time-ordered key.
func (o *Outbox) Enqueue(job Job) error {
	if o == nil || o.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	job.normalize()
	job.bucketKey = []byte(buildKey(job))

	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}

	return o.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(o.bucket).Put(job.bucketKey, payload)
	})
}

// GetBatch returns up to limit jobs, oldest first, without removing them.
// Entries that fail to decode are moved to the dead bucket.
func (o *Outbox) GetBatch(limit int) ([]Job, error) {
	if o == nil || o.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if limit <= 0 {
		limit = 50
	}

	var jobs []Job
	err := o.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(o.bucket)
		dead := tx.Bucket([]byte(deadBucket))

		type corrupt struct{ key, value []byte }
		var bad []corrupt

		c := b.Cursor()
		for k, v := c.First(); k != nil && len(jobs) < limit; k, v = c.Next() {
			var job Job
			if err := json.Unmarshal(v, &job); err != nil {
				o.logger.Error("moving undecodable job aside", zap.ByteString("key", k), zap.Error(err))
				bad = append(bad, corrupt{
					key:   append([]byte(nil), k...),
					value: append([]byte(nil), v...),
				})
				continue
			}
			job.bucketKey = append([]byte(nil), k...)
			jobs = append(jobs, job)
		}

		for _, e := range bad {
			if err := dead.Put(e.key, e.value); err != nil {
				return err
			}
			if err := b.Delete(e.key); err != nil {
				return err
			}
		}
		return nil
	})
	return jobs, err
}

// Remove deletes a job returned by GetBatch.
func (o *Outbox) Remove(job Job) error {
	if o == nil || o.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if len(job.bucketKey) == 0 {
		return fmt.Errorf("job %s was not read from the outbox", job.ID)
	}
	return o.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(o.bucket).Delete(job.bucketKey)
	})
}

// Requeue moves a job to the back of the queue.
func (o *Outbox) Requeue(job Job) error {
	if err := o.Remove(job); err != nil {
		return err
	}
	job.bucketKey = nil
	job.Timestamp = time.Now().UTC()
	return o.Enqueue(job)
}

// DeadSize counts entries moved aside by GetBatch.
func (o *Outbox) DeadSize() (int, error) {
	if o == nil || o.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := o.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket([]byte(deadBucket)).Stats().KeyN
		return nil
	})
	return count, err
}

func (o *Outbox) Size() (int, error) {
	if o == nil || o.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := o.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(o.bucket).Stats().KeyN
		return nil
	})
	return count, err
}

func (o *Outbox) Close() error {
	if o == nil || o.db == nil {
		return nil
	}
	return o.db.Close()
}

func buildKey(job Job) string {
	return fmt.Sprintf("%020d_%s", job.Timestamp.UnixNano(), job.ID)
}
