// Package sigcache provides a self-cleaning, disk-backed cache of MinHash
// signatures keyed by content hash, adapted from ivoronin-dupedog's
// internal/cache package: the same read/write-database swap-on-Close
// pattern (a fresh write database is opened per run, hit entries are copied
// forward into it, and only entries touched during the run survive to the
// next one) but keyed by a document's content hash plus the algorithm
// parameters that produced the signature, rather than a file's
// path/size/inode/mtime tuple.
//
// Stage 3 of the analysis orchestrator consults this cache before
// recomputing a MinHash signature from scratch; a hit still requires the
// stored num_permutations and algorithm_version to match the current
// config, matching spec §4.8's reuse rule.
package sigcache

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/rknightion/paperless-dedupe/internal/minhash"
)

const bucketName = "signatures"

// Cache persists MinHash signatures across analysis runs.
type Cache struct {
	readDB  *bolt.DB
	writeDB *bolt.DB
	path    string
	enabled bool
}

// Open opens the existing cache at path for reading (if present) and
// creates a new write-side database alongside it. A disabled cache (nil
// *Cache would panic, so Open always returns a usable zero-cost stand-in)
// is returned when path is empty, the same "disabled if no path" contract
// ivoronin-dupedog's own cache package uses.
func Open(path string) (*Cache, error) {
	if path == "" {
		return &Cache{enabled: false}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sigcache: create cache dir: %w", err)
	}

	c := &Cache{path: path, enabled: true}

	if _, statErr := os.Stat(path); statErr == nil {
		readDB, err := bolt.Open(path, 0o600, &bolt.Options{ReadOnly: true, Timeout: time.Second})
		if err == nil {
			c.readDB = readDB
		}
	}

	writeDB, err := bolt.Open(path+".new", 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("sigcache: open write database (locked by another run?): %w", err)
	}
	c.writeDB = writeDB

	if err := c.writeDB.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	}); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("sigcache: init bucket: %w", err)
	}

	return c, nil
}

// Close closes both databases and, if the write side closed cleanly,
// atomically promotes it to replace the prior cache file.
func (c *Cache) Close() error {
	var firstErr error
	if c.readDB != nil {
		if err := c.readDB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.writeDB != nil {
		if err := c.writeDB.Close(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		} else if err := os.Rename(c.path+".new", c.path); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// entryHeaderSize is the fixed-width prefix before the signature bytes:
// num_permutations(4) + algorithm_version length(2).
const entryHeaderSize = 4 + 2

// makeKey derives the lookup key from a document's content hash. The
// content hash alone is the identity; num_permutations and
// algorithm_version are folded into the stored value instead of the key so
// a config change produces a clean miss rather than an orphaned key.
func makeKey(contentHash string) []byte {
	return []byte(contentHash)
}

func encodeEntry(numPermutations int, algorithmVersion string, signature []uint32) []byte {
	sigBytes := minhash.Serialize(signature)
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.BigEndian, uint32(numPermutations))
	_ = binary.Write(buf, binary.BigEndian, uint16(len(algorithmVersion)))
	buf.WriteString(algorithmVersion)
	buf.Write(sigBytes)
	return buf.Bytes()
}

func decodeEntry(data []byte) (numPermutations int, algorithmVersion string, signature []uint32, ok bool) {
	if len(data) < entryHeaderSize {
		return 0, "", nil, false
	}
	np := binary.BigEndian.Uint32(data[0:4])
	versionLen := binary.BigEndian.Uint16(data[4:6])
	if len(data) < entryHeaderSize+int(versionLen) {
		return 0, "", nil, false
	}
	version := string(data[entryHeaderSize : entryHeaderSize+int(versionLen)])
	sigBytes := data[entryHeaderSize+int(versionLen):]

	sig, err := minhash.Deserialize(sigBytes)
	if err != nil {
		return 0, "", nil, false
	}
	return int(np), version, sig, true
}

// Lookup returns a cached signature for contentHash if one exists and was
// produced with the given num_permutations and algorithm_version. A hit is
// copied forward into the write-side database (self-cleaning).
func (c *Cache) Lookup(contentHash string, numPermutations int, algorithmVersion string) ([]uint32, bool) {
	if !c.enabled || c.readDB == nil {
		return nil, false
	}

	key := makeKey(contentHash)
	var raw []byte
	_ = c.readDB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		if v := b.Get(key); v != nil {
			raw = make([]byte, len(v))
			copy(raw, v)
		}
		return nil
	})
	if raw == nil {
		return nil, false
	}

	np, version, sig, ok := decodeEntry(raw)
	if !ok || np != numPermutations || version != algorithmVersion {
		return nil, false
	}

	_ = c.Store(contentHash, numPermutations, algorithmVersion, sig)
	return sig, true
}

// Store writes a signature into the write-side database under
// contentHash, tagged with the parameters that produced it.
func (c *Cache) Store(contentHash string, numPermutations int, algorithmVersion string, signature []uint32) error {
	if !c.enabled || c.writeDB == nil {
		return nil
	}
	entry := encodeEntry(numPermutations, algorithmVersion, signature)
	return c.writeDB.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		return b.Put(makeKey(contentHash), entry)
	})
}
