// Package tilestore is the durable home for tile bytes: an embedded
// key-value metadata database tracking each tile's lifecycle state, plus
// content files on disk, with an HTTP fallback for layers the engine can
// download instead of generating locally.
package tilestore

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/fintelia/terra/internal/layer"
	"github.com/fintelia/terra/internal/mmapfile"
	"github.com/fintelia/terra/internal/vnode"
)

const currentSchemaVersion = 2

var (
	metaBucket     = []byte("meta")
	tilesBucket    = []byte("tiles")
	texturesBucket = []byte("textures")
	versionKey     = []byte("version")
)

// Store is the durable tile and texture repository. It owns an embedded
// bbolt database for metadata and a directory tree of tile files named by
// (layer, node) and texture files named by texture name.
type Store struct {
	db            *bbolt.DB
	layers        map[layer.Type]layer.Params
	rootDir       string
	tilesDir      string
	remoteBaseURL string
	httpClient    *http.Client
	writeLocks    *keyLocks
}

// Open opens (creating if necessary) a Store rooted at rootDir. layers
// describes the parameters of every layer this store will be asked about.
// remoteBaseURL, if non-empty, is the base URL tiles of downloadable
// layers (layer.Type.Downloadable) are fetched from on a local miss.
func Open(rootDir string, layers map[layer.Type]layer.Params, remoteBaseURL string) (*Store, error) {
	tilesDir := filepath.Join(rootDir, "tiles")
	if err := os.MkdirAll(tilesDir, 0o755); err != nil {
		return nil, fmt.Errorf("tilestore: creating tiles directory: %w", err)
	}

	dbPath := filepath.Join(rootDir, "tiles", "meta")
	db, err := bbolt.Open(dbPath, 0o644, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("tilestore: opening metadata database (deleting %q may fix this): %w", dbPath, err)
	}

	if err := migrateSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:            db,
		layers:        layers,
		rootDir:       rootDir,
		tilesDir:      tilesDir,
		remoteBaseURL: remoteBaseURL,
		httpClient:    &http.Client{Timeout: 60 * time.Second},
		writeLocks:    newKeyLocks(),
	}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Layers returns the parameter set this store was opened with.
func (s *Store) Layers() map[layer.Type]layer.Params { return s.layers }

func migrateSchema(db *bbolt.DB) error {
	return db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(metaBucket)
		if err != nil {
			return err
		}

		stored := meta.Get(versionKey)
		version := currentSchemaVersion
		if stored != nil {
			version = int(binary.BigEndian.Uint32(stored))
		}

		if version < currentSchemaVersion {
			tx.DeleteBucket(tilesBucket)
			tx.DeleteBucket(texturesBucket)
		}

		if _, err := tx.CreateBucketIfNotExists(tilesBucket); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(texturesBucket); err != nil {
			return err
		}

		versionBuf := make([]byte, 4)
		binary.BigEndian.PutUint32(versionBuf, uint32(currentSchemaVersion))
		return meta.Put(versionKey, versionBuf)
	})
}

// tileKey is the bbolt key for a (layer, node) pair: one byte of layer type
// followed by the node's packed 8-byte address, which also makes
// GetMissingBase's prefix scan (one layer at a time) a contiguous range.
func tileKey(layerType layer.Type, node vnode.VNode) []byte {
	key := make([]byte, 9)
	key[0] = byte(layerType)
	binary.BigEndian.PutUint64(key[1:], uint64(node))
	return key
}

func nodeFromTileKey(key []byte) vnode.VNode {
	return vnode.VNode(binary.BigEndian.Uint64(key[1:]))
}

type tileMeta struct {
	crc32 uint32
	state State
}

func encodeTileMeta(m tileMeta) []byte {
	buf := make([]byte, 5)
	binary.BigEndian.PutUint32(buf, m.crc32)
	buf[4] = byte(m.state)
	return buf
}

func decodeTileMeta(buf []byte) tileMeta {
	return tileMeta{crc32: binary.BigEndian.Uint32(buf), state: State(buf[4])}
}

// TileState returns the current lifecycle state of a tile. A tile this
// store has never recorded metadata for reports GpuOnly, matching the
// original engine's convention that unseen tiles are assumed to live only
// on the GPU.
func (s *Store) TileState(layerType layer.Type, node vnode.VNode) (State, error) {
	var state State = GpuOnly
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(tilesBucket).Get(tileKey(layerType, node))
		if v != nil {
			state = decodeTileMeta(v).state
		}
		return nil
	})
	return state, err
}

func (s *Store) updateTileMeta(layerType layer.Type, node vnode.VNode, m tileMeta) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(tilesBucket).Put(tileKey(layerType, node), encodeTileMeta(m))
	})
}

func (s *Store) removeTileMeta(layerType layer.Type, node vnode.VNode) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(tilesBucket).Delete(tileKey(layerType, node))
	})
}

// ReadTile returns a tile's encoded bytes, reading the local file if
// present. If the tile is missing locally and its layer is downloadable,
// ReadTile fetches it from the remote tile source and writes it through
// to local storage (marked Base) before returning it.
func (s *Store) ReadTile(ctx context.Context, layerType layer.Type, node vnode.VNode) ([]byte, error) {
	path := s.tilePath(layerType, node)
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("tilestore: stat %q: %w", path, err)
		}
		if layerType.Downloadable() && s.remoteBaseURL != "" {
			return s.fetchRemote(ctx, layerType, node)
		}
		return nil, fmt.Errorf("tilestore: tile missing: %q", path)
	}
	return mmapfile.ReadFile(path)
}

func (s *Store) fetchRemote(ctx context.Context, layerType layer.Type, node vnode.VNode) ([]byte, error) {
	url := s.tileURL(layerType, node)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("tilestore: building request for %q: %w", url, err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tilestore: fetching %q: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("tilestore: fetching %q: status %s", url, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tilestore: reading response body for %q: %w", url, err)
	}

	if err := s.WriteTile(layerType, node, data, true); err != nil {
		return nil, err
	}
	return data, nil
}

// WriteTile persists a tile's bytes to disk and records its new state
// (Base if it came from a source/download, Generated if this engine
// derived it). Concurrent writes to the same (layer, node) pair are
// serialized against each other.
func (s *Store) WriteTile(layerType layer.Type, node vnode.VNode, data []byte, base bool) error {
	unlock := s.writeLocks.Lock(fmt.Sprintf("%d:%d", layerType, uint64(node)))
	defer unlock()

	path := s.tilePath(layerType, node)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("tilestore: creating tile directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("tilestore: writing tile %q: %w", path, err)
	}

	state := Generated
	if base {
		state = Base
	}
	return s.updateTileMeta(layerType, node, tileMeta{crc32: 0, state: state})
}

// ReloadTileState re-derives a tile's state from whether its file actually
// exists on disk, writing the new state if it differs from what's
// recorded. base selects between the Base/MissingBase pair and the
// Generated/Missing pair.
func (s *Store) ReloadTileState(layerType layer.Type, node vnode.VNode, base bool) (State, error) {
	_, statErr := os.Stat(s.tilePath(layerType, node))
	exists := statErr == nil

	var target State
	switch {
	case base && exists:
		target = Base
	case base:
		target = MissingBase
	case exists:
		target = Generated
	default:
		target = Missing
	}

	current, err := s.TileState(layerType, node)
	if err == nil && current == target {
		return current, nil
	}

	if err := s.updateTileMeta(layerType, node, tileMeta{crc32: 0, state: target}); err != nil {
		return 0, err
	}
	return target, nil
}

// ClearGenerated drops the metadata entries for every tile of layerType
// currently in the Generated state; TileState then reports them with its
// GpuOnly default, as for any tile the store has no record of.
func (s *Store) ClearGenerated(layerType layer.Type) error {
	var toRemove []vnode.VNode
	if err := s.scanTileMeta(layerType, func(node vnode.VNode, m tileMeta) {
		if m.state == Generated {
			toRemove = append(toRemove, node)
		}
	}); err != nil {
		return err
	}
	for _, node := range toRemove {
		if err := s.removeTileMeta(layerType, node); err != nil {
			return err
		}
	}
	return nil
}

// GetMissingBase returns every node of layerType currently in the
// MissingBase state: tiles whose base input data needs generating or
// downloading before anything downstream can proceed.
func (s *Store) GetMissingBase(layerType layer.Type) ([]vnode.VNode, error) {
	var missing []vnode.VNode
	err := s.scanTileMeta(layerType, func(node vnode.VNode, m tileMeta) {
		if m.state == MissingBase {
			missing = append(missing, node)
		}
	})
	return missing, err
}

// Stats returns the number of recorded tiles of layerType in each lifecycle
// state. States with no recorded tiles are omitted.
func (s *Store) Stats(layerType layer.Type) (map[State]int, error) {
	counts := make(map[State]int)
	err := s.scanTileMeta(layerType, func(_ vnode.VNode, m tileMeta) {
		counts[m.state]++
	})
	return counts, err
}

func (s *Store) scanTileMeta(layerType layer.Type, f func(vnode.VNode, tileMeta)) error {
	prefix := []byte{byte(layerType)}
	return s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(tilesBucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			f(nodeFromTileKey(k), decodeTileMeta(v))
		}
		return nil
	})
}
