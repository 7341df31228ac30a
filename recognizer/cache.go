package recognizer

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// scoreCache keeps confidence vectors keyed by model and input tensor, in
// memory and optionally on disk. Every entry holds exactly width scores; an
// entry of any other length is treated as a miss.
type scoreCache struct {
	mu      sync.RWMutex
	mem     map[string][]float32
	dir     string
	modelID string
	width   int
}

func newScoreCache(dir, modelID string, width int) (*scoreCache, error) {
	if width <= 0 {
		return nil, fmt.Errorf("score cache width must be positive, got %d", width)
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	return &scoreCache{mem: make(map[string][]float32), dir: dir, modelID: modelID, width: width}, nil
}

// key hashes the model id, the label count and the input tensor.
func (c *scoreCache) key(input []float32) string {
	h := sha1.New()
	_, _ = io.WriteString(h, c.modelID)
	_, _ = io.WriteString(h, "|"+strconv.Itoa(c.width)+"|")
	var buf [4]byte
	for _, v := range input {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
		_, _ = h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *scoreCache) get(key string) ([]float32, bool) {
	c.mu.RLock()
	vec, ok := c.mem[key]
	c.mu.RUnlock()
	if ok && len(vec) == c.width {
		return cloneVector(vec), true
	}
	vec, err := c.load(key)
	if err != nil {
		return nil, false
	}
	c.put(key, vec)
	return cloneVector(vec), true
}

// put ignores vectors of the wrong width.
func (c *scoreCache) put(key string, vec []float32) {
	if len(vec) != c.width {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem[key] = cloneVector(vec)
}

func (c *scoreCache) path(key string) string {
	return filepath.Join(c.dir, key+".bin")
}

func (c *scoreCache) load(key string) ([]float32, error) {
	if c.dir == "" {
		return nil, os.ErrNotExist
	}
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, err
	}
	vec, err := decodeScoreEntry(data, c.width)
	if err != nil {
		return nil, fmt.Errorf("cache entry %s: %w", key, err)
	}
	return vec, nil
}

func (c *scoreCache) save(key string, vec []float32) error {
	if c.dir == "" {
		return nil
	}
	if len(vec) != c.width {
		return fmt.Errorf("cache entry %s: %d scores, want %d", key, len(vec), c.width)
	}
	path := c.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, encodeScoreEntry(vec), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// encodeScoreEntry lays out a uint32 count followed by little-endian float32s.
func encodeScoreEntry(vec []float32) []byte {
	var buf bytes.Buffer
	buf.Grow(4 + len(vec)*float32Size)
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(vec)))
	_ = binary.Write(&buf, binary.LittleEndian, vec)
	return buf.Bytes()
}

func decodeScoreEntry(data []byte, width int) ([]float32, error) {
	r := bytes.NewReader(data)
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if int(n) != width {
		return nil, fmt.Errorf("holds %d scores, want %d", n, width)
	}
	if r.Len() != width*float32Size {
		return nil, fmt.Errorf("payload is %d bytes, want %d", r.Len(), width*float32Size)
	}
	vec := make([]float32, width)
	if err := binary.Read(r, binary.LittleEndian, vec); err != nil {
		return nil, fmt.Errorf("read scores: %w", err)
	}
	return vec, nil
}

func cloneVector(vec []float32) []float32 {
	out := make([]float32, len(vec))
	copy(out, vec)
	return out
}
