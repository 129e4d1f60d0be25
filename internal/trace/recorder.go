// Package trace fingerprints a run so two runs can be compared for
// bit-identical trajectories without keeping every frame.
package trace

import (
	"encoding/binary"
	"encoding/hex"
	"hash"
	"math"

	"golang.org/x/crypto/blake2b"

	"github.com/flocksim/flocksim/internal/world"
)

// Recorder folds every tick's airplane state and mission stages into a
// running BLAKE2b-256 hash.
type Recorder struct {
	h     hash.Hash
	buf   [8]byte
	ticks int
}

func NewRecorder() *Recorder {
	h, err := blake2b.New256(nil)
	if err != nil {
		// only fails for an oversized key
		panic(err)
	}
	return &Recorder{h: h}
}

func (r *Recorder) u64(v uint64) {
	binary.LittleEndian.PutUint64(r.buf[:], v)
	r.h.Write(r.buf[:])
}

func (r *Recorder) f64(v float64) {
	r.u64(math.Float64bits(v))
}

// Record hashes the current tick of ws.
func (r *Recorder) Record(ws *world.State) {
	r.u64(uint64(ws.Tick()))
	for _, a := range ws.Airplanes() {
		r.u64(uint64(a.ID))
		r.f64(a.Position[0])
		r.f64(a.Position[1])
		r.f64(a.Direction[0])
		r.f64(a.Direction[1])
		r.u64(uint64(a.BaseID))
		r.u64(uint64(a.Mission))
	}
	for _, m := range ws.Missions() {
		r.h.Write(m.UUID[:])
		r.u64(uint64(m.Stage()))
		r.u64(uint64(m.Airplane()))
	}
	r.ticks++
}

// Ticks is the number of ticks recorded.
func (r *Recorder) Ticks() int { return r.ticks }

// Sum returns the hex digest of everything recorded so far.
func (r *Recorder) Sum() string {
	return hex.EncodeToString(r.h.Sum(nil))
}
