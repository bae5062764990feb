package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"
)

const DieSides = 6

// Randomizer - единственный источник случайности движка:
// тасование колод и порядка игроков, броски кубика самозванца
type Randomizer interface {
	Shuffle(n int, swap func(i, j int))
	// RollDie возвращает значение 1..DieSides
	RollDie() int
}

type seededRandom struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom создает детерминированный источник из seed
func NewRandom(seed int64) Randomizer {
	return &seededRandom{rng: rand.New(rand.NewSource(seed))}
}

// NewSecureRandom засевает источник криптографически случайным seed
func NewSecureRandom() Randomizer {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		// crypto/rand на поддерживаемых платформах не возвращает ошибок
		panic("game: read random seed: " + err.Error())
	}
	return NewRandom(int64(binary.LittleEndian.Uint64(b[:])))
}

func (r *seededRandom) Shuffle(n int, swap func(i, j int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rng.Shuffle(n, swap)
}

func (r *seededRandom) RollDie() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(DieSides) + 1
}
