package store

import (
	"math/rand"
	"sync"
	"time"
)

// Push keys are 20 characters: 8 encoding the millisecond timestamp followed
// by 12 random characters, over an alphabet whose byte order matches its
// logical order. Keys therefore sort lexicographically in creation order,
// which is what keeps key-ordered pagination cursors stable.
const pushAlphabet = "-0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ_abcdefghijklmnopqrstuvwxyz"

var (
	pushMu       sync.Mutex
	lastPushTime int64
	lastRandom   [12]int
)

// NewPushID returns a fresh chronologically sortable key. Keys generated
// within the same millisecond increment the random suffix so they still
// sort in generation order.
func NewPushID() string {
	pushMu.Lock()
	defer pushMu.Unlock()

	now := time.Now().UnixMilli()
	duplicate := now == lastPushTime
	lastPushTime = now

	var buf [20]byte
	ts := now
	for i := 7; i >= 0; i-- {
		buf[i] = pushAlphabet[ts%64]
		ts /= 64
	}

	if duplicate {
		for i := 11; i >= 0; i-- {
			if lastRandom[i] != 63 {
				lastRandom[i]++
				break
			}
			lastRandom[i] = 0
		}
	} else {
		for i := range lastRandom {
			lastRandom[i] = rand.Intn(64)
		}
	}

	for i, v := range lastRandom {
		buf[8+i] = pushAlphabet[v]
	}

	return string(buf[:])
}
