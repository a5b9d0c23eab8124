package manager

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"time"

	"llamadesk/pkg/types"
)

// threadCount leaves two processing units free when more than two exist.
func threadCount(numCPU int) int {
	if numCPU > 2 {
		return numCPU - 2
	}
	return numCPU
}

// toEngineParams converts UI parameters into engine parameters.
func toEngineParams(p types.InferenceParameters, threads int) EngineParams {
	return EngineParams{
		Threads:       threads,
		BatchSize:     p.BatchSize,
		TopK:          p.TopK,
		TopP:          p.TopP,
		RepeatPenalty: p.RepeatPenalty,
		Temperature:   p.Temperature,
		RepeatLastN:   p.RepeatLastN,
	}
}

// newRNG returns a generator seeded from the OS entropy source.
func newRNG() *rand.Rand {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(b[:]))))
}
