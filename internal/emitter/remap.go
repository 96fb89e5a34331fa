package emitter

import "math/rand/v2"

// path lists, in order, every physical address the placement visits:
// every Add/Write/Read/Reset node's address, and a While node's own
// address on both entry and exit (since while_loop must return the
// pointer to the predicate cell before the matching `]`, spec.md §4.E.1).
func calculatePath(instructions []placedInstr) []uint16 {
	path := []uint16{0}
	for _, instr := range instructions {
		appendPath(instr, &path)
	}
	return path
}

func appendPath(instr placedInstr, path *[]uint16) {
	switch instr.Kind {
	case placedSeq:
		for _, child := range instr.Body {
			appendPath(child, path)
		}
	case placedWhile:
		*path = append(*path, instr.Address)
		for _, child := range instr.Body {
			appendPath(child, path)
		}
		*path = append(*path, instr.Address)
	default:
		*path = append(*path, instr.Address)
	}
}

// pathScore is the total pointer travel a path implies: the sum of
// |p[i]-p[i-1]| across consecutive visits, plus the initial offset from
// cell 0 (spec.md §4.E.2).
func pathScore(path []uint16) int {
	score := 0
	if len(path) > 0 {
		score += int(path[0])
	}
	for i := 1; i < len(path); i++ {
		score += int(absDiffInt(path[i], path[i-1]))
	}
	return score
}

func absDiffInt(a, b uint16) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

func remapPath(path []uint16, mapping []uint16) []uint16 {
	out := make([]uint16, len(path))
	for i, addr := range path {
		out[i] = mapping[addr]
	}
	return out
}

func mutateMapping(mapping []uint16, maxMutations int, rng *rand.Rand) []uint16 {
	out := make([]uint16, len(mapping))
	copy(out, mapping)

	mutations := 1 + rng.IntN(maxMutations)
	for i := 0; i < mutations; i++ {
		a := rng.IntN(len(out))
		b := rng.IntN(len(out))
		out[a], out[b] = out[b], out[a]
	}
	return out
}

// optimizeMapping searches, for iterations rounds, a permutation of
// physical cell addresses that reduces path's score by randomized local
// search (spec.md §4.E.2): starting from the identity permutation, each
// round mutates the current best with 1-5 random transpositions and
// keeps the mutation only if it scores lower. rng is caller-supplied so
// the search is reproducible given a fixed seed.
func optimizeMapping(path []uint16, iterations int, rng *rand.Rand) []uint16 {
	maxAddr := uint16(0)
	for _, a := range path {
		if a > maxAddr {
			maxAddr = a
		}
	}

	bestMapping := make([]uint16, int(maxAddr)+1)
	for i := range bestMapping {
		bestMapping[i] = uint16(i)
	}
	bestScore := pathScore(path)

	for i := 0; i < iterations; i++ {
		candidate := mutateMapping(bestMapping, 5, rng)
		candidateScore := pathScore(remapPath(path, candidate))
		if candidateScore < bestScore {
			bestScore = candidateScore
			bestMapping = candidate
		}
	}

	return bestMapping
}

func remapInstructions(instructions []placedInstr, mapping []uint16) []placedInstr {
	out := make([]placedInstr, len(instructions))
	for i, instr := range instructions {
		out[i] = remapInstr(instr, mapping)
	}
	return out
}

func remapInstr(instr placedInstr, mapping []uint16) placedInstr {
	remapped := instr
	if instr.Kind != placedSeq {
		remapped.Address = mapping[instr.Address]
	}
	if instr.Body != nil {
		remapped.Body = remapInstructions(instr.Body, mapping)
	}
	return remapped
}
