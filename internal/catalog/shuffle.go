package catalog

import "math/rand"

// ShuffleQuestions returns a shuffled copy of qs in which each question's
// choices are shuffled too. The input is not modified.
func ShuffleQuestions(rng *rand.Rand, qs []Question) []Question {
	out := make([]Question, len(qs))
	copy(out, qs)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	for i := range out {
		choices := append([]string(nil), out[i].Choices...)
		rng.Shuffle(len(choices), func(a, b int) { choices[a], choices[b] = choices[b], choices[a] })
		out[i].Choices = choices
	}
	return out
}
