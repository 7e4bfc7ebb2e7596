// Package chunk splits large file batches into runner invocations that
// respect the host OS's command-line length limit.
package chunk

import (
	"math/rand"
	"runtime"

	"github.com/hookwave/hookwave/pkg/constants"
)

// platformLimit is a conservative threshold below the real OS argv limit,
// leaving headroom for the environment block and the kernel's own
// accounting. Windows' CreateProcess command line is capped much lower
// than POSIX ARG_MAX, so it gets its own conservative constant.
func platformLimit() int {
	switch runtime.GOOS {
	case constants.WindowsOS:
		return 30000
	case constants.DarwinOS:
		return 250000
	default:
		return 130000
	}
}

// Options configures chunking.
type Options struct {
	// FixedPrefixLen is the estimated byte length of the command's fixed
	// argv prefix (entry point + static args), counted once per chunk.
	FixedPrefixLen int
	// PerArgOverhead is the estimated per-argument bookkeeping overhead
	// (separating space, pointer table entry) added for every file.
	PerArgOverhead int
	// Limit overrides platformLimit() when non-zero, mainly for tests.
	Limit int
	// ShuffleSeed, if non-zero, deterministically shuffles files before
	// packing so that lexicographically clustered paths (which tend to
	// have similar lengths) don't skew chunk sizes unevenly.
	ShuffleSeed int64
}

// Split packs files into chunks, each under the byte budget implied by
// opts, preserving (post-shuffle) input order within each chunk and never
// splitting a single file across chunks.
func Split(files []string, opts Options) [][]string {
	if len(files) == 0 {
		return nil
	}

	limit := opts.Limit
	if limit == 0 {
		limit = platformLimit()
	}

	ordered := files
	if opts.ShuffleSeed != 0 {
		ordered = shuffled(files, opts.ShuffleSeed)
	}

	var chunks [][]string
	var current []string
	size := opts.FixedPrefixLen

	for _, f := range ordered {
		cost := len(f) + opts.PerArgOverhead
		if len(current) > 0 && size+cost > limit {
			chunks = append(chunks, current)
			current = nil
			size = opts.FixedPrefixLen
		}
		current = append(current, f)
		size += cost
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}

// shuffled returns a deterministically-shuffled copy of files, seeded by
// seed so repeated runs with the same inputs produce the same chunking.
func shuffled(files []string, seed int64) []string {
	out := make([]string, len(files))
	copy(out, files)
	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
