// access_histogram inserts a key sequence and writes a histogram of node
// re-access distances, a proxy for how cache friendly the access pattern is.
// A bucket at distance d counts node visits that happened d visits after the
// previous visit of the same node.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"slices"

	"kvindex"
	"kvindex/utils"
)

func main() {
	flagN := 0
	flagShuffle := false
	flagRandom := false
	flagSize := 4
	flagSeed := int64(0)
	flag.IntVar(&flagN, "n", 1000000, "number of keys in the sequence")
	flag.BoolVar(&flagShuffle, "shuffle", false, "shuffle the sequence of N keys")
	flag.BoolVar(&flagRandom, "r", false, "random integer keys")
	flag.IntVar(&flagSize, "size", 4, "maximum node size of the index")
	flag.Int64Var(&flagSeed, "seed", 0, "seed for random and shuffled sequences")
	flag.Parse()

	ac := accessCounter{
		lastAccess: make(map[any]int),
		hist:       make(map[int]int),
	}
	idx, err := kvindex.NewOrdered[int, int](flagSize)
	if err != nil {
		panic(err)
	}
	idx.Tree().SetAccessCounter(ac.count)

	r := utils.NewRand(flagSeed)
	var keys []int
	summary := "#"
	summary += fmt.Sprint(" n=", flagN)
	if flagRandom {
		summary += " random"
		keys = utils.RandomArray(r, flagN)
	} else {
		summary += " sequence"
		keys = utils.SequenceRange(flagN)
	}
	if flagShuffle {
		summary += " shuffled"
		utils.Shuffle(r, keys)
	}
	for _, k := range keys {
		if err := idx.Put(k, k); err != nil {
			panic(err)
		}
	}
	fmt.Fprintln(os.Stderr, summary)
	ac.writeHistogram(os.Stdout)
}

type accessCounter struct {
	ts         int
	lastAccess map[any]int
	hist       map[int]int
}

func (c *accessCounter) count(n any) {
	c.ts++
	if prevTs, ok := c.lastAccess[n]; ok {
		dt := c.ts - prevTs
		c.hist[dt] = c.hist[dt] + 1
		// a node seen for the first time is a certain miss; it would add one
		// flat count per node, so it stays out of the histogram
	}
	c.lastAccess[n] = c.ts
}

func (c *accessCounter) writeHistogram(w io.Writer) {
	distances := []int{}
	for dt := range c.hist {
		distances = append(distances, dt)
	}
	slices.Sort(distances)
	fmt.Fprintf(w, "dt\tcount\n")
	for _, dt := range distances {
		fmt.Fprintf(w, "%d\t%d\n", dt, c.hist[dt])
	}
}
