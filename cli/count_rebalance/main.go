// count_rebalance reports how many structural rebalance steps (splits,
// merges, distributions, root transitions) a key sequence causes, for both
// the insert and the delete phase.
package main

import (
	"flag"
	"fmt"

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
	flag.BoolVar(&flagRandom, "random", false, "random integer keys")
	flag.IntVar(&flagSize, "size", 4, "maximum node size of the index")
	flag.Int64Var(&flagSeed, "seed", 0, "seed for random and shuffled sequences")
	flag.Parse()

	r := utils.NewRand(flagSeed)
	var keys []int
	summary := ""
	if flagRandom {
		summary = "random"
		keys = utils.RandomArray(r, flagN)
	} else {
		summary = "sequence"
		keys = utils.SequenceRange(flagN)
	}
	if flagShuffle {
		summary += " shuffled"
		utils.Shuffle(r, keys)
	}

	idx, err := kvindex.NewOrdered[int, int](flagSize)
	if err != nil {
		panic(err)
	}
	rebalances := 0
	idx.Tree().SetRebalanceCounter(func() { rebalances++ })

	for _, k := range keys {
		if err := idx.Put(k, k); err != nil {
			panic(err)
		}
	}
	fmt.Printf("%s n=%d size=%d insert rebalances=%d\n", summary, flagN, flagSize, rebalances)

	rebalances = 0
	for _, k := range keys {
		if _, _, err := idx.Delete(k); err != nil {
			panic(err)
		}
	}
	fmt.Printf("%s n=%d size=%d delete rebalances=%d\n", summary, flagN, flagSize, rebalances)
}
