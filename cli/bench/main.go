// bench measures single-threaded throughput of the index operations over a
// shuffled key sequence: inserts, point lookups, bounded range scans, and
// deletes. With -v the tree's structural events are logged to stderr.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/go-logr/stdr"
	"github.com/tidwall/lotsa"

	"kvindex"
	"kvindex/utils"
)

func main() {
	flagN := 0
	flagSize := 4
	flagSeed := int64(0)
	flagVerbose := false
	flag.IntVar(&flagN, "n", 1000000, "number of keys")
	flag.IntVar(&flagSize, "size", 32, "maximum node size of the index")
	flag.Int64Var(&flagSeed, "seed", 0, "shuffle seed")
	flag.BoolVar(&flagVerbose, "v", false, "log structural events to stderr")
	flag.Parse()

	idx, err := kvindex.NewOrdered[int, int](flagSize)
	if err != nil {
		panic(err)
	}
	if flagVerbose {
		stdr.SetVerbosity(1)
		idx.Tree().SetLogger(stdr.New(log.New(os.Stderr, "", log.LstdFlags)))
	}

	r := utils.NewRand(flagSeed)
	keys := utils.SequenceRange(flagN)
	utils.Shuffle(r, keys)

	fmt.Printf("keys=%s size=%d\n", humanize.Comma(int64(flagN)), flagSize)
	lotsa.Output = os.Stdout

	fmt.Print("put:    ")
	lotsa.Ops(flagN, 1, func(i, _ int) {
		if err := idx.Put(keys[i], keys[i]); err != nil {
			panic(err)
		}
	})

	fmt.Print("get:    ")
	lotsa.Ops(flagN, 1, func(i, _ int) {
		if _, ok := idx.Get(keys[i]); !ok {
			panic("missing key")
		}
	})

	fmt.Print("range:  ")
	scans := flagN / 100
	if scans == 0 {
		scans = 1
	}
	lotsa.Ops(scans, 1, func(i, _ int) {
		start := keys[i]
		end := start + 100
		idx.Keys(&start, &end, 0, -1)
	})

	fmt.Print("delete: ")
	lotsa.Ops(flagN, 1, func(i, _ int) {
		if _, _, err := idx.Delete(keys[i]); err != nil {
			panic(err)
		}
	})

	fmt.Printf("left=%s\n", humanize.Comma(int64(idx.Len())))
}
