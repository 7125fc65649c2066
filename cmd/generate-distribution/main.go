// generate-distribution builds the commitment root and per-claimant proof
// bundles for one allocation list. The leaf and pair hashing here is the
// same code the online verifier folds with, so a proof emitted by this
// tool verifies against the configured root and vice versa.
//
// Input CSV columns: claimant,assetContract,assetId,amount. Indexes are
// assigned by input order, zero-based.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"airdrop-backend/internal/distribution"
)

func main() {
	inPath := flag.String("in", "", "allocation list CSV (defaults to stdin)")
	outPath := flag.String("out", "", "output JSON file (defaults to stdout)")
	flag.Parse()

	in := os.Stdin
	if *inPath != "" {
		f, err := os.Open(*inPath)
		if err != nil {
			log.Fatalf("open allocation list: %v", err)
		}
		defer f.Close()
		in = f
	}

	inputs, err := distribution.ParseCSV(in)
	if err != nil {
		log.Fatalf("invalid allocation list: %v", err)
	}

	dist, err := distribution.Build(inputs)
	if err != nil {
		log.Fatalf("build distribution: %v", err)
	}

	data, err := json.MarshalIndent(dist.Document(), "", "  ")
	if err != nil {
		log.Fatalf("encode distribution: %v", err)
	}
	data = append(data, '\n')

	if *outPath == "" {
		os.Stdout.Write(data)
	} else {
		if err := os.WriteFile(*outPath, data, 0o644); err != nil {
			log.Fatalf("write %s: %v", *outPath, err)
		}
	}

	fmt.Fprintf(os.Stderr, "root %s over %d allocations\n", dist.Root.Hex(), len(inputs))
}
