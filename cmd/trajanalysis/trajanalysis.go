package main

import (
	"fmt"
	"log"
	"os"

	"github.com/kpotier/trajanalysis/pkg/analysis"
	"github.com/kpotier/trajanalysis/pkg/cfg"
)

func main() {
	if len(os.Args) != 2 {
		log.Fatal("The path of the configuration file must be specified in the arguments")
	}

	log.Printf("Reading configuration file `%s`\n", os.Args[1])
	c, err := cfg.New(os.Args[1])
	if err != nil {
		log.Fatal(fmt.Errorf("newInput: %w", err))
	}

	a, err := analysis.Run(c)
	if err != nil {
		log.Fatal(err)
	}

	err = a.Print(os.Stdout)
	if err != nil {
		log.Fatal(err)
	}

	for _, s := range a.Skipped() {
		log.Printf("Skipped %s\n", s)
	}
	log.Printf("%d files written\n", len(a.Outputs()))
	log.Println("Done")
}
