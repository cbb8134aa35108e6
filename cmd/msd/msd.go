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
	if len(c.SDF) == 0 {
		log.Fatal("No self diffusion function in the configuration file")
	}

	a, err := analysis.Open(c)
	if err != nil {
		log.Fatal(err)
	}

	for _, m := range c.SDF {
		log.Printf("Calculating the mean square displacement of `%s`\n", m.Name)
		err = a.SDF(m)
		if err != nil {
			log.Fatal(err)
		}
	}

	log.Println("Done")
}
