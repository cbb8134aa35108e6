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
	if len(c.VAC) == 0 {
		log.Fatal("No velocity autocorrelation function in the configuration file")
	}

	a, err := analysis.Open(c)
	if err != nil {
		log.Fatal(err)
	}

	for _, m := range c.VAC {
		log.Printf("Calculating the velocity autocorrelation function of `%s`\n", m.Name)
		err = a.VAC(m)
		if err != nil {
			log.Fatal(err)
		}
	}

	log.Println("Done")
}
