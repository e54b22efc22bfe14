package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/vidgroundml/vidgroundml/dataset"
	"github.com/vidgroundml/vidgroundml/serve"
	"github.com/vidgroundml/vidgroundml/vidground"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if len(os.Args) < 2 {
		fmt.Println("usage: ./vidground [config.json] [addr]")
		fmt.Println("example: ./vidground configs/anet_srl.json :8080")
		return
	}
	cfg, err := vidground.LoadConfig(os.Args[1])
	if err != nil {
		panic(err)
	}
	addr := ":8080"
	if len(os.Args) >= 3 {
		addr = os.Args[2]
	}

	datasets := make(map[string]*dataset.Dataset)
	for _, split := range []string{vidground.TrainSplit, vidground.ValidSplit} {
		ds, err := dataset.FromConfig(cfg, split, nil)
		if err != nil {
			panic(err)
		}
		datasets[split] = ds
	}

	server := serve.NewServer(datasets)
	log.Printf("starting on %s", addr)
	if err := http.ListenAndServe(addr, server.Router()); err != nil {
		panic(err)
	}
}
