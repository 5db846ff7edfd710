package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/djeday123/gomt/backend/cpu"
	"github.com/djeday123/gomt/core"
	"github.com/djeday123/gomt/pipeline"
)

func main() {
	model := flag.String("model", "model.json", "checkpoint path")
	flag.Parse()

	pl, err := pipeline.Load(*model, cpu.New())
	if err != nil {
		log.Fatalf("error: %v", err)
	}
	fmt.Printf("Loaded %s | src vocab %d | tgt vocab %d\n", *model, pl.Src.Size(), pl.Tgt.Size())
	fmt.Println("Enter a source sentence per line (Ctrl-D to quit).")

	sc := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !sc.Scan() {
			break
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		out, err := pl.Translate(line)
		var bound *core.UnboundedDecodeError
		switch {
		case errors.As(err, &bound):
			fmt.Printf("%s ... (stopped after %d steps)\n", out, bound.Steps)
		case err != nil:
			fmt.Printf("error: %v\n", err)
		default:
			fmt.Println(out)
		}
	}
}
