//go:build ignore

package main

import (
	"fmt"
	"os"

	"github.com/nokia/red-debugger/pkg/breakpoints"
	"github.com/nokia/red-debugger/pkg/model"
)

func main() {
	if err := os.MkdirAll("schemas", 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir: %v\n", err)
		os.Exit(1)
	}
	for name, gen := range map[string]func() ([]byte, error){
		"schemas/model-v1.json":       model.GenerateJSONSchema,
		"schemas/breakpoints-v1.json": breakpoints.GenerateJSONSchema,
	} {
		data, err := gen()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error generating %s: %v\n", name, err)
			os.Exit(1)
		}
		if err := os.WriteFile(name, data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("wrote", name)
	}
}
