package main

import (
	"fmt"
	"os"

	"github.com/asset-toolbox/assay/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
	}
}
