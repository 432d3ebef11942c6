// dvc-matrix expands matrix stage declarations into DVC pipelines and
// reports the state of every expanded stage.
package main

import (
	"os"

	"github.com/dvc-matrix/dvc-matrix/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
