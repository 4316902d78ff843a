/*
 *  main.go
 *  cmd
 *
 *  Created by Xianjie Huang on 05/12/20
 *  Copyright © 2020 Xianjie Huang. All rights reserved.
 */

package main

import (
	"log"

	"github.com/op/go-logging"
	"github.com/single-cell-genetics/cellsnp"
)

// main is the entrypoint for the entire program, routes to commands
func main() {
	logging.SetBackend(cellsnp.BackendFormatter)
	err := cellsnp.Execute()
	if err != nil {
		log.Fatal(err)
	}
}
