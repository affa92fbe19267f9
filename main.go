package main

import (
	"github.com/joho/godotenv"
	"github.com/schemadiff/schemadiff/cmd"
)

func main() {
	// PG* and SCHEMADIFF_* variables may come from a local .env
	_ = godotenv.Load()

	cmd.Execute()
}
