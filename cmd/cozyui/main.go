package main

import "github.com/joho/godotenv"

func main() {
	// Env overrides from a local .env, if present.
	_ = godotenv.Load()
	Execute()
}
