package main

import (
	"github.com/joho/godotenv"

	"github.com/Map9876/GitHub-action-torrent/cmd"
)

func main() {
	// a .env in the working directory may set DLVIEW_FEED_ADDRESS
	_ = godotenv.Load()
	cmd.Execute()
}
