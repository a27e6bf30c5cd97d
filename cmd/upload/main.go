package main

import (
	"os"

	"github.com/sir_venger/upload_lite/pkg/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.WithError(err).Error("upload failed")
		os.Exit(1)
	}
}
