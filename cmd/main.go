package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logrus.WithError(err).Warn("Failed to load .env")
	}

	app := newApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}
