// Command graphcore-render is a runnable demonstration of the graphcore
// node graph: it wires a small oscillator/filter/reverb/pattern-sample
// patch and renders it to a WAV file, the way the teacher ships
// runnable examples alongside its plugin library.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "warn", "warning":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}

	exitOnError(rootCommand().Execute())
}
