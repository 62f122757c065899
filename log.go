package parsum

import (
	"io/ioutil"
	"log"
)

var logger *log.Logger

func init() {
	logger = log.New(ioutil.Discard, "", 0)
}

// SetLogger replaces the package logger. By default nothing is logged.
func SetLogger(l *log.Logger) {
	logger = l
}
