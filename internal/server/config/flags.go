package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/dmitrijs2005/filekeeper/internal/flagx"
)

const maxPort = 65535

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-p uint     port; overrides the port of -a and keeps its host
//	-d string   data directory
//	-t string   temporary directory for uploads
//	-l string   log level
//	-m int      maximum upload size in bytes, 0 for no limit
//
// Unknown flags are filtered out first with flagx.FilterArgs. Invalid values
// panic, like a malformed JSON file does.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-p", "-d", "-t", "-l", "-m"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	port := fs.Uint("p", 0, "port to run server on")
	fs.StringVar(&config.DataDir, "d", config.DataDir, "data directory")
	fs.StringVar(&config.TmpDir, "t", config.TmpDir, "temporary directory")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level (debug, info, warn, error)")
	fs.Int64Var(&config.MaxUploadSize, "m", config.MaxUploadSize, "maximum upload size in bytes")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	if *port > maxPort {
		panic(fmt.Errorf("port %d out of range", *port))
	}
	if *port != 0 {
		config.EndpointAddr = withPort(config.EndpointAddr, *port)
	}
	if config.MaxUploadSize < 0 {
		panic(fmt.Errorf("negative max upload size %d", config.MaxUploadSize))
	}
}
