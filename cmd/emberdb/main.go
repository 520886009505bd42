// emberdb - interactive shell for an embedded emberdb database
//
// Usage:
//
//	emberdb [flags]
//
// Flags:
//
//	--dir string          Database directory (default "data")
//	--data-file-size int  Segment size limit in bytes (default 256MB)
//	--sync                Fsync after every write
//	--index string        Keydir backend: btree or art (default "btree")
//	--version             Show version and exit
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/emberdb/emberdb"
	"github.com/emberdb/emberdb/internal/version"
)

const historyFile = ".emberdb_history"

func main() {
	dir := pflag.String("dir", "data", "Database directory")
	dataFileSize := pflag.Int64("data-file-size", 256*1024*1024, "Segment size limit in bytes")
	syncWrites := pflag.Bool("sync", false, "Fsync after every write")
	indexType := pflag.String("index", "btree", "Keydir backend: btree or art")
	showVersion := pflag.Bool("version", false, "Show version and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Printf("emberdb v%s (built %s)\n", version.Version, version.BuildTime)
		return
	}

	options := emberdb.DefaultOptions()
	options.DirPath = *dir
	options.DataFileSize = *dataFileSize
	options.SyncWrites = *syncWrites
	// The shell is interactive; keep engine logs out of the prompt.
	options.Logger = zap.NewNop()
	switch *indexType {
	case "btree":
		options.IndexType = emberdb.BTree
	case "art":
		options.IndexType = emberdb.ART
	default:
		fmt.Fprintf(os.Stderr, "unknown index type %q\n", *indexType)
		os.Exit(1)
	}

	engine, err := emberdb.Open(options)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	fmt.Printf("emberdb v%s, database at %s\n", version.Version, *dir)
	fmt.Println(`type "help" for the command list`)

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyPath := filepath.Join(os.TempDir(), historyFile)
	if f, err := os.Open(historyPath); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyPath); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	for {
		input, err := line.Prompt("emberdb> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("bye")
				return
			}
			fmt.Fprintf(os.Stderr, "read error: %v\n", err)
			return
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if done := dispatch(engine, input); done {
			return
		}
	}
}

// dispatch runs one shell command and reports whether the shell should
// exit.
func dispatch(engine *emberdb.Engine, input string) bool {
	fields := strings.Fields(input)
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "put":
		if len(args) != 2 {
			fmt.Println("usage: put <key> <value>")
			return false
		}
		report(engine.Put([]byte(args[0]), []byte(args[1])))
	case "get":
		if len(args) != 1 {
			fmt.Println("usage: get <key>")
			return false
		}
		value, err := engine.Get([]byte(args[0]))
		if err != nil {
			fmt.Println(errorLine(err))
			return false
		}
		fmt.Printf("%q\n", value)
	case "del":
		if len(args) != 1 {
			fmt.Println("usage: del <key>")
			return false
		}
		report(engine.Delete([]byte(args[0])))
	case "keys":
		for _, key := range engine.ListKeys() {
			fmt.Printf("%s\n", key)
		}
	case "scan":
		opts := emberdb.DefaultIteratorOptions()
		for _, arg := range args {
			if arg == "rev" {
				opts.Reverse = true
			} else {
				opts.Prefix = []byte(arg)
			}
		}
		it := engine.Iterator(opts)
		for {
			key, value, err := it.Next()
			if err != nil {
				fmt.Println(errorLine(err))
				return false
			}
			if key == nil {
				break
			}
			fmt.Printf("%s = %q\n", key, value)
		}
	case "stat":
		stat := engine.Stat()
		fmt.Printf("keys: %d\nsegments: %d\ndisk: %d bytes\nreads: %d\nwrites: %d\n",
			stat.KeyNum, stat.DataFileNum, stat.DiskSize, stat.TotalReads, stat.TotalWrites)
	case "backup":
		if len(args) != 1 {
			fmt.Println("usage: backup <dir>")
			return false
		}
		report(engine.Backup(args[0]))
	case "sync":
		report(engine.Sync())
	case "help":
		fmt.Println(`commands:
  put <key> <value>    store a value
  get <key>            read a value
  del <key>            delete a key
  keys                 list all keys
  scan [prefix] [rev]  iterate key-value pairs
  stat                 engine statistics
  backup <dir>         copy segments to another directory
  sync                 fsync the active segment
  exit                 quit`)
	case "exit", "quit":
		fmt.Println("bye")
		return true
	default:
		fmt.Printf("unknown command %q, try \"help\"\n", cmd)
	}
	return false
}

func report(err error) {
	if err != nil {
		fmt.Println(errorLine(err))
		return
	}
	fmt.Println("ok")
}

func errorLine(err error) string {
	if errors.Is(err, emberdb.ErrKeyNotFound) {
		return "(not found)"
	}
	return fmt.Sprintf("error: %v", err)
}
