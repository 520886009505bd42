// emberdb-bench - benchmark tool for an embedded emberdb database
//
// Usage:
//
//	emberdb-bench [flags]
//
// Flags:
//
//	--dir string          Database directory (default: a temp directory)
//	--requests int        Number of operations per test (default 100000)
//	--value-size int      Value size in bytes (default 128)
//	--batch int           Operations per write batch (default 100)
//	--sync                Fsync after every write
//	--test string         Test type: put,get,batch,all (default "all")
package main

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/emberdb/emberdb"
)

func main() {
	dir := pflag.String("dir", "", "Database directory (default: a temp directory)")
	requests := pflag.Int("requests", 100000, "Number of operations per test")
	valueSize := pflag.Int("value-size", 128, "Value size in bytes")
	batchSize := pflag.Int("batch", 100, "Operations per write batch")
	syncWrites := pflag.Bool("sync", false, "Fsync after every write")
	testType := pflag.String("test", "all", "Test type: put,get,batch,all")
	pflag.Parse()

	if *dir == "" {
		*dir = filepath.Join(os.TempDir(), fmt.Sprintf("emberdb-bench-%d", time.Now().UnixNano()))
		defer os.RemoveAll(*dir)
	}

	options := emberdb.DefaultOptions()
	options.DirPath = *dir
	options.SyncWrites = *syncWrites
	options.Logger = zap.NewNop()

	engine, err := emberdb.Open(options)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	fmt.Println("====== emberdb benchmark ======")
	fmt.Printf("Dir: %s\n", *dir)
	fmt.Printf("Requests: %d\n", *requests)
	fmt.Printf("Value size: %d\n", *valueSize)
	fmt.Printf("Sync writes: %v\n", *syncWrites)
	fmt.Println()

	value := make([]byte, *valueSize)
	rand.Read(value)

	if *testType == "put" || *testType == "all" {
		runTest("put", *requests, func() error {
			for i := 0; i < *requests; i++ {
				if err := engine.Put(benchKey(i), value); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if *testType == "get" || *testType == "all" {
		// Make sure every key exists before timing reads.
		for i := 0; i < *requests; i++ {
			if err := engine.Put(benchKey(i), value); err != nil {
				fmt.Fprintf(os.Stderr, "preload failed: %v\n", err)
				os.Exit(1)
			}
		}
		runTest("get", *requests, func() error {
			for i := 0; i < *requests; i++ {
				if _, err := engine.Get(benchKey(i)); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if *testType == "batch" || *testType == "all" {
		runTest("batch", *requests, func() error {
			wb := engine.NewWriteBatch(emberdb.WriteBatchOptions{
				MaxBatchNum: uint(*batchSize),
				SyncWrites:  *syncWrites,
			})
			for i := 0; i < *requests; i++ {
				if err := wb.Put(benchKey(i), value); err != nil {
					return err
				}
				if (i+1)%*batchSize == 0 {
					if err := wb.Commit(); err != nil {
						return err
					}
				}
			}
			return wb.Commit()
		})
	}

	stat := engine.Stat()
	fmt.Printf("\nkeys: %d, segments: %d, disk: %d bytes\n",
		stat.KeyNum, stat.DataFileNum, stat.DiskSize)
}

func benchKey(i int) []byte {
	return []byte(fmt.Sprintf("bench-key-%09d", i))
}

func runTest(name string, requests int, fn func() error) {
	start := time.Now()
	if err := fn(); err != nil {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", name, err)
		os.Exit(1)
	}
	elapsed := time.Since(start)
	fmt.Printf("%-6s %10d ops in %8.2fs  %12.0f ops/sec\n",
		name, requests, elapsed.Seconds(), float64(requests)/elapsed.Seconds())
}
