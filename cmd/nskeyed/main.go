// nskeyed - keyed archive inspection tool
//
// Usage:
//
//	nskeyed dump <file>                      Print the object table of an archive
//	nskeyed info <file>                      Print an archive summary
//	nskeyed scan -db <catalog> [opts] <dir>  Catalog all archives under a directory
//	nskeyed find -db <catalog> <class>       List cataloged archives mentioning a class
//	nskeyed ls -db <catalog>                 List all cataloged archives
//
// dump and info work on a single file and need no catalog. scan builds or
// updates a catalog database; find and ls query one.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/andreyvit/nskeyed"
	"github.com/andreyvit/nskeyed/catalog"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch cmd := os.Args[1]; cmd {
	case "dump":
		cmdDump(os.Args[2:])
	case "info":
		cmdInfo(os.Args[2:])
	case "scan":
		cmdScan(os.Args[2:])
	case "find":
		cmdFind(os.Args[2:])
	case "ls":
		cmdLs(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `nskeyed - keyed archive inspection tool

Usage:
  nskeyed dump <file>                      Print the object table of an archive
  nskeyed info <file>                      Print an archive summary
  nskeyed scan -db <catalog> [opts] <dir>  Catalog all archives under a directory
  nskeyed find -db <catalog> <class>       List cataloged archives mentioning a class
  nskeyed ls -db <catalog>                 List all cataloged archives

Options:
  -db path      Catalog database file (scan, find, ls)
  -workers N    Concurrent file inspections during scan
  -ext list     Comma-separated candidate extensions (default .plist,.keyedarchive)
  -v            Verbose logging
`)
}

func cmdDump(args []string) {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	verbose := fs.Bool("v", false, "verbose logging")
	fs.Parse(args)
	applyVerbosity(*verbose)
	if fs.NArg() != 1 {
		fatal("usage: nskeyed dump <file>")
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fatal("%v", err)
	}
	out, err := nskeyed.Dump(data)
	if err != nil {
		fatal("%s: %v", fs.Arg(0), err)
	}
	fmt.Print(out)
}

func cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	verbose := fs.Bool("v", false, "verbose logging")
	fs.Parse(args)
	applyVerbosity(*verbose)
	if fs.NArg() != 1 {
		fatal("usage: nskeyed info <file>")
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fatal("%v", err)
	}
	info, err := nskeyed.Inspect(data)
	if err != nil {
		fatal("%s: %v", fs.Arg(0), err)
	}
	fmt.Printf("archiver:   %s\n", info.Archiver)
	fmt.Printf("version:    %d\n", info.Version)
	fmt.Printf("format:     %s\n", info.Format)
	fmt.Printf("objects:    %d\n", info.Objects)
	fmt.Printf("root class: %s\n", info.RootClass)
	fmt.Printf("classes:    %s\n", strings.Join(info.Classes, ", "))
}

func cmdScan(args []string) {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	dbPath := fs.String("db", "", "catalog database file")
	workers := fs.Int("workers", 0, "concurrent file inspections")
	exts := fs.String("ext", "", "comma-separated candidate extensions")
	verbose := fs.Bool("v", false, "verbose logging")
	fs.Parse(args)
	applyVerbosity(*verbose)
	if fs.NArg() != 1 {
		fatal("usage: nskeyed scan -db <catalog> [opts] <dir>")
	}

	c := openCatalog(*dbPath, catalog.Options{Workers: *workers, Exts: parseExts(*exts)})
	defer c.Close()

	stats, err := c.Scan(fs.Arg(0))
	if err != nil {
		fatal("%v", err)
	}
	fmt.Println(stats)
}

func cmdFind(args []string) {
	fs := flag.NewFlagSet("find", flag.ExitOnError)
	dbPath := fs.String("db", "", "catalog database file")
	verbose := fs.Bool("v", false, "verbose logging")
	fs.Parse(args)
	applyVerbosity(*verbose)
	if fs.NArg() != 1 {
		fatal("usage: nskeyed find -db <catalog> <class>")
	}

	c := openCatalog(*dbPath, catalog.Options{})
	defer c.Close()

	entries, err := c.ByClass(fs.Arg(0))
	if err != nil {
		fatal("%v", err)
	}
	printEntries(entries)
}

func cmdLs(args []string) {
	fs := flag.NewFlagSet("ls", flag.ExitOnError)
	dbPath := fs.String("db", "", "catalog database file")
	verbose := fs.Bool("v", false, "verbose logging")
	fs.Parse(args)
	applyVerbosity(*verbose)
	if fs.NArg() != 0 {
		fatal("usage: nskeyed ls -db <catalog>")
	}

	c := openCatalog(*dbPath, catalog.Options{})
	defer c.Close()

	entries, err := c.Entries()
	if err != nil {
		fatal("%v", err)
	}
	printEntries(entries)
}

func openCatalog(path string, opt catalog.Options) *catalog.Catalog {
	if path == "" {
		fatal("-db is required")
	}
	c, err := catalog.Open(path, opt)
	if err != nil {
		fatal("%v", err)
	}
	return c
}

func printEntries(entries []*catalog.Entry) {
	for _, entry := range entries {
		if entry.Error != "" {
			fmt.Printf("%s\tERROR: %s\n", entry.Path, entry.Error)
			continue
		}
		fmt.Printf("%s\t%s\t%d objects\n", entry.Path, entry.RootClass, entry.Objects)
	}
}

func parseExts(list string) []string {
	if list == "" {
		return nil
	}
	var exts []string
	for _, ext := range strings.Split(list, ",") {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, strings.ToLower(ext))
	}
	return exts
}

func applyVerbosity(verbose bool) {
	if verbose {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "nskeyed: "+format+"\n", args...)
	os.Exit(1)
}
