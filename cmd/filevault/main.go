// Command filevault is a small CLI over the filevault library: store, fetch,
// hash and compare files through a configured storage backend.
//
// Usage:
//
//	filevault [-config path] put <local-file> <dir>
//	filevault [-config path] get <dir/name> <local-file>
//	filevault [-config path] hash <dir/name>
//	filevault [-config path] compare <dir/name> <dir/name>
//
// The backend comes from the configuration file (FILEVAULT_* environment
// variables override it); without one the in-memory backend is used, which
// only makes sense for smoke testing.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/marmos91/filevault/internal/logger"
	"github.com/marmos91/filevault/pkg/config"
	"github.com/marmos91/filevault/pkg/file"
	"github.com/marmos91/filevault/pkg/storage"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: "+config.GetDefaultConfigPath()+")")
	overwrite := flag.Bool("overwrite", false, "allow put to overwrite an existing target")
	rename := flag.Bool("rename", false, "allow put to rename on collision instead of failing")
	hashes := flag.Bool("hashes", false, "persist digest artifacts next to stored files")
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "filevault: %v\n", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.Logging.Level)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	backend, err := config.NewFileSystem(ctx, &cfg.Storage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "filevault: %v\n", err)
		os.Exit(1)
	}

	opts := file.SaveOptions{
		Overwrite:   *overwrite,
		AllowRename: *rename,
		SaveHashes:  *hashes,
	}

	if err := run(ctx, backend, opts, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "filevault: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, backend storage.FileSystem, opts file.SaveOptions, args []string) error {
	switch args[0] {
	case "put":
		if len(args) != 3 {
			return fmt.Errorf("usage: put <local-file> <dir>")
		}
		return put(ctx, backend, opts, args[1], args[2])
	case "get":
		if len(args) != 3 {
			return fmt.Errorf("usage: get <dir/name> <local-file>")
		}
		return get(ctx, backend, args[1], args[2])
	case "hash":
		if len(args) != 2 {
			return fmt.Errorf("usage: hash <dir/name>")
		}
		return hash(ctx, backend, args[1])
	case "compare":
		if len(args) != 3 {
			return fmt.Errorf("usage: compare <dir/name> <dir/name>")
		}
		return compare(ctx, backend, args[1], args[2])
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// put stores a local file under dir on the backend.
func put(ctx context.Context, backend storage.FileSystem, opts file.SaveOptions, localPath, dir string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}

	f, err := file.NewFromContent(ctx, data,
		file.WithFilename(storage.Base(localPath)),
		file.WithSaveTo(dir),
		file.WithStorage(backend),
	)
	if err != nil {
		return err
	}

	report, err := f.Save(ctx, opts)
	if err != nil {
		return err
	}

	fmt.Printf("stored %s (%d bytes", report.Path, f.Length)
	if f.MimeType != "" {
		fmt.Printf(", %s", f.MimeType)
	}
	fmt.Println(")")
	if report.Renamed {
		fmt.Printf("renamed to %s to avoid a collision\n", f.CompleteFilename())
	}
	for _, warning := range report.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}
	return nil
}

// get copies a stored file to a local path.
func get(ctx context.Context, backend storage.FileSystem, path, localPath string) error {
	f, err := file.NewFromPath(ctx, path, file.WithStorage(backend))
	if err != nil {
		return err
	}
	if !f.HasContent() {
		return fmt.Errorf("%s does not exist", path)
	}

	data, err := f.ContentBytes(ctx)
	if err != nil {
		return err
	}

	if err := os.WriteFile(localPath, data, 0644); err != nil {
		return err
	}
	fmt.Printf("fetched %s (%d bytes)\n", localPath, len(data))
	return nil
}

// hash prints the default digest set of a stored file.
func hash(ctx context.Context, backend storage.FileSystem, path string) error {
	f, err := file.NewFromPath(ctx, path, file.WithStorage(backend))
	if err != nil {
		return err
	}
	if !f.HasContent() {
		return fmt.Errorf("%s does not exist", path)
	}

	if err := f.GenerateHashes(ctx, false); err != nil {
		return err
	}

	for _, algorithm := range f.Hashes.Algorithms() {
		digest := f.Hashes[algorithm]
		marker := ""
		if digest.Adopted {
			marker = " (adopted)"
		}
		fmt.Printf("%s  %s%s\n", digest.Hex, algorithm, marker)
	}
	return nil
}

// compare reports whether two stored files hold the same content.
func compare(ctx context.Context, backend storage.FileSystem, pathA, pathB string) error {
	a, err := file.NewFromPath(ctx, pathA, file.WithStorage(backend))
	if err != nil {
		return err
	}
	b, err := file.NewFromPath(ctx, pathB, file.WithStorage(backend))
	if err != nil {
		return err
	}

	equal, err := a.CompareTo(ctx, b)
	if err != nil {
		return err
	}

	if equal {
		fmt.Println("equal")
		return nil
	}
	fmt.Println("different")
	return nil
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: filevault [-config path] [-overwrite] [-rename] [-hashes] <command>

commands:
  put <local-file> <dir>     store a local file under dir
  get <dir/name> <local>     fetch a stored file to a local path
  hash <dir/name>            print digests of a stored file
  compare <a> <b>            compare two stored files by content`)
}
