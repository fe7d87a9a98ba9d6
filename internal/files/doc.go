// Package files provides scratch workspaces and batch file processing.
//
// This package contains three main components:
//
// Workspace: a temp_<uuid> directory private to one request or batch. The
// caller defers Remove so the directory goes away on every exit path.
//
// ProcessZip: extracts the CSV entries of an uploaded archive into a
// workspace, deduplicates them in parallel and packs the results into a new
// archive. Files without data rows are skipped; an archive without any
// usable CSV fails with ErrNoUsableCSV.
//
// Discovery: finds CSV inputs on disk for the command line tools.
//
// Example usage:
//
//	counts, err := files.ProcessZip(ctx, afero.NewOsFs(), "upload.zip", "out.zip", files.ZipOptions{
//	    TempDir: os.TempDir(),
//	    Workers: 4,
//	})
package files
