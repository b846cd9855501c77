package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/askcampus/askcampus/internal/app"
)

func runIngest(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	classID := fs.Int("class", 0, "class id the material belongs to")
	name := fs.String("name", "", "display name (defaults to the file name)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *classID <= 0 {
		return fmt.Errorf("ingest: -class is required")
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("ingest: exactly one file argument expected")
	}

	path := fs.Arg(0)
	content, err := os.ReadFile(path) // #nosec G304 -- user-supplied CLI path
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	m, err := a.Materials.Create(ctx, int32(*classID), content, *name, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", path, err)
	}

	fmt.Printf("Ingested material %d (%s) into class %d\n", m.ID, m.Name, m.ClassID)
	return nil
}

func runUpdate(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	id := fs.Int("id", 0, "material id")
	name := fs.String("name", "", "new display name (empty keeps the current one)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *id <= 0 {
		return fmt.Errorf("update: -id is required")
	}

	var content []byte
	var fileName string
	if fs.NArg() == 1 {
		path := fs.Arg(0)
		var err error
		content, err = os.ReadFile(path) // #nosec G304 -- user-supplied CLI path
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		fileName = filepath.Base(path)
	} else if fs.NArg() > 1 {
		return fmt.Errorf("update: at most one file argument expected")
	}
	if *name == "" && content == nil {
		return fmt.Errorf("update: nothing to do, pass -name and/or a file")
	}

	m, err := a.Materials.Update(ctx, int32(*id), *name, content, fileName)
	if err != nil {
		return fmt.Errorf("updating material %d: %w", *id, err)
	}

	fmt.Printf("Updated material %d (%s)\n", m.ID, m.Name)
	return nil
}

func runRemove(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("remove", flag.ContinueOnError)
	hard := fs.Bool("hard", false, "physically delete the row instead of flagging it")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() != 1 {
		return fmt.Errorf("remove: exactly one material id expected")
	}
	id, err := strconv.Atoi(fs.Arg(0))
	if err != nil || id <= 0 {
		return fmt.Errorf("remove: invalid material id %q", fs.Arg(0))
	}

	if err := a.Materials.Delete(ctx, int32(id), !*hard); err != nil {
		return fmt.Errorf("removing material %d: %w", id, err)
	}

	fmt.Printf("Removed material %d; the index cleans up within the relay interval\n", id)
	return nil
}
