package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/askcampus/askcampus/internal/app"
)

func runMaterials(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("materials", flag.ContinueOnError)
	classID := fs.Int("class", 0, "class id to list")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *classID <= 0 {
		return fmt.Errorf("materials: -class is required")
	}

	materials, err := a.Materials.ListByClass(ctx, int32(*classID))
	if err != nil {
		return fmt.Errorf("listing materials of class %d: %w", *classID, err)
	}

	if len(materials) == 0 {
		fmt.Printf("Class %d has no materials\n", *classID)
		return nil
	}
	for _, m := range materials {
		fmt.Printf("%6d  %s\n", m.ID, m.Name)
	}
	return nil
}

func runClasses(ctx context.Context, a *app.App, args []string) error {
	if len(args) > 0 && args[0] == "create" {
		fs := flag.NewFlagSet("classes create", flag.ContinueOnError)
		name := fs.String("name", "", "class name")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *name == "" {
			return fmt.Errorf("classes create: -name is required")
		}

		c, err := a.Store.CreateClass(ctx, *name)
		if err != nil {
			return fmt.Errorf("creating class: %w", err)
		}
		fmt.Printf("Created class %d (%s)\n", c.ID, c.Name)
		return nil
	}

	classes, err := a.Store.ListClasses(ctx)
	if err != nil {
		return fmt.Errorf("listing classes: %w", err)
	}
	if len(classes) == 0 {
		fmt.Println("No classes yet; create one with: askcampus classes create -name <name>")
		return nil
	}
	for _, c := range classes {
		fmt.Printf("%6d  %s\n", c.ID, c.Name)
	}
	return nil
}
