package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/trezcool/niva/core/memory"
)

func (cli *commandLine) memory(ctx context.Context, args []string) error {
	sub, args, err := cli.subcommand("memory", args, "add", "delete", "content", "summary")
	if err != nil {
		return err
	}

	fs := cli.newFlagSet("memory " + sub)
	courseID := fs.String("course", "", "The course whose agent owns the memory.")
	switch sub {
	case "add":
		var nm memory.NewMemory
		fs.StringVar(&nm.Type, "type", "", "document or website.")
		fs.StringVar(&nm.Name, "name", "", "A name for the memory.")
		fs.StringVar(&nm.URL, "url", "", "The website url (website type).")
		path := fs.String("file", "", "The file to upload (document type).")
		if err := parseFlags(fs, args); err != nil {
			return err
		}
		if err := requireFlags(fs, "course"); err != nil {
			return err
		}
		if _, err := cli.requireAdmin(ctx); err != nil {
			return err
		}
		if *path != "" {
			f, err := os.Open(*path)
			if err != nil {
				return err
			}
			defer f.Close()
			nm.File, nm.FileName = f, filepath.Base(*path)
		}
		res, err := cli.memorySvc.Add(ctx, *courseID, nm)
		if err != nil {
			return err
		}
		cli.println(res.Message)
		cli.println("Memory:", res.MemoryID)
		if res.FilePath != "" {
			cli.println("Stored at:", res.FilePath)
		}

	case "delete":
		id := fs.String("id", "", "The memory id.")
		if err := parseFlags(fs, args); err != nil {
			return err
		}
		if err := requireFlags(fs, "course", "id"); err != nil {
			return err
		}
		if _, err := cli.requireAdmin(ctx); err != nil {
			return err
		}
		if err := cli.memorySvc.Delete(ctx, *courseID, *id); err != nil {
			return err
		}
		cli.println("Memory deleted.")

	case "content":
		id := fs.String("id", "", "The memory id.")
		limit := fs.Int("limit", 0, "The number of chunks to show.")
		offset := fs.Int("offset", 0, "The number of chunks to skip.")
		if err := parseFlags(fs, args); err != nil {
			return err
		}
		if err := requireFlags(fs, "course", "id"); err != nil {
			return err
		}
		c, err := cli.memorySvc.Content(ctx, *courseID, *id, memory.Page{Limit: *limit, Offset: *offset})
		if err != nil {
			return err
		}
		cli.printf("%d chunk(s)\n", c.Count)
		for _, chunk := range c.Chunks {
			cli.printf("\n#%d\n%s\n", chunk.ChunkIndex, chunk.Content)
		}

	case "summary":
		id := fs.String("id", "", "The memory id.")
		if err := parseFlags(fs, args); err != nil {
			return err
		}
		if err := requireFlags(fs, "course", "id"); err != nil {
			return err
		}
		m, err := cli.memorySvc.Summary(ctx, *courseID, *id)
		if err != nil {
			return err
		}
		w := cli.table()
		_, _ = fmt.Fprintf(w, "ID\t%s\n", m.ID)
		_, _ = fmt.Fprintf(w, "Name\t%s\n", m.Name)
		_, _ = fmt.Fprintf(w, "Type\t%s\n", m.Type)
		if m.URL != "" {
			_, _ = fmt.Fprintf(w, "URL\t%s\n", m.URL)
		}
		_, _ = fmt.Fprintf(w, "Course\t%s\n", m.CourseName)
		_, _ = fmt.Fprintf(w, "Chunks\t%d\n", m.ChunkCount)
		_, _ = fmt.Fprintf(w, "Length\t%d\n", m.TotalContentLength)
		_, _ = fmt.Fprintf(w, "Preview\t%s\n", m.Preview)
		return w.Flush()
	}
	return nil
}
