package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"filedepot/internal/client"
	"filedepot/internal/depot"
)

// getenv returns the value of the environment variable named by key or
// fallback if the variable is not present.
func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

const (
	AreaName      = "files"
	FileName      = "example.txt"
	FileContent   = "Hello from the file depot example!\n"
	RenamedFile   = "example-renamed.txt"
	AvatarArea    = "avatars"
	AvatarName    = "me.png"
	AvatarContent = "\x89PNG\r\n\x1a\nnot really a png"
)

// UploadFile uploads content and logs the name the server picked.
func UploadFile(ctx context.Context, c *client.Client, area string, name string, content string) (string, error) {
	stored, err := c.Upload(ctx, area, name, strings.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("failed to upload %q to area %q: %w", name, area, err)
	}

	slog.Info("Uploaded file", "area", area, "requested", name, "stored", stored)
	return stored, nil
}

// ListAreaFiles logs every file of an area.
func ListAreaFiles(ctx context.Context, c *client.Client, area string) error {
	names, err := c.List(ctx, area)
	if err != nil {
		return fmt.Errorf("failed to list area %q: %w", area, err)
	}

	slog.Info("Files in area", "area", area, "count", len(names))
	for _, name := range names {
		slog.Info("File in area", "area", area, "name", name)
	}
	return nil
}

// DownloadFile saves a stored file to downloadPath.
func DownloadFile(ctx context.Context, c *client.Client, area string, name string, downloadPath string) error {
	body, err := c.Fetch(ctx, area, name)
	if err != nil {
		return fmt.Errorf("failed to fetch %q from area %q: %w", name, area, err)
	}
	defer body.Close()

	f, err := os.Create(downloadPath)
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return err
	}

	slog.Info("Downloaded file", "path", downloadPath)
	return nil
}

func Run(ctx context.Context, c *client.Client) error {
	areas, err := c.Areas(ctx)
	if err != nil {
		return fmt.Errorf("failed to list areas: %w", err)
	}
	for _, a := range areas {
		slog.Info("Storage area", "name", a.Name, "description", a.Description)
	}

	// 1. Upload the same file twice; the second copy gets a suffixed name.
	first, err := UploadFile(ctx, c, AreaName, FileName, FileContent)
	if err != nil {
		return err
	}
	second, err := UploadFile(ctx, c, AreaName, FileName, FileContent)
	if err != nil {
		return err
	}

	// 2. List the contents of the area.
	if err := ListAreaFiles(ctx, c, AreaName); err != nil {
		return err
	}

	// 3. Download the first copy.
	downloadPath := filepath.Join(".", "downloaded_"+first)
	if err := DownloadFile(ctx, c, AreaName, first, downloadPath); err != nil {
		return err
	}

	// 4. Rename the second copy.
	renamed, err := c.Rename(ctx, AreaName, second, RenamedFile)
	if err != nil {
		return fmt.Errorf("failed to rename %q: %w", second, err)
	}
	slog.Info("Renamed file", "from", second, "to", renamed)

	// 5. Upload into another area.
	if _, err := UploadFile(ctx, c, AvatarArea, AvatarName, AvatarContent); err != nil {
		return err
	}
	if err := ListAreaFiles(ctx, c, AvatarArea); err != nil {
		return err
	}

	// 6. Delete the renamed copy and show that it is gone.
	if err := c.Delete(ctx, AreaName, renamed); err != nil {
		return fmt.Errorf("failed to delete %q: %w", renamed, err)
	}

	if _, err := c.Fetch(ctx, AreaName, renamed); !errors.Is(err, depot.ErrNotFound) {
		return fmt.Errorf("expected %q to be gone, got %v", renamed, err)
	}
	slog.Info("Deleted file", "area", AreaName, "name", renamed)

	return nil
}

func main() {
	baseURL := getenv("FILEDEPOT_URL", "http://localhost:3000")

	ctx := context.Background()

	if err := Run(ctx, client.New(baseURL, nil)); err != nil {
		slog.Error("error running example", "err", err)
		os.Exit(1)
	}
}
