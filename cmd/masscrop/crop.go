package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/phambaophuc/masscrop/internal/geometry"
	"github.com/phambaophuc/masscrop/internal/models"
	"github.com/phambaophuc/masscrop/internal/services/batch"
	"github.com/phambaophuc/masscrop/internal/services/events"
	"github.com/phambaophuc/masscrop/internal/services/processor"
	"github.com/phambaophuc/masscrop/internal/services/session"
	"github.com/phambaophuc/masscrop/internal/services/storage"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

var errNothingCropped = errors.New("no image was cropped")

type CropCmd struct {
	Files   []string `arg:"" name:"files" help:"Images to crop" type:"existingfile"`
	X       float64  `help:"Left edge of the region, percent of width" default:"25"`
	Y       float64  `help:"Top edge of the region, percent of height" default:"25"`
	Width   float64  `help:"Region width, percent of image width" default:"50"`
	Height  float64  `help:"Region height, percent of image height; derived from --ratio when set" default:"50"`
	Ratio   string   `help:"Aspect ratio: free, W:H or a decimal" default:"free"`
	Format  string   `help:"Output format" enum:"jpeg,jpg,png,webp" default:"jpeg"`
	Quality float64  `help:"Encoder quality between 0 and 1" default:"0.9"`
	Out     string   `help:"Output directory" type:"path" default:"."`

	stdout io.Writer `kong:"-"`
	stderr io.Writer `kong:"-"`
}

func (cmd *CropCmd) Run(logger *zap.Logger) error {
	if cmd.stdout == nil {
		cmd.stdout = os.Stdout
	}
	if cmd.stderr == nil {
		cmd.stderr = os.Stderr
	}

	settings, err := models.NewSettings(cmd.Format, cmd.Quality, cmd.Ratio)
	if err != nil {
		return err
	}

	region := geometry.CropRegion{X: cmd.X, Y: cmd.Y, Width: cmd.Width, Height: cmd.Height}
	if settings.AspectRatio != nil {
		region = geometry.ClampResize(region, cmd.Width, cmd.Height, settings.AspectRatio)
	}
	if !region.Valid() {
		return fmt.Errorf("%w: %+v", session.ErrInvalidCrop, region)
	}

	uploads, err := readUploads(cmd.Files)
	if err != nil {
		return err
	}

	imageProcessor := processor.NewImageProcessor()
	store := session.NewStore(storage.NewBlobStore(), logger, session.Options{Inspect: imageProcessor.ImageInfo})
	view, err := store.Create(settings)
	if err != nil {
		return err
	}
	defer store.Delete(view.ID)

	items, err := store.AddFiles(view.ID, uploads)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.stdout, headerStyle.Render(fmt.Sprintf("MassCrop %s", Version)))

	runnable := 0
	for _, item := range items {
		if !item.Croppable() {
			fmt.Fprintln(cmd.stdout, errorStyle.Render(fmt.Sprintf("✗ %s: %s", item.Name, item.ErrorDetail)))
			continue
		}
		if _, err := store.SetCrop(view.ID, item.ID, region); err != nil {
			return err
		}
		runnable++
	}

	bar := progressbar.NewOptions(runnable,
		progressbar.OptionSetWriter(cmd.stderr),
		progressbar.OptionSetDescription("Cropping"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	progress := events.NotifierFunc(func(_ context.Context, event models.StatusEvent) error {
		switch event.Status {
		case models.StatusProcessing:
			bar.Describe(event.Name)
		case models.StatusCompleted, models.StatusError:
			return bar.Add(1)
		}
		return nil
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coordinator := batch.NewCoordinator(store, imageProcessor, nil, progress, logger)
	summary, err := coordinator.Run(ctx, view.ID)
	if err != nil {
		return err
	}
	bar.Finish()

	snapshot, err := store.Snapshot(view.ID)
	if err != nil {
		return err
	}
	for _, item := range snapshot {
		if item.Status == models.StatusError && item.Croppable() {
			fmt.Fprintln(cmd.stdout, errorStyle.Render(fmt.Sprintf("✗ %s: %s", item.Name, item.ErrorDetail)))
		}
	}

	artifact, err := coordinator.Artifact(view.ID)
	if err != nil {
		return err
	}
	if artifact == nil {
		return errNothingCropped
	}

	path, err := writeArtifact(cmd.Out, artifact)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.stdout, successStyle.Render(fmt.Sprintf("✓ %d cropped, %d failed in %s", summary.Completed, summary.Failed, summary.Duration.Round(time.Millisecond))))
	fmt.Fprintln(cmd.stdout, infoStyle.Render("→ "+path))
	return nil
}

func readUploads(paths []string) ([]models.Upload, error) {
	uploads := make([]models.Upload, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		uploads = append(uploads, models.Upload{Name: filepath.Base(path), Data: data})
	}
	return uploads, nil
}

func writeArtifact(dir string, artifact *models.Artifact) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, artifact.Filename)
	if err := os.WriteFile(path, artifact.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
