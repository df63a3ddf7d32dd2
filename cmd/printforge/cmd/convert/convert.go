package convert

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"printforge/internal/app"
	"printforge/internal/app/converter"
	"printforge/internal/app/model"
	"printforge/internal/config"
)

var userID string
var imageDir string
var parallel int

func init() {
	Cmd.Flags().StringVarP(&userID, "user", "u", "",
		"User the conversions are billed to, affects the quota counters")
	Cmd.Flags().StringVarP(&imageDir, "imageDir", "d", "",
		"Directory holding the source images, example: ./test/data/images")
	Cmd.Flags().IntVarP(&parallel, "parallel", "p", 2,
		"How many conversions run at the same time")

	Cmd.MarkFlagRequired("user")
	Cmd.MarkFlagRequired("imageDir")
}

var imageExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".webp": true}

// Cmd represents the convert command
var Cmd = &cobra.Command{
	Use:   "convert",
	Short: "Batch convert the images in a directory to 3D models",
	Long: `Batch convert the images in a directory to 3D models.

- Iterates over the image files in the given directory
- Each file goes through the same quota gate and provider fallback chain as the API
- Waits for every conversion to reach a terminal state before exiting`,
	Run: func(cmd *cobra.Command, args []string) {
		keys, err := config.GetAPIKeys()
		if err != nil {
			log.Fatalf("invalid configuration: %v", err)
		}
		if err := config.RequireConversionKeys(keys); err != nil {
			log.Fatal(err)
		}

		application, err := app.InitializeApplication()
		if err != nil {
			log.Fatalf("failed to initialize application: %v", err)
		}
		defer application.Store.Close()

		paths, err := collectImages(imageDir)
		if err != nil {
			log.Fatal(err)
		}
		if len(paths) == 0 {
			fmt.Println("no image files found")
			return
		}

		runBatch(application.Orchestrator, paths)
	},
}

func collectImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return paths, nil
}

func runBatch(orchestrator *converter.Orchestrator, paths []string) {
	progress := mpb.New(
		mpb.WithOutput(os.Stderr),
		mpb.WithRefreshRate(120*time.Millisecond),
	)
	bar := progress.AddBar(int64(len(paths)),
		mpb.PrependDecorators(
			decor.Name("Converting ", decor.WC{W: 11, C: decor.DindentRight}),
			decor.CountersNoUnit("(%d/%d)", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.NewPercentage("%.1f", decor.WCSyncSpace),
		),
	)

	ctx := context.Background()
	var wg sync.WaitGroup
	sem := make(chan bool, parallel)

	for _, imagePath := range paths {
		wg.Add(1)
		go func(imagePath string) {
			defer wg.Done()
			defer bar.Increment()

			sem <- true
			err := convertOne(ctx, orchestrator, imagePath)
			<-sem

			if err != nil {
				log.Printf("Error converting %s: %v", filepath.Base(imagePath), err)
			} else {
				log.Printf("Successfully converted %s", filepath.Base(imagePath))
			}
		}(imagePath)
	}
	wg.Wait()
	progress.Wait()
}

func convertOne(ctx context.Context, orchestrator *converter.Orchestrator, imagePath string) error {
	image, err := os.ReadFile(imagePath)
	if err != nil {
		return err
	}

	rec, err := orchestrator.Start(ctx, &converter.StartRequest{
		UserID:   userID,
		Image:    image,
		FileName: filepath.Base(imagePath),
	})
	if err != nil {
		return err
	}

	// The pipeline is asynchronous; poll until it settles
	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()
	for {
		<-ticker.C
		current, err := orchestrator.Get(ctx, userID, rec.ID)
		if err != nil {
			return err
		}
		switch current.Status {
		case model.ConversionCompleted:
			return nil
		case model.ConversionFailed:
			return fmt.Errorf("conversion failed: %s", current.Error)
		case model.ConversionCancelled:
			return fmt.Errorf("conversion cancelled")
		}
	}
}
