package services

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/ctfboard/ctfboard/models"
	"github.com/ctfboard/ctfboard/storage"
	"golang.org/x/sync/errgroup"
)

// mirrorConcurrency caps parallel fetch+upload pairs so a large exercise
// does not hammer the contest server.
const mirrorConcurrency = 4

// MirrorService copies open puzzle content from the contest server into
// object storage, so teams keep access to attachments if the upstream goes
// down mid-exercise. Keys follow "<category>/<points>/<filename>".
type MirrorService struct {
	gateway  models.ContentFetcher
	uploader storage.FileUploader
	logger   *slog.Logger
}

func NewMirrorService(gateway models.ContentFetcher, uploader storage.FileUploader, logger *slog.Logger) *MirrorService {
	return &MirrorService{gateway: gateway, uploader: uploader, logger: logger}
}

// MirrorState mirrors every open puzzle in state: the puzzle body plus all
// attachments it lists. Returns the number of objects stored.
func (s *MirrorService) MirrorState(ctx context.Context, state *models.State) (int, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(mirrorConcurrency)

	stored := make(chan int, 64)
	done := make(chan int)
	go func() {
		total := 0
		for n := range stored {
			total += n
		}
		done <- total
	}()

	for _, category := range state.Categories() {
		for _, points := range state.PointsByCategory[category] {
			if points < 1 {
				continue
			}
			category, points := category, points
			g.Go(func() error {
				n, err := s.mirrorPuzzle(ctx, category, points)
				if err != nil {
					return err
				}
				stored <- n
				return nil
			})
		}
	}

	err := g.Wait()
	close(stored)
	total := <-done
	if err != nil {
		return total, err
	}
	s.logger.Info("puzzle content mirrored", slog.Int("objects", total))
	return total, nil
}

func (s *MirrorService) mirrorPuzzle(ctx context.Context, category string, points int) (int, error) {
	stored := 0

	if err := s.mirrorFile(ctx, category, points, "puzzle.json"); err != nil {
		return stored, err
	}
	stored++

	puzzle, err := models.NewPuzzle(s.gateway, nil, category, points)
	if err != nil {
		return stored, err
	}
	if err := puzzle.Populate(ctx); err != nil {
		return stored, fmt.Errorf("populating %s/%d: %w", category, points, err)
	}

	for _, filename := range append(puzzle.Attachments, puzzle.Scripts...) {
		if err := s.mirrorFile(ctx, category, points, filename); err != nil {
			return stored, err
		}
		stored++
	}
	return stored, nil
}

func (s *MirrorService) mirrorFile(ctx context.Context, category string, points int, filename string) error {
	resp, err := s.gateway.GetContent(ctx, category, points, filename)
	if err != nil {
		return fmt.Errorf("fetching %s/%d/%s: %w", category, points, filename, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching %s/%d/%s: upstream returned %s", category, points, filename, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(filename))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := fmt.Sprintf("%s/%d/%s", category, points, filename)
	if _, err := s.uploader.Upload(ctx, key, contentType, resp.Body); err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}
	return nil
}
